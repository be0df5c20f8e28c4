package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/globaltime"
	"github.com/aydinmyilmaz/genai-newsflash/internal/llm"
)

const (
	DefaultFetchTimeout  = 20 * time.Second
	DefaultBodyByteLimit = 4 * 1024 * 1024

	defaultUserAgent = "newsflash-fetcher/1.0 (+https://github.com/aydinmyilmaz/genai-newsflash)"
)

// FetchError wraps any failure that prevented producing article data for a
// url. It is non-fatal to a batch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options controls HTTP behavior for article retrieval.
type Options struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
	HTTPClient    *http.Client
}

// Fetcher retrieves article data for a url, trying readability extraction
// first and an AI-assisted extraction when that fails. A nil llm client
// disables the fallback.
type Fetcher struct {
	opts   Options
	llm    *llm.Client
	logger zerolog.Logger
}

func New(llmClient *llm.Client, opts Options, logger zerolog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.BodyByteLimit <= 0 {
		opts.BodyByteLimit = DefaultBodyByteLimit
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Fetcher{
		opts:   opts,
		llm:    llmClient,
		logger: logger,
	}
}

// Fetch downloads the page and extracts title, content, authors and the
// published date. The result uses canonical lowercase keys so it feeds
// straight into normalization.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (map[string]any, error) {
	page := strings.TrimSpace(pageURL)
	if page == "" {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("url is required")}
	}

	body, err := f.download(ctx, page)
	if err != nil {
		return nil, &FetchError{URL: page, Err: err}
	}

	data, primaryErr := f.extractPrimary(body, page)
	if primaryErr == nil {
		return data, nil
	}
	f.logger.Debug().Err(primaryErr).Str("url", page).Msg("primary extraction failed, trying ai fallback")

	data, fallbackErr := f.extractWithModel(ctx, body, page)
	if fallbackErr != nil {
		return nil, &FetchError{URL: page, Err: fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr)}
	}
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, page string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, page, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	client := f.opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: f.opts.Timeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.BodyByteLimit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (f *Fetcher) extractPrimary(body []byte, page string) (map[string]any, error) {
	parsedURL, err := url.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability parse: %w", err)
	}

	var renderedText bytes.Buffer
	if err := article.RenderText(&renderedText); err != nil {
		return nil, fmt.Errorf("render readability text: %w", err)
	}

	content := CleanText(renderedText.String())
	if content == "" {
		content = CleanText(article.Excerpt())
	}
	if content == "" {
		return nil, fmt.Errorf("extracted empty content")
	}

	meta := extractMetadata(body)
	if meta.Title == "" {
		return nil, fmt.Errorf("extracted no title")
	}

	publishedDate := meta.PublishedDate
	if publishedDate == "" {
		publishedDate = globaltime.ISO()
	}

	return map[string]any{
		"url":            page,
		"title":          meta.Title,
		"content":        content,
		"authors":        meta.Authors,
		"published_date": publishedDate,
	}, nil
}

// CleanText normalizes line endings and collapses extra in-line whitespace.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}
