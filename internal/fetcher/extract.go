package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/aydinmyilmaz/genai-newsflash/internal/globaltime"
)

// maxPromptChars caps how much page text goes into the extraction prompt.
const maxPromptChars = 24000

const extractionPrompt = `Extract the article from the page content below.
Respond with a single JSON object using exactly these keys:
  "title": the article headline
  "content": the full article body text
  "authors": a list of author names, [] if unknown
  "published_date": the publication date as text, "" if unknown
Respond with JSON only, no explanation.

Page content:
`

type extractedArticle struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Authors       []string `json:"authors"`
	PublishedDate string   `json:"published_date"`
}

// extractWithModel asks the configured model to pull structured article
// fields out of the page. The page is converted to markdown first so the
// prompt is not wasted on markup.
func (f *Fetcher) extractWithModel(ctx context.Context, body []byte, page string) (map[string]any, error) {
	if f.llm == nil {
		return nil, fmt.Errorf("no model configured for fallback extraction")
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(string(body))
	if err != nil {
		return nil, fmt.Errorf("convert page to markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, fmt.Errorf("page converted to empty markdown")
	}
	if len(markdown) > maxPromptChars {
		markdown = markdown[:maxPromptChars]
	}

	completion, err := f.llm.Complete(ctx, extractionPrompt+markdown)
	if err != nil {
		return nil, fmt.Errorf("model extraction: %w", err)
	}

	parsed := parseModelResult(completion)
	if strings.TrimSpace(parsed.Content) == "" {
		return nil, fmt.Errorf("model extraction produced empty content")
	}

	publishedDate := strings.TrimSpace(parsed.PublishedDate)
	if publishedDate == "" {
		publishedDate = globaltime.ISO()
	}
	authors := parsed.Authors
	if authors == nil {
		authors = []string{}
	}

	return map[string]any{
		"url":            page,
		"title":          strings.TrimSpace(parsed.Title),
		"content":        strings.TrimSpace(parsed.Content),
		"authors":        authors,
		"published_date": publishedDate,
	}, nil
}

// parseModelResult decodes the model response. A response that is plain
// text rather than a JSON object is wrapped as an untitled article.
func parseModelResult(completion string) extractedArticle {
	cleaned := stripCodeFence(completion)

	var parsed extractedArticle
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		if parsed.Title == "" {
			parsed.Title = "Unknown Title"
		}
		return parsed
	}

	var asString string
	if err := json.Unmarshal([]byte(cleaned), &asString); err == nil {
		cleaned = asString
	}

	return extractedArticle{
		Title:   "Unknown Title",
		Content: strings.TrimSpace(cleaned),
		Authors: []string{},
	}
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
