package links

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const defaultFeedTimeout = 15 * time.Second

// Candidate is a discovered article link.
type Candidate struct {
	URL       string
	Title     string
	Published string
}

// Discoverer pulls candidate article links out of RSS/Atom feeds.
type Discoverer struct {
	parser *gofeed.Parser
	logger zerolog.Logger
}

func NewDiscoverer(httpClient *http.Client, logger zerolog.Logger) *Discoverer {
	parser := gofeed.NewParser()
	if httpClient != nil {
		parser.Client = httpClient
	} else {
		parser.Client = &http.Client{Timeout: defaultFeedTimeout}
	}
	return &Discoverer{
		parser: parser,
		logger: logger,
	}
}

// Discover parses the feed and returns up to maxCount candidate links.
// maxCount <= 0 means no limit. Items without a link are dropped.
func (d *Discoverer) Discover(ctx context.Context, feedURL string, maxCount int) ([]Candidate, error) {
	trimmed := strings.TrimSpace(feedURL)
	if trimmed == "" {
		return nil, fmt.Errorf("feed url is required")
	}

	feed, err := d.parser.ParseURLWithContext(trimmed, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", trimmed, err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	seen := make(map[string]struct{}, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}

		candidate := Candidate{
			URL:   link,
			Title: strings.TrimSpace(item.Title),
		}
		if item.PublishedParsed != nil {
			candidate.Published = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else {
			candidate.Published = strings.TrimSpace(item.Published)
		}
		candidates = append(candidates, candidate)

		if maxCount > 0 && len(candidates) >= maxCount {
			break
		}
	}

	d.logger.Debug().Str("feed", trimmed).Int("candidates", len(candidates)).Msg("feed parsed")
	return candidates, nil
}
