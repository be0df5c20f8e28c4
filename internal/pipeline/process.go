package pipeline

import (
	"context"

	"github.com/rs/zerolog"
)

// Fetcher retrieves structured article data for a url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (map[string]any, error)
}

// Summarizer condenses article text. Implementations retry internally and
// treat a blank response as a failure.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Processor drives the url-based flow: skip already-stored urls, fetch the
// rest, optionally summarize, then hand the raw maps to the orchestrator.
type Processor struct {
	engine       *Engine
	orchestrator *Orchestrator
	fetcher      Fetcher
	summarizer   Summarizer
	logger       zerolog.Logger
}

func NewProcessor(engine *Engine, orchestrator *Orchestrator, fetcher Fetcher, summarizer Summarizer, logger zerolog.Logger) *Processor {
	return &Processor{
		engine:       engine,
		orchestrator: orchestrator,
		fetcher:      fetcher,
		summarizer:   summarizer,
		logger:       logger,
	}
}

// Process ingests a list of candidate urls for a user. Urls already stored
// with valid content are skipped before any network work.
func (p *Processor) Process(ctx context.Context, urls []string, userEmail string) *BatchResult {
	preSkippedIDs := make([]int64, 0, len(urls))
	fetchErrors := make([]RecordError, 0)
	raws := make([]map[string]any, 0, len(urls))

	for _, url := range urls {
		id, exists, err := p.engine.ExistingValidID(ctx, url)
		if err != nil {
			p.logger.Error().Err(err).Str("url", url).Msg("existence check failed")
			fetchErrors = append(fetchErrors, RecordError{URL: url, Message: err.Error()})
			continue
		}
		if exists {
			p.logger.Debug().Str("url", url).Msg("url already stored, skipping fetch")
			preSkippedIDs = append(preSkippedIDs, id)
			continue
		}

		raw, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			p.logger.Warn().Err(err).Str("url", url).Msg("fetch failed")
			fetchErrors = append(fetchErrors, RecordError{URL: url, Message: err.Error()})
			continue
		}
		p.maybeSummarize(ctx, url, raw)
		raws = append(raws, raw)
	}

	result := p.orchestrator.Run(ctx, raws, userEmail)
	if !result.Success {
		return result
	}

	result.SkippedCount += len(preSkippedIDs)
	result.SkippedIDs = append(result.SkippedIDs, preSkippedIDs...)
	result.Errors = append(result.Errors, fetchErrors...)
	return result
}

func (p *Processor) maybeSummarize(ctx context.Context, url string, raw map[string]any) {
	if p.summarizer == nil {
		return
	}
	content, _ := raw["content"].(string)
	if content == "" {
		return
	}
	summary, err := p.summarizer.Summarize(ctx, content)
	if err != nil {
		p.logger.Warn().Err(err).Str("url", url).Msg("summarization failed, keeping raw content")
		return
	}
	raw["summary"] = summary
}
