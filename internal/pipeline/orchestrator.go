package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
)

// Orchestrator drives a list of raw article maps through normalization and
// the dedup engine, accumulating a BatchResult. Records are processed
// strictly in input order.
type Orchestrator struct {
	engine *Engine
	store  Store
	opts   normalize.Options
	logger zerolog.Logger
}

func NewOrchestrator(engine *Engine, store Store, opts normalize.Options, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// Run processes rawArticles one at a time. Per-record failures are folded
// into the result; only a store that cannot be reached at all makes the
// whole batch fail.
func (o *Orchestrator) Run(ctx context.Context, rawArticles []map[string]any, userEmail string) *BatchResult {
	if err := o.store.Ping(ctx); err != nil {
		o.logger.Error().Err(err).Msg("store unreachable, aborting batch")
		return failedBatchResult(fmt.Sprintf("store unreachable: %v", err))
	}

	if userEmail != "" {
		if _, err := o.store.EnsureUser(ctx, userEmail); err != nil {
			o.logger.Error().Err(err).Str("email", userEmail).Msg("ensure user failed, aborting batch")
			return failedBatchResult(fmt.Sprintf("ensure user %s: %v", userEmail, err))
		}
	}

	result := newBatchResult()
	for _, raw := range rawArticles {
		o.processOne(ctx, raw, userEmail, result)
	}

	o.logger.Info().
		Int("saved", result.SavedCount).
		Int("updated", result.UpdatedCount).
		Int("skipped", result.SkippedCount).
		Int("invalid", len(result.InvalidFormatURLs)).
		Int("errors", len(result.Errors)).
		Msg("batch complete")

	return result
}

func (o *Orchestrator) processOne(ctx context.Context, raw map[string]any, userEmail string, result *BatchResult) {
	rec := normalize.Normalize(raw, o.opts)
	if rec == nil {
		url := normalize.BestEffortURL(raw)
		o.logger.Warn().Str("url", url).Msg("record failed normalization")
		result.InvalidFormatURLs = append(result.InvalidFormatURLs, url)
		result.SkippedCount++
		return
	}

	outcome, err := o.engine.Upsert(ctx, rec, userEmail)
	if err != nil {
		o.logger.Error().Err(err).Str("url", rec.URL).Msg("upsert failed")
		result.Errors = append(result.Errors, RecordError{URL: rec.URL, Message: err.Error()})
		return
	}

	switch outcome.Action {
	case ActionInserted:
		result.SavedCount++
		result.SavedIDs = append(result.SavedIDs, outcome.ID)
	case ActionUpdated:
		result.UpdatedCount++
	case ActionSkipped:
		result.SkippedCount++
		result.SkippedIDs = append(result.SkippedIDs, outcome.ID)
	}
}
