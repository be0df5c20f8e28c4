package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/config"
	"github.com/aydinmyilmaz/genai-newsflash/internal/db"
	"github.com/aydinmyilmaz/genai-newsflash/internal/fetcher"
	"github.com/aydinmyilmaz/genai-newsflash/internal/llm"
	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
	"github.com/aydinmyilmaz/genai-newsflash/internal/pipeline"
	"github.com/aydinmyilmaz/genai-newsflash/internal/summarizer"
)

func normalizeOptions(cfg *config.Config) (normalize.Options, error) {
	sections, err := normalize.ParseSections(cfg.ContentSections)
	if err != nil {
		return normalize.Options{}, fmt.Errorf("parse CONTENT_SECTIONS: %w", err)
	}
	return normalize.Options{
		Sections:  sections,
		ModelUsed: cfg.LLMModel,
	}, nil
}

func buildExtraction(cfg *config.Config, logger zerolog.Logger) (*fetcher.Fetcher, *summarizer.Client) {
	llmClient := llm.New(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel)

	pageFetcher := fetcher.New(llmClient, fetcher.Options{
		Timeout:       time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		BodyByteLimit: cfg.FetchMaxBodyBytes,
	}, logger)

	return pageFetcher, summarizer.New(llmClient, cfg.SummaryRetries, logger)
}

// buildPipeline wires the full ingest chain on top of an open pool.
func buildPipeline(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*pipeline.Orchestrator, *pipeline.Processor, error) {
	opts, err := normalizeOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	store := db.NewStore(pool)
	engine := pipeline.NewEngine(store, logger)
	orchestrator := pipeline.NewOrchestrator(engine, store, opts, logger)

	pageFetcher, summaryClient := buildExtraction(cfg, logger)
	processor := pipeline.NewProcessor(engine, orchestrator, pageFetcher, summaryClient, logger)

	return orchestrator, processor, nil
}
