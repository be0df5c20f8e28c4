package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
)

type stubFetcher struct {
	calls   []string
	results map[string]map[string]any
	errs    map[string]error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (map[string]any, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.results[url], nil
}

type stubSummarizer struct {
	summary string
	err     error
}

func (s *stubSummarizer) Summarize(context.Context, string) (string, error) {
	return s.summary, s.err
}

func TestProcessorSkipsStoredURLsWithoutFetching(t *testing.T) {
	store := newStubStore()
	store.seed(9, *validRecord("http://stored"))
	engine := NewEngine(store, zerolog.Nop())
	orch := NewOrchestrator(engine, store, normalize.Options{}, zerolog.Nop())
	fetcher := &stubFetcher{
		results: map[string]map[string]any{
			"http://fresh": rawEntry("http://fresh"),
		},
	}
	proc := NewProcessor(engine, orch, fetcher, nil, zerolog.Nop())

	result := proc.Process(context.Background(), []string{"http://stored", "http://fresh"}, "user@example.com")

	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if result.SavedCount != 1 || result.SkippedCount != 1 {
		t.Fatalf("counts = saved:%d skipped:%d", result.SavedCount, result.SkippedCount)
	}
	if len(result.SkippedIDs) != 1 || result.SkippedIDs[0] != 9 {
		t.Fatalf("skippedIds = %v", result.SkippedIDs)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "http://fresh" {
		t.Fatalf("fetcher calls = %v", fetcher.calls)
	}
}

func TestProcessorRecordsFetchFailures(t *testing.T) {
	store := newStubStore()
	engine := NewEngine(store, zerolog.Nop())
	orch := NewOrchestrator(engine, store, normalize.Options{}, zerolog.Nop())
	fetcher := &stubFetcher{
		results: map[string]map[string]any{
			"http://ok": rawEntry("http://ok"),
		},
		errs: map[string]error{
			"http://down": fmt.Errorf("connect: connection refused"),
		},
	}
	proc := NewProcessor(engine, orch, fetcher, nil, zerolog.Nop())

	result := proc.Process(context.Background(), []string{"http://down", "http://ok"}, "")

	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if result.SavedCount != 1 {
		t.Fatalf("savedCount = %d", result.SavedCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].URL != "http://down" {
		t.Fatalf("errors = %+v", result.Errors)
	}
}

func TestProcessorAppliesSummarizer(t *testing.T) {
	store := newStubStore()
	engine := NewEngine(store, zerolog.Nop())
	orch := NewOrchestrator(engine, store, normalize.Options{}, zerolog.Nop())
	fetcher := &stubFetcher{
		results: map[string]map[string]any{
			"http://a": {
				"url":     "http://a",
				"title":   "T",
				"content": "long raw body text",
			},
		},
	}
	proc := NewProcessor(engine, orch, fetcher, &stubSummarizer{summary: "condensed"}, zerolog.Nop())

	result := proc.Process(context.Background(), []string{"http://a"}, "")
	if result.SavedCount != 1 {
		t.Fatalf("savedCount = %d", result.SavedCount)
	}
	stored, err := store.GetArticleByURL(context.Background(), "http://a")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Record.SummaryText != "condensed" {
		t.Fatalf("summaryText = %q", stored.Record.SummaryText)
	}
}

func TestProcessorKeepsContentWhenSummarizerFails(t *testing.T) {
	store := newStubStore()
	engine := NewEngine(store, zerolog.Nop())
	orch := NewOrchestrator(engine, store, normalize.Options{}, zerolog.Nop())
	fetcher := &stubFetcher{
		results: map[string]map[string]any{
			"http://a": {
				"url":     "http://a",
				"title":   "T",
				"content": "long raw body text",
			},
		},
	}
	proc := NewProcessor(engine, orch, fetcher, &stubSummarizer{err: fmt.Errorf("empty response")}, zerolog.Nop())

	result := proc.Process(context.Background(), []string{"http://a"}, "")
	if result.SavedCount != 1 {
		t.Fatalf("savedCount = %d", result.SavedCount)
	}
	stored, err := store.GetArticleByURL(context.Background(), "http://a")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Record.Content == "" {
		t.Fatal("content should survive summarizer failure")
	}
}
