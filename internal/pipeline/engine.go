package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/globaltime"
	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
)

// Action classifies the outcome of one upsert.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
	ActionSkipped  Action = "skipped"
)

// Outcome is the result of upserting a single record.
type Outcome struct {
	Action Action
	ID     int64
}

// Engine owns all reads and writes of the article store. Records enter
// through Upsert and nowhere else.
type Engine struct {
	store  Store
	logger zerolog.Logger
}

func NewEngine(store Store, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// Upsert applies the dedup state machine: insert when the url is new, skip
// when a valid record already holds it, replace when the existing record is
// invalid. When userEmail is non-empty the saved id is added to the user's
// set for the current date, idempotently.
func (e *Engine) Upsert(ctx context.Context, rec *normalize.Record, userEmail string) (Outcome, error) {
	if rec == nil {
		return Outcome{}, fmt.Errorf("record is nil")
	}

	outcome, err := e.apply(ctx, rec)
	if err != nil {
		return Outcome{}, err
	}

	if userEmail != "" {
		dateKey := globaltime.DateKey()
		if err := e.store.AddArticleToUser(ctx, userEmail, dateKey, outcome.ID); err != nil {
			return Outcome{}, fmt.Errorf("link article %d to user: %w", outcome.ID, err)
		}
	}

	e.logger.Debug().
		Str("url", rec.URL).
		Str("action", string(outcome.Action)).
		Int64("article_id", outcome.ID).
		Msg("upsert applied")

	return outcome, nil
}

func (e *Engine) apply(ctx context.Context, rec *normalize.Record) (Outcome, error) {
	existing, err := e.store.GetArticleByURL(ctx, rec.URL)
	switch {
	case err == nil:
		return e.resolveExisting(ctx, existing, rec)
	case errors.Is(err, ErrNotFound):
		// fall through to insert
	default:
		return Outcome{}, fmt.Errorf("lookup by url: %w", err)
	}

	id, err := e.store.InsertArticle(ctx, rec)
	if err == nil {
		return Outcome{Action: ActionInserted, ID: id}, nil
	}
	if !errors.Is(err, ErrDuplicateURL) {
		return Outcome{}, fmt.Errorf("insert article: %w", err)
	}

	// Lost an insert race. Re-fetch and treat as existing.
	existing, err = e.store.GetArticleByURL(ctx, rec.URL)
	if err != nil {
		return Outcome{}, fmt.Errorf("re-fetch after duplicate insert: %w", err)
	}
	return e.resolveExisting(ctx, existing, rec)
}

func (e *Engine) resolveExisting(ctx context.Context, existing *StoredArticle, rec *normalize.Record) (Outcome, error) {
	if IsValid(&existing.Record) {
		return Outcome{Action: ActionSkipped, ID: existing.ID}, nil
	}
	if err := e.store.ReplaceArticle(ctx, existing.ID, rec); err != nil {
		return Outcome{}, fmt.Errorf("replace article %d: %w", existing.ID, err)
	}
	return Outcome{Action: ActionUpdated, ID: existing.ID}, nil
}

// ExistingValidID returns the id of a valid stored record holding the url,
// or ok=false when the url is absent or the stored record is invalid. The
// processor uses it as a pre-fetch filter.
func (e *Engine) ExistingValidID(ctx context.Context, url string) (int64, bool, error) {
	existing, err := e.store.GetArticleByURL(ctx, url)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !IsValid(&existing.Record) {
		return 0, false, nil
	}
	return existing.ID, true, nil
}
