package pipeline

import (
	"context"
	"errors"

	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
)

var (
	// ErrNotFound signals a lookup miss.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateURL signals a unique-constraint violation on insert.
	ErrDuplicateURL = errors.New("url already exists")
)

// StoredArticle is a persisted record plus its identifier.
type StoredArticle struct {
	ID     int64
	Record normalize.Record
}

// Store is the persistence boundary the dedup engine drives. Implementations
// must make InsertArticle atomic with respect to the url uniqueness
// constraint and AddArticleToUser idempotent per (user, date, article).
type Store interface {
	GetArticleByURL(ctx context.Context, url string) (*StoredArticle, error)
	InsertArticle(ctx context.Context, rec *normalize.Record) (int64, error)
	ReplaceArticle(ctx context.Context, id int64, rec *normalize.Record) error
	EnsureUser(ctx context.Context, email string) (int64, error)
	AddArticleToUser(ctx context.Context, email, dateKey string, articleID int64) error
	Ping(ctx context.Context) error
}
