package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
	"github.com/aydinmyilmaz/genai-newsflash/internal/pipeline"
)

// Store implements pipeline.Store on top of the connection pool. Article
// uniqueness is enforced by the unique index on articles.url; the insert
// uses ON CONFLICT DO NOTHING so a losing concurrent writer surfaces as
// pipeline.ErrDuplicateURL instead of a constraint failure.
type Store struct {
	pool *Pool
}

func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetArticleByURL(ctx context.Context, url string) (*pipeline.StoredArticle, error) {
	const query = `
SELECT article_id, url, title, content, summary, authors, published_date,
       processing_date, keywords, intended_audience, score, language, model_used
FROM articles
WHERE url = ?`

	var (
		stored           pipeline.StoredArticle
		authors          []byte
		keywords         []byte
		intendedAudience []byte
		score            []byte
	)
	err := s.pool.QueryRow(ctx, query, url).Scan(
		&stored.ID,
		&stored.Record.URL,
		&stored.Record.Title,
		&stored.Record.Content,
		&stored.Record.SummaryText,
		&authors,
		&stored.Record.PublishedDate,
		&stored.Record.ProcessingDate,
		&keywords,
		&intendedAudience,
		&score,
		&stored.Record.Language,
		&stored.Record.ModelUsed,
	)
	if IsNoRows(err) {
		return nil, pipeline.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select article by url: %w", err)
	}

	stored.Record.Authors = decodeStringList(authors)
	stored.Record.Keywords = decodeStringList(keywords)
	stored.Record.IntendedAudience = decodeStringList(intendedAudience)
	stored.Record.Score = decodeScore(score)
	return &stored, nil
}

func (s *Store) InsertArticle(ctx context.Context, rec *normalize.Record) (int64, error) {
	const query = `
INSERT INTO articles (url, title, content, summary, authors, published_date,
                      processing_date, keywords, intended_audience, score,
                      language, model_used, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now(), now())
ON CONFLICT (url) DO NOTHING
RETURNING article_id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		rec.URL,
		rec.Title,
		rec.Content,
		rec.SummaryText,
		encodeStringList(rec.Authors),
		rec.PublishedDate,
		rec.ProcessingDate,
		encodeStringList(rec.Keywords),
		encodeStringList(rec.IntendedAudience),
		encodeScore(rec.Score),
		rec.Language,
		rec.ModelUsed,
	).Scan(&id)
	if IsNoRows(err) {
		return 0, pipeline.ErrDuplicateURL
	}
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

func (s *Store) ReplaceArticle(ctx context.Context, id int64, rec *normalize.Record) error {
	const query = `
UPDATE articles
SET url = ?, title = ?, content = ?, summary = ?, authors = ?,
    published_date = ?, processing_date = ?, keywords = ?,
    intended_audience = ?, score = ?, language = ?, model_used = ?,
    updated_at = now()
WHERE article_id = ?`

	tag, err := s.pool.Exec(ctx, query,
		rec.URL,
		rec.Title,
		rec.Content,
		rec.SummaryText,
		encodeStringList(rec.Authors),
		rec.PublishedDate,
		rec.ProcessingDate,
		encodeStringList(rec.Keywords),
		encodeStringList(rec.IntendedAudience),
		encodeScore(rec.Score),
		rec.Language,
		rec.ModelUsed,
		id,
	)
	if err != nil {
		return fmt.Errorf("update article %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pipeline.ErrNotFound
	}
	return nil
}

func (s *Store) EnsureUser(ctx context.Context, email string) (int64, error) {
	const query = `
INSERT INTO users (email, created_at)
VALUES (?, now())
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING user_id`

	var id int64
	if err := s.pool.QueryRow(ctx, query, email).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure user %s: %w", email, err)
	}
	return id, nil
}

func (s *Store) AddArticleToUser(ctx context.Context, email, dateKey string, articleID int64) error {
	userID, err := s.EnsureUser(ctx, email)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO user_articles (user_id, date_key, article_id, created_at)
VALUES (?, ?, ?, now())
ON CONFLICT (user_id, date_key, article_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, userID, dateKey, articleID); err != nil {
		return fmt.Errorf("add article %d to user %s under %s: %w", articleID, email, dateKey, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func encodeStringList(list []string) []byte {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return []byte("[]")
	}
	return data
}

func decodeStringList(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func encodeScore(score any) []byte {
	if score == nil {
		return []byte("null")
	}
	data, err := json.Marshal(score)
	if err != nil {
		return []byte("null")
	}
	return data
}

func decodeScore(data []byte) any {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil
	}
	return value
}
