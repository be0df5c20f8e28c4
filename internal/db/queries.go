package db

import (
	"context"
	"fmt"

	"github.com/aydinmyilmaz/genai-newsflash/internal/pipeline"
)

// ArticleSummary is the list-view projection of a stored article.
type ArticleSummary struct {
	ArticleID      int64    `json:"articleId"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	PublishedDate  string   `json:"publishedDate"`
	ProcessingDate string   `json:"processingDate"`
	Keywords       []string `json:"keywords"`
	Language       string   `json:"language"`
	ModelUsed      string   `json:"modelUsed"`
}

// Stats aggregates store-wide counters.
type Stats struct {
	TotalArticles int64 `json:"totalArticles"`
	TotalUsers    int64 `json:"totalUsers"`
	ArticlesToday int64 `json:"articlesToday"`
}

// GetArticleByID loads one full article.
func (s *Store) GetArticleByID(ctx context.Context, id int64) (*pipeline.StoredArticle, error) {
	const query = `SELECT url FROM articles WHERE article_id = ?`

	var url string
	err := s.pool.QueryRow(ctx, query, id).Scan(&url)
	if IsNoRows(err) {
		return nil, pipeline.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select article %d: %w", id, err)
	}
	return s.GetArticleByURL(ctx, url)
}

// UserDates lists the date keys under which a user has articles, newest
// bucket first by creation time.
func (s *Store) UserDates(ctx context.Context, email string) ([]string, error) {
	const query = `
SELECT ua.date_key, COUNT(*) AS article_count
FROM user_articles ua
JOIN users u ON u.user_id = ua.user_id
WHERE u.email = ?
GROUP BY ua.date_key
ORDER BY MAX(ua.created_at) DESC`

	rows, err := s.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("select user dates: %w", err)
	}
	defer rows.Close()

	dates := make([]string, 0)
	for rows.Next() {
		var dateKey string
		var count int64
		if err := rows.Scan(&dateKey, &count); err != nil {
			return nil, fmt.Errorf("scan user date: %w", err)
		}
		dates = append(dates, dateKey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user dates: %w", err)
	}
	return dates, nil
}

// UserArticlesByDate pages through a user's articles for one date key.
func (s *Store) UserArticlesByDate(ctx context.Context, email, dateKey string, limit, offset int) ([]ArticleSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
SELECT a.article_id, a.url, a.title, a.published_date, a.processing_date,
       a.keywords, a.language, a.model_used
FROM user_articles ua
JOIN users u ON u.user_id = ua.user_id
JOIN articles a ON a.article_id = ua.article_id
WHERE u.email = ? AND ua.date_key = ?
ORDER BY ua.created_at DESC, a.article_id DESC
LIMIT ? OFFSET ?`

	rows, err := s.pool.Query(ctx, query, email, dateKey, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select user articles: %w", err)
	}
	defer rows.Close()

	return scanArticleSummaries(rows)
}

// CountUserArticlesByDate returns the size of one per-user date bucket.
func (s *Store) CountUserArticlesByDate(ctx context.Context, email, dateKey string) (int64, error) {
	const query = `
SELECT COUNT(*)
FROM user_articles ua
JOIN users u ON u.user_id = ua.user_id
WHERE u.email = ? AND ua.date_key = ?`

	var count int64
	if err := s.pool.QueryRow(ctx, query, email, dateKey).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user articles: %w", err)
	}
	return count, nil
}

// FilterArticlesByKeyword finds articles whose keyword set contains the
// given keyword, newest first.
func (s *Store) FilterArticlesByKeyword(ctx context.Context, keyword string, limit int) ([]ArticleSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
SELECT article_id, url, title, published_date, processing_date,
       keywords, language, model_used
FROM articles
WHERE keywords @> to_jsonb(ARRAY[?]::text[])
ORDER BY article_id DESC
LIMIT ?`

	rows, err := s.pool.Query(ctx, query, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("filter articles by keyword: %w", err)
	}
	defer rows.Close()

	return scanArticleSummaries(rows)
}

// GetStats aggregates store-wide counters for the current processing date.
func (s *Store) GetStats(ctx context.Context, processingDate string) (*Stats, error) {
	const query = `
SELECT
  (SELECT COUNT(*) FROM articles),
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM articles WHERE processing_date = ?)`

	var stats Stats
	err := s.pool.QueryRow(ctx, query, processingDate).Scan(
		&stats.TotalArticles,
		&stats.TotalUsers,
		&stats.ArticlesToday,
	)
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	return &stats, nil
}

func scanArticleSummaries(rows *Rows) ([]ArticleSummary, error) {
	summaries := make([]ArticleSummary, 0)
	for rows.Next() {
		var summary ArticleSummary
		var keywords []byte
		if err := rows.Scan(
			&summary.ArticleID,
			&summary.URL,
			&summary.Title,
			&summary.PublishedDate,
			&summary.ProcessingDate,
			&keywords,
			&summary.Language,
			&summary.ModelUsed,
		); err != nil {
			return nil, fmt.Errorf("scan article summary: %w", err)
		}
		summary.Keywords = decodeStringList(keywords)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article summaries: %w", err)
	}
	return summaries, nil
}
