package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/db"
	"github.com/aydinmyilmaz/genai-newsflash/internal/globaltime"
	"github.com/aydinmyilmaz/genai-newsflash/internal/pipeline"
	payloadschema "github.com/aydinmyilmaz/genai-newsflash/schema"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200

	maxBatchBodyBytes = 4 * 1024 * 1024
)

// ArticleReader is the read side of the store the API serves.
type ArticleReader interface {
	GetArticleByID(ctx context.Context, id int64) (*pipeline.StoredArticle, error)
	UserDates(ctx context.Context, email string) ([]string, error)
	UserArticlesByDate(ctx context.Context, email, dateKey string, limit, offset int) ([]db.ArticleSummary, error)
	CountUserArticlesByDate(ctx context.Context, email, dateKey string) (int64, error)
	FilterArticlesByKeyword(ctx context.Context, keyword string, limit int) ([]db.ArticleSummary, error)
	GetStats(ctx context.Context, processingDate string) (*db.Stats, error)
}

// BatchRunner ingests pre-extracted article maps.
type BatchRunner interface {
	Run(ctx context.Context, rawArticles []map[string]any, userEmail string) *pipeline.BatchResult
}

// URLProcessor ingests candidate urls end to end.
type URLProcessor interface {
	Process(ctx context.Context, urls []string, userEmail string) *pipeline.BatchResult
}

type Options struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
}

type Server struct {
	reader    ArticleReader
	runner    BatchRunner
	processor URLProcessor
	logger    zerolog.Logger
	opts      Options
}

func NewServer(reader ArticleReader, runner BatchRunner, processor URLProcessor, logger zerolog.Logger, opts Options) *Server {
	if strings.TrimSpace(opts.Addr) == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		// Batch ingestion fetches and summarizes inline, so writes
		// stay open far longer than a typical read endpoint.
		opts.WriteTimeout = 5 * time.Minute
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		reader:    reader,
		runner:    runner,
		processor: processor,
		logger:    logger,
		opts:      opts,
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.reader == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	httpServer := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", s.opts.Addr).Msg("newsflash api started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("newsflash api stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	allowOrigins := s.opts.CORSAllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.POST("/batches", s.handleBatch)
	api.GET("/articles", s.handleArticlesByKeyword)
	api.GET("/articles/:id", s.handleArticleDetail)
	api.GET("/users/:email/dates", s.handleUserDates)
	api.GET("/users/:email/articles", s.handleUserArticles)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "newsflash",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.reader.GetStats(c.Request().Context(), globaltime.ProcessingDate())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleBatch(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBatchBodyBytes))
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not be read"})
	}

	req, err := payloadschema.ValidateBatchRequest(body)
	if err != nil {
		return failValidation(c, map[string]string{"payload": err.Error()})
	}

	ctx := c.Request().Context()
	result := &pipeline.BatchResult{
		SavedIDs:          []int64{},
		SkippedIDs:        []int64{},
		InvalidFormatURLs: []string{},
		Errors:            []pipeline.RecordError{},
		Success:           true,
	}

	if len(req.Articles) > 0 {
		mergeBatchResults(result, s.runner.Run(ctx, req.Articles, req.UserEmail))
	}
	if result.Success && len(req.URLs) > 0 {
		if s.processor == nil {
			return fail(c, http.StatusUnprocessableEntity, "URL ingestion is not configured", nil)
		}
		mergeBatchResults(result, s.processor.Process(ctx, req.URLs, req.UserEmail))
	}

	if !result.Success {
		return fail(c, http.StatusBadGateway, result.Error, result)
	}
	return successWithStatus(c, http.StatusCreated, result)
}

func mergeBatchResults(into, from *pipeline.BatchResult) {
	into.SavedCount += from.SavedCount
	into.UpdatedCount += from.UpdatedCount
	into.SkippedCount += from.SkippedCount
	into.SavedIDs = append(into.SavedIDs, from.SavedIDs...)
	into.SkippedIDs = append(into.SkippedIDs, from.SkippedIDs...)
	into.InvalidFormatURLs = append(into.InvalidFormatURLs, from.InvalidFormatURLs...)
	into.Errors = append(into.Errors, from.Errors...)
	if !from.Success {
		into.Success = false
		into.Error = from.Error
	}
}

func (s *Server) handleArticleDetail(c echo.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return failValidation(c, map[string]string{"id": "must be a positive integer"})
	}

	stored, err := s.reader.GetArticleByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			return failNotFound(c, "Article not found")
		}
		s.logger.Error().Err(err).Int64("article_id", id).Msg("query article failed")
		return internalError(c, "Failed to load article")
	}

	return success(c, map[string]any{
		"articleId":        stored.ID,
		"url":              stored.Record.URL,
		"title":            stored.Record.Title,
		"content":          stored.Record.Content,
		"summary":          stored.Record.SummaryText,
		"authors":          stored.Record.Authors,
		"publishedDate":    stored.Record.PublishedDate,
		"processingDate":   stored.Record.ProcessingDate,
		"keywords":         stored.Record.Keywords,
		"intendedAudience": stored.Record.IntendedAudience,
		"score":            stored.Record.Score,
		"language":         stored.Record.Language,
		"modelUsed":        stored.Record.ModelUsed,
	})
}

func (s *Server) handleUserDates(c echo.Context) error {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		return failValidation(c, map[string]string{"email": "is required"})
	}

	dates, err := s.reader.UserDates(c.Request().Context(), email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("query user dates failed")
		return internalError(c, "Failed to load dates")
	}

	return success(c, map[string]any{
		"email": email,
		"dates": dates,
	})
}

func (s *Server) handleUserArticles(c echo.Context) error {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		return failValidation(c, map[string]string{"email": "is required"})
	}

	dateKey := strings.TrimSpace(c.QueryParam("date"))
	if dateKey == "" {
		dateKey = globaltime.DateKey()
	}
	if _, err := time.Parse("02012006", dateKey); err != nil {
		return failValidation(c, map[string]string{"date": "must be DDMMYYYY"})
	}

	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"page_size": err.Error()})
	}

	ctx := c.Request().Context()
	total, err := s.reader.CountUserArticlesByDate(ctx, email, dateKey)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("count user articles failed")
		return internalError(c, "Failed to load articles")
	}

	items, err := s.reader.UserArticlesByDate(ctx, email, dateKey, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("query user articles failed")
		return internalError(c, "Failed to load articles")
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return success(c, map[string]any{
		"email": email,
		"date":  dateKey,
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total_items": total,
			"total_pages": totalPages,
		},
	})
}

func (s *Server) handleArticlesByKeyword(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	if keyword == "" {
		return failValidation(c, map[string]string{"keyword": "is required"})
	}

	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	items, err := s.reader.FilterArticlesByKeyword(c.Request().Context(), keyword, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("keyword", keyword).Msg("filter articles failed")
		return internalError(c, "Failed to load articles")
	}

	return success(c, map[string]any{
		"keyword": keyword,
		"items":   items,
	})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
