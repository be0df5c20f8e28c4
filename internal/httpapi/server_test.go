package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/db"
	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
	"github.com/aydinmyilmaz/genai-newsflash/internal/pipeline"
)

type stubReader struct {
	article  *pipeline.StoredArticle
	dates    []string
	items    []db.ArticleSummary
	count    int64
	stats    *db.Stats
	queryErr error
}

func (r *stubReader) GetArticleByID(_ context.Context, id int64) (*pipeline.StoredArticle, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	if r.article == nil || r.article.ID != id {
		return nil, pipeline.ErrNotFound
	}
	return r.article, nil
}

func (r *stubReader) UserDates(context.Context, string) ([]string, error) {
	return r.dates, r.queryErr
}

func (r *stubReader) UserArticlesByDate(context.Context, string, string, int, int) ([]db.ArticleSummary, error) {
	return r.items, r.queryErr
}

func (r *stubReader) CountUserArticlesByDate(context.Context, string, string) (int64, error) {
	return r.count, r.queryErr
}

func (r *stubReader) FilterArticlesByKeyword(context.Context, string, int) ([]db.ArticleSummary, error) {
	return r.items, r.queryErr
}

func (r *stubReader) GetStats(context.Context, string) (*db.Stats, error) {
	return r.stats, r.queryErr
}

type stubRunner struct {
	result *pipeline.BatchResult
	raws   []map[string]any
	email  string
}

func (r *stubRunner) Run(_ context.Context, rawArticles []map[string]any, userEmail string) *pipeline.BatchResult {
	r.raws = rawArticles
	r.email = userEmail
	return r.result
}

type stubProcessor struct {
	result *pipeline.BatchResult
	urls   []string
}

func (p *stubProcessor) Process(_ context.Context, urls []string, _ string) *pipeline.BatchResult {
	p.urls = urls
	return p.result
}

func okResult(saved int) *pipeline.BatchResult {
	res := &pipeline.BatchResult{
		SavedCount:        saved,
		SavedIDs:          []int64{},
		SkippedIDs:        []int64{},
		InvalidFormatURLs: []string{},
		Errors:            []pipeline.RecordError{},
		Success:           true,
	}
	for i := 0; i < saved; i++ {
		res.SavedIDs = append(res.SavedIDs, int64(i+1))
	}
	return res
}

func newTestServer(reader *stubReader, runner *stubRunner, processor *stubProcessor) *Server {
	return NewServer(reader, runner, processor, zerolog.Nop(), Options{})
}

func doRequest(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()

	s.buildEcho().ServeHTTP(rec, req)

	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, envelope
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubReader{}, nil, nil)

	rec, envelope := doRequest(t, s, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := envelope["data"].(map[string]any)
	if data["service"] != "newsflash" {
		t.Fatalf("service = %v", data["service"])
	}
}

func TestHandleBatchArticles(t *testing.T) {
	runner := &stubRunner{result: okResult(2)}
	s := newTestServer(&stubReader{}, runner, nil)

	payload := `{"user_email":"a@b.com","articles":[{"url":"http://x","title":"T","summary":"s"},{"url":"http://y","title":"U","summary":"s"}]}`
	rec, envelope := doRequest(t, s, http.MethodPost, "/api/v1/batches", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if runner.email != "a@b.com" {
		t.Fatalf("email = %q", runner.email)
	}
	if len(runner.raws) != 2 {
		t.Fatalf("raws = %d", len(runner.raws))
	}

	data := envelope["data"].(map[string]any)
	if data["savedCount"] != float64(2) {
		t.Fatalf("savedCount = %v", data["savedCount"])
	}
	if data["success"] != true {
		t.Fatalf("success = %v", data["success"])
	}
}

func TestHandleBatchMergesArticlesAndURLs(t *testing.T) {
	runner := &stubRunner{result: okResult(1)}
	urlResult := okResult(0)
	urlResult.SkippedCount = 1
	urlResult.SkippedIDs = []int64{42}
	processor := &stubProcessor{result: urlResult}
	s := newTestServer(&stubReader{}, runner, processor)

	payload := `{"articles":[{"url":"http://x","title":"T","summary":"s"}],"urls":["http://example.com/a"]}`
	rec, envelope := doRequest(t, s, http.MethodPost, "/api/v1/batches", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(processor.urls) != 1 {
		t.Fatalf("urls = %v", processor.urls)
	}

	data := envelope["data"].(map[string]any)
	if data["savedCount"] != float64(1) || data["skippedCount"] != float64(1) {
		t.Fatalf("counts = %v / %v", data["savedCount"], data["skippedCount"])
	}
	skipped := data["skippedIds"].([]any)
	if len(skipped) != 1 || skipped[0] != float64(42) {
		t.Fatalf("skippedIds = %v", skipped)
	}
}

func TestHandleBatchRejectsInvalidPayload(t *testing.T) {
	s := newTestServer(&stubReader{}, &stubRunner{result: okResult(0)}, nil)

	cases := []struct {
		name    string
		payload string
	}{
		{name: "empty object", payload: `{}`},
		{name: "bad email", payload: `{"user_email":"nope","urls":["http://x"]}`},
		{name: "not json", payload: `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, envelope := doRequest(t, s, http.MethodPost, "/api/v1/batches", tc.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if envelope["status"] != "fail" {
				t.Fatalf("status field = %v", envelope["status"])
			}
		})
	}
}

func TestHandleBatchReportsPipelineFailure(t *testing.T) {
	failed := &pipeline.BatchResult{
		SavedIDs:          []int64{},
		SkippedIDs:        []int64{},
		InvalidFormatURLs: []string{},
		Success:           false,
		Error:             "store unreachable",
	}
	s := newTestServer(&stubReader{}, &stubRunner{result: failed}, nil)

	rec, envelope := doRequest(t, s, http.MethodPost, "/api/v1/batches", `{"articles":[{"url":"http://x"}]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if envelope["message"] != "store unreachable" {
		t.Fatalf("message = %v", envelope["message"])
	}
}

func TestHandleArticleDetail(t *testing.T) {
	reader := &stubReader{
		article: &pipeline.StoredArticle{
			ID: 7,
			Record: normalize.Record{
				URL:   "http://example.com/a",
				Title: "Stored",
			},
		},
	}
	s := newTestServer(reader, nil, nil)

	rec, envelope := doRequest(t, s, http.MethodGet, "/api/v1/articles/7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := envelope["data"].(map[string]any)
	if data["articleId"] != float64(7) || data["title"] != "Stored" {
		t.Fatalf("data = %v", data)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/articles/8", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing article status = %d", rec.Code)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/articles/zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
}

func TestHandleUserArticlesPagination(t *testing.T) {
	reader := &stubReader{
		items: []db.ArticleSummary{{ArticleID: 1, URL: "http://x", Title: "A"}},
		count: 51,
	}
	s := newTestServer(reader, nil, nil)

	rec, envelope := doRequest(t, s, http.MethodGet, "/api/v1/users/a@b.com/articles?date=05032026&page=2&page_size=25", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	data := envelope["data"].(map[string]any)
	pagination := data["pagination"].(map[string]any)
	if pagination["total_items"] != float64(51) || pagination["total_pages"] != float64(3) {
		t.Fatalf("pagination = %v", pagination)
	}
	if data["date"] != "05032026" {
		t.Fatalf("date = %v", data["date"])
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/users/a@b.com/articles?date=2026-03-05", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", rec.Code)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/users/a@b.com/articles?date=05032026&page_size=9999", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized page status = %d", rec.Code)
	}
}

func TestHandleUserDates(t *testing.T) {
	reader := &stubReader{dates: []string{"05032026", "04032026"}}
	s := newTestServer(reader, nil, nil)

	rec, envelope := doRequest(t, s, http.MethodGet, "/api/v1/users/a@b.com/dates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := envelope["data"].(map[string]any)
	dates := data["dates"].([]any)
	if len(dates) != 2 || dates[0] != "05032026" {
		t.Fatalf("dates = %v", dates)
	}
}

func TestHandleArticlesByKeyword(t *testing.T) {
	reader := &stubReader{
		items: []db.ArticleSummary{{ArticleID: 3, Title: "Tagged", Keywords: []string{"ai"}}},
	}
	s := newTestServer(reader, nil, nil)

	rec, envelope := doRequest(t, s, http.MethodGet, "/api/v1/articles?keyword=ai", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := envelope["data"].(map[string]any)
	items := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/articles?keyword=", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing keyword status = %d", rec.Code)
	}
}

func TestHandleStatsError(t *testing.T) {
	reader := &stubReader{queryErr: fmt.Errorf("connection refused")}
	s := newTestServer(reader, nil, nil)

	rec, envelope := doRequest(t, s, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if envelope["status"] != "error" {
		t.Fatalf("status field = %v", envelope["status"])
	}
}

func TestParsePositiveInt(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: 10},
		{raw: " 3 ", want: 3},
		{raw: "0", wantErr: true},
		{raw: "101", wantErr: true},
		{raw: "abc", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parsePositiveInt(tc.raw, 10, 1, 100)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parsePositiveInt(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parsePositiveInt(%q) = %d, %v", tc.raw, got, err)
		}
	}
}
