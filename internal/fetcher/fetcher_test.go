package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/llm"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="Grid Storage Breakthrough">
<meta property="article:published_time" content="2026-02-10T08:00:00Z">
<meta name="author" content="Jordan Reyes">
</head>
<body>
<article>
<h1>Grid Storage Breakthrough</h1>
<p>Researchers announced a new iron-air battery chemistry that stores grid
electricity for days at a fraction of the cost of lithium cells. The team
demonstrated a hundred-hour discharge cycle at a pilot plant, holding output
steady through two cloudy days without drawing from the grid.</p>
<p>The design relies on reversible rusting. During discharge the cells take
in oxygen and convert iron to rust, and while charging an applied current
converts the rust back to iron as the cells release oxygen. Because iron is
abundant and cheap, the economics differ sharply from existing storage.</p>
<p>Utilities in three states have signed letters of intent for pilot
deployments starting next year, according to the company, which plans to
scale manufacturing at a former steel mill.</p>
</article>
</body>
</html>`

func TestFetchPrimaryExtraction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	f := New(nil, Options{}, zerolog.Nop())
	got, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["title"] != "Grid Storage Breakthrough" {
		t.Fatalf("title = %v", got["title"])
	}
	if got["url"] != server.URL {
		t.Fatalf("url = %v", got["url"])
	}
	content, _ := got["content"].(string)
	if !strings.Contains(content, "iron-air battery") {
		t.Fatalf("content = %q", content)
	}
	if got["published_date"] != "2026-02-10T08:00:00Z" {
		t.Fatalf("published_date = %v", got["published_date"])
	}
	authors, _ := got["authors"].([]string)
	if len(authors) != 1 || authors[0] != "Jordan Reyes" {
		t.Fatalf("authors = %v", authors)
	}
}

func TestFetchFallsBackToModel(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>x</title></head><body><a href="/">home</a></body></html>`))
	}))
	defer page.Close()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Recovered\",\"content\":\"body text\",\"authors\":[\"A\"],\"published_date\":\"2026-01-01\"}"}}]}`))
	}))
	defer model.Close()

	f := New(llm.New(model.URL, "", "m"), Options{}, zerolog.Nop())
	got, err := f.Fetch(context.Background(), page.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["title"] != "Recovered" || got["content"] != "body text" {
		t.Fatalf("got %v", got)
	}
}

func TestFetchErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := New(nil, Options{}, zerolog.Nop())
	_, err := f.Fetch(context.Background(), server.URL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.URL != server.URL {
		t.Fatalf("FetchError url = %q", fetchErr.URL)
	}
}

func TestParseModelResult(t *testing.T) {
	cases := []struct {
		name        string
		in          string
		wantTitle   string
		wantContent string
	}{
		{
			name:        "json object",
			in:          `{"title":"T","content":"C","authors":[],"published_date":""}`,
			wantTitle:   "T",
			wantContent: "C",
		},
		{
			name:        "fenced json",
			in:          "```json\n{\"title\":\"T\",\"content\":\"C\"}\n```",
			wantTitle:   "T",
			wantContent: "C",
		},
		{
			name:        "plain string wrapped",
			in:          "just some prose the model returned",
			wantTitle:   "Unknown Title",
			wantContent: "just some prose the model returned",
		},
		{
			name:        "json string wrapped",
			in:          `"quoted prose"`,
			wantTitle:   "Unknown Title",
			wantContent: "quoted prose",
		},
		{
			name:        "object missing title",
			in:          `{"content":"C"}`,
			wantTitle:   "Unknown Title",
			wantContent: "C",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseModelResult(tc.in)
			if got.Title != tc.wantTitle || got.Content != tc.wantContent {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	in := "  First   line \r\n\r\n Second\tline \r third "
	want := "First line\n\nSecond line\n\nthird"
	if got := CleanText(in); got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}
