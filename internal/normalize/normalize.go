package normalize

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/aydinmyilmaz/genai-newsflash/internal/globaltime"
	"github.com/aydinmyilmaz/genai-newsflash/internal/langdetect"
)

// Record is the canonical article unit the rest of the pipeline works with.
type Record struct {
	URL              string
	Title            string
	Content          string
	SummaryText      string
	Authors          []string
	PublishedDate    string
	ProcessingDate   string
	Keywords         []string
	IntendedAudience []string
	Score            any
	Language         string
	ModelUsed        string
}

// Options carries the per-process normalization configuration. Zero value
// is usable: DefaultSections and an empty model name.
type Options struct {
	Sections  []Section
	ModelUsed string
}

func (o Options) sections() []Section {
	if len(o.Sections) > 0 {
		return o.Sections
	}
	return DefaultSections()
}

// Normalize maps a heterogeneous input map onto a Record. It returns nil
// when url, title and composed content are all unresolvable, which callers
// treat as a skip with diagnostics rather than an error.
func Normalize(input map[string]any, opts Options) *Record {
	if len(input) == 0 {
		return nil
	}

	rec := &Record{
		ProcessingDate: globaltime.ProcessingDate(),
		ModelUsed:      opts.ModelUsed,
	}

	if value, ok := LookupField(input, FieldURL); ok {
		rec.URL = AsString(value)
	}
	if value, ok := LookupField(input, FieldTitle); ok {
		rec.Title = AsString(value)
	}
	if value, ok := LookupField(input, FieldSummary); ok {
		rec.SummaryText = AsString(value)
	}
	if value, ok := LookupField(input, FieldAuthors); ok {
		rec.Authors = AsList(value)
	} else {
		rec.Authors = []string{}
	}
	if value, ok := LookupField(input, FieldAudience); ok {
		rec.IntendedAudience = AsList(value)
	} else {
		rec.IntendedAudience = []string{}
	}
	if value, ok := LookupField(input, FieldScore); ok {
		rec.Score = value
	}
	if value, ok := LookupField(input, FieldModelUsed); ok {
		if model := AsString(value); model != "" {
			rec.ModelUsed = model
		}
	}

	tags := []string{}
	if value, ok := LookupField(input, FieldTags); ok {
		tags = AsList(value)
	}
	entities := []string{}
	if value, ok := LookupField(input, FieldEntities); ok {
		entities = AsList(value)
	}
	rec.Keywords = Union(tags, entities)

	rec.PublishedDate = resolvePublishedDate(input)
	rec.Content = ComposeContent(input, opts.sections())

	if rec.URL == "" && rec.Title == "" && rec.Content == "" {
		return nil
	}

	if sample := rec.Content; sample != "" {
		rec.Language = langdetect.DetectISO6391(sample)
	} else if rec.SummaryText != "" {
		rec.Language = langdetect.DetectISO6391(rec.SummaryText)
	}

	return rec
}

// BestEffortURL extracts something URL-shaped from a raw input for
// diagnostics when normalization fails. Falls back to a placeholder.
func BestEffortURL(input map[string]any) string {
	if value, ok := LookupField(input, FieldURL); ok {
		if url := AsString(value); url != "" {
			return url
		}
	}
	return "<unknown>"
}

func resolvePublishedDate(input map[string]any) string {
	value, ok := LookupField(input, FieldPublishedDate)
	if !ok {
		return globaltime.ISO()
	}
	raw := AsString(value)
	if raw == "" {
		return globaltime.ISO()
	}
	if parsed, err := dateparse.ParseAny(raw); err == nil {
		return parsed.UTC().Format(time.RFC3339)
	}
	return raw
}
