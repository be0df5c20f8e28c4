package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// Key lowercases a raw map key and strips everything that is not a letter
// or digit, so "🌐 URL", "Published_Date" and "published date" all collapse
// to a comparable form.
func Key(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Canonical field names used across the pipeline.
const (
	FieldURL           = "url"
	FieldTitle         = "title"
	FieldSummary       = "summary"
	FieldAuthors       = "authors"
	FieldPublishedDate = "published_date"
	FieldTags          = "tags"
	FieldEntities      = "entities"
	FieldAudience      = "intended_audience"
	FieldScore         = "score"
	FieldModelUsed     = "model_used"
	FieldKeyPoints     = "key_points"
	FieldImplications  = "implications"
)

// fieldAliases maps each canonical field to the ordered list of accepted
// key spellings. Aliases are matched in order, exact first, then substring.
var fieldAliases = map[string][]string{
	FieldURL:           {"url", "link", "article url", "source url"},
	FieldTitle:         {"title", "headline", "article title"},
	FieldSummary:       {"summary", "content", "body", "text", "article content"},
	FieldAuthors:       {"authors", "author", "byline"},
	FieldPublishedDate: {"published date", "publication date", "date published", "pub date", "date"},
	FieldTags:          {"tags", "keywords", "topics"},
	FieldEntities:      {"entities", "named entities", "organizations"},
	FieldAudience:      {"intended audience", "target audience", "audience"},
	FieldScore:         {"score", "relevance score", "rating"},
	FieldModelUsed:     {"model used", "model", "llm model"},
	FieldKeyPoints:     {"key points", "main points", "highlights", "takeaways"},
	FieldImplications:  {"implications", "impact", "why it matters"},
}

// Aliases returns the accepted aliases for a canonical field name.
func Aliases(field string) []string {
	return fieldAliases[field]
}

// Lookup resolves one of the aliases against the input map using the shared
// matching rules: every input key is normalized with Key, each alias is
// tried for an exact normalized match, then for substring containment in
// either direction. Keys are scanned in sorted order so resolution is
// deterministic regardless of map iteration.
func Lookup(input map[string]any, aliases []string) (any, bool) {
	if len(input) == 0 || len(aliases) == 0 {
		return nil, false
	}

	normalized := make(map[string]string, len(input))
	keys := make([]string, 0, len(input))
	for raw := range input {
		keys = append(keys, raw)
		normalized[raw] = Key(raw)
	}
	sort.Strings(keys)

	for _, alias := range aliases {
		want := Key(alias)
		if want == "" {
			continue
		}
		for _, raw := range keys {
			if normalized[raw] == want {
				return input[raw], true
			}
		}
		for _, raw := range keys {
			have := normalized[raw]
			if have == "" {
				continue
			}
			if strings.Contains(have, want) || strings.Contains(want, have) {
				return input[raw], true
			}
		}
	}
	return nil, false
}

// LookupField resolves a canonical field through its alias table.
func LookupField(input map[string]any, field string) (any, bool) {
	return Lookup(input, fieldAliases[field])
}
