package normalize

import (
	"encoding/json"
	"strings"
)

// Section describes one block of the composed content: a heading plus the
// input keys whose value feeds the block.
type Section struct {
	Title   string   `json:"title"`
	Aliases []string `json:"aliases"`
}

// DefaultSections mirrors the summary layout produced by the upstream
// summarization step.
func DefaultSections() []Section {
	return []Section{
		{Title: "Summary", Aliases: fieldAliases[FieldSummary]},
		{Title: "Key Points", Aliases: fieldAliases[FieldKeyPoints]},
		{Title: "Implications", Aliases: fieldAliases[FieldImplications]},
		{Title: "Intended Audience", Aliases: fieldAliases[FieldAudience]},
	}
}

// ParseSections decodes a user-supplied section layout. An empty input
// yields nil so the caller can fall back to DefaultSections.
func ParseSections(raw string) ([]Section, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var sections []Section
	if err := json.Unmarshal([]byte(trimmed), &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// ComposeContent renders the configured sections against the input map.
// Each matched section becomes a "### Title" heading followed by either a
// bullet list or plain text. Empty sections are omitted. With no sections
// configured the whole input is serialized as a deterministic fallback.
func ComposeContent(input map[string]any, sections []Section) string {
	if len(sections) == 0 {
		return serializeFallback(input)
	}

	var blocks []string
	for _, section := range sections {
		value, ok := Lookup(input, section.Aliases)
		if !ok {
			continue
		}
		body := renderSectionBody(value)
		if body == "" {
			continue
		}
		blocks = append(blocks, "### "+section.Title+"\n"+body)
	}
	return strings.Join(blocks, "\n\n")
}

func renderSectionBody(value any) string {
	switch value.(type) {
	case []any, []string:
		items := AsList(value)
		if len(items) == 0 {
			return ""
		}
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, "- "+item)
		}
		return strings.Join(lines, "\n")
	default:
		return AsString(value)
	}
}

func serializeFallback(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}
	// json.Marshal sorts map keys, keeping the fallback deterministic.
	data, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return string(data)
}
