package pipeline

import (
	"strings"

	"github.com/aydinmyilmaz/genai-newsflash/internal/normalize"
)

// IsValid reports whether a record carries the minimum fields required for
// storage: a url, a title, and some body text in either content or summary.
func IsValid(rec *normalize.Record) bool {
	if rec == nil {
		return false
	}
	if strings.TrimSpace(rec.URL) == "" {
		return false
	}
	if strings.TrimSpace(rec.Title) == "" {
		return false
	}
	return strings.TrimSpace(rec.Content) != "" || strings.TrimSpace(rec.SummaryText) != ""
}
