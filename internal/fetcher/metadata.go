package fetcher

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type pageMetadata struct {
	Title         string
	Authors       []string
	PublishedDate string
}

// extractMetadata pulls title, authors and the published date out of the
// document head, preferring OpenGraph tags over the bare <title>.
func extractMetadata(body []byte) pageMetadata {
	var meta pageMetadata

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return meta
	}

	meta.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="twitter:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
		strings.TrimSpace(doc.Find("h1").First().Text()),
	)

	meta.PublishedDate = firstNonEmpty(
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[name="date"]`),
		strings.TrimSpace(doc.Find("time[datetime]").First().AttrOr("datetime", "")),
	)

	seen := make(map[string]struct{})
	doc.Find(`meta[name="author"], meta[property="article:author"]`).Each(func(_ int, sel *goquery.Selection) {
		author := strings.TrimSpace(sel.AttrOr("content", ""))
		if author == "" {
			return
		}
		if _, ok := seen[author]; ok {
			return
		}
		seen[author] = struct{}{}
		meta.Authors = append(meta.Authors, author)
	})
	if meta.Authors == nil {
		meta.Authors = []string{}
	}

	return meta
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
