package repostore

import (
	"strings"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts a Markdown body to HTML for rendered-mode fetches.
func renderMarkdown(body string) string {
	var b strings.Builder
	if err := goldmark.Convert([]byte(body), &b); err != nil {
		// Conversion failures fall back to the raw source.
		return body
	}
	return b.String()
}
