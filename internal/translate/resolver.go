// Package translate derives document languages from filenames and maps them
// against the configured language set.
package translate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/othala/internal/models"
)

// languageRe matches a two-letter code suffix before the .md extension,
// e.g. "index.fi.md".
var languageRe = regexp.MustCompile(`\.([a-z]{2})\.md$`)

// Filename derives a document's on-disk filename from its slug and language
// code. The default-language document carries no code suffix; callers never
// set filenames directly.
func Filename(slug, code, defaultLanguage string) string {
	if slug == "" {
		slug = "index"
	}
	if code != "" && code != defaultLanguage {
		return fmt.Sprintf("%s.%s.md", slug, code)
	}
	return fmt.Sprintf("%s.md", slug)
}

// ResolveLanguage extracts the language code from a filename. A code that is
// absent or not in the enabled set resolves to the default language.
func ResolveLanguage(filename, defaultLanguage string, enabled []models.Language) string {
	m := languageRe.FindStringSubmatch(filename)
	if m == nil {
		return defaultLanguage
	}
	for _, l := range enabled {
		if l.Code == m[1] {
			return m[1]
		}
	}
	return defaultLanguage
}

// IsTranslation reports whether a document in the given language is a
// translation rather than the default-language original.
func IsTranslation(code, defaultLanguage string) bool {
	return code != "" && code != defaultLanguage
}

// TargetFilename inserts a language code before the extension of a source
// filename, producing the storage name for a new translation.
func TargetFilename(sourceFilename, code string) string {
	ext := filepath.Ext(sourceFilename)
	base := strings.TrimSuffix(sourceFilename, ext)
	return fmt.Sprintf("%s.%s%s", base, code, ext)
}

// Missing returns the enabled languages for which no document exists yet,
// the set a translation can still be created for.
func Missing(present []string, enabled []models.Language) []models.Language {
	have := make(map[string]struct{}, len(present))
	for _, c := range present {
		have[c] = struct{}{}
	}
	var out []models.Language
	for _, l := range enabled {
		if _, ok := have[l.Code]; !ok {
			out = append(out, l)
		}
	}
	return out
}
