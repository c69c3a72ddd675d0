// Package frontmatter encodes and decodes YAML frontmatter blocks at the
// head of Markdown documents.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/othala/internal/models"
)

const delim = "---"

// Decode separates the YAML frontmatter (between leading --- delimiters)
// from the Markdown body. Content without a frontmatter block yields a zero
// FrontMatter and the full input as body.
func Decode(data []byte) (models.FrontMatter, string, error) {
	var fm models.FrontMatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return fm, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return models.FrontMatter{}, "", fmt.Errorf("frontmatter: decode: %w", err)
	}
	return fm, body, nil
}

// Encode renders a document as a frontmatter block followed by the body,
// the storage format for every Markdown file in the repository.
func Encode(fm models.FrontMatter, body string) ([]byte, error) {
	block, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(block)
	buf.WriteString(delim + "\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
