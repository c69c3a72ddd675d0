package frontmatter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/starford/othala/internal/models"
)

func TestDecode_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\nauthor: Lisa\ntags:\n  - go\n  - docs\n---\n# Hello\nBody text.\n")
	fm, body, err := Decode(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.Title != "Hello" {
		t.Errorf("title = %q, want %q", fm.Title, "Hello")
	}
	if fm.Author != "Lisa" {
		t.Errorf("author = %q, want %q", fm.Author, "Lisa")
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "go" || fm.Tags[1] != "docs" {
		t.Errorf("tags = %v, want [go docs]", fm.Tags)
	}
	if body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDecode_NoFrontmatter(t *testing.T) {
	fm, body, err := Decode([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(fm, models.FrontMatter{}) {
		t.Errorf("expected zero frontmatter, got %+v", fm)
	}
	if body != "# Just a heading\nSome text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDecode_NoClosingDelimiter(t *testing.T) {
	input := []byte("---\ntitle: Dangling\nno closing fence")
	fm, body, err := Decode(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.Title != "" {
		t.Errorf("title = %q, want empty", fm.Title)
	}
	if body != string(input) {
		t.Errorf("body = %q, want full input", body)
	}
}

func TestDecode_InvalidYAML(t *testing.T) {
	if _, _, err := Decode([]byte("---\n: invalid: yaml: {{{\n---\nBody\n")); err == nil {
		t.Error("expected error for invalid YAML frontmatter")
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	fm := models.FrontMatter{
		Title:    "Release notes",
		Author:   "Milhouse",
		Synopsis: "What changed",
		Tags:     []string{"release", "notes"},
		Slug:     "release-notes",
		Version:  "1.2",
		Draft:    true,
		Date:     "2018-03-01",
	}
	data, err := Encode(fm, "# Release\n\nDetails.\n")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Errorf("encoded document missing opening delimiter: %q", data[:16])
	}

	got, body, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Title != fm.Title || got.Author != fm.Author || got.Slug != fm.Slug || !got.Draft {
		t.Errorf("round-trip frontmatter = %+v, want %+v", got, fm)
	}
	if body != "# Release\n\nDetails.\n" {
		t.Errorf("round-trip body = %q", body)
	}
}
