package translate

import (
	"testing"

	"github.com/starford/othala/internal/models"
)

var enabled = []models.Language{
	{Code: "en", Name: "English"},
	{Code: "fi", Name: "Finnish"},
	{Code: "sv", Name: "Swedish"},
}

func TestFilename(t *testing.T) {
	cases := []struct {
		slug, code string
		want       string
	}{
		{"", "", "index.md"},
		{"", "en", "index.md"},
		{"", "fi", "index.fi.md"},
		{"guide", "en", "guide.md"},
		{"guide", "sv", "guide.sv.md"},
	}
	for _, c := range cases {
		if got := Filename(c.slug, c.code, "en"); got != c.want {
			t.Errorf("Filename(%q, %q) = %q, want %q", c.slug, c.code, got, c.want)
		}
	}
}

func TestResolveLanguage(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"index.md", "en"},
		{"index.fi.md", "fi"},
		{"index.sv.md", "sv"},
		{"index.xx.md", "en"}, // not an enabled language
		{"notes.txt", "en"},
		{"index.fin.md", "en"}, // three letters is not a code
	}
	for _, c := range cases {
		if got := ResolveLanguage(c.filename, "en", enabled); got != c.want {
			t.Errorf("ResolveLanguage(%q) = %q, want %q", c.filename, got, c.want)
		}
	}
}

// ResolveLanguage inverts Filename for every enabled language.
func TestResolveLanguage_RoundTrip(t *testing.T) {
	for _, l := range enabled {
		fn := Filename("index", l.Code, "en")
		if got := ResolveLanguage(fn, "en", enabled); got != l.Code {
			t.Errorf("ResolveLanguage(Filename(index, %q)) = %q, want %q", l.Code, got, l.Code)
		}
	}
}

func TestIsTranslation(t *testing.T) {
	if IsTranslation("en", "en") {
		t.Error("default language counted as translation")
	}
	if !IsTranslation("fi", "en") {
		t.Error("fi not counted as translation")
	}
	if IsTranslation("", "en") {
		t.Error("empty code counted as translation")
	}
}

func TestTargetFilename(t *testing.T) {
	if got := TargetFilename("index.md", "fi"); got != "index.fi.md" {
		t.Errorf("TargetFilename = %q, want index.fi.md", got)
	}
	if got := TargetFilename("guide.md", "sv"); got != "guide.sv.md" {
		t.Errorf("TargetFilename = %q, want guide.sv.md", got)
	}
}

func TestMissing(t *testing.T) {
	missing := Missing([]string{"en", "fi"}, enabled)
	if len(missing) != 1 || missing[0].Code != "sv" {
		t.Errorf("Missing = %v, want [sv]", missing)
	}
	if got := Missing([]string{"en", "fi", "sv"}, enabled); got != nil {
		t.Errorf("Missing with all present = %v, want nil", got)
	}
}
