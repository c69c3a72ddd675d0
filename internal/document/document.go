// Package document holds the in-memory entities for one edit session: a
// versioned document, its attachments, and directory metadata. Entities
// produce wire payloads on serialization; they never perform network I/O.
package document

import (
	"path"
	"strings"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/translate"
)

// Document is the editable representation of one Markdown file in the
// repository, identified by (directory, document slug, filename).
type Document struct {
	Path        string // containing directory, e.g. "documents"
	Slug        string // document directory, e.g. "my-post"
	Markdown    string
	FrontMatter models.FrontMatter

	Translations []string

	attachments     []*Attachment
	language        string
	initialMarkdown string

	languages models.TranslationInfo
}

// New constructs an empty document for a new-document flow. code is the
// language the document is authored in; the filename follows from it.
func New(dir, slug, code string, languages models.TranslationInfo) *Document {
	return &Document{
		Path:      dir,
		Slug:      slug,
		language:  code,
		languages: languages,
	}
}

// Load populates a document from a server payload. The payload must carry
// raw Markdown (a source-mode fetch) and a title in its frontmatter;
// anything less is apperr.ErrMalformedPayload and the document cannot be
// edited.
func Load(payload *models.File, languages models.TranslationInfo) (*Document, error) {
	if payload.Markdown == nil || payload.FrontMatter.Title == "" {
		return nil, apperr.ErrMalformedPayload
	}
	d := &Document{
		Path:            payload.Path,
		Slug:            payload.Document,
		Markdown:        *payload.Markdown,
		FrontMatter:     payload.FrontMatter,
		Translations:    payload.Translations,
		language:        translate.ResolveLanguage(payload.Filename, languages.DefaultLanguage, languages.Languages),
		initialMarkdown: *payload.Markdown,
		languages:       languages,
	}
	return d, nil
}

// Filename derives the document's on-disk name. It is never set directly:
// the base is always "index" and the language code is appended unless the
// document is in the default language.
func (d *Document) Filename() string {
	return translate.Filename("", d.language, d.languages.DefaultLanguage)
}

// Language returns the document's language code, derived at load time from
// the filename suffix, or the default language when none matched.
func (d *Document) Language() string {
	if d.language == "" {
		return d.languages.DefaultLanguage
	}
	return d.language
}

// IsTranslation reports whether the document is a non-default-language
// variant.
func (d *Document) IsTranslation() bool {
	return translate.IsTranslation(d.Language(), d.languages.DefaultLanguage)
}

// MissingTranslations lists the enabled languages this document has no
// sibling for yet.
func (d *Document) MissingTranslations() []models.Language {
	present := append([]string{d.Language()}, d.Translations...)
	return translate.Missing(present, d.languages.Languages)
}

// Changed reports whether the Markdown body differs from the snapshot taken
// at load time. Frontmatter-only edits do not register; see the package
// tests for the pinned behaviour.
func (d *Document) Changed() bool {
	return d.Markdown != d.initialMarkdown
}

// SetTags normalises the tag input to an ordered list. Editors submit tags
// either as a comma-separated string or as a list; anything else is
// apperr.ErrInvalidTags and leaves the document untouched.
func (d *Document) SetTags(v any) error {
	switch tags := v.(type) {
	case string:
		var out []string
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		d.FrontMatter.Tags = out
		return nil
	case []string:
		d.FrontMatter.Tags = append([]string(nil), tags...)
		return nil
	case []any:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			s, ok := t.(string)
			if !ok {
				return apperr.ErrInvalidTags
			}
			out = append(out, s)
		}
		d.FrontMatter.Tags = out
		return nil
	default:
		return apperr.ErrInvalidTags
	}
}

// AddAttachment attaches a new binary to the document. The attachment is
// owned by the document and discarded with it if never committed.
func (d *Document) AddAttachment(a *Attachment) {
	d.attachments = append(d.attachments, a)
}

// Attachments returns the document's attachments in order.
func (d *Document) Attachments() []*Attachment {
	return d.attachments
}

// Dir returns the document's directory within the repository.
func (d *Document) Dir() string {
	return path.Join(d.Path, d.Slug)
}

// Serialize produces the file-change entries for a commit: the primary
// Markdown file plus, when includeAttachments is set, one entry per
// attachment added this session. Delete flows pass false, since the
// attachments directory is removed wholesale rather than file-by-file.
func (d *Document) Serialize(includeAttachments bool) []models.CommitFile {
	fm := d.FrontMatter
	fm.Tags = append([]string(nil), fm.Tags...)

	files := []models.CommitFile{{
		Filename:    d.Filename(),
		Path:        d.Dir(),
		Body:        d.Markdown,
		FrontMatter: &fm,
	}}
	if !includeAttachments {
		return files
	}
	for _, a := range d.attachments {
		if a.IsNew() {
			files = append(files, a.serialize(d.Dir()))
		}
	}
	return files
}
