// Package history computes display diffs between two revisions of a
// document's text.
package history

import (
	"html"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/starford/othala/internal/models"
)

// Kind classifies a file-level change between two revisions. Exactly one
// kind holds per file per revision.
type Kind int

const (
	Created Kind = iota
	Updated
	Deleted
)

// String returns the kind name used in listings.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "deleted"
	}
}

// Op is the direction of one diff span.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Span is one annotated run of text in a diff.
type Span struct {
	Op   Op
	Text string
}

// Patch holds one file's change within a historic commit.
type Patch struct {
	Hash     string
	Filename string
	Old      *string
	New      *string
}

// NewPatch builds a patch from the optional old and new file snapshots.
func NewPatch(hash, filename string, oldFile, newFile *string) Patch {
	return Patch{Hash: hash, Filename: filename, Old: oldFile, New: newFile}
}

// FromCommit converts a history wire entry to a patch. The second return is
// false when the entry contains no change at all and should be skipped: an
// unchanged file produces no diff entry.
func FromCommit(filename string, hc models.HistoricCommit) (Patch, bool) {
	var oldFile, newFile *string
	if hc.Old != "" {
		oldFile = &hc.Old
	}
	if hc.New != "" {
		newFile = &hc.New
	}
	if oldFile == nil && newFile == nil {
		return Patch{}, false
	}
	if oldFile != nil && newFile != nil && *oldFile == *newFile {
		return Patch{}, false
	}
	return NewPatch(hc.Hash, filename, oldFile, newFile), true
}

// Kind reports whether the file was created, updated, or deleted.
func (p Patch) Kind() Kind {
	switch {
	case p.Old == nil && p.New != nil:
		return Created
	case p.Old != nil && p.New == nil:
		return Deleted
	default:
		return Updated
	}
}

// Diff computes the token-level diff between the old and new snapshots.
// Adjacent trivial edits are merged semantically so single-character
// fragments do not litter the output.
func (p Patch) Diff() []Span {
	var oldText, newText string
	if p.Old != nil {
		oldText = *p.Old
	}
	if p.New != nil {
		newText = *p.New
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	out := make([]Span, 0, len(diffs))
	for _, d := range diffs {
		span := Span{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			span.Op = Insert
		case diffmatchpatch.DiffDelete:
			span.Op = Delete
		default:
			span.Op = Equal
		}
		out = append(out, span)
	}
	return out
}

// HTML renders the diff with insertions and deletions as distinguishable
// marked spans, for display in a history view.
func (p Patch) HTML() string {
	var b strings.Builder
	for _, s := range p.Diff() {
		text := strings.ReplaceAll(html.EscapeString(s.Text), "\n", "&para;<br>")
		switch s.Op {
		case Insert:
			b.WriteString("<ins>" + text + "</ins>")
		case Delete:
			b.WriteString("<del>" + text + "</del>")
		default:
			b.WriteString("<span>" + text + "</span>")
		}
	}
	return b.String()
}
