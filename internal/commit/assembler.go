// Package commit assembles entity changes into atomic commit payloads
// stamped with the client's last-observed revision.
package commit

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/revision"
)

// Assembler packages document and directory changes into commit payloads.
// The tracker is read at assembly time, not at send time: a long-lived
// document can go stale in the meantime, which is exactly what the server's
// revision check exists to catch.
type Assembler struct {
	tracker *revision.Tracker
}

// NewAssembler creates an assembler bound to a revision tracker.
func NewAssembler(tracker *revision.Tracker) *Assembler {
	return &Assembler{tracker: tracker}
}

// Assemble builds the payload for a create or update commit. Attachments
// added this session are included alongside each document's primary file.
func (a *Assembler) Assemble(message string, docs []*document.Document, dirs []*document.Directory) (*models.CommitPayload, error) {
	return a.build(message, docs, dirs, true)
}

// AssembleRemoval builds the payload for a delete commit. Attachment
// entries are omitted; the server removes a deleted document's attachment
// directory wholesale.
func (a *Assembler) AssembleRemoval(message string, docs []*document.Document, dirs []*document.Directory) (*models.CommitPayload, error) {
	return a.build(message, docs, dirs, false)
}

func (a *Assembler) build(message string, docs []*document.Document, dirs []*document.Directory, includeAttachments bool) (*models.CommitPayload, error) {
	if len(docs) == 0 && len(dirs) == 0 {
		return nil, apperr.ErrEmptyCommit
	}
	if err := validation.Validate(message, validation.Required, validation.Length(5, 0)); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}

	p := &models.CommitPayload{
		Message:        message,
		Files:          []models.CommitFile{},
		Directories:    []models.CommitDirectory{},
		RepositoryInfo: models.RepositoryInfo{LatestRevision: a.tracker.Get()},
	}
	for _, d := range docs {
		p.Files = append(p.Files, d.Serialize(includeAttachments)...)
	}
	for _, dir := range dirs {
		p.Directories = append(p.Directories, dir.Serialize())
	}
	return p, nil
}

// Summary returns the first line of a commit message, the part listings
// display as the commit header.
func Summary(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return strings.TrimSpace(message)
}

// Body returns the paragraphs of a commit message after the summary line.
func Body(message string) []string {
	_, rest, found := strings.Cut(message, "\n")
	if !found {
		return nil
	}
	var out []string
	for _, para := range strings.Split(rest, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			out = append(out, para)
		}
	}
	return out
}
