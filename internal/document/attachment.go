package document

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/starford/othala/internal/models"
)

// Attachment wraps a binary payload owned by a document, usually an image
// under the document's images directory. New attachments (added in the
// current edit session) are the only ones re-sent on update; persisted ones
// already live in the repository.
type Attachment struct {
	Name         string
	MediaType    string
	Size         int64
	LastModified time.Time

	data  string // base64, without any data-URI prefix
	isNew bool
}

// NewAttachment creates an attachment from raw bytes, marking it as new so
// it is included in the next serialized commit.
func NewAttachment(name, mediaType string, raw []byte, lastModified time.Time) *Attachment {
	return &Attachment{
		Name:         name,
		MediaType:    mediaType,
		Size:         int64(len(raw)),
		LastModified: lastModified,
		data:         base64.StdEncoding.EncodeToString(raw),
		isNew:        true,
	}
}

// AttachmentFromPayload reconstructs a persisted attachment from a server
// listing. It is not re-sent on update.
func AttachmentFromPayload(p models.Attachment) (*Attachment, error) {
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: decode: %w", p.Filename, err)
	}
	return &Attachment{
		Name:      p.Filename,
		MediaType: p.MediaType,
		Size:      int64(len(raw)),
		data:      p.Data,
		isNew:     false,
	}, nil
}

// IsNew reports whether the attachment was added in the current edit session.
func (a *Attachment) IsNew() bool {
	return a.isNew
}

// DataURI returns the attachment as a displayable data URI.
func (a *Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MediaType, a.data)
}

// Contents returns the decoded payload. Any data-URI prefix is stripped
// before decoding, so values pasted straight from a browser work too.
func (a *Attachment) Contents() ([]byte, error) {
	enc := a.data
	if i := strings.Index(enc, ";base64,"); i >= 0 {
		enc = enc[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: decode: %w", a.Name, err)
	}
	return raw, nil
}

// MarkdownReference returns the image-embed snippet for insertion into the
// owning document's body.
func (a *Attachment) MarkdownReference() string {
	return fmt.Sprintf("![%s](%s)", a.Name, path.Join("images", a.Name))
}

// serialize produces the commit entry for an attachment. dir is the owning
// document's directory, e.g. "documents/my-post".
func (a *Attachment) serialize(dir string) models.CommitFile {
	return models.CommitFile{
		Filename:      a.Name,
		Path:          path.Join(dir, "images"),
		Body:          a.data,
		Base64Encoded: true,
	}
}
