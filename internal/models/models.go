// Package models defines the wire types shared by the Othala client and server.
package models

import "time"

// FrontMatter is the structured metadata at the head of a document.
type FrontMatter struct {
	Title    string   `json:"title"    yaml:"title"`
	Author   string   `json:"author"   yaml:"author"`
	Synopsis string   `json:"synopsis" yaml:"synopsis"`
	Tags     []string `json:"tags"     yaml:"tags"`
	Slug     string   `json:"slug"     yaml:"slug"`
	Version  string   `json:"version"  yaml:"version"`
	Draft    bool     `json:"draft"    yaml:"draft"`
	Date     string   `json:"date"     yaml:"date"`
}

// RepositoryInfo carries the optimistic-concurrency token. A commit is
// accepted only while LatestRevision still matches the repository head.
type RepositoryInfo struct {
	LatestRevision string `json:"latest_revision"`
}

// File is a full document payload, returned with rendered HTML or raw
// Markdown depending on the requested render mode.
type File struct {
	Path           string          `json:"path"`
	Document       string          `json:"document"`
	Filename       string          `json:"filename"`
	Language       string          `json:"language,omitempty"`
	HTML           *string         `json:"html"`
	Markdown       *string         `json:"markdown"`
	FrontMatter    FrontMatter     `json:"frontmatter"`
	Translations   []string        `json:"translations,omitempty"`
	DirectoryInfo  *DirectoryInfo  `json:"directory_info,omitempty"`
	RepositoryInfo *RepositoryInfo `json:"repository_info,omitempty"`
}

// FileItem is the listing form of a File; contents are omitted.
type FileItem struct {
	Path        string      `json:"path"`
	Document    string      `json:"document"`
	Filename    string      `json:"filename"`
	UpdatedAt   time.Time   `json:"updated_at"`
	FrontMatter FrontMatter `json:"frontmatter"`
}

// DirectoryInfo is the metadata stored in a directory's .info file.
type DirectoryInfo struct {
	Title       string `json:"title"       yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Body        string `json:"body"        yaml:"-"`
}

// DirectoryListing is a directory's metadata plus its documents.
type DirectoryListing struct {
	Path           string          `json:"path"`
	Info           DirectoryInfo   `json:"info"`
	Files          []FileItem      `json:"files"`
	RepositoryInfo *RepositoryInfo `json:"repository_info,omitempty"`
}

// Attachment is a binary file owned by a document, shipped base64-encoded.
type Attachment struct {
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
	MediaType string `json:"filetype"`
	Data      string `json:"data"`
}

// Language pairs a two-letter code with a display name.
type Language struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// TranslationInfo describes the configured language set.
type TranslationInfo struct {
	DefaultLanguage string     `json:"default_language"`
	Languages       []Language `json:"languages"`
}

// HistoricCommit is one entry in a document's history, including the file
// contents before and after the commit so diffs can be computed client-side.
type HistoricCommit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	Time    time.Time `json:"timestamp"`
	Old     string    `json:"old"`
	New     string    `json:"new"`
}
