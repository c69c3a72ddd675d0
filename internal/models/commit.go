package models

// CommitFile is one file-change entry inside a commit payload. Attachment
// entries carry base64 contents and set Base64Encoded.
type CommitFile struct {
	Filename      string       `json:"filename"`
	Path          string       `json:"path"`
	Body          string       `json:"body"`
	FrontMatter   *FrontMatter `json:"frontmatter,omitempty"`
	Base64Encoded bool         `json:"base_64_encoded"`
}

// CommitDirectory is one directory-change entry inside a commit payload.
type CommitDirectory struct {
	Path string        `json:"name"`
	Info DirectoryInfo `json:"info"`
}

// CommitPayload is the atomic multi-file write submitted to the repository.
// All listed changes land in one server-side revision or none do. The
// payload is stamped with the client's last-observed revision; the server
// rejects it with 409 when that revision is stale.
type CommitPayload struct {
	Message        string            `json:"message"`
	Files          []CommitFile      `json:"files"`
	Directories    []CommitDirectory `json:"directories"`
	RepositoryInfo RepositoryInfo    `json:"repository_info"`
}

// TranslationRequest asks the server to create a new language variant of an
// existing document.
type TranslationRequest struct {
	SourceFilename string         `json:"source_filename"`
	Path           string         `json:"path"`
	LanguageCode   string         `json:"language_code"`
	RepositoryInfo RepositoryInfo `json:"repository_info"`
}
