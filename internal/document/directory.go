package document

import "github.com/starford/othala/internal/models"

// Directory is the editable representation of a versioned directory. It
// moves through the same commit protocol as documents.
type Directory struct {
	Path string
	Info models.DirectoryInfo
}

// NewDirectory constructs a directory entity for create and edit flows.
func NewDirectory(path string, info models.DirectoryInfo) *Directory {
	return &Directory{Path: path, Info: info}
}

// Serialize produces the directory-change entry for a commit.
func (dir *Directory) Serialize() models.CommitDirectory {
	return models.CommitDirectory{Path: dir.Path, Info: dir.Info}
}
