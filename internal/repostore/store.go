// Package repostore is an in-memory versioned repository implementing the
// commit contract: multi-file writes are applied atomically against a
// revision check, and every change is retained for history.
package repostore

import (
	"encoding/base64"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/translate"
)

const infoFile = ".info"

// fileChange records one file's before/after state within a commit.
type fileChange struct {
	old string
	new string
}

// commitRecord is one applied commit.
type commitRecord struct {
	hash    string
	message string
	author  string
	email   string
	time    time.Time
	changes map[string]fileChange
}

// Store holds the repository contents and its linear history.
type Store struct {
	mu        sync.Mutex
	files     map[string][]byte
	head      string
	log       []commitRecord
	languages models.TranslationInfo
	now       func() time.Time
}

// New creates an empty repository with an initial revision.
func New(languages models.TranslationInfo) *Store {
	s := &Store{
		files:     make(map[string][]byte),
		head:      checksum.Revision("", "initial"),
		languages: languages,
		now:       time.Now,
	}
	return s
}

// Head returns the current revision id.
func (s *Store) Head() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

// Languages returns the configured language set.
func (s *Store) Languages() models.TranslationInfo {
	return s.languages
}

// checkRevision enforces the optimistic-concurrency contract. Callers hold
// the lock.
func (s *Store) checkRevision(stamped string) error {
	if stamped == "" {
		return fmt.Errorf("commit: %w: no revision provided", apperr.ErrConflict)
	}
	if stamped != s.head {
		return apperr.ErrConflict
	}
	return nil
}

// advance records a commit and moves the head. Callers hold the lock.
func (s *Store) advance(message, author, email string, changes map[string]fileChange) string {
	parts := []string{message}
	paths := make([]string, 0, len(changes))
	for p := range changes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		parts = append(parts, p, changes[p].new)
	}
	s.head = checksum.Revision(s.head, parts...)
	s.log = append(s.log, commitRecord{
		hash:    s.head,
		message: message,
		author:  author,
		email:   email,
		time:    s.now(),
		changes: changes,
	})
	return s.head
}

// render converts a commit file entry to its stored bytes: Markdown files
// are written with an encoded frontmatter block, attachments are decoded
// from base64.
func render(cf models.CommitFile) ([]byte, error) {
	if cf.Base64Encoded {
		raw, err := base64.StdEncoding.DecodeString(cf.Body)
		if err != nil {
			return nil, fmt.Errorf("commit file %s: decode: %w", cf.Filename, err)
		}
		return raw, nil
	}
	if cf.FrontMatter != nil {
		return frontmatter.Encode(*cf.FrontMatter, cf.Body)
	}
	return []byte(cf.Body), nil
}

// Apply writes a commit's files and directories as one atomic revision.
// A stale stamped revision rejects the whole commit with apperr.ErrConflict
// and applies nothing.
func (s *Store) Apply(p models.CommitPayload, author, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRevision(p.RepositoryInfo.LatestRevision); err != nil {
		return "", err
	}
	if len(p.Files) == 0 && len(p.Directories) == 0 {
		return "", apperr.ErrEmptyCommit
	}

	// Render everything before touching state so a bad entry rejects the
	// whole commit.
	staged := make(map[string][]byte, len(p.Files))
	for _, cf := range p.Files {
		data, err := render(cf)
		if err != nil {
			return "", err
		}
		staged[path.Join(cf.Path, cf.Filename)] = data
	}
	for _, cd := range p.Directories {
		data, err := frontmatter.Encode(models.FrontMatter{
			Title:    cd.Info.Title,
			Synopsis: cd.Info.Description,
		}, cd.Info.Body)
		if err != nil {
			return "", err
		}
		staged[path.Join(cd.Path, infoFile)] = data
	}

	changes := make(map[string]fileChange, len(staged))
	for target, data := range staged {
		changes[target] = fileChange{old: string(s.files[target]), new: string(data)}
		s.files[target] = data
	}
	return s.advance(p.Message, author, email, changes), nil
}

// Remove deletes the files and directories named by a commit payload. A
// deleted file takes its sibling attachment directory with it once no
// other markdown variant remains; a deleted directory takes everything
// beneath its path.
func (s *Store) Remove(p models.CommitPayload, author, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRevision(p.RepositoryInfo.LatestRevision); err != nil {
		return "", err
	}
	if len(p.Files) == 0 && len(p.Directories) == 0 {
		return "", apperr.ErrEmptyCommit
	}

	prefixes := make([]string, 0, len(p.Files)+len(p.Directories))
	targets := make(map[string]struct{}, len(p.Files))
	docPaths := make(map[string]struct{}, len(p.Files))
	for _, cf := range p.Files {
		target := path.Join(cf.Path, cf.Filename)
		if _, ok := s.files[target]; !ok {
			return "", fmt.Errorf("remove %s: %w", target, apperr.ErrNotFound)
		}
		targets[target] = struct{}{}
		docPaths[cf.Path] = struct{}{}
	}
	// Attachments are shared across language variants, so the images
	// directory only goes when the last markdown file does.
	for dir := range docPaths {
		if !s.survivingMarkdownLocked(dir, targets) {
			prefixes = append(prefixes, path.Join(dir, "images")+"/")
		}
	}
	for _, cd := range p.Directories {
		prefixes = append(prefixes, cd.Path+"/")
	}

	changes := make(map[string]fileChange)
	for stored, data := range s.files {
		remove := false
		if _, ok := targets[stored]; ok {
			remove = true
		}
		for _, pre := range prefixes {
			if strings.HasPrefix(stored, pre) {
				remove = true
			}
		}
		if remove {
			changes[stored] = fileChange{old: string(data)}
			delete(s.files, stored)
		}
	}
	if len(changes) == 0 {
		return "", apperr.ErrNotFound
	}
	return s.advance(p.Message, author, email, changes), nil
}

// survivingMarkdownLocked reports whether a markdown file directly under
// dir remains after the removed set is taken out.
func (s *Store) survivingMarkdownLocked(dir string, removed map[string]struct{}) bool {
	pre := dir + "/"
	for stored := range s.files {
		if !strings.HasPrefix(stored, pre) || !strings.HasSuffix(stored, ".md") {
			continue
		}
		if strings.Contains(strings.TrimPrefix(stored, pre), "/") {
			continue
		}
		if _, ok := removed[stored]; !ok {
			return true
		}
	}
	return false
}

// Translate copies a source document to its language-coded sibling. The
// target must not already exist.
func (s *Store) Translate(req models.TranslationRequest, author, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRevision(req.RepositoryInfo.LatestRevision); err != nil {
		return "", err
	}

	var lang *models.Language
	for i, l := range s.languages.Languages {
		if l.Code == req.LanguageCode {
			lang = &s.languages.Languages[i]
		}
	}
	if lang == nil {
		return "", fmt.Errorf("translate: language %q not enabled", req.LanguageCode)
	}

	source := path.Join(req.Path, req.SourceFilename)
	data, ok := s.files[source]
	if !ok {
		return "", fmt.Errorf("translate %s: %w", source, apperr.ErrNotFound)
	}
	target := path.Join(req.Path, translate.TargetFilename(req.SourceFilename, req.LanguageCode))
	if _, exists := s.files[target]; exists {
		return "", fmt.Errorf("translate: target %s already exists", target)
	}

	s.files[target] = append([]byte(nil), data...)
	msg := fmt.Sprintf("%s translation initiated", lang.Name)
	return s.advance(msg, author, email, map[string]fileChange{
		target: {new: string(data)},
	}), nil
}
