package repostore

import (
	"encoding/base64"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/translate"
)

// mediaTypes covers the attachment extensions the editor accepts.
var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
}

func mediaType(ext string) string {
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// GetFile returns a document payload. includeMarkdown selects the raw
// source; includeHTML a rendered body. Both may be requested.
func (s *Store) GetFile(dir, doc, filename string, includeMarkdown, includeHTML bool) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := path.Join(dir, doc, filename)
	data, ok := s.files[target]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", target, apperr.ErrNotFound)
	}

	fm, body, err := frontmatter.Decode(data)
	if err != nil {
		return nil, err
	}

	f := &models.File{
		Path:           dir,
		Document:       doc,
		Filename:       filename,
		Language:       translate.ResolveLanguage(filename, s.languages.DefaultLanguage, s.languages.Languages),
		FrontMatter:    fm,
		Translations:   s.translationsLocked(dir, doc, filename),
		RepositoryInfo: &models.RepositoryInfo{LatestRevision: s.head},
	}
	if includeMarkdown {
		f.Markdown = &body
	}
	if includeHTML {
		html := renderMarkdown(body)
		f.HTML = &html
	}
	if info, ok := s.directoryInfoLocked(dir); ok {
		f.DirectoryInfo = &info
	}
	return f, nil
}

// ListDirectory returns a directory's metadata and document summaries.
func (s *Store) ListDirectory(dir string) (*models.DirectoryListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := dir + "/"
	var items []models.FileItem
	found := false
	for stored, data := range s.files {
		if !strings.HasPrefix(stored, prefix) {
			continue
		}
		found = true
		if !strings.HasSuffix(stored, ".md") {
			continue
		}
		rel := strings.TrimPrefix(stored, prefix)
		doc, filename := path.Split(rel)
		doc = strings.TrimSuffix(doc, "/")
		if doc == "" || strings.Contains(doc, "/") {
			continue
		}
		fm, _, err := frontmatter.Decode(data)
		if err != nil {
			continue
		}
		items = append(items, models.FileItem{
			Path:        dir,
			Document:    doc,
			Filename:    filename,
			UpdatedAt:   s.lastChangeLocked(stored),
			FrontMatter: fm,
		})
	}
	if !found {
		return nil, fmt.Errorf("directory %s: %w", dir, apperr.ErrNotFound)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Document != items[j].Document {
			return items[i].Document < items[j].Document
		}
		return items[i].Filename < items[j].Filename
	})

	listing := &models.DirectoryListing{
		Path:           dir,
		Files:          items,
		RepositoryInfo: &models.RepositoryInfo{LatestRevision: s.head},
	}
	if info, ok := s.directoryInfoLocked(dir); ok {
		listing.Info = info
	}
	return listing, nil
}

// Attachments lists a document's binary files, base64-encoded. A document
// without an attachments directory is apperr.ErrNotFound.
func (s *Store) Attachments(dir, doc string) ([]models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := path.Join(dir, doc) + "/"
	out := make([]models.Attachment, 0)
	found := false
	for stored, data := range s.files {
		if !strings.HasPrefix(stored, prefix) || strings.HasSuffix(stored, ".md") {
			continue
		}
		found = true
		ext := path.Ext(stored)
		out = append(out, models.Attachment{
			Path:      path.Dir(stored),
			Filename:  path.Base(stored),
			Extension: ext,
			MediaType: mediaType(ext),
			Data:      base64.StdEncoding.EncodeToString(data),
		})
	}
	if !found {
		return nil, fmt.Errorf("attachments for %s: %w", path.Join(dir, doc), apperr.ErrNotFound)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// History returns the commits that touched a file, newest first, with the
// file's contents before and after each commit.
func (s *Store) History(dir, doc, filename string) ([]models.HistoricCommit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := path.Join(dir, doc, filename)
	var out []models.HistoricCommit
	for i := len(s.log) - 1; i >= 0; i-- {
		rec := s.log[i]
		ch, ok := rec.changes[target]
		if !ok {
			continue
		}
		oldBody := stripFrontmatter(ch.old)
		newBody := stripFrontmatter(ch.new)
		out = append(out, models.HistoricCommit{
			Hash:    rec.hash,
			Message: rec.message,
			Author:  rec.author,
			Email:   rec.email,
			Time:    rec.time,
			Old:     oldBody,
			New:     newBody,
		})
	}
	if out == nil {
		return nil, fmt.Errorf("history for %s: %w", target, apperr.ErrNotFound)
	}
	return out, nil
}

// Translations lists the enabled language codes a document variant exists
// for, excluding the given filename's own language.
func (s *Store) Translations(dir, doc, filename string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.translationsLocked(dir, doc, filename)
}

func (s *Store) translationsLocked(dir, doc, filename string) []string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	// Strip an existing language code so variants of a translation are
	// found from the same family.
	if code := translate.ResolveLanguage(filename, "", s.languages.Languages); code != "" {
		base = strings.TrimSuffix(base, "."+code)
	}
	var out []string
	for _, l := range s.languages.Languages {
		// The default-language document carries no code suffix.
		variant := path.Join(dir, doc, translate.Filename(base, l.Code, s.languages.DefaultLanguage))
		if variant == path.Join(dir, doc, filename) {
			continue
		}
		if _, ok := s.files[variant]; ok {
			out = append(out, l.Code)
		}
	}
	return out
}

func (s *Store) directoryInfoLocked(dir string) (models.DirectoryInfo, bool) {
	data, ok := s.files[path.Join(dir, infoFile)]
	if !ok {
		return models.DirectoryInfo{}, false
	}
	fm, body, err := frontmatter.Decode(data)
	if err != nil {
		return models.DirectoryInfo{}, false
	}
	return models.DirectoryInfo{Title: fm.Title, Description: fm.Synopsis, Body: body}, true
}

// Directories lists every top-level directory and its metadata.
func (s *Store) Directories() []models.DirectoryListing {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for stored := range s.files {
		if i := strings.Index(stored, "/"); i > 0 {
			seen[stored[:i]] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]models.DirectoryListing, 0, len(names))
	for _, n := range names {
		listing := models.DirectoryListing{Path: n}
		if info, ok := s.directoryInfoLocked(n); ok {
			listing.Info = info
		}
		out = append(out, listing)
	}
	return out
}

func (s *Store) lastChangeLocked(target string) time.Time {
	for i := len(s.log) - 1; i >= 0; i-- {
		if _, ok := s.log[i].changes[target]; ok {
			return s.log[i].time
		}
	}
	return time.Time{}
}

func stripFrontmatter(content string) string {
	if content == "" {
		return ""
	}
	_, body, err := frontmatter.Decode([]byte(content))
	if err != nil {
		return content
	}
	return body
}
