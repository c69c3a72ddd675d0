package repostore

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

var languages = models.TranslationInfo{
	DefaultLanguage: "en",
	Languages: []models.Language{
		{Code: "en", Name: "English"},
		{Code: "fi", Name: "Finnish"},
	},
}

func commitPayload(rev, message string, files ...models.CommitFile) models.CommitPayload {
	return models.CommitPayload{
		Message:        message,
		Files:          files,
		RepositoryInfo: models.RepositoryInfo{LatestRevision: rev},
	}
}

func docFile(body string) models.CommitFile {
	return models.CommitFile{
		Filename:    "index.md",
		Path:        "documents/my-post",
		Body:        body,
		FrontMatter: &models.FrontMatter{Title: "Hello", Author: "Lisa"},
	}
}

func TestApply_AdvancesHead(t *testing.T) {
	s := New(languages)
	head := s.Head()

	rev, err := s.Apply(commitPayload(head, "create post", docFile("# Hello\n")), "Lisa", "lisa@example.org")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rev == head {
		t.Error("revision did not advance")
	}
	if s.Head() != rev {
		t.Errorf("Head = %q, want %q", s.Head(), rev)
	}

	f, err := s.GetFile("documents", "my-post", "index.md", true, false)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if f.Markdown == nil || *f.Markdown != "# Hello\n" {
		t.Errorf("markdown = %v", f.Markdown)
	}
	if f.FrontMatter.Title != "Hello" {
		t.Errorf("title = %q", f.FrontMatter.Title)
	}
	if f.RepositoryInfo.LatestRevision != rev {
		t.Errorf("payload revision = %q, want %q", f.RepositoryInfo.LatestRevision, rev)
	}
}

func TestApply_StaleRevision(t *testing.T) {
	s := New(languages)
	stale := s.Head()

	if _, err := s.Apply(commitPayload(stale, "first", docFile("one")), "a", "a@x"); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	// Second write stamped with the pre-first revision must be rejected
	// without applying anything.
	_, err := s.Apply(commitPayload(stale, "second", models.CommitFile{
		Filename: "index.md", Path: "documents/other", Body: "two",
		FrontMatter: &models.FrontMatter{Title: "Other"},
	}), "b", "b@x")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := s.GetFile("documents", "other", "index.md", true, false); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("rejected commit left a partial write")
	}
}

func TestApply_MissingRevision(t *testing.T) {
	s := New(languages)
	if _, err := s.Apply(commitPayload("", "no stamp", docFile("x")), "a", "a@x"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestApply_Empty(t *testing.T) {
	s := New(languages)
	if _, err := s.Apply(commitPayload(s.Head(), "nothing to do"), "a", "a@x"); !errors.Is(err, apperr.ErrEmptyCommit) {
		t.Errorf("err = %v, want ErrEmptyCommit", err)
	}
}

func TestApply_MultiFileAtomic(t *testing.T) {
	s := New(languages)
	attachment := models.CommitFile{
		Filename:      "pic.png",
		Path:          "documents/my-post/images",
		Body:          "!!! not base64 !!!",
		Base64Encoded: true,
	}
	_, err := s.Apply(commitPayload(s.Head(), "post with broken attachment", docFile("body"), attachment), "a", "a@x")
	if err == nil {
		t.Fatal("expected error for undecodable attachment")
	}
	if _, err := s.GetFile("documents", "my-post", "index.md", true, false); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("failed commit applied its other files")
	}
}

func TestRemove_TakesAttachmentsDirectory(t *testing.T) {
	s := New(languages)
	att := models.CommitFile{
		Filename:      "pic.png",
		Path:          "documents/my-post/images",
		Body:          base64.StdEncoding.EncodeToString([]byte("png")),
		Base64Encoded: true,
	}
	rev, err := s.Apply(commitPayload(s.Head(), "create with attachment", docFile("body"), att), "a", "a@x")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := s.Attachments("documents", "my-post"); err != nil {
		t.Fatalf("Attachments before delete: %v", err)
	}

	_, err = s.Remove(commitPayload(rev, "delete post", models.CommitFile{
		Filename: "index.md", Path: "documents/my-post",
	}), "a", "a@x")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.GetFile("documents", "my-post", "index.md", true, false); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("document survived removal")
	}
	if _, err := s.Attachments("documents", "my-post"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("attachments directory survived removal")
	}
}

func TestRemove_TranslationKeepsSharedAttachments(t *testing.T) {
	s := New(languages)
	att := models.CommitFile{
		Filename:      "pic.png",
		Path:          "documents/my-post/images",
		Body:          base64.StdEncoding.EncodeToString([]byte("png")),
		Base64Encoded: true,
	}
	rev, err := s.Apply(commitPayload(s.Head(), "create with attachment", docFile("body"), att), "a", "a@x")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	rev, err = s.Translate(models.TranslationRequest{
		SourceFilename: "index.md",
		Path:           "documents/my-post",
		LanguageCode:   "fi",
		RepositoryInfo: models.RepositoryInfo{LatestRevision: rev},
	}, "a", "a@x")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	// Dropping only the translation leaves the original and its images.
	rev, err = s.Remove(commitPayload(rev, "delete translation", models.CommitFile{
		Filename: "index.fi.md", Path: "documents/my-post",
	}), "a", "a@x")
	if err != nil {
		t.Fatalf("Remove translation: %v", err)
	}
	if _, err := s.GetFile("documents", "my-post", "index.md", true, false); err != nil {
		t.Errorf("original removed alongside translation: %v", err)
	}
	if _, err := s.Attachments("documents", "my-post"); err != nil {
		t.Errorf("attachments swept while a variant survives: %v", err)
	}

	// Dropping the last variant takes the images with it.
	if _, err := s.Remove(commitPayload(rev, "delete post", models.CommitFile{
		Filename: "index.md", Path: "documents/my-post",
	}), "a", "a@x"); err != nil {
		t.Fatalf("Remove original: %v", err)
	}
	if _, err := s.Attachments("documents", "my-post"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("attachments directory survived removal of the last variant")
	}
}

func TestTranslate(t *testing.T) {
	s := New(languages)
	rev, err := s.Apply(commitPayload(s.Head(), "create post", docFile("# Hello\n")), "a", "a@x")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	newRev, err := s.Translate(models.TranslationRequest{
		SourceFilename: "index.md",
		Path:           "documents/my-post",
		LanguageCode:   "fi",
		RepositoryInfo: models.RepositoryInfo{LatestRevision: rev},
	}, "a", "a@x")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if newRev == rev {
		t.Error("translation did not advance the revision")
	}

	f, err := s.GetFile("documents", "my-post", "index.fi.md", true, false)
	if err != nil {
		t.Fatalf("GetFile translation: %v", err)
	}
	if f.Language != "fi" {
		t.Errorf("language = %q, want fi", f.Language)
	}

	// Original now lists the fi sibling.
	orig, err := s.GetFile("documents", "my-post", "index.md", true, false)
	if err != nil {
		t.Fatalf("GetFile original: %v", err)
	}
	if len(orig.Translations) != 1 || orig.Translations[0] != "fi" {
		t.Errorf("translations = %v, want [fi]", orig.Translations)
	}

	// The translation lists the suffix-free original as its en sibling.
	if len(f.Translations) != 1 || f.Translations[0] != "en" {
		t.Errorf("translation siblings = %v, want [en]", f.Translations)
	}

	// Creating the same variant again must fail.
	if _, err := s.Translate(models.TranslationRequest{
		SourceFilename: "index.md",
		Path:           "documents/my-post",
		LanguageCode:   "fi",
		RepositoryInfo: models.RepositoryInfo{LatestRevision: newRev},
	}, "a", "a@x"); err == nil {
		t.Error("duplicate translation accepted")
	}
}

func TestHistory(t *testing.T) {
	s := New(languages)
	rev1, err := s.Apply(commitPayload(s.Head(), "create post", docFile("first\n")), "Lisa", "lisa@x")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	rev2, err := s.Apply(commitPayload(rev1, "update post", docFile("second\n")), "Bart", "bart@x")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	hist, err := s.History("documents", "my-post", "index.md")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(hist))
	}
	// Newest first.
	if hist[0].Hash != rev2 || hist[1].Hash != rev1 {
		t.Errorf("history order = %q, %q", hist[0].Hash, hist[1].Hash)
	}
	if hist[0].Old != "first\n" || hist[0].New != "second\n" {
		t.Errorf("update snapshots = %q -> %q", hist[0].Old, hist[0].New)
	}
	if hist[1].Old != "" || hist[1].New != "first\n" {
		t.Errorf("create snapshots = %q -> %q", hist[1].Old, hist[1].New)
	}
	if hist[0].Author != "Bart" {
		t.Errorf("author = %q, want Bart", hist[0].Author)
	}
}

func TestListDirectory(t *testing.T) {
	s := New(languages)
	p := commitPayload(s.Head(), "create posts",
		docFile("one"),
		models.CommitFile{
			Filename: "index.md", Path: "documents/another", Body: "two",
			FrontMatter: &models.FrontMatter{Title: "Another"},
		},
	)
	p.Directories = []models.CommitDirectory{{
		Path: "documents",
		Info: models.DirectoryInfo{Title: "Documents", Description: "Main content", Body: "Intro text"},
	}}
	if _, err := s.Apply(p, "a", "a@x"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	listing, err := s.ListDirectory("documents")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(listing.Files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(listing.Files))
	}
	if listing.Files[0].Document != "another" || listing.Files[1].Document != "my-post" {
		t.Errorf("order = %q, %q", listing.Files[0].Document, listing.Files[1].Document)
	}
	if listing.Info.Title != "Documents" || listing.Info.Body != "Intro text" {
		t.Errorf("info = %+v", listing.Info)
	}

	if _, err := s.ListDirectory("absent"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("absent directory err = %v, want ErrNotFound", err)
	}
}

func TestGetFile_Rendered(t *testing.T) {
	s := New(languages)
	if _, err := s.Apply(commitPayload(s.Head(), "create post", docFile("# Heading\n")), "a", "a@x"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	f, err := s.GetFile("documents", "my-post", "index.md", false, true)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if f.Markdown != nil {
		t.Error("rendered fetch included raw markdown")
	}
	if f.HTML == nil || !strings.Contains(*f.HTML, "<h1") {
		t.Errorf("html = %v, want a rendered heading", f.HTML)
	}
}
