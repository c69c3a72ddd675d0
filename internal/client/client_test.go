package client

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/commit"
	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/revision"
	"github.com/starford/othala/internal/testutil"
)

func loadDoc(t *testing.T, c *Client, dir, doc string) *document.Document {
	t.Helper()
	f, err := c.GetFile(context.Background(), dir, doc, "index.md", Source)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	d, err := document.Load(f, testutil.Languages)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return d
}

func TestGetFile_TracksRevision(t *testing.T) {
	store, srv := testutil.TestServer(t)
	testutil.Seed(t, store, "documents", "my-post", "Hello", "# Hello\n")
	tr := revision.NewTracker()
	c := New(srv.URL, "", tr)

	f, err := c.GetFile(context.Background(), "documents", "my-post", "index.md", Source)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if f.Markdown == nil || *f.Markdown != "# Hello\n" {
		t.Errorf("markdown = %v", f.Markdown)
	}
	if tr.Get() != store.Head() {
		t.Errorf("tracker = %q, want head %q", tr.Get(), store.Head())
	}
}

func TestRenderModes(t *testing.T) {
	store, srv := testutil.TestServer(t)
	testutil.Seed(t, store, "documents", "my-post", "Hello", "# Hello\n")
	c := New(srv.URL, "", revision.NewTracker())

	rendered, err := c.GetFile(context.Background(), "documents", "my-post", "index.md", Rendered)
	if err != nil {
		t.Fatalf("GetFile rendered: %v", err)
	}
	if rendered.HTML == nil || rendered.Markdown != nil {
		t.Errorf("rendered fetch: html=%v markdown=%v", rendered.HTML, rendered.Markdown)
	}

	source, err := c.GetFile(context.Background(), "documents", "my-post", "index.md", Source)
	if err != nil {
		t.Fatalf("GetFile source: %v", err)
	}
	if source.Markdown == nil || source.HTML != nil {
		t.Errorf("source fetch: html=%v markdown=%v", source.HTML, source.Markdown)
	}
}

func TestSaveFlow(t *testing.T) {
	store, srv := testutil.TestServer(t)
	testutil.Seed(t, store, "documents", "my-post", "Hello", "original\n")
	tr := revision.NewTracker()
	c := New(srv.URL, "", tr)

	d := loadDoc(t, c, "documents", "my-post")
	d.Markdown = "edited\n"
	if !d.Changed() {
		t.Fatal("document not marked changed")
	}

	p, err := commit.NewAssembler(tr).Assemble("update my post", []*document.Document{d}, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	rev, err := c.UpdateFile(context.Background(), "documents", "my-post", "index.md", p)
	if err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	if rev != store.Head() {
		t.Errorf("returned revision = %q, want head %q", rev, store.Head())
	}
	if tr.Get() != rev {
		t.Errorf("tracker = %q, want %q", tr.Get(), rev)
	}

	saved, err := c.GetFile(context.Background(), "documents", "my-post", "index.md", Source)
	if err != nil {
		t.Fatalf("GetFile after save: %v", err)
	}
	if *saved.Markdown != "edited\n" {
		t.Errorf("saved markdown = %q", *saved.Markdown)
	}
}

// The end-to-end conflict scenario: a stale commit classifies as Conflict
// and leaves the tracker at the stamped revision.
func TestSaveConflict_TrackerUnchanged(t *testing.T) {
	store, srv := testutil.TestServer(t)
	testutil.Seed(t, store, "documents", "my-post", "Hello", "original\n")
	tr := revision.NewTracker()
	c := New(srv.URL, "", tr)

	d := loadDoc(t, c, "documents", "my-post")
	observed := tr.Get()

	// Another client commits in the interim.
	testutil.Seed(t, store, "documents", "other", "Other", "other\n")

	d.Markdown = "my edit\n"
	p, err := commit.NewAssembler(tr).Assemble("update my post", []*document.Document{d}, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	_, err = c.UpdateFile(context.Background(), "documents", "my-post", "index.md", p)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if tr.Get() != observed {
		t.Errorf("tracker moved on failure: %q, want %q", tr.Get(), observed)
	}

	// The rejected write must not have landed.
	f, err := c.GetFile(context.Background(), "documents", "my-post", "index.md", Source)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if *f.Markdown != "original\n" {
		t.Errorf("markdown = %q, conflict applied a partial write", *f.Markdown)
	}

	// Refreshing the revision makes the retry succeed.
	p, err = commit.NewAssembler(tr).Assemble("update my post", []*document.Document{d}, nil)
	if err != nil {
		t.Fatalf("Assemble retry: %v", err)
	}
	if _, err := c.UpdateFile(context.Background(), "documents", "my-post", "index.md", p); err != nil {
		t.Fatalf("retry after refresh: %v", err)
	}
}

func TestCreateAndDelete(t *testing.T) {
	store, srv := testutil.TestServer(t)
	tr := revision.NewTracker()
	c := New(srv.URL, "", tr)
	if _, err := c.RepositoryInfo(context.Background()); err != nil {
		t.Fatalf("RepositoryInfo: %v", err)
	}

	d := document.New("documents", "fresh", "en", testutil.Languages)
	d.Markdown = "brand new\n"
	d.FrontMatter.Title = "Fresh"

	asm := commit.NewAssembler(tr)
	p, err := asm.Assemble("create fresh post", []*document.Document{d}, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if _, err := c.CreateDocument(context.Background(), "documents", p); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	listing, err := c.ListDirectory(context.Background(), "documents")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(listing.Files) != 1 || listing.Files[0].Document != "fresh" {
		t.Errorf("listing = %+v", listing.Files)
	}

	p, err = asm.AssembleRemoval("delete fresh post", []*document.Document{d}, nil)
	if err != nil {
		t.Fatalf("AssembleRemoval: %v", err)
	}
	if _, err := c.DeleteFile(context.Background(), "documents", "fresh", "index.md", p); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := c.GetFile(context.Background(), "documents", "fresh", "index.md", Source); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted file err = %v, want ErrNotFound", err)
	}
	if store.Head() != tr.Get() {
		t.Errorf("tracker = %q, want head %q", tr.Get(), store.Head())
	}
}

func TestTranslateAndHistory(t *testing.T) {
	store, srv := testutil.TestServer(t)
	rev := testutil.Seed(t, store, "documents", "my-post", "Hello", "first\n")
	tr := revision.NewTracker()
	tr.Set(rev)
	c := New(srv.URL, "", tr)

	_, err := c.Translate(context.Background(), "documents", "my-post", models.TranslationRequest{
		SourceFilename: "index.md",
		Path:           "documents/my-post",
		LanguageCode:   "fi",
		RepositoryInfo: models.RepositoryInfo{LatestRevision: tr.Get()},
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	f, err := c.GetFile(context.Background(), "documents", "my-post", "index.fi.md", Source)
	if err != nil {
		t.Fatalf("GetFile fi: %v", err)
	}
	if f.Language != "fi" {
		t.Errorf("language = %q, want fi", f.Language)
	}

	hist, err := c.History(context.Background(), "documents", "my-post", "index.md")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 1 || hist[0].New != "first\n" {
		t.Errorf("history = %+v", hist)
	}
}

func TestUnauthorized(t *testing.T) {
	store, srv := testutil.TestServerWithAuth(t, "secret")
	testutil.Seed(t, store, "documents", "my-post", "Hello", "x\n")

	wrong := New(srv.URL, "bad-token", revision.NewTracker())
	_, err := wrong.GetFile(context.Background(), "documents", "my-post", "index.md", Source)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}

	right := New(srv.URL, "secret", revision.NewTracker())
	if _, err := right.GetFile(context.Background(), "documents", "my-post", "index.md", Source); err != nil {
		t.Errorf("authorized fetch failed: %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	// Nothing listens here.
	c := New("http://127.0.0.1:1", "", revision.NewTracker())
	_, err := c.RepositoryInfo(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("transport failure mapped to HTTP taxonomy: %v", err)
	}
}
