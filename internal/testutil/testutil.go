// Package testutil provides shared test helpers for spinning up an
// in-memory repository behind the HTTP contract.
package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/starford/othala/internal/api"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/repostore"
)

// Languages is the language set used across tests.
var Languages = models.TranslationInfo{
	DefaultLanguage: "en",
	Languages: []models.Language{
		{Code: "en", Name: "English"},
		{Code: "fi", Name: "Finnish"},
		{Code: "sv", Name: "Swedish"},
	},
}

// TestServer starts an unauthenticated API server over a fresh repository.
func TestServer(t *testing.T) (*repostore.Store, *httptest.Server) {
	t.Helper()
	return TestServerWithAuth(t, "")
}

// TestServerWithAuth starts an API server; a non-empty token enables
// bearer auth.
func TestServerWithAuth(t *testing.T, token string) (*repostore.Store, *httptest.Server) {
	t.Helper()
	store := repostore.New(Languages)
	router := api.NewRouter(store, nil, token != "", token, "Test Author", "test@example.org")
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return store, srv
}

// Seed applies one document-creating commit and returns the new revision.
func Seed(t *testing.T, store *repostore.Store, dir, doc, title, body string) string {
	t.Helper()
	rev, err := store.Apply(models.CommitPayload{
		Message: "seed " + doc,
		Files: []models.CommitFile{{
			Filename:    "index.md",
			Path:        dir + "/" + doc,
			Body:        body,
			FrontMatter: &models.FrontMatter{Title: title, Author: "Seed"},
		}},
		RepositoryInfo: models.RepositoryInfo{LatestRevision: store.Head()},
	}, "Seed", "seed@example.org")
	if err != nil {
		t.Fatalf("seed %s/%s: %v", dir, doc, err)
	}
	return rev
}
