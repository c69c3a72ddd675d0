// Package client is the HTTP client for the repository wire contract. It
// layers the optimistic-concurrency discipline on top of plain requests:
// reads and writes refresh the injected revision tracker on success, and
// failed writes never touch it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/revision"
)

// RenderMode selects which form of a document a fetch returns.
type RenderMode int

const (
	// Rendered requests the HTML form for display.
	Rendered RenderMode = iota
	// Source requests the raw Markdown for editing.
	Source
)

// Client talks to a repository API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	tracker *revision.Tracker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API at baseURL. The tracker is shared with
// whatever assembles commits, so payloads are stamped with the revision the
// client last observed.
func New(baseURL, token string, tracker *revision.Tracker, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		tracker: tracker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tracker returns the client's revision tracker.
func (c *Client) Tracker() *revision.Tracker {
	return c.tracker
}

// do runs one request and classifies its response. A non-Ok classification
// is returned as the matching taxonomy error; out is decoded on Ok. Network
// transport failures surface as errors distinct from HTTP statuses and are
// logged for operational diagnosis.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("transport failure",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if outcome := apperr.Classify(resp.StatusCode); outcome != apperr.Ok {
		return fmt.Errorf("client: %s %s: %w", method, path, outcome.Err(resp.StatusCode))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	return nil
}

// observe records a freshly seen revision.
func (c *Client) observe(ri *models.RepositoryInfo) {
	if ri != nil && ri.LatestRevision != "" {
		c.tracker.Set(ri.LatestRevision)
	}
}

type revisionResponse struct {
	RepositoryInfo models.RepositoryInfo `json:"repository_info"`
}

// write runs a commit-carrying request and returns the new revision. The
// tracker is only advanced on success; a Conflict leaves it untouched so
// the caller can refresh and retry or discard.
func (c *Client) write(ctx context.Context, method, path string, payload any) (string, error) {
	var out revisionResponse
	if err := c.do(ctx, method, path, payload, &out); err != nil {
		return "", err
	}
	c.observe(&out.RepositoryInfo)
	return out.RepositoryInfo.LatestRevision, nil
}

// ListDirectory fetches a directory's metadata and document summaries.
func (c *Client) ListDirectory(ctx context.Context, dir string) (*models.DirectoryListing, error) {
	var listing models.DirectoryListing
	if err := c.do(ctx, http.MethodGet, "/directories/"+url.PathEscape(dir)+"/documents", nil, &listing); err != nil {
		return nil, err
	}
	c.observe(listing.RepositoryInfo)
	return &listing, nil
}

// GetFile fetches one document in the requested render mode.
func (c *Client) GetFile(ctx context.Context, dir, doc, filename string, mode RenderMode) (*models.File, error) {
	path := filePath(dir, doc, filename)
	if mode == Source {
		path += "/edit"
	}
	var f models.File
	if err := c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return nil, err
	}
	c.observe(f.RepositoryInfo)
	return &f, nil
}

// CreateDocument submits a commit creating documents in dir.
func (c *Client) CreateDocument(ctx context.Context, dir string, p *models.CommitPayload) (string, error) {
	return c.write(ctx, http.MethodPost, "/directories/"+url.PathEscape(dir)+"/documents", p)
}

// UpdateFile submits a commit updating one document.
func (c *Client) UpdateFile(ctx context.Context, dir, doc, filename string, p *models.CommitPayload) (string, error) {
	return c.write(ctx, http.MethodPatch, filePath(dir, doc, filename), p)
}

// DeleteFile submits a commit deleting one document and its attachments.
func (c *Client) DeleteFile(ctx context.Context, dir, doc, filename string, p *models.CommitPayload) (string, error) {
	return c.write(ctx, http.MethodDelete, filePath(dir, doc, filename), p)
}

// CreateDirectory submits a commit creating a directory.
func (c *Client) CreateDirectory(ctx context.Context, p *models.CommitPayload) (string, error) {
	return c.write(ctx, http.MethodPost, "/directories", p)
}

// UpdateDirectory submits a commit updating a directory's metadata.
func (c *Client) UpdateDirectory(ctx context.Context, dir string, p *models.CommitPayload) (string, error) {
	return c.write(ctx, http.MethodPatch, "/directories/"+url.PathEscape(dir), p)
}

// DeleteDirectory submits a commit deleting a directory and its contents.
func (c *Client) DeleteDirectory(ctx context.Context, dir string, p *models.CommitPayload) (string, error) {
	return c.write(ctx, http.MethodDelete, "/directories/"+url.PathEscape(dir), p)
}

// Translate asks the server to create a language variant of a document.
func (c *Client) Translate(ctx context.Context, dir, doc string, req models.TranslationRequest) (string, error) {
	return c.write(ctx, http.MethodPost, filePath(dir, doc, req.SourceFilename)+"/translate", req)
}

// History fetches the ordered revisions that touched a document.
func (c *Client) History(ctx context.Context, dir, doc, filename string) ([]models.HistoricCommit, error) {
	var out struct {
		History []models.HistoricCommit `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, filePath(dir, doc, filename)+"/history", nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// Attachments fetches a document's binary files.
func (c *Client) Attachments(ctx context.Context, dir, doc string) ([]models.Attachment, error) {
	var out struct {
		Attachments []models.Attachment `json:"attachments"`
	}
	path := "/directories/" + url.PathEscape(dir) + "/documents/" + url.PathEscape(doc) + "/attachments"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Attachments, nil
}

// RepositoryInfo fetches the current head revision and records it.
func (c *Client) RepositoryInfo(ctx context.Context) (string, error) {
	var out revisionResponse
	if err := c.do(ctx, http.MethodGet, "/repository_info", nil, &out); err != nil {
		return "", err
	}
	c.observe(&out.RepositoryInfo)
	return out.RepositoryInfo.LatestRevision, nil
}

// TranslationInfo fetches the server's configured language set.
func (c *Client) TranslationInfo(ctx context.Context) (*models.TranslationInfo, error) {
	var out models.TranslationInfo
	if err := c.do(ctx, http.MethodGet, "/translation_info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func filePath(dir, doc, filename string) string {
	return "/directories/" + url.PathEscape(dir) +
		"/documents/" + url.PathEscape(doc) +
		"/files/" + url.PathEscape(filename)
}
