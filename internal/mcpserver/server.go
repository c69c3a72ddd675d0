// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Othala repository tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/client"
	"github.com/starford/othala/internal/commit"
	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/history"
)

const defaultFilename = "index.md"

// Server wraps the MCP server with repository tools backed by the API client.
type Server struct {
	mcp *server.MCPServer
	c   *client.Client
}

// New creates a new MCP server with all repository tools registered.
func New(c *client.Client) *Server {
	s := &Server{c: c}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List the documents in a repository directory."),
		mcp.WithString("directory", mcp.Required(), mcp.Description("Directory path (e.g. documents)")),
	), s.listDirectory)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a document's raw Markdown, front matter included."),
		mcp.WithString("directory", mcp.Required(), mcp.Description("Directory the document lives in")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document slug")),
		mcp.WithString("filename", mcp.Description("Optional filename for a translation (defaults to index.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Create or update a document. Content MUST follow the canonical "+
			"document format (YAML front matter with a title, then a Markdown body). Read the "+
			"contract first via the get_document_contract tool or the othala://document-format "+
			"resource. The save is stamped with the last revision read; a concurrent commit "+
			"rejects it whole, so re-read and retry on conflict."),
		mcp.WithString("directory", mcp.Required(), mcp.Description("Directory to save into")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document slug")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the document format contract")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Commit message (at least 5 characters)")),
	), s.saveDocument)

	s.mcp.AddTool(mcp.NewTool("document_history",
		mcp.WithDescription("List a document's commit history, newest first."),
		mcp.WithString("directory", mcp.Required(), mcp.Description("Directory the document lives in")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document slug")),
		mcp.WithString("filename", mcp.Description("Optional filename for a translation (defaults to index.md)")),
	), s.documentHistory)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical document format contract. "+
			"Call this before saving documents to ensure correct structure."),
	), s.getDocumentContract)

	s.mcp.AddResource(
		mcp.NewResource("othala://document-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical Markdown document format that all saves must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listing, err := s.c.ListDirectory(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type entry struct {
		Document string `json:"document"`
		Title    string `json:"title"`
		Synopsis string `json:"synopsis,omitempty"`
	}
	entries := make([]entry, 0, len(listing.Files))
	for _, f := range listing.Files {
		entries = append(entries, entry{Document: f.Document, Title: f.FrontMatter.Title, Synopsis: f.FrontMatter.Synopsis})
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := defaultFilename
	if f, err := req.RequireString("filename"); err == nil && f != "" {
		filename = f
	}

	f, err := s.c.GetFile(ctx, dir, doc, filename, client.Source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s/%s", dir, doc, filename)), nil
	}
	data, err := frontmatter.Encode(f.FrontMatter, *f.Markdown)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) saveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fm, body, err := frontmatter.Decode([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid front matter: %v", err)), nil
	}
	if fm.Title == "" {
		return mcp.NewToolResultError("front matter must carry a title"), nil
	}

	languages, err := s.c.TranslationInfo(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Reading the current copy refreshes the tracked revision; a missing
	// file means this save creates the document.
	exists := true
	if _, err := s.c.GetFile(ctx, dir, slug, defaultFilename, client.Source); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		exists = false
		if _, err := s.c.RepositoryInfo(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	d := document.New(dir, slug, languages.DefaultLanguage, *languages)
	d.FrontMatter = fm
	d.Markdown = body

	p, err := commit.NewAssembler(s.c.Tracker()).Assemble(message, []*document.Document{d}, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var rev string
	if exists {
		rev, err = s.c.UpdateFile(ctx, dir, slug, defaultFilename, p)
	} else {
		rev, err = s.c.CreateDocument(ctx, dir, p)
	}
	if errors.Is(err, apperr.ErrConflict) {
		return mcp.NewToolResultError("repository out of sync: someone committed in the meantime; re-read the document and retry"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s/%s @ %s", dir, slug, rev)), nil
}

func (s *Server) documentHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := defaultFilename
	if f, err := req.RequireString("filename"); err == nil && f != "" {
		filename = f
	}

	commits, err := s.c.History(ctx, dir, doc, filename)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type entry struct {
		Hash    string `json:"hash"`
		Message string `json:"message"`
		Author  string `json:"author"`
		Time    string `json:"time"`
		Change  string `json:"change,omitempty"`
	}
	entries := make([]entry, 0, len(commits))
	for _, hc := range commits {
		e := entry{
			Hash:    hc.Hash,
			Message: hc.Message,
			Author:  hc.Author,
			Time:    hc.Time.Format(time.RFC3339),
		}
		if p, ok := history.FromCommit(filename, hc); ok {
			e.Change = p.Kind().String()
		}
		entries = append(entries, e)
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
