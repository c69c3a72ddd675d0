package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/othala/internal"
	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/client"
	"github.com/starford/othala/internal/commit"
	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/drafts"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/history"
	"github.com/starford/othala/internal/mcpserver"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/revision"
	"github.com/starford/othala/internal/translate"
	pkgconfig "github.com/starford/othala/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	})))
	return cfg, nil
}

func newClient(cfg *internal.Config) (*client.Client, error) {
	if err := cfg.Remote.Require(); err != nil {
		return nil, err
	}
	return client.New(cfg.Remote.BaseURL, cfg.Remote.Token, revision.NewTracker()), nil
}

func checkoutPath(cfg *internal.Config, dir, doc, filename string) string {
	return filepath.Join(cfg.Drafts.Checkout, filepath.FromSlash(dir), doc, filename)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func getAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	dir, doc := cmd.Args().Get(0), cmd.Args().Get(1)
	if dir == "" || doc == "" {
		return fmt.Errorf("usage: get <directory> <document>")
	}
	filename := cmd.String("filename")

	f, err := c.GetFile(ctx, dir, doc, filename, client.Source)
	if err != nil {
		return err
	}
	data, err := frontmatter.Encode(f.FrontMatter, *f.Markdown)
	if err != nil {
		return err
	}

	target := checkoutPath(cfg, dir, doc, f.Filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return err
	}

	// Stash the pristine copy so a later conflict can show what the edit
	// was based on.
	db, err := drafts.Open(cfg.Drafts.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Stash(drafts.Draft{
		Directory:    dir,
		Document:     doc,
		Filename:     f.Filename,
		Contents:     string(data),
		BaseRevision: c.Tracker().Get(),
	}); err != nil {
		return err
	}

	fmt.Printf("%s (revision %s)\n", target, c.Tracker().Get())
	return nil
}

func saveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	dir, doc := cmd.Args().Get(0), cmd.Args().Get(1)
	if dir == "" || doc == "" {
		return fmt.Errorf("usage: save <directory> <document>")
	}
	filename := cmd.String("filename")
	message := cmd.String("message")

	data, err := os.ReadFile(checkoutPath(cfg, dir, doc, filename))
	if err != nil {
		return fmt.Errorf("read local copy: %w", err)
	}
	fm, body, err := frontmatter.Decode(data)
	if err != nil {
		return err
	}
	if fm.Title == "" {
		return fmt.Errorf("front matter must carry a title")
	}

	languages := cfg.Languages.TranslationInfo()
	code := translate.ResolveLanguage(filename, languages.DefaultLanguage, languages.Languages)

	// Reading the current copy refreshes the tracked revision; a missing
	// file means this save creates the document.
	exists := true
	if _, err := c.GetFile(ctx, dir, doc, filename, client.Source); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		exists = false
		if _, err := c.RepositoryInfo(ctx); err != nil {
			return err
		}
	}

	d := document.New(dir, doc, code, languages)
	d.FrontMatter = fm
	d.Markdown = body

	p, err := commit.NewAssembler(c.Tracker()).Assemble(message, []*document.Document{d}, nil)
	if err != nil {
		return err
	}

	var rev string
	if exists {
		rev, err = c.UpdateFile(ctx, dir, doc, filename, p)
	} else {
		rev, err = c.CreateDocument(ctx, dir, p)
	}
	if errors.Is(err, apperr.ErrConflict) {
		stashConflicted(cfg, dir, doc, filename, string(data), c.Tracker().Get())
		return fmt.Errorf("repository out of sync: someone committed in the meantime; your copy is stashed, run get and merge, then retry: %w", err)
	}
	if err != nil {
		return err
	}

	dropDraft(cfg, dir, doc, filename)
	fmt.Printf("saved %s/%s/%s (revision %s)\n", dir, doc, filename, rev)
	return nil
}

// stashConflicted keeps the rejected edit so it is recoverable after the
// user refreshes their checkout.
func stashConflicted(cfg *internal.Config, dir, doc, filename, contents, base string) {
	db, err := drafts.Open(cfg.Drafts.Path)
	if err != nil {
		slog.Warn("draft stash unavailable", slog.String("error", err.Error()))
		return
	}
	defer db.Close()
	if err := db.Stash(drafts.Draft{
		Directory:    dir,
		Document:     doc,
		Filename:     filename,
		Contents:     contents,
		BaseRevision: base,
	}); err != nil {
		slog.Warn("draft stash failed", slog.String("error", err.Error()))
	}
}

func dropDraft(cfg *internal.Config, dir, doc, filename string) {
	db, err := drafts.Open(cfg.Drafts.Path)
	if err != nil {
		return
	}
	defer db.Close()
	_ = db.Delete(dir, doc, filename)
}

func rmAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	dir, doc := cmd.Args().Get(0), cmd.Args().Get(1)
	if dir == "" || doc == "" {
		return fmt.Errorf("usage: rm <directory> <document>")
	}
	filename := cmd.String("filename")
	message := cmd.String("message")

	f, err := c.GetFile(ctx, dir, doc, filename, client.Source)
	if err != nil {
		return err
	}

	languages := cfg.Languages.TranslationInfo()
	d, err := document.Load(f, languages)
	if err != nil {
		return err
	}
	p, err := commit.NewAssembler(c.Tracker()).AssembleRemoval(message, []*document.Document{d}, nil)
	if err != nil {
		return err
	}
	rev, err := c.DeleteFile(ctx, dir, doc, filename, p)
	if err != nil {
		return err
	}
	dropDraft(cfg, dir, doc, filename)
	fmt.Printf("removed %s/%s/%s (revision %s)\n", dir, doc, filename, rev)
	return nil
}

func translateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	dir, doc, code := cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2)
	if dir == "" || doc == "" || code == "" {
		return fmt.Errorf("usage: translate <directory> <document> <language-code>")
	}
	filename := cmd.String("filename")

	if _, err := c.RepositoryInfo(ctx); err != nil {
		return err
	}
	rev, err := c.Translate(ctx, dir, doc, models.TranslationRequest{
		SourceFilename: filename,
		Path:           dir + "/" + doc,
		LanguageCode:   code,
		RepositoryInfo: models.RepositoryInfo{LatestRevision: c.Tracker().Get()},
	})
	if err != nil {
		return err
	}
	fmt.Printf("translation started: %s/%s/%s (revision %s)\n",
		dir, doc, translate.TargetFilename(filename, code), rev)
	return nil
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	dir, doc := cmd.Args().Get(0), cmd.Args().Get(1)
	if dir == "" || doc == "" {
		return fmt.Errorf("usage: history <directory> <document>")
	}
	filename := cmd.String("filename")
	showDiff := cmd.Bool("diff")

	commits, err := c.History(ctx, dir, doc, filename)
	if err != nil {
		return err
	}
	for _, hc := range commits {
		p, ok := history.FromCommit(filename, hc)
		kind := ""
		if ok {
			kind = " [" + p.Kind().String() + "]"
		}
		fmt.Printf("%.8s  %s  %s%s  %s\n",
			hc.Hash, hc.Time.Format("2006-01-02 15:04"), hc.Author, kind, commit.Summary(hc.Message))
		if showDiff && ok {
			for _, span := range p.Diff() {
				switch span.Op {
				case history.Insert:
					fmt.Printf("  + %s\n", span.Text)
				case history.Delete:
					fmt.Printf("  - %s\n", span.Text)
				}
			}
		}
	}
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := drafts.Open(cfg.Drafts.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Drafts.Checkout, 0o755); err != nil {
		return err
	}

	// Track the repository head when a remote is configured so stashed
	// drafts record how fresh they are.
	tracker := revision.NewTracker()
	if cfg.Remote.Require() == nil {
		c := client.New(cfg.Remote.BaseURL, cfg.Remote.Token, tracker)
		if _, err := c.RepositoryInfo(ctx); err != nil {
			slog.Warn("remote unreachable, drafts will carry no base revision",
				slog.String("error", err.Error()))
		}
	}

	return drafts.Watch(ctx, db, cfg.Drafts.Checkout, tracker, slog.Default(), func(kind, path string) {
		fmt.Printf("%s %s\n", kind, path)
	})
}

func draftsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := drafts.Open(cfg.Drafts.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	all, err := db.List()
	if err != nil {
		return err
	}
	for _, d := range all {
		fmt.Printf("%s  %s/%s/%s  (base %.8s)\n",
			d.UpdatedAt.Format("2006-01-02 15:04"), d.Directory, d.Document, d.Filename, d.BaseRevision)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	return mcpserver.New(c).ServeStdio()
}

func main() {
	filenameFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "filename",
			Usage: "Document filename (index.<code>.md for a translation)",
			Value: "index.md",
		}
	}
	messageFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "message",
			Aliases:  []string{"m"},
			Usage:    "Commit message",
			Required: true,
		}
	}

	cmd := &cli.Command{
		Name:  "othala",
		Usage: "Versioned Markdown document repository with optimistic commits, translations, and history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the repository HTTP server",
				Action: serveAction,
			},
			{
				Name:      "get",
				Usage:     "Fetch a document into the local checkout",
				ArgsUsage: "<directory> <document>",
				Flags:     []cli.Flag{filenameFlag()},
				Action:    getAction,
			},
			{
				Name:      "save",
				Usage:     "Commit the local copy of a document",
				ArgsUsage: "<directory> <document>",
				Flags:     []cli.Flag{filenameFlag(), messageFlag()},
				Action:    saveAction,
			},
			{
				Name:      "rm",
				Usage:     "Delete a document and its attachments",
				ArgsUsage: "<directory> <document>",
				Flags:     []cli.Flag{filenameFlag(), messageFlag()},
				Action:    rmAction,
			},
			{
				Name:      "translate",
				Usage:     "Start a translation of a document",
				ArgsUsage: "<directory> <document> <language-code>",
				Flags:     []cli.Flag{filenameFlag()},
				Action:    translateAction,
			},
			{
				Name:      "history",
				Usage:     "Show a document's commit history",
				ArgsUsage: "<directory> <document>",
				Flags: []cli.Flag{
					filenameFlag(),
					&cli.BoolFlag{Name: "diff", Usage: "Show per-commit diffs"},
				},
				Action: historyAction,
			},
			{
				Name:   "watch",
				Usage:  "Watch the checkout and stash every Markdown edit as a draft",
				Action: watchAction,
			},
			{
				Name:   "drafts",
				Usage:  "List stashed drafts",
				Action: draftsAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve repository tools over the Model Context Protocol (stdio)",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
