package drafts

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/othala/internal/revision"
)

// EventCallback is called after a watcher-driven stash change.
// kind is one of "stashed", "dropped".
type EventCallback func(kind string, path string)

// Watch runs an fsnotify watcher over a checkout root and mirrors every
// Markdown edit into the draft stash until ctx is cancelled. Files are
// keyed by their checkout layout, <directory...>/<document>/<filename>,
// and stamped with the tracker's current revision so a later commit can
// report how stale the draft is. New directories created at runtime are
// added to the watch list.
func Watch(ctx context.Context, db *DB, root string, tracker *revision.Tracker, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("draft watcher started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("draft watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watch new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					stashDir(db, root, ev.Name, tracker, logger, cb)
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			dir, doc, filename, ok := splitRel(rel)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if err := stashFile(db, ev.Name, dir, doc, filename, tracker); err != nil {
					logger.Warn("stash failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				logger.Debug("draft stashed", slog.String("path", rel))
				if cb != nil {
					cb("stashed", rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if err := db.Delete(dir, doc, filename); err != nil {
					logger.Warn("drop failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				logger.Debug("draft dropped", slog.String("path", rel))
				if cb != nil {
					cb("dropped", rel)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("draft watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// splitRel maps a checkout-relative path onto the stash key. The last two
// segments are the document and filename, everything above is the
// repository directory.
func splitRel(rel string) (dir, doc, filename string, ok bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 {
		return "", "", "", false
	}
	n := len(parts)
	return strings.Join(parts[:n-2], "/"), parts[n-2], parts[n-1], true
}

func stashFile(db *DB, absPath, dir, doc, filename string, tracker *revision.Tracker) error {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	base := ""
	if tracker != nil {
		base = tracker.Get()
	}
	return db.Stash(Draft{
		Directory:    dir,
		Document:     doc,
		Filename:     filename,
		Contents:     string(data),
		BaseRevision: base,
	})
}

// stashDir stashes any .md files already present in a newly created
// directory, since their create events may have fired before the watch
// was in place.
func stashDir(db *DB, root, dirPath string, tracker *revision.Tracker, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		dir, doc, filename, ok := splitRel(rel)
		if !ok {
			return nil
		}
		if stashErr := stashFile(db, p, dir, doc, filename, tracker); stashErr == nil {
			logger.Debug("draft stashed", slog.String("path", rel))
			if cb != nil {
				cb("stashed", rel)
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
