package preview

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/logfields"
)

// newSourceWatcher watches the source tree recursively. fsnotify does
// not recurse on its own, so every directory is added explicitly and
// created directories are added as their events arrive.
func newSourceWatcher(root string, logger *slog.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPreview, "failed to create file watcher").Build()
	}
	if err := addDirsRecursive(watcher, root, logger); err != nil {
		_ = watcher.Close()
		return nil, errors.WrapError(err, errors.CategoryPreview, "failed to watch source tree").
			WithContext("path", root).
			Build()
	}
	return watcher, nil
}

// addDirsRecursive registers root and every directory below it, except
// hidden ones. Per-directory failures are logged, not fatal: a missing
// watch degrades to the resync interval.
func addDirsRecursive(w *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if werr := w.Add(path); werr != nil {
			logger.Warn("watch add failed", logfields.Path(path), logfields.Error(werr))
		}
		return nil
	})
}

// handleEvent filters one filesystem event and triggers the debounced
// rebuild. New directories join the watch before their contents settle.
func (s *Server) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, outAbs string, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if outAbs != "" && insideDir(ev.Name, outAbs) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name, s.logger)
		}
	}
	s.logger.Debug("source change detected",
		logfields.Path(ev.Name),
		slog.String("op", ev.Op.String()))
	trigger()
}

// shouldIgnoreEvent reports events that must not trigger rebuilds:
// hidden files and editor temp or swap files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}

// insideDir reports whether path sits at or below dir.
func insideDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
