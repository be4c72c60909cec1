package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/staffline/internal/checksum"
	"github.com/starford/staffline/internal/storage"
)

// DefaultSettle is how long a Watcher waits after the last file-system
// event before applying the batch.
const DefaultSettle = 150 * time.Millisecond

// Watcher keeps the index in step with edits made to the library outside
// the service (editors, git checkouts, file copies).
type Watcher struct {
	db       *DB
	store    storage.Provider
	root     string
	logger   *slog.Logger
	settle   time.Duration
	onChange ChangeFunc
}

// NewWatcher returns a Watcher for the library rooted at root.
func NewWatcher(db *DB, store storage.Provider, root string, logger *slog.Logger) *Watcher {
	return &Watcher{db: db, store: store, root: root, logger: logger, settle: DefaultSettle}
}

// OnChange registers fn to be called after each index mutation.
func (w *Watcher) OnChange(fn ChangeFunc) *Watcher {
	w.onChange = fn
	return w
}

// batch collects the paths touched since the last flush. Editors often
// emit several events per save, so each path is applied once.
type batch struct {
	paths  map[string]struct{}
	rescan bool
}

func (b *batch) empty() bool { return len(b.paths) == 0 && !b.rescan }

// Run watches the library until ctx is cancelled. Directories created while
// running are watched too.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := watchTree(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.root))

	pending := batch{paths: map[string]struct{}{}}
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			w.flush(pending)
			pending = batch{paths: map[string]struct{}{}}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.collect(fw, ev, &pending) {
				timer.Reset(w.settle)
			}

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

// collect records ev in b and reports whether anything was added.
func (w *Watcher) collect(fw *fsnotify.Watcher, ev fsnotify.Event, b *batch) bool {
	if ev.Has(fsnotify.Create) && isDir(ev.Name) {
		if err := watchTree(fw, ev.Name); err != nil {
			w.logger.Warn("watcher: add dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
		}
		// files may have landed before the watch was in place
		_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				w.add(b, p)
			}
			return nil
		})
		return true
	}
	if isScorePath(ev.Name) {
		return w.add(b, ev.Name)
	}
	// a directory moved or removed takes its files with it without
	// per-file events
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if filepath.Ext(ev.Name) == "" {
			b.rescan = true
			return true
		}
	}
	return false
}

func (w *Watcher) add(b *batch, abs string) bool {
	if !isScorePath(abs) {
		return false
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return false
	}
	b.paths[filepath.ToSlash(rel)] = struct{}{}
	return true
}

func (w *Watcher) flush(b batch) {
	if b.empty() {
		return
	}
	for p := range b.paths {
		w.apply(p)
	}
	if b.rescan {
		if err := reconcile(w.db, w.store, w.logger, w.onChange); err != nil {
			w.logger.Warn("watcher: rescan failed", slog.String("error", err.Error()))
		}
	}
}

// apply re-reads one path and upserts or drops its index row. Unchanged
// content produces no notification.
func (w *Watcher) apply(rel string) {
	prev, err := w.db.GetChecksum(rel)
	if err != nil {
		w.logger.Warn("watcher: lookup failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	exists, err := w.store.Exists(rel)
	if err != nil {
		w.logger.Warn("watcher: stat failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if !exists {
		if prev == "" {
			return
		}
		if err := w.db.DeleteScore(rel); err != nil {
			w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		w.logger.Debug("watcher: deleted", slog.String("path", rel))
		w.onChange.emit(ChangeDeleted, rel)
		return
	}

	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if checksum.Sum(data) == prev {
		return
	}
	if err := IndexFile(w.db, rel, data, time.Time{}); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	kind := kindFor(prev != "")
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	w.onChange.emit(kind, rel)
}

func watchTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// isScorePath reports whether p is a visible score file. Temp files written
// by storage.FS start with a dot and are skipped.
func isScorePath(p string) bool {
	name := filepath.Base(p)
	return !strings.HasPrefix(name, ".") && storage.IsScoreFile(name)
}
