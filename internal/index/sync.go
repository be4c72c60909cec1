package index

import (
	"log/slog"
	"time"

	"github.com/starford/staffline/internal/checksum"
	"github.com/starford/staffline/internal/scorefile"
	"github.com/starford/staffline/internal/storage"
)

// Change kinds reported to a ChangeFunc.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeFunc receives every index mutation made by Sync or a Watcher.
type ChangeFunc func(kind, path string)

// Sync brings the index in line with the library on disk. Unparseable
// files are logged and skipped.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	return reconcile(db, store, logger, nil)
}

func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify ChangeFunc) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}
	indexed, err := db.AllChecksums()
	if err != nil {
		return err
	}

	onDisk := make(map[string]bool, len(metas))
	for _, m := range metas {
		onDisk[m.Path] = true
		prev, known := indexed[m.Path]
		if prev == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", m.Path))
		notify.emit(kindFor(known), m.Path)
	}

	for p := range indexed {
		if onDisk[p] {
			continue
		}
		if err := db.DeleteScore(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
		notify.emit(ChangeDeleted, p)
	}
	return nil
}

func (f ChangeFunc) emit(kind, path string) {
	if f != nil {
		f(kind, path)
	}
}

func kindFor(known bool) string {
	if known {
		return ChangeUpdated
	}
	return ChangeCreated
}

// IndexFile parses data and upserts it into the DB. A zero updatedAt means now.
func IndexFile(db ScoreIndex, path string, data []byte, updatedAt time.Time) error {
	res, err := scorefile.Parse(data)
	if err != nil {
		return err
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return db.UpsertScore(ScoreRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Parts:     res.PartNames,
		Measures:  res.Measures,
		UpdatedAt: updatedAt,
	}, string(data))
}
