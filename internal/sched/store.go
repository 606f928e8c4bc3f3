package sched

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore persists the archive as a single JSON document. Persistence is
// best-effort: the in-memory archive stays authoritative for the run, and a
// corrupt or missing file loads as a fresh archive rather than an error.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (fs *FileStore) Path() string { return fs.path }

// Load reads the archive from disk. It never fails the caller: a missing
// file, unreadable JSON, or a structurally damaged document all yield a
// usable archive with the default gamma.
func (fs *FileStore) Load() *Archive {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("archive: read failed, starting fresh",
				zap.String("path", fs.path), zap.Error(err))
		}
		return NewArchive()
	}

	var arch Archive
	if err := json.Unmarshal(data, &arch); err != nil {
		zap.L().Warn("archive: corrupt file, starting fresh",
			zap.String("path", fs.path), zap.Error(err))
		return NewArchive()
	}
	arch.normalize()
	return &arch
}

// Save writes the archive atomically: marshal to a temp file in the same
// directory, then rename over the target so a crash mid-write cannot leave a
// torn document. Failures are logged and swallowed.
func (fs *FileStore) Save(arch *Archive) {
	data, err := json.MarshalIndent(arch, "", "  ")
	if err != nil {
		zap.L().Warn("archive: marshal failed", zap.Error(err))
		return
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp*")
	if err != nil {
		zap.L().Warn("archive: create temp failed", zap.String("dir", dir), zap.Error(err))
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		zap.L().Warn("archive: write temp failed", zap.Error(err))
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		zap.L().Warn("archive: close temp failed", zap.Error(err))
		return
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		zap.L().Warn("archive: rename failed", zap.String("path", fs.path), zap.Error(err))
	}
}
