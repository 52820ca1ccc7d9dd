// Package archive keeps consultation history on the local machine. All
// state lives in a small key-value store with a hard size ceiling, so the
// app works fully offline and degrades predictably when the quota fills.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nagrik-ai/nagrik/pkg/core"
)

// Store is a local key-value blob store. Implementations must make Set
// atomic with respect to crashes: a reader sees either the old value or
// the new one, never a torn write.
type Store interface {
	// Get returns the stored value, or found=false when the key is absent.
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileStore keeps each key in its own file under a directory, writing via
// a temp file and rename. A MaxBytes ceiling bounds the total size of all
// values; writes that would cross it fail with a quota error so callers
// can tell "storage full" apart from other storage faults.
type FileStore struct {
	dir      string
	maxBytes int64
}

// NewFileStore opens (creating if needed) a store rooted at dir. A
// maxBytes of zero means unlimited.
func NewFileStore(dir string, maxBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.NewStorageError(fmt.Sprintf("cannot create store directory %s", dir), err)
	}
	return &FileStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *FileStore) path(key string) string {
	// Keys are fixed app identifiers, but guard against separators anyway.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, core.NewStorageError(fmt.Sprintf("cannot read key %q", key), err)
	}
	return data, true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	if s.maxBytes > 0 {
		used, err := s.usedExcluding(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > s.maxBytes {
			return core.NewQuotaExceededError(fmt.Sprintf("storing key %q would exceed the %d byte limit", key, s.maxBytes))
		}
	}

	dst := s.path(key)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(dst)+".tmp*")
	if err != nil {
		return storageOrQuota(fmt.Sprintf("cannot stage write for key %q", key), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return storageOrQuota(fmt.Sprintf("cannot write key %q", key), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return storageOrQuota(fmt.Sprintf("cannot flush key %q", key), err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return storageOrQuota(fmt.Sprintf("cannot commit key %q", key), err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return core.NewStorageError(fmt.Sprintf("cannot delete key %q", key), err)
	}
	return nil
}

// usedExcluding sums the size of every stored value except the named key,
// which is about to be replaced.
func (s *FileStore) usedExcluding(key string) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, core.NewStorageError("cannot scan store directory", err)
	}
	skip := filepath.Base(s.path(key))
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == skip || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// storageOrQuota maps a filesystem error to the right error kind; a full
// disk is reported the same way as crossing the configured ceiling.
func storageOrQuota(msg string, err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return core.NewQuotaExceededError(msg)
	}
	return core.NewStorageError(msg, err)
}
