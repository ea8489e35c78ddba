package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bhandras/agbridge/internal/clock"
	"github.com/bhandras/agbridge/internal/logger"
)

// LoadStatus describes how Load produced its snapshot.
type LoadStatus int

const (
	// LoadedExisting means the file existed and was readable.
	LoadedExisting LoadStatus = iota
	// CreatedFresh means no file existed; defaults were written out.
	CreatedFresh
	// Quarantined means the file was corrupt and has been moved aside.
	Quarantined
)

// LoadResult is returned by FileStore.Load.
type LoadResult struct {
	Snapshot      Snapshot
	Status        LoadStatus
	QuarantinedTo string
}

// FileStore reads and atomically writes one snapshot file.
type FileStore struct {
	path  string
	clock clock.Clock
}

// NewFileStore returns a store for the snapshot at path.
func NewFileStore(path string, clk clock.Clock) *FileStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &FileStore{path: path, clock: clk}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the snapshot, filling anything absent from defaults.
//
// A missing file is created immediately from defaults. A file that is not a
// JSON object is renamed to <path>.bad.<unix-ms> and defaults are used. Only
// filesystem errors other than "not found" are returned.
func (s *FileStore) Load(defaults Snapshot) (LoadResult, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.Save(defaults); err != nil {
			logger.Warnf("[PERSIST] Failed to write initial snapshot: %v", err)
		} else {
			logger.Infof("[PERSIST] Created %s", s.path)
		}
		return LoadResult{Snapshot: defaults, Status: CreatedFresh}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("read snapshot: %w", err)
	}

	snap, err := merge(defaults, raw)
	if err != nil {
		bad := fmt.Sprintf("%s.bad.%d", s.path, s.clock.Now().UnixMilli())
		logger.Warnf("[PERSIST] %s is corrupt (%v). Moving it to %s", s.path, err, bad)
		if rerr := os.Rename(s.path, bad); rerr != nil {
			logger.Errorf("[PERSIST] Failed to quarantine %s: %v", s.path, rerr)
			bad = ""
		}
		return LoadResult{Snapshot: defaults, Status: Quarantined, QuarantinedTo: bad}, nil
	}

	logger.Infof("[PERSIST] Loaded %s (%d approvals, %d messages, %d tokens)",
		s.path, len(snap.Approvals), len(snap.Messages), len(snap.Tokens))
	return LoadResult{Snapshot: snap, Status: LoadedExisting}, nil
}

// Save writes snap to a temporary file in the same directory, then renames
// it over the snapshot. Readers never observe a partial file.
func (s *FileStore) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
