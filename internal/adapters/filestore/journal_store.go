// Package filestore keeps the journal collection as a JSON file on local disk.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portsrepo "github.com/SscSPs/buchungsjournal/internal/core/ports/repositories"
)

// JournalFileStore writes <dir>/<key>.json. Saves go to a temporary file in
// the same directory first and are renamed over the previous snapshot, so a
// crash mid-write never leaves a truncated journal behind.
type JournalFileStore struct {
	mu   sync.Mutex
	path string
}

// NewJournalFileStore creates dir if needed.
func NewJournalFileStore(dir string) (*JournalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &JournalFileStore{path: filepath.Join(dir, portsrepo.JournalSnapshotKey+".json")}, nil
}

// Ensure JournalFileStore implements portsrepo.JournalSnapshotStore
var _ portsrepo.JournalSnapshotStore = (*JournalFileStore)(nil)

// Path returns the snapshot file location.
func (s *JournalFileStore) Path() string {
	return s.path
}

// snapshotFile is the on-disk layout. Files written before versioning hold a
// bare entry array and load as version 1.
type snapshotFile struct {
	Version int64                 `json:"version"`
	Entries []domain.JournalEntry `json:"entries"`
}

func (s *JournalFileStore) Load(ctx context.Context) ([]domain.JournalEntry, int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, found, err := s.read()
	if err != nil || !found {
		return nil, 0, found, err
	}
	return snapshot.Entries, snapshot.Version, true, nil
}

func (s *JournalFileStore) read() (snapshotFile, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snapshotFile{}, false, nil
		}
		return snapshotFile{}, false, fmt.Errorf("failed to open journal file: %w", err)
	}

	var snapshot snapshotFile
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		snapshot.Version = 1
		err = json.Unmarshal(trimmed, &snapshot.Entries)
	} else {
		err = json.Unmarshal(data, &snapshot)
	}
	if err != nil {
		return snapshotFile{}, false, fmt.Errorf("failed to decode journal file %s: %w", s.path, err)
	}
	return snapshot, true, nil
}

// Save compares expectedVersion with the file on disk right before the
// rename. Writers in other processes are only caught if they renamed first.
func (s *JournalFileStore) Save(ctx context.Context, entries []domain.JournalEntry, expectedVersion int64) (int64, error) {
	if entries == nil {
		entries = []domain.JournalEntry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary journal file: %w", err)
	}
	// No-op once the rename succeeded.
	defer os.Remove(tmp.Name())

	next := snapshotFile{Version: expectedVersion + 1, Entries: entries}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(next); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to encode journal: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync journal file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close journal file: %w", err)
	}

	current, _, err := s.read()
	if err != nil {
		return 0, err
	}
	if current.Version != expectedVersion {
		return 0, fmt.Errorf("%w: %s is at version %d, expected %d", apperrors.ErrStaleSnapshot, s.path, current.Version, expectedVersion)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return 0, fmt.Errorf("failed to replace journal file: %w", err)
	}
	return next.Version, nil
}
