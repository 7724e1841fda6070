// Package memory holds the journal collection in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portsrepo "github.com/SscSPs/buchungsjournal/internal/core/ports/repositories"
)

// JournalMemoryStore keeps a private copy of the last saved collection.
// version 0 means nothing was saved yet.
type JournalMemoryStore struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
	version int64
}

// NewJournalMemoryStore returns a store that has never been saved to.
func NewJournalMemoryStore() *JournalMemoryStore {
	return &JournalMemoryStore{}
}

// Ensure JournalMemoryStore implements portsrepo.JournalSnapshotStore
var _ portsrepo.JournalSnapshotStore = (*JournalMemoryStore)(nil)

func (s *JournalMemoryStore) Load(ctx context.Context) ([]domain.JournalEntry, int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == 0 {
		return nil, 0, false, nil
	}
	return cloneEntries(s.entries), s.version, true, nil
}

func (s *JournalMemoryStore) Save(ctx context.Context, entries []domain.JournalEntry, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != expectedVersion {
		return 0, fmt.Errorf("%w: stored version %d, expected %d", apperrors.ErrStaleSnapshot, s.version, expectedVersion)
	}
	s.entries = cloneEntries(entries)
	s.version++
	return s.version, nil
}

func cloneEntries(entries []domain.JournalEntry) []domain.JournalEntry {
	out := make([]domain.JournalEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
