package repositories

import (
	"context"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
)

// JournalSnapshotKey is the fixed key under which the whole entry collection is stored.
const JournalSnapshotKey = "buchhaltung_journal_entries"

// JournalSnapshotReader defines read operations for the persisted journal collection
type JournalSnapshotReader interface {
	// Load returns the full persisted collection and its version. found is
	// false when nothing has ever been saved under the key, which callers
	// treat as first use; version is 0 in that case.
	Load(ctx context.Context) (entries []domain.JournalEntry, version int64, found bool, err error)
}

// JournalSnapshotWriter defines write operations for the persisted journal collection
type JournalSnapshotWriter interface {
	// Save overwrites the full persisted collection if the stored version is
	// still expectedVersion and returns the new version. A mismatch fails with
	// apperrors.ErrStaleSnapshot and leaves the stored collection untouched.
	// There are no partial writes.
	Save(ctx context.Context, entries []domain.JournalEntry, expectedVersion int64) (int64, error)
}

// JournalSnapshotStore combines the journal snapshot interfaces
type JournalSnapshotStore interface {
	JournalSnapshotReader
	JournalSnapshotWriter
}
