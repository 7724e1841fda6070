package repositories

import "context"

// RepositoryProvider holds the repository interfaces needed by services along
// with the cleanup of whatever backend they were opened on.
type RepositoryProvider struct {
	JournalRepo JournalSnapshotStore
	// Close releases backend resources (pools, clients). May be nil.
	Close func(ctx context.Context) error
}
