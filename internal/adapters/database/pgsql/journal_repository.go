// Package pgsql stores the journal collection in PostgreSQL as one JSONB snapshot row.
package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portsrepo "github.com/SscSPs/buchungsjournal/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx used by the repository, satisfied by
// *pgxpool.Pool, pgx.Tx and pgxmock pools.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

const (
	loadSnapshotQuery = `SELECT payload, version FROM ledger_snapshots WHERE snapshot_key = $1`

	insertSnapshotQuery = `
		INSERT INTO ledger_snapshots (snapshot_key, payload, version, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (snapshot_key) DO NOTHING
		RETURNING version
	`

	// Matches no row when another writer bumped version first.
	updateSnapshotQuery = `
		UPDATE ledger_snapshots
		SET payload = $2, version = version + 1, updated_at = NOW()
		WHERE snapshot_key = $1 AND version = $3
		RETURNING version
	`
)

// PgxJournalSnapshotRepository keeps the whole entry collection in a single row.
type PgxJournalSnapshotRepository struct {
	querier Querier
	key     string
}

// NewJournalSnapshotRepository creates a snapshot repository under the fixed journal key.
func NewJournalSnapshotRepository(querier Querier) *PgxJournalSnapshotRepository {
	return &PgxJournalSnapshotRepository{
		querier: querier,
		key:     portsrepo.JournalSnapshotKey,
	}
}

// Ensure PgxJournalSnapshotRepository implements portsrepo.JournalSnapshotStore
var _ portsrepo.JournalSnapshotStore = (*PgxJournalSnapshotRepository)(nil)

func (r *PgxJournalSnapshotRepository) Load(ctx context.Context) ([]domain.JournalEntry, int64, bool, error) {
	var (
		payload []byte
		version int64
	)
	err := r.querier.QueryRow(ctx, loadSnapshotQuery, r.key).Scan(&payload, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, false, nil
		}
		return nil, 0, false, apperrors.NewAppError(http.StatusInternalServerError, "failed to load journal snapshot", err)
	}

	var entries []domain.JournalEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, 0, false, apperrors.NewAppError(http.StatusInternalServerError, "failed to decode journal snapshot", err)
	}
	return entries, version, true, nil
}

// Save inserts the first snapshot when expectedVersion is 0 and otherwise
// updates the row only while it is still at expectedVersion.
func (r *PgxJournalSnapshotRepository) Save(ctx context.Context, entries []domain.JournalEntry, expectedVersion int64) (int64, error) {
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return 0, fmt.Errorf("failed to encode journal snapshot: %w", err)
	}

	var row pgx.Row
	if expectedVersion == 0 {
		row = r.querier.QueryRow(ctx, insertSnapshotQuery, r.key, string(payload))
	} else {
		row = r.querier.QueryRow(ctx, updateSnapshotQuery, r.key, string(payload), expectedVersion)
	}

	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: snapshot %s is no longer at version %d", apperrors.ErrStaleSnapshot, r.key, expectedVersion)
		}
		return 0, apperrors.NewAppError(http.StatusInternalServerError, "failed to save journal snapshot", err)
	}
	return version, nil
}
