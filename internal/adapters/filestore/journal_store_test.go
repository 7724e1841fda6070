package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() domain.JournalEntry {
	postedAt := time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC)
	entry := domain.JournalEntry{
		ID:          "e-1",
		EntryNumber: "BU-2024-0001",
		Date:        domain.NewDate(2024, time.March, 1),
		PostingDate: domain.NewDate(2024, time.March, 2),
		Type:        domain.TypeOpening,
		Status:      domain.StatusPosted,
		Description: "Eröffnungsbilanz",
		Lines: []domain.JournalLine{
			{ID: "l-1", AccountNumber: "1200", AccountName: "Bank", Debit: decimal.RequireFromString("10000.50"), Credit: decimal.Zero},
			{ID: "l-2", AccountNumber: "0800", AccountName: "Gezeichnetes Kapital", Debit: decimal.Zero, Credit: decimal.RequireFromString("10000.50"), CostCenter: "KST-1"},
		},
		CreatedAt: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
		CreatedBy: "System",
		PostedAt:  &postedAt,
		PostedBy:  "System",
	}
	entry.Recalculate()
	return entry
}

func TestJournalFileStore_LoadMissingFile(t *testing.T) {
	store, err := NewJournalFileStore(t.TempDir())
	require.NoError(t, err)

	entries, version, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, version)
	assert.Nil(t, entries)
}

func TestJournalFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJournalFileStore(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	ctx := context.Background()

	version, err := store.Save(ctx, []domain.JournalEntry{sampleEntry()}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	entries, version, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), version)
	require.Len(t, entries, 1)

	got, want := entries[0], sampleEntry()
	assert.Equal(t, want.EntryNumber, got.EntryNumber)
	assert.Equal(t, want.Date, got.Date)
	assert.Equal(t, want.PostingDate, got.PostingDate)
	assert.True(t, want.TotalDebit.Equal(got.TotalDebit))
	assert.True(t, got.Lines[0].Debit.Equal(decimal.RequireFromString("10000.5")))
	assert.Equal(t, "KST-1", got.Lines[1].CostCenter)
	require.NotNil(t, got.PostedAt)
	assert.True(t, want.PostedAt.Equal(*got.PostedAt))

	files, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, files, 1, "no temporary files are left behind")
	assert.Equal(t, "buchhaltung_journal_entries.json", files[0].Name())
}

func TestJournalFileStore_SaveOverwritesWholeCollection(t *testing.T) {
	store, err := NewJournalFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	second := sampleEntry()
	second.ID = "e-2"
	_, err = store.Save(ctx, []domain.JournalEntry{sampleEntry(), second}, 0)
	require.NoError(t, err)
	_, err = store.Save(ctx, []domain.JournalEntry{second}, 1)
	require.NoError(t, err)

	entries, _, _, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e-2", entries[0].ID)

	// an emptied journal stays "found" so it is not seeded again
	_, err = store.Save(ctx, nil, 2)
	require.NoError(t, err)
	entries, version, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(3), version)
	assert.Empty(t, entries)
}

func TestJournalFileStore_StaleSaveIsRejected(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	server, err := NewJournalFileStore(dir)
	require.NoError(t, err)
	cli, err := NewJournalFileStore(dir)
	require.NoError(t, err)

	_, err = server.Save(ctx, []domain.JournalEntry{sampleEntry()}, 0)
	require.NoError(t, err)

	posted := sampleEntry()
	posted.PostedBy = "Erika Mustermann"
	_, err = cli.Save(ctx, []domain.JournalEntry{posted}, 1)
	require.NoError(t, err)

	// the server still believes version 1 is current
	_, err = server.Save(ctx, []domain.JournalEntry{sampleEntry(), sampleEntry()}, 1)
	assert.ErrorIs(t, err, apperrors.ErrStaleSnapshot)

	entries, version, _, err := server.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	require.Len(t, entries, 1)
	assert.Equal(t, "Erika Mustermann", entries[0].PostedBy)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "the rejected temporary file is removed")
}

func TestJournalFileStore_LoadsUnversionedArray(t *testing.T) {
	store, err := NewJournalFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`  [{"id":"e-1","entryNumber":"BU-2024-0001"}]`), 0o644))

	entries, version, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), version)
	require.Len(t, entries, 1)
	assert.Equal(t, "BU-2024-0001", entries[0].EntryNumber)
}

func TestJournalFileStore_CorruptFile(t *testing.T) {
	store, err := NewJournalFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0o644))

	_, _, _, err = store.Load(context.Background())
	assert.Error(t, err)
}
