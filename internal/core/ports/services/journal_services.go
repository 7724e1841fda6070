package services

import (
	"context"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryInput carries every entry field the caller controls. Id, entry
// number, creation time and the derived totals are assigned by the ledger.
type CreateEntryInput struct {
	Date           domain.Date
	PostingDate    domain.Date
	Type           domain.EntryType
	Status         domain.EntryStatus
	Description    string
	Reference      string
	DocumentNumber string
	Lines          []domain.JournalLine
	CreatedBy      string
}

// EntryUpdate is a partial set of overrides for a draft entry; nil fields are kept.
type EntryUpdate struct {
	Date           *domain.Date
	PostingDate    *domain.Date
	Type           *domain.EntryType
	Description    *string
	Reference      *string
	DocumentNumber *string
	Lines          []domain.JournalLine // nil keeps the existing lines
}

// FilterCriteria selects entries. Zero values disable a criterion.
type FilterCriteria struct {
	DateFrom domain.Date
	DateTo   domain.Date
	Status   domain.EntryStatus
	Search   string
}

// Summary aggregates the journal.
type Summary struct {
	TotalEntries     int             `json:"totalEntries"`
	DraftEntries     int             `json:"draftEntries"`
	PostedEntries    int             `json:"postedEntries"`
	PostedTotalDebit decimal.Decimal `json:"postedTotalDebit"`
}

// LedgerReaderSvc defines read operations over the journal
type LedgerReaderSvc interface {
	// GetEntry returns a copy of a single entry.
	GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error)

	// Entries returns copies of all entries in store order.
	Entries(ctx context.Context) []domain.JournalEntry

	// FilterEntries returns the entries matching criteria, in store order.
	FilterEntries(ctx context.Context, criteria FilterCriteria) []domain.JournalEntry

	// GetNextEntryNumber computes, without reserving, the number the next entry of the current year would get.
	// The sequence is max(entries numbered in that year, highest sequence in use) + 1,
	// so a number freed by deleting a draft below the highest is not handed out again.
	GetNextEntryNumber(ctx context.Context) string

	// GetSummary aggregates counts and posted debit volume.
	GetSummary(ctx context.Context) Summary
}

// LedgerWriterSvc defines the only sanctioned mutations of the journal
type LedgerWriterSvc interface {
	// CreateEntry appends a new entry with derived totals and a fresh entry number.
	CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error)

	// UpdateEntry merges overrides into a draft entry and recomputes its totals.
	UpdateEntry(ctx context.Context, id string, updates EntryUpdate) (*domain.JournalEntry, error)

	// PostEntry finalizes a balanced draft.
	PostEntry(ctx context.Context, id string, postedBy string) (bool, error)

	// ReverseEntry offsets a posted entry with a new, already posted reversal.
	ReverseEntry(ctx context.Context, id string, reversedBy string, reversalDate domain.Date) (*domain.JournalEntry, error)

	// DeleteEntry removes a draft permanently.
	DeleteEntry(ctx context.Context, id string) (bool, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}

// EventPublisher receives ledger events after they have been persisted.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
	Close() error
}
