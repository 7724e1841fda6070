package services

import (
	"time"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SeedCreatedBy is recorded as author of the example entries.
const SeedCreatedBy = "System"

// SeedEntries returns the example journal written when storage is empty: a
// posted opening balance and an unposted office supply purchase (SKR03).
// Entry and line ids come from newID.
func SeedEntries(now time.Time, newID func() string) []domain.JournalEntry {
	year := now.Year()
	openingDate := domain.NewDate(year, time.January, 1)
	purchaseDate := domain.DateOf(now)
	postedAt := now

	opening := domain.JournalEntry{
		ID:             newID(),
		EntryNumber:    domain.FormatEntryNumber(year, 1),
		Date:           openingDate,
		PostingDate:    openingDate,
		Type:           domain.TypeOpening,
		Status:         domain.StatusPosted,
		Description:    "Eröffnungsbilanz",
		DocumentNumber: "EB-" + openingDate.String(),
		Lines: []domain.JournalLine{
			{ID: newID(), AccountNumber: "1200", AccountName: "Bank", Debit: decimal.NewFromInt(10000), Credit: decimal.Zero},
			{ID: newID(), AccountNumber: "0800", AccountName: "Gezeichnetes Kapital", Debit: decimal.Zero, Credit: decimal.NewFromInt(10000)},
		},
		CreatedAt: now,
		CreatedBy: SeedCreatedBy,
		PostedAt:  &postedAt,
		PostedBy:  SeedCreatedBy,
	}
	opening.Recalculate()

	purchase := domain.JournalEntry{
		ID:             newID(),
		EntryNumber:    domain.FormatEntryNumber(year, 2),
		Date:           purchaseDate,
		PostingDate:    purchaseDate,
		Type:           domain.TypeStandard,
		Status:         domain.StatusDraft,
		Description:    "Büromaterial Einkauf",
		Reference:      "RE-0815",
		DocumentNumber: "B-0001",
		Lines: []domain.JournalLine{
			{ID: newID(), AccountNumber: "4930", AccountName: "Bürobedarf", Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
			{ID: newID(), AccountNumber: "1576", AccountName: "Abziehbare Vorsteuer 19%", Debit: decimal.NewFromInt(19), Credit: decimal.Zero},
			{ID: newID(), AccountNumber: "1200", AccountName: "Bank", Debit: decimal.Zero, Credit: decimal.NewFromInt(119)},
		},
		CreatedAt: now,
		CreatedBy: SeedCreatedBy,
	}
	purchase.Recalculate()

	return []domain.JournalEntry{opening, purchase}
}
