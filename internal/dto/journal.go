package dto

import (
	"time"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one debit or credit leg as sent by clients.
type JournalLineRequest struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber" binding:"required"`
	AccountName   string          `json:"accountName"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	CostCenter    string          `json:"costCenter"`
	Description   string          `json:"description"`
}

// CreateJournalEntryRequest defines the data needed to create a journal entry.
// An empty date defaults to today, an empty posting date to the entry date.
type CreateJournalEntryRequest struct {
	Date           domain.Date          `json:"date"`
	PostingDate    domain.Date          `json:"postingDate"`
	Type           string               `json:"type" binding:"omitempty,oneof=standard opening closing adjustment"`
	Status         string               `json:"status" binding:"omitempty,oneof=draft posted"`
	Description    string               `json:"description" binding:"required"`
	Reference      string               `json:"reference"`
	DocumentNumber string               `json:"documentNumber"`
	Lines          []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateJournalEntryRequest defines the data allowed for updating a draft.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateJournalEntryRequest struct {
	Date           *domain.Date         `json:"date"`
	PostingDate    *domain.Date         `json:"postingDate"`
	Type           *string              `json:"type" binding:"omitempty,oneof=standard opening closing adjustment"`
	Description    *string              `json:"description"`
	Reference      *string              `json:"reference"`
	DocumentNumber *string              `json:"documentNumber"`
	Lines          []JournalLineRequest `json:"lines" binding:"omitempty,dive"` // Optional: replaces all lines
}

// ReverseJournalEntryRequest is the optional body of a reversal.
type ReverseJournalEntryRequest struct {
	ReversalDate domain.Date `json:"reversalDate"` // Optional: defaults to today
}

// ListJournalEntriesParams defines query parameters for listing entries.
type ListJournalEntriesParams struct {
	From      string `form:"from"`
	To        string `form:"to"`
	Status    string `form:"status" binding:"omitempty,oneof=draft posted reversed"`
	Search    string `form:"search"`
	Limit     int    `form:"limit,default=0" binding:"min=0,max=500"`
	NextToken string `form:"nextToken"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	CostCenter    string          `json:"costCenter,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
// Mirrors domain.JournalEntry plus German display labels.
type JournalEntryResponse struct {
	ID             string                `json:"id"`
	EntryNumber    string                `json:"entryNumber"`
	Date           domain.Date           `json:"date"`
	PostingDate    domain.Date           `json:"postingDate"`
	Type           domain.EntryType      `json:"type"`
	TypeLabel      string                `json:"typeLabel"`
	Status         domain.EntryStatus    `json:"status"`
	StatusLabel    string                `json:"statusLabel"`
	Description    string                `json:"description"`
	Reference      string                `json:"reference"`
	DocumentNumber string                `json:"documentNumber"`
	Lines          []JournalLineResponse `json:"lines"`
	TotalDebit     decimal.Decimal       `json:"totalDebit"`
	TotalCredit    decimal.Decimal       `json:"totalCredit"`
	IsBalanced     bool                  `json:"isBalanced"`
	CreatedAt      time.Time             `json:"createdAt"`
	CreatedBy      string                `json:"createdBy"`
	PostedAt       *time.Time            `json:"postedAt,omitempty"`
	PostedBy       string                `json:"postedBy,omitempty"`
}

// ListJournalEntriesResponse wraps a page of entries.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken string                 `json:"nextToken,omitempty"`
}

// NextEntryNumberResponse carries the number the next entry would get.
type NextEntryNumberResponse struct {
	EntryNumber string `json:"entryNumber"`
}

// JournalSummaryResponse defines the aggregate figures of the journal.
type JournalSummaryResponse struct {
	TotalEntries     int             `json:"totalEntries"`
	DraftEntries     int             `json:"draftEntries"`
	PostedEntries    int             `json:"postedEntries"`
	PostedTotalDebit decimal.Decimal `json:"postedTotalDebit"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			ID:            l.ID,
			AccountNumber: l.AccountNumber,
			AccountName:   l.AccountName,
			Debit:         l.Debit,
			Credit:        l.Credit,
			CostCenter:    l.CostCenter,
			Description:   l.Description,
		}
	}
	return JournalEntryResponse{
		ID:             e.ID,
		EntryNumber:    e.EntryNumber,
		Date:           e.Date,
		PostingDate:    e.PostingDate,
		Type:           e.Type,
		TypeLabel:      e.Type.Label(),
		Status:         e.Status,
		StatusLabel:    e.Status.Label(),
		Description:    e.Description,
		Reference:      e.Reference,
		DocumentNumber: e.DocumentNumber,
		Lines:          lines,
		TotalDebit:     e.TotalDebit,
		TotalCredit:    e.TotalCredit,
		IsBalanced:     e.IsBalanced,
		CreatedAt:      e.CreatedAt,
		CreatedBy:      e.CreatedBy,
		PostedAt:       e.PostedAt,
		PostedBy:       e.PostedBy,
	}
}

// ToListJournalEntriesResponse converts a page of entries.
func ToListJournalEntriesResponse(entries []domain.JournalEntry, nextToken string) ListJournalEntriesResponse {
	res := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		res[i] = ToJournalEntryResponse(&entries[i])
	}
	return ListJournalEntriesResponse{Entries: res, NextToken: nextToken}
}

// ToJournalSummaryResponse converts the service summary.
func ToJournalSummaryResponse(s portssvc.Summary) JournalSummaryResponse {
	return JournalSummaryResponse{
		TotalEntries:     s.TotalEntries,
		DraftEntries:     s.DraftEntries,
		PostedEntries:    s.PostedEntries,
		PostedTotalDebit: s.PostedTotalDebit,
	}
}
