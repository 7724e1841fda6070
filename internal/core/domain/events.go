package domain

import "time"

// LedgerEventType names a change to the journal.
type LedgerEventType string

const (
	EventEntryCreated  LedgerEventType = "entry.created"
	EventEntryUpdated  LedgerEventType = "entry.updated"
	EventEntryPosted   LedgerEventType = "entry.posted"
	EventEntryReversed LedgerEventType = "entry.reversed"
	EventEntryDeleted  LedgerEventType = "entry.deleted"
)

// LedgerEvent is emitted after a change has been persisted.
type LedgerEvent struct {
	Type        LedgerEventType `json:"type"`
	EntryID     string          `json:"entryId"`
	EntryNumber string          `json:"entryNumber"`
	Status      EntryStatus     `json:"status"`
	Actor       string          `json:"actor,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`

	// RelatedEntryID links a reversal to the entry it offsets.
	RelatedEntryID string `json:"relatedEntryId,omitempty"`
}

// NewLedgerEvent builds an event for entry.
func NewLedgerEvent(t LedgerEventType, entry JournalEntry, actor string, at time.Time) LedgerEvent {
	return LedgerEvent{
		Type:        t,
		EntryID:     entry.ID,
		EntryNumber: entry.EntryNumber,
		Status:      entry.Status,
		Actor:       actor,
		OccurredAt:  at,
	}
}
