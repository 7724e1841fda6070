package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The persisted collection is read by the browser frontend, which expects
	// amounts as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// EntryType classifies a journal entry.
type EntryType string

const (
	TypeStandard   EntryType = "standard"
	TypeOpening    EntryType = "opening"
	TypeClosing    EntryType = "closing"
	TypeAdjustment EntryType = "adjustment"
	TypeReversal   EntryType = "reversal"
)

// AllEntryTypes lists every member of the closed EntryType set.
func AllEntryTypes() []EntryType {
	return []EntryType{TypeStandard, TypeOpening, TypeClosing, TypeAdjustment, TypeReversal}
}

// Valid reports whether t is a member of the closed set.
func (t EntryType) Valid() bool {
	switch t {
	case TypeStandard, TypeOpening, TypeClosing, TypeAdjustment, TypeReversal:
		return true
	}
	return false
}

// Label returns the German display label.
func (t EntryType) Label() string {
	switch t {
	case TypeStandard:
		return "Standard"
	case TypeOpening:
		return "Eröffnung"
	case TypeClosing:
		return "Abschluss"
	case TypeAdjustment:
		return "Korrektur"
	case TypeReversal:
		return "Storno"
	}
	return string(t)
}

// ParseEntryType converts a raw value into an EntryType.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown entry type %q", s)
	}
	return t, nil
}

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusPosted   EntryStatus = "posted"
	StatusReversed EntryStatus = "reversed"
)

// AllEntryStatuses lists every member of the closed EntryStatus set.
func AllEntryStatuses() []EntryStatus {
	return []EntryStatus{StatusDraft, StatusPosted, StatusReversed}
}

// Valid reports whether s is a member of the closed set.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPosted, StatusReversed:
		return true
	}
	return false
}

// Label returns the German display label.
func (s EntryStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Entwurf"
	case StatusPosted:
		return "Gebucht"
	case StatusReversed:
		return "Storniert"
	}
	return string(s)
}

// ParseEntryStatus converts a raw value into an EntryStatus.
func ParseEntryStatus(s string) (EntryStatus, error) {
	st := EntryStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown entry status %q", s)
	}
	return st, nil
}

// BalanceTolerance absorbs floating point noise carried in from clients.
var BalanceTolerance = decimal.New(1, -2)

// JournalLine is one debit or credit leg of an entry.
type JournalLine struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	CostCenter    string          `json:"costCenter,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// Swapped returns a copy of the line with debit and credit exchanged.
func (l JournalLine) Swapped() JournalLine {
	l.Debit, l.Credit = l.Credit, l.Debit
	return l
}

// JournalEntry is an atomic, dated bookkeeping transaction.
type JournalEntry struct {
	ID             string        `json:"id"`
	EntryNumber    string        `json:"entryNumber"`
	Date           Date          `json:"date"`
	PostingDate    Date          `json:"postingDate"`
	Type           EntryType     `json:"type"`
	Status         EntryStatus   `json:"status"`
	Description    string        `json:"description"`
	Reference      string        `json:"reference"`
	DocumentNumber string        `json:"documentNumber"`
	Lines          []JournalLine `json:"lines"`

	// Derived from Lines by Recalculate; never set on their own.
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	IsBalanced  bool            `json:"isBalanced"`

	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy string     `json:"createdBy"`
	PostedAt  *time.Time `json:"postedAt,omitempty"`
	PostedBy  string     `json:"postedBy,omitempty"`
}

// ComputeTotals sums the debit and credit sides of lines.
func ComputeTotals(lines []JournalLine) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit, totalCredit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	return totalDebit, totalCredit
}

// IsBalancedTotals reports whether |debit - credit| < BalanceTolerance.
func IsBalancedTotals(totalDebit, totalCredit decimal.Decimal) bool {
	return totalDebit.Sub(totalCredit).Abs().LessThan(BalanceTolerance)
}

// Recalculate derives TotalDebit, TotalCredit and IsBalanced from Lines.
func (e *JournalEntry) Recalculate() {
	e.TotalDebit, e.TotalCredit = ComputeTotals(e.Lines)
	e.IsBalanced = IsBalancedTotals(e.TotalDebit, e.TotalCredit)
}

// IsDraft reports whether the entry can still be edited, posted or deleted.
func (e *JournalEntry) IsDraft() bool {
	return e.Status == StatusDraft
}

// Clone returns a deep copy that shares no mutable state with e.
func (e JournalEntry) Clone() JournalEntry {
	if e.Lines != nil {
		lines := make([]JournalLine, len(e.Lines))
		copy(lines, e.Lines)
		e.Lines = lines
	}
	if e.PostedAt != nil {
		postedAt := *e.PostedAt
		e.PostedAt = &postedAt
	}
	return e
}

// EntryNumberPrefix starts every entry number ("Buchung").
const EntryNumberPrefix = "BU"

// FormatEntryNumber renders BU-<year>-<4 digit sequence>.
func FormatEntryNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", EntryNumberPrefix, year, seq)
}

// YearMarker is the substring identifying entry numbers of a given year.
func YearMarker(year int) string {
	return fmt.Sprintf("-%d-", year)
}

// ParseEntryNumber splits an entry number into year and sequence.
func ParseEntryNumber(s string) (year, seq int, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != EntryNumberPrefix {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	return year, seq, true
}
