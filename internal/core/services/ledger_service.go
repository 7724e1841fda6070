package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portsrepo "github.com/SscSPs/buchungsjournal/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const reversalDescriptionPrefix = "Storno: "

// SeedFunc builds the entries written when storage is empty. newID is the
// ledger's id generator.
type SeedFunc func(now time.Time, newID func() string) []domain.JournalEntry

// ledgerService owns the journal entry collection. All reads and writes go
// through mu; entries is replaced wholesale after every successful save.
// version is the stored snapshot version entries was loaded or saved as.
type ledgerService struct {
	BaseService
	mu        sync.Mutex
	repo      portsrepo.JournalSnapshotStore
	publisher portssvc.EventPublisher
	entries   []domain.JournalEntry
	version   int64

	now   func() time.Time
	newID func() string
	seed  SeedFunc
}

// LedgerOption is a functional option for configuring the ledger service
type LedgerOption func(*ledgerService)

// WithEventPublisher publishes ledger events after each persisted change
func WithEventPublisher(p portssvc.EventPublisher) LedgerOption {
	return func(s *ledgerService) {
		s.publisher = p
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// WithIDGenerator overrides uuid.NewString for entry and line ids, seeded ones included
func WithIDGenerator(newID func() string) LedgerOption {
	return func(s *ledgerService) {
		s.newID = newID
	}
}

// WithSeed replaces the example entries written on first use. A nil func seeds an empty journal.
func WithSeed(seed SeedFunc) LedgerOption {
	return func(s *ledgerService) {
		if seed == nil {
			seed = func(time.Time, func() string) []domain.JournalEntry { return nil }
		}
		s.seed = seed
	}
}

// OpenLedgerService loads the persisted journal through repo. When nothing has
// been stored yet, the seed entries are written and become the initial collection.
func OpenLedgerService(ctx context.Context, repo portsrepo.JournalSnapshotStore, options ...LedgerOption) (portssvc.LedgerSvcFacade, error) {
	svc := &ledgerService{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
		seed:  SeedEntries,
	}
	for _, option := range options {
		option(svc)
	}

	entries, version, found, err := repo.Load(ctx)
	if err != nil {
		svc.LogError(ctx, err, "Failed to load journal entries")
		return nil, fmt.Errorf("%w: load journal: %w", apperrors.ErrPersistence, err)
	}

	if !found {
		seeded := svc.seed(svc.now(), svc.newID)
		saved, err := repo.Save(ctx, seeded, version)
		switch {
		case errors.Is(err, apperrors.ErrStaleSnapshot):
			// Another process seeded first; use what it stored.
			svc.LogWarn(ctx, "Journal was seeded concurrently, loading stored entries")
			if entries, version, _, err = repo.Load(ctx); err != nil {
				svc.LogError(ctx, err, "Failed to load journal entries")
				return nil, fmt.Errorf("%w: load journal: %w", apperrors.ErrPersistence, err)
			}
		case err != nil:
			svc.LogError(ctx, err, "Failed to save seed journal entries")
			return nil, fmt.Errorf("%w: save seed journal: %w", apperrors.ErrPersistence, err)
		default:
			entries, version = seeded, saved
			svc.LogInfo(ctx, "Seeded empty journal", slog.Int("entries", len(entries)))
		}
	}

	svc.replace(entries, version)
	svc.LogDebug(ctx, "Journal loaded", slog.Int("entries", len(entries)), slog.Int64("version", version))
	return svc, nil
}

// replace installs a collection read from storage. Totals are derived data;
// never trust what was stored.
func (s *ledgerService) replace(entries []domain.JournalEntry, version int64) {
	for i := range entries {
		entries[i].Recalculate()
	}
	s.entries = entries
	s.version = version
}

// Ensure ledgerService implements the LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// commit saves next over the version this ledger last saw and, only if that
// succeeded, makes it the live collection. When another writer saved in the
// meantime nothing is written; the ledger reloads the stored collection so a
// retry works on current data. Callers hold mu.
func (s *ledgerService) commit(ctx context.Context, next []domain.JournalEntry) error {
	version, err := s.repo.Save(ctx, next, s.version)
	if errors.Is(err, apperrors.ErrStaleSnapshot) {
		s.LogWarn(ctx, "Journal changed in storage, reloading", slog.Int64("version", s.version))
		s.reload(ctx)
		return fmt.Errorf("%w: save journal: %w", apperrors.ErrPersistence, err)
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to save journal entries")
		return fmt.Errorf("%w: save journal: %w", apperrors.ErrPersistence, err)
	}
	s.entries = next
	s.version = version
	return nil
}

// reload replaces the live collection with the stored one. On failure the
// live collection is kept and the next commit is rejected again. Callers hold mu.
func (s *ledgerService) reload(ctx context.Context) {
	entries, version, found, err := s.repo.Load(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to reload journal entries")
		return
	}
	if !found {
		entries = nil
	}
	s.replace(entries, version)
	s.LogInfo(ctx, "Journal reloaded", slog.Int("entries", len(entries)), slog.Int64("version", version))
}

func (s *ledgerService) indexOf(id string) int {
	return slices.IndexFunc(s.entries, func(e domain.JournalEntry) bool { return e.ID == id })
}

// nextEntryNumber counts the entries of year and adds one. When deletions
// left the count behind the highest sequence in use, it continues after that
// sequence instead so a live number is never handed out twice. Callers hold mu.
func (s *ledgerService) nextEntryNumber(year int) string {
	marker := domain.YearMarker(year)
	count, highest := 0, 0
	for _, e := range s.entries {
		if !strings.Contains(e.EntryNumber, marker) {
			continue
		}
		count++
		if y, seq, ok := domain.ParseEntryNumber(e.EntryNumber); ok && y == year && seq > highest {
			highest = seq
		}
	}
	return domain.FormatEntryNumber(year, max(count, highest)+1)
}

func (s *ledgerService) withLineIDs(lines []domain.JournalLine) []domain.JournalLine {
	out := make([]domain.JournalLine, len(lines))
	for i, l := range lines {
		if l.ID == "" {
			l.ID = s.newID()
		}
		out[i] = l
	}
	return out
}

func (s *ledgerService) publish(ctx context.Context, event domain.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to publish ledger event",
			slog.String("event_type", string(event.Type)),
			slog.String("entry_id", event.EntryID))
	}
}

func (s *ledgerService) CreateEntry(ctx context.Context, input portssvc.CreateEntryInput) (*domain.JournalEntry, error) {
	if err := domain.ValidateLines(input.Lines); err != nil {
		return nil, err
	}

	entryType := input.Type
	if entryType == "" {
		entryType = domain.TypeStandard
	}
	if !entryType.Valid() || entryType == domain.TypeReversal {
		return nil, fmt.Errorf("%w: entry type %q cannot be created directly", apperrors.ErrValidation, entryType)
	}

	status := input.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if status != domain.StatusDraft && status != domain.StatusPosted {
		return nil, fmt.Errorf("%w: entry status %q cannot be created directly", apperrors.ErrValidation, status)
	}

	now := s.now()
	date := input.Date
	if date.IsZero() {
		date = domain.DateOf(now)
	}
	postingDate := input.PostingDate
	if postingDate.IsZero() {
		postingDate = date
	}

	entry := domain.JournalEntry{
		ID:             s.newID(),
		Date:           date,
		PostingDate:    postingDate,
		Type:           entryType,
		Status:         status,
		Description:    input.Description,
		Reference:      input.Reference,
		DocumentNumber: input.DocumentNumber,
		Lines:          s.withLineIDs(input.Lines),
		CreatedAt:      now,
		CreatedBy:      input.CreatedBy,
	}
	entry.Recalculate()

	if status == domain.StatusPosted {
		// Creating an entry as posted skips PostEntry, so apply the same gate here.
		if !entry.IsBalanced {
			return nil, fmt.Errorf("%w: debit %s, credit %s", apperrors.ErrUnbalanced, entry.TotalDebit, entry.TotalCredit)
		}
		postedAt := now
		entry.PostedAt = &postedAt
		entry.PostedBy = input.CreatedBy
	}

	s.mu.Lock()
	entry.EntryNumber = s.nextEntryNumber(date.Year())
	err := s.commit(ctx, append(slices.Clone(s.entries), entry))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry created",
		slog.String("entry_id", entry.ID),
		slog.String("entry_number", entry.EntryNumber),
		slog.Bool("balanced", entry.IsBalanced))
	s.publish(ctx, domain.NewLedgerEvent(domain.EventEntryCreated, entry, entry.CreatedBy, now))

	created := entry.Clone()
	return &created, nil
}

func (s *ledgerService) UpdateEntry(ctx context.Context, id string, updates portssvc.EntryUpdate) (*domain.JournalEntry, error) {
	if updates.Lines != nil {
		if err := domain.ValidateLines(updates.Lines); err != nil {
			return nil, err
		}
	}
	if updates.Type != nil && (!updates.Type.Valid() || *updates.Type == domain.TypeReversal) {
		return nil, fmt.Errorf("%w: entry type %q cannot be assigned", apperrors.ErrValidation, *updates.Type)
	}

	s.mu.Lock()
	entry, err := s.applyUpdate(ctx, id, updates)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry updated", slog.String("entry_id", id), slog.Bool("balanced", entry.IsBalanced))
	s.publish(ctx, domain.NewLedgerEvent(domain.EventEntryUpdated, entry, "", s.now()))

	updated := entry.Clone()
	return &updated, nil
}

// applyUpdate edits and saves a draft. Callers hold mu.
func (s *ledgerService) applyUpdate(ctx context.Context, id string, updates portssvc.EntryUpdate) (domain.JournalEntry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.JournalEntry{}, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, id)
	}
	entry := s.entries[idx].Clone()
	if !entry.IsDraft() {
		return domain.JournalEntry{}, fmt.Errorf("%w: entry %s is %s, only drafts can be edited", apperrors.ErrInvalidState, entry.EntryNumber, entry.Status)
	}

	if updates.Date != nil {
		entry.Date = *updates.Date
	}
	if updates.PostingDate != nil {
		entry.PostingDate = *updates.PostingDate
	}
	if updates.Type != nil {
		entry.Type = *updates.Type
	}
	if updates.Description != nil {
		entry.Description = *updates.Description
	}
	if updates.Reference != nil {
		entry.Reference = *updates.Reference
	}
	if updates.DocumentNumber != nil {
		entry.DocumentNumber = *updates.DocumentNumber
	}
	if updates.Lines != nil {
		entry.Lines = s.withLineIDs(updates.Lines)
	}
	entry.Recalculate()

	next := slices.Clone(s.entries)
	next[idx] = entry
	if err := s.commit(ctx, next); err != nil {
		return domain.JournalEntry{}, err
	}
	return entry, nil
}

func (s *ledgerService) PostEntry(ctx context.Context, id string, postedBy string) (bool, error) {
	now := s.now()

	s.mu.Lock()
	entry, err := s.applyPost(ctx, id, postedBy, now)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.LogInfo(ctx, "Journal entry posted", slog.String("entry_id", id), slog.String("entry_number", entry.EntryNumber))
	s.publish(ctx, domain.NewLedgerEvent(domain.EventEntryPosted, entry, postedBy, now))
	return true, nil
}

// applyPost moves a balanced draft to posted and saves it. Callers hold mu.
func (s *ledgerService) applyPost(ctx context.Context, id string, postedBy string, now time.Time) (domain.JournalEntry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.JournalEntry{}, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, id)
	}
	entry := s.entries[idx].Clone()
	if !entry.IsDraft() {
		return domain.JournalEntry{}, fmt.Errorf("%w: entry %s is %s, only drafts can be posted", apperrors.ErrInvalidState, entry.EntryNumber, entry.Status)
	}
	if !entry.IsBalanced {
		return domain.JournalEntry{}, fmt.Errorf("%w: entry %s has debit %s and credit %s", apperrors.ErrUnbalanced, entry.EntryNumber, entry.TotalDebit, entry.TotalCredit)
	}

	postedAt := now
	entry.Status = domain.StatusPosted
	entry.PostedAt = &postedAt
	entry.PostedBy = postedBy

	next := slices.Clone(s.entries)
	next[idx] = entry
	if err := s.commit(ctx, next); err != nil {
		return domain.JournalEntry{}, err
	}
	return entry, nil
}

func (s *ledgerService) ReverseEntry(ctx context.Context, id string, reversedBy string, reversalDate domain.Date) (*domain.JournalEntry, error) {
	now := s.now()
	if reversalDate.IsZero() {
		reversalDate = domain.DateOf(now)
	}

	s.mu.Lock()
	original, reversal, err := s.applyReversal(ctx, id, reversedBy, reversalDate, now)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("original_entry_id", original.ID),
		slog.String("reversal_entry_id", reversal.ID),
		slog.String("reversal_entry_number", reversal.EntryNumber))

	event := domain.NewLedgerEvent(domain.EventEntryReversed, reversal, reversedBy, now)
	event.RelatedEntryID = original.ID
	s.publish(ctx, event)

	created := reversal.Clone()
	return &created, nil
}

// applyReversal marks a posted entry reversed and appends its mirror entry,
// saving both at once. Callers hold mu.
func (s *ledgerService) applyReversal(ctx context.Context, id string, reversedBy string, reversalDate domain.Date, now time.Time) (original, reversal domain.JournalEntry, err error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.JournalEntry{}, domain.JournalEntry{}, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, id)
	}
	original = s.entries[idx].Clone()
	if original.Status != domain.StatusPosted {
		return domain.JournalEntry{}, domain.JournalEntry{}, fmt.Errorf("%w: entry %s is %s, only posted entries can be reversed", apperrors.ErrInvalidState, original.EntryNumber, original.Status)
	}

	lines := make([]domain.JournalLine, len(original.Lines))
	for i, l := range original.Lines {
		swapped := l.Swapped()
		swapped.ID = s.newID()
		lines[i] = swapped
	}

	postedAt := now
	reversal = domain.JournalEntry{
		ID:             s.newID(),
		EntryNumber:    s.nextEntryNumber(reversalDate.Year()),
		Date:           reversalDate,
		PostingDate:    reversalDate,
		Type:           domain.TypeReversal,
		Status:         domain.StatusPosted,
		Description:    reversalDescriptionPrefix + original.Description,
		Reference:      original.EntryNumber,
		DocumentNumber: original.DocumentNumber,
		Lines:          lines,
		CreatedAt:      now,
		CreatedBy:      reversedBy,
		PostedAt:       &postedAt,
		PostedBy:       reversedBy,
	}
	reversal.Recalculate()

	original.Status = domain.StatusReversed

	next := slices.Clone(s.entries)
	next[idx] = original
	next = append(next, reversal)
	if err := s.commit(ctx, next); err != nil {
		return domain.JournalEntry{}, domain.JournalEntry{}, err
	}
	return original, reversal, nil
}

func (s *ledgerService) DeleteEntry(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	entry, err := s.applyDelete(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.LogInfo(ctx, "Journal entry deleted", slog.String("entry_id", id), slog.String("entry_number", entry.EntryNumber))
	s.publish(ctx, domain.NewLedgerEvent(domain.EventEntryDeleted, entry, "", s.now()))
	return true, nil
}

// applyDelete removes a draft and saves the rest. Callers hold mu.
func (s *ledgerService) applyDelete(ctx context.Context, id string) (domain.JournalEntry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.JournalEntry{}, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, id)
	}
	entry := s.entries[idx].Clone()
	if !entry.IsDraft() {
		return domain.JournalEntry{}, fmt.Errorf("%w: entry %s is %s, only drafts can be deleted", apperrors.ErrInvalidState, entry.EntryNumber, entry.Status)
	}

	next := slices.Delete(slices.Clone(s.entries), idx, idx+1)
	if err := s.commit(ctx, next); err != nil {
		return domain.JournalEntry{}, err
	}
	return entry, nil
}

func (s *ledgerService) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, id)
	}
	entry := s.entries[idx].Clone()
	return &entry, nil
}

func (s *ledgerService) Entries(ctx context.Context) []domain.JournalEntry {
	return s.FilterEntries(ctx, portssvc.FilterCriteria{})
}

func (s *ledgerService) FilterEntries(ctx context.Context, criteria portssvc.FilterCriteria) []domain.JournalEntry {
	search := strings.ToLower(criteria.Search)

	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !criteria.DateFrom.IsZero() && e.Date.Before(criteria.DateFrom) {
			continue
		}
		if !criteria.DateTo.IsZero() && e.Date.After(criteria.DateTo) {
			continue
		}
		if criteria.Status != "" && e.Status != criteria.Status {
			continue
		}
		if search != "" && !matchesSearch(e, search) {
			continue
		}
		result = append(result, e.Clone())
	}

	s.LogDebug(ctx, "Filtered journal entries", slog.Int("matched", len(result)), slog.Int("total", len(s.entries)))
	return result
}

// matchesSearch expects a lower-cased term.
func matchesSearch(e domain.JournalEntry, term string) bool {
	if strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(e.EntryNumber), term) {
		return true
	}
	for _, l := range e.Lines {
		if strings.Contains(strings.ToLower(l.AccountNumber), term) {
			return true
		}
	}
	return false
}

func (s *ledgerService) GetNextEntryNumber(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEntryNumber(s.now().Year())
}

func (s *ledgerService) GetSummary(ctx context.Context) portssvc.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := portssvc.Summary{
		TotalEntries:     len(s.entries),
		PostedTotalDebit: decimal.Zero,
	}
	for _, e := range s.entries {
		switch e.Status {
		case domain.StatusDraft:
			summary.DraftEntries++
		case domain.StatusPosted:
			summary.PostedEntries++
			summary.PostedTotalDebit = summary.PostedTotalDebit.Add(e.TotalDebit)
		}
	}
	return summary
}
