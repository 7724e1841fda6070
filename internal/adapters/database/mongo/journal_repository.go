// Package mongo stores the journal collection as one MongoDB document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portsrepo "github.com/SscSPs/buchungsjournal/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SnapshotCollectionName is the collection holding journal snapshots.
const SnapshotCollectionName = "ledger_snapshots"

// snapshotDocument.Version is missing on documents written before
// versioning; those count as version 1.
type snapshotDocument struct {
	Key       string          `bson:"_id"`
	Version   int64           `bson:"version"`
	Entries   []entryDocument `bson:"entries"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

type entryDocument struct {
	ID             string               `bson:"id"`
	EntryNumber    string               `bson:"entryNumber"`
	Date           string               `bson:"date"`
	PostingDate    string               `bson:"postingDate"`
	Type           string               `bson:"type"`
	Status         string               `bson:"status"`
	Description    string               `bson:"description"`
	Reference      string               `bson:"reference"`
	DocumentNumber string               `bson:"documentNumber"`
	Lines          []lineDocument       `bson:"lines"`
	TotalDebit     primitive.Decimal128 `bson:"totalDebit"`
	TotalCredit    primitive.Decimal128 `bson:"totalCredit"`
	IsBalanced     bool                 `bson:"isBalanced"`
	CreatedAt      time.Time            `bson:"createdAt"`
	CreatedBy      string               `bson:"createdBy"`
	PostedAt       *time.Time           `bson:"postedAt,omitempty"`
	PostedBy       string               `bson:"postedBy,omitempty"`
}

type lineDocument struct {
	ID            string               `bson:"id"`
	AccountNumber string               `bson:"accountNumber"`
	AccountName   string               `bson:"accountName"`
	Debit         primitive.Decimal128 `bson:"debit"`
	Credit        primitive.Decimal128 `bson:"credit"`
	CostCenter    string               `bson:"costCenter,omitempty"`
	Description   string               `bson:"description,omitempty"`
}

// JournalSnapshotRepository replaces the single snapshot document on every
// save, guarded by its version field.
type JournalSnapshotRepository struct {
	collection *mongo.Collection
	key        string
	now        func() time.Time
}

// NewJournalSnapshotRepository creates a repository over collection.
func NewJournalSnapshotRepository(collection *mongo.Collection) *JournalSnapshotRepository {
	return &JournalSnapshotRepository{
		collection: collection,
		key:        portsrepo.JournalSnapshotKey,
		now:        time.Now,
	}
}

// Ensure JournalSnapshotRepository implements portsrepo.JournalSnapshotStore
var _ portsrepo.JournalSnapshotStore = (*JournalSnapshotRepository)(nil)

func (r *JournalSnapshotRepository) Load(ctx context.Context) ([]domain.JournalEntry, int64, bool, error) {
	var doc snapshotDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": r.key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("failed to load journal snapshot: %w", err)
	}

	entries := make([]domain.JournalEntry, 0, len(doc.Entries))
	for _, d := range doc.Entries {
		entry, err := d.toDomain()
		if err != nil {
			return nil, 0, false, fmt.Errorf("failed to decode journal entry %s: %w", d.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, max(doc.Version, 1), true, nil
}

// Save inserts the first snapshot when expectedVersion is 0. Later saves
// replace the document only while it still carries expectedVersion.
func (r *JournalSnapshotRepository) Save(ctx context.Context, entries []domain.JournalEntry, expectedVersion int64) (int64, error) {
	doc := snapshotDocument{
		Key:       r.key,
		Version:   expectedVersion + 1,
		Entries:   make([]entryDocument, 0, len(entries)),
		UpdatedAt: r.now().UTC(),
	}
	for _, e := range entries {
		d, err := entryFromDomain(e)
		if err != nil {
			return 0, fmt.Errorf("failed to encode journal entry %s: %w", e.ID, err)
		}
		doc.Entries = append(doc.Entries, d)
	}

	if expectedVersion == 0 {
		if _, err := r.collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return 0, fmt.Errorf("%w: snapshot %s already exists", apperrors.ErrStaleSnapshot, r.key)
			}
			return 0, fmt.Errorf("failed to save journal snapshot: %w", err)
		}
		return doc.Version, nil
	}

	filter := bson.M{"_id": r.key, "version": expectedVersion}
	if expectedVersion == 1 {
		filter["version"] = bson.M{"$in": bson.A{int64(1), nil}}
	}
	res, err := r.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to save journal snapshot: %w", err)
	}
	if res.MatchedCount == 0 {
		return 0, fmt.Errorf("%w: snapshot %s is no longer at version %d", apperrors.ErrStaleSnapshot, r.key, expectedVersion)
	}
	return doc.Version, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func entryFromDomain(e domain.JournalEntry) (entryDocument, error) {
	totalDebit, err := toDecimal128(e.TotalDebit)
	if err != nil {
		return entryDocument{}, err
	}
	totalCredit, err := toDecimal128(e.TotalCredit)
	if err != nil {
		return entryDocument{}, err
	}

	lines := make([]lineDocument, 0, len(e.Lines))
	for _, l := range e.Lines {
		debit, err := toDecimal128(l.Debit)
		if err != nil {
			return entryDocument{}, err
		}
		credit, err := toDecimal128(l.Credit)
		if err != nil {
			return entryDocument{}, err
		}
		lines = append(lines, lineDocument{
			ID:            l.ID,
			AccountNumber: l.AccountNumber,
			AccountName:   l.AccountName,
			Debit:         debit,
			Credit:        credit,
			CostCenter:    l.CostCenter,
			Description:   l.Description,
		})
	}

	return entryDocument{
		ID:             e.ID,
		EntryNumber:    e.EntryNumber,
		Date:           e.Date.String(),
		PostingDate:    e.PostingDate.String(),
		Type:           string(e.Type),
		Status:         string(e.Status),
		Description:    e.Description,
		Reference:      e.Reference,
		DocumentNumber: e.DocumentNumber,
		Lines:          lines,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		IsBalanced:     e.IsBalanced,
		CreatedAt:      e.CreatedAt,
		CreatedBy:      e.CreatedBy,
		PostedAt:       e.PostedAt,
		PostedBy:       e.PostedBy,
	}, nil
}

func (d entryDocument) toDomain() (domain.JournalEntry, error) {
	date, err := domain.ParseDate(d.Date)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	postingDate, err := domain.ParseDate(d.PostingDate)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	totalDebit, err := fromDecimal128(d.TotalDebit)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	totalCredit, err := fromDecimal128(d.TotalCredit)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	lines := make([]domain.JournalLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		debit, err := fromDecimal128(l.Debit)
		if err != nil {
			return domain.JournalEntry{}, err
		}
		credit, err := fromDecimal128(l.Credit)
		if err != nil {
			return domain.JournalEntry{}, err
		}
		lines = append(lines, domain.JournalLine{
			ID:            l.ID,
			AccountNumber: l.AccountNumber,
			AccountName:   l.AccountName,
			Debit:         debit,
			Credit:        credit,
			CostCenter:    l.CostCenter,
			Description:   l.Description,
		})
	}

	return domain.JournalEntry{
		ID:             d.ID,
		EntryNumber:    d.EntryNumber,
		Date:           date,
		PostingDate:    postingDate,
		Type:           domain.EntryType(d.Type),
		Status:         domain.EntryStatus(d.Status),
		Description:    d.Description,
		Reference:      d.Reference,
		DocumentNumber: d.DocumentNumber,
		Lines:          lines,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		IsBalanced:     d.IsBalanced,
		CreatedAt:      d.CreatedAt,
		CreatedBy:      d.CreatedBy,
		PostedAt:       d.PostedAt,
		PostedBy:       d.PostedBy,
	}, nil
}
