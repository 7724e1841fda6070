package mapping

import (
	"testing"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	"github.com/SscSPs/buchungsjournal/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCreateEntryInput(t *testing.T) {
	req := dto.CreateJournalEntryRequest{
		Date:        domain.NewDate(2024, 3, 1),
		Type:        "Adjustment",
		Status:      "posted",
		Description: "Korrektur Miete",
		Lines: []dto.JournalLineRequest{
			{AccountNumber: "4210", Debit: decimal.NewFromInt(50)},
			{AccountNumber: "1200", Credit: decimal.NewFromInt(50)},
		},
	}

	input, err := ToCreateEntryInput(req, "Erika")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeAdjustment, input.Type)
	assert.Equal(t, domain.StatusPosted, input.Status)
	assert.Equal(t, "Erika", input.CreatedBy)
	assert.True(t, input.PostingDate.IsZero())
	require.Len(t, input.Lines, 2)
	assert.Equal(t, "4210", input.Lines[0].AccountNumber)
	assert.True(t, input.Lines[1].Credit.Equal(decimal.NewFromInt(50)))

	_, err = ToCreateEntryInput(dto.CreateJournalEntryRequest{Type: "bogus"}, "Erika")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestToEntryUpdate(t *testing.T) {
	description := "neu"
	entryType := "closing"

	update, err := ToEntryUpdate(dto.UpdateJournalEntryRequest{Description: &description, Type: &entryType})
	require.NoError(t, err)
	assert.Nil(t, update.Lines)
	assert.Nil(t, update.Date)
	require.NotNil(t, update.Type)
	assert.Equal(t, domain.TypeClosing, *update.Type)
	assert.Equal(t, "neu", *update.Description)

	update, err = ToEntryUpdate(dto.UpdateJournalEntryRequest{Lines: []dto.JournalLineRequest{}})
	require.NoError(t, err)
	assert.NotNil(t, update.Lines)
	assert.Empty(t, update.Lines)
}

func TestToFilterCriteria(t *testing.T) {
	criteria, err := ToFilterCriteria(dto.ListJournalEntriesParams{From: "2024-01-01", Status: "draft", Search: "miete"})
	require.NoError(t, err)
	assert.True(t, criteria.DateFrom.Equal(domain.NewDate(2024, 1, 1)))
	assert.True(t, criteria.DateTo.IsZero())
	assert.Equal(t, domain.StatusDraft, criteria.Status)
	assert.Equal(t, "miete", criteria.Search)

	_, err = ToFilterCriteria(dto.ListJournalEntriesParams{To: "01.02.2024"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
