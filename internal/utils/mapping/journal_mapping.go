// Package mapping converts request DTOs into ledger service inputs.
package mapping

import (
	"fmt"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/SscSPs/buchungsjournal/internal/dto"
)

// ToDomainLines converts request lines. Ids are reassigned by the ledger.
func ToDomainLines(req []dto.JournalLineRequest) []domain.JournalLine {
	if req == nil {
		return nil
	}
	lines := make([]domain.JournalLine, len(req))
	for i, l := range req {
		lines[i] = domain.JournalLine{
			ID:            l.ID,
			AccountNumber: l.AccountNumber,
			AccountName:   l.AccountName,
			Debit:         l.Debit,
			Credit:        l.Credit,
			CostCenter:    l.CostCenter,
			Description:   l.Description,
		}
	}
	return lines
}

// ToCreateEntryInput converts a create request, recording actor as author.
func ToCreateEntryInput(req dto.CreateJournalEntryRequest, actor string) (portssvc.CreateEntryInput, error) {
	input := portssvc.CreateEntryInput{
		Date:           req.Date,
		PostingDate:    req.PostingDate,
		Description:    req.Description,
		Reference:      req.Reference,
		DocumentNumber: req.DocumentNumber,
		Lines:          ToDomainLines(req.Lines),
		CreatedBy:      actor,
	}
	if req.Type != "" {
		t, err := domain.ParseEntryType(req.Type)
		if err != nil {
			return portssvc.CreateEntryInput{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		input.Type = t
	}
	if req.Status != "" {
		s, err := domain.ParseEntryStatus(req.Status)
		if err != nil {
			return portssvc.CreateEntryInput{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		input.Status = s
	}
	return input, nil
}

// ToEntryUpdate converts a partial update request.
func ToEntryUpdate(req dto.UpdateJournalEntryRequest) (portssvc.EntryUpdate, error) {
	update := portssvc.EntryUpdate{
		Date:           req.Date,
		PostingDate:    req.PostingDate,
		Description:    req.Description,
		Reference:      req.Reference,
		DocumentNumber: req.DocumentNumber,
		Lines:          ToDomainLines(req.Lines),
	}
	if req.Type != nil {
		t, err := domain.ParseEntryType(*req.Type)
		if err != nil {
			return portssvc.EntryUpdate{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		update.Type = &t
	}
	return update, nil
}

// ToFilterCriteria converts list query parameters.
func ToFilterCriteria(params dto.ListJournalEntriesParams) (portssvc.FilterCriteria, error) {
	from, err := domain.ParseDate(params.From)
	if err != nil {
		return portssvc.FilterCriteria{}, fmt.Errorf("%w: from: %v", apperrors.ErrValidation, err)
	}
	to, err := domain.ParseDate(params.To)
	if err != nil {
		return portssvc.FilterCriteria{}, fmt.Errorf("%w: to: %v", apperrors.ErrValidation, err)
	}
	criteria := portssvc.FilterCriteria{DateFrom: from, DateTo: to, Search: params.Search}
	if params.Status != "" {
		s, err := domain.ParseEntryStatus(params.Status)
		if err != nil {
			return portssvc.FilterCriteria{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		criteria.Status = s
	}
	return criteria, nil
}
