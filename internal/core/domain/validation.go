package domain

import (
	"fmt"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
)

// ValidateLines enforces the line convention: amounts are non-negative and at
// most one side of a line carries a value.
func ValidateLines(lines []JournalLine) error {
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d (account %s) has a negative amount", apperrors.ErrValidation, i+1, l.AccountNumber)
		}
		if !l.Debit.IsZero() && !l.Credit.IsZero() {
			return fmt.Errorf("%w: line %d (account %s) carries both debit and credit", apperrors.ErrValidation, i+1, l.AccountNumber)
		}
	}
	return nil
}
