// Package export renders the journal for spreadsheet tooling.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
)

// JournalCSVHeader is the fixed column layout, one row per journal line.
var JournalCSVHeader = []string{"Buchungsnr", "Datum", "Typ", "Status", "Beschreibung", "Konto", "Soll", "Haben"}

// WriteJournalCSV writes entries as semicolon separated rows. The entry
// description is only filled on the first line of each entry.
func WriteJournalCSV(w io.Writer, entries []domain.JournalEntry) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(JournalCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, entry := range entries {
		for i, l := range entry.Lines {
			description := ""
			if i == 0 {
				description = entry.Description
			}
			row := []string{
				entry.EntryNumber,
				entry.Date.String(),
				string(entry.Type),
				string(entry.Status),
				description,
				l.AccountNumber,
				l.Debit.StringFixed(2),
				l.Credit.StringFixed(2),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row for %s: %w", entry.EntryNumber, err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
