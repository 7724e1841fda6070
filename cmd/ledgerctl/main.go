package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/SscSPs/buchungsjournal/internal/core/services"
	"github.com/SscSPs/buchungsjournal/internal/platform/config"
	"github.com/SscSPs/buchungsjournal/internal/platform/storage"
	"github.com/SscSPs/buchungsjournal/internal/utils"
	"github.com/SscSPs/buchungsjournal/internal/utils/export"
	"github.com/urfave/cli/v2"
)

// ledgerOpener yields the ledger and a cleanup for the selected backend.
type ledgerOpener func(ctx context.Context) (portssvc.LedgerSvcFacade, func(), error)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := newApp(cfg, func(ctx context.Context) (portssvc.LedgerSvcFacade, func(), error) {
		repos, err := storage.OpenRepositories(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		container, err := services.NewServiceContainer(ctx, repos, nil)
		cleanup := func() {
			if repos.Close != nil {
				if cerr := repos.Close(context.Background()); cerr != nil {
					logger.Error("Failed to close storage", slog.String("error", cerr.Error()))
				}
			}
		}
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return container.Ledger, cleanup, nil
	})

	if err := app.Run(os.Args); err != nil {
		logger.Error("Command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, open ledgerOpener) *cli.App {
	withLedger := func(fn func(c *cli.Context, ledger portssvc.LedgerSvcFacade) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			ledger, cleanup, err := open(c.Context)
			if err != nil {
				return err
			}
			defer cleanup()
			return fn(c, ledger)
		}
	}

	filterFlags := []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "first entry date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "to", Usage: "last entry date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "status", Usage: "draft, posted or reversed"},
		&cli.StringFlag{Name: "search", Usage: "matches description, entry number and account numbers"},
	}

	return &cli.App{
		Name:  "ledgerctl",
		Usage: "inspect and maintain the Buchungsjournal",
		Commands: []*cli.Command{
			{
				Name:   "summary",
				Usage:  "print entry counts and the posted debit volume",
				Action: withLedger(runSummary),
			},
			{
				Name:   "next-number",
				Usage:  "print the number the next entry of this year would get",
				Action: withLedger(runNextNumber),
			},
			{
				Name:   "list",
				Usage:  "list journal entries",
				Flags:  filterFlags,
				Action: withLedger(runList),
			},
			{
				Name:  "export",
				Usage: "write the journal as semicolon separated CSV",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file, defaults to stdout"},
				}, filterFlags...),
				Action: withLedger(runExport),
			},
			{
				Name:      "post",
				Usage:     "post a balanced draft",
				ArgsUsage: "<entry-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "by", Required: true, Usage: "name recorded as postedBy"},
				},
				Action: withLedger(runPost),
			},
			{
				Name:      "reverse",
				Usage:     "reverse a posted entry",
				ArgsUsage: "<entry-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "by", Required: true, Usage: "name recorded on the reversal"},
					&cli.StringFlag{Name: "date", Usage: "reversal date, YYYY-MM-DD, defaults to today"},
				},
				Action: withLedger(runReverse),
			},
			{
				Name:  "token",
				Usage: "issue an API token signed with JWT_SECRET",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "token subject"},
					&cli.StringFlag{Name: "name", Usage: "display name recorded on entries"},
					&cli.DurationFlag{Name: "expiry", Value: cfg.JWTExpiryDuration},
				},
				Action: func(c *cli.Context) error {
					token, err := utils.GenerateJWT(c.String("user"), c.String("name"), cfg.JWTSecret, c.Duration("expiry"), cfg.JWTIssuer)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, token)
					return err
				},
			},
		},
	}
}

func filterFromFlags(c *cli.Context) (portssvc.FilterCriteria, error) {
	from, err := domain.ParseDate(c.String("from"))
	if err != nil {
		return portssvc.FilterCriteria{}, err
	}
	to, err := domain.ParseDate(c.String("to"))
	if err != nil {
		return portssvc.FilterCriteria{}, err
	}
	criteria := portssvc.FilterCriteria{DateFrom: from, DateTo: to, Search: c.String("search")}
	if raw := c.String("status"); raw != "" {
		if criteria.Status, err = domain.ParseEntryStatus(raw); err != nil {
			return portssvc.FilterCriteria{}, err
		}
	}
	return criteria, nil
}

func requireEntryID(c *cli.Context) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("%s expects exactly one entry id", c.Command.Name)
	}
	return c.Args().First(), nil
}

func runSummary(c *cli.Context, ledger portssvc.LedgerSvcFacade) error {
	s := ledger.GetSummary(c.Context)
	_, err := fmt.Fprintf(c.App.Writer, "Buchungen: %d\nEntwürfe: %d\nGebucht: %d\nSoll gebucht: %s\n",
		s.TotalEntries, s.DraftEntries, s.PostedEntries, s.PostedTotalDebit.StringFixed(2))
	return err
}

func runNextNumber(c *cli.Context, ledger portssvc.LedgerSvcFacade) error {
	_, err := fmt.Fprintln(c.App.Writer, ledger.GetNextEntryNumber(c.Context))
	return err
}

func runList(c *cli.Context, ledger portssvc.LedgerSvcFacade) error {
	criteria, err := filterFromFlags(c)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMMER\tDATUM\tSTATUS\tSOLL\tHABEN\tBESCHREIBUNG")
	for _, e := range ledger.FilterEntries(c.Context, criteria) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.EntryNumber, e.Date, e.Status.Label(), e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2), e.Description)
	}
	return tw.Flush()
}

func runExport(c *cli.Context, ledger portssvc.LedgerSvcFacade) error {
	criteria, err := filterFromFlags(c)
	if err != nil {
		return err
	}
	var w io.Writer = c.App.Writer
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	return export.WriteJournalCSV(w, ledger.FilterEntries(c.Context, criteria))
}

func runPost(c *cli.Context, ledger portssvc.LedgerSvcFacade) error {
	id, err := requireEntryID(c)
	if err != nil {
		return err
	}
	if _, err := ledger.PostEntry(c.Context, id, c.String("by")); err != nil {
		return err
	}
	entry, err := ledger.GetEntry(c.Context, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s gebucht\n", entry.EntryNumber)
	return err
}

func runReverse(c *cli.Context, ledger portssvc.LedgerSvcFacade) error {
	id, err := requireEntryID(c)
	if err != nil {
		return err
	}
	date, err := domain.ParseDate(c.String("date"))
	if err != nil {
		return err
	}
	reversal, err := ledger.ReverseEntry(c.Context, id, c.String("by"), date)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s storniert durch %s vom %s\n", reversal.Reference, reversal.EntryNumber, reversal.Date.Format("02.01.2006"))
	return err
}
