package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"saldo/internal/backend"
	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/log"
	gsheet "saldo/internal/sheets/google"
	"saldo/internal/storage"
	"saldo/internal/store"
	"saldo/internal/view"
)

// Commands lists every saldoctl subcommand.
var Commands = []subcommands.Command{
	&reportCmd{},
	&categoriesCmd{},
	&migrateCmd{},
	&journalCmd{},
}

// ownerFlag resolves an account by email for the read-only commands.
type ownerFlag struct {
	email string
}

func (o *ownerFlag) register(f *flag.FlagSet) {
	f.StringVar(&o.email, "email", "", "Email of the account to read.")
}

// openStore loads the account's records from the configured backend.
func (o *ownerFlag) openStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (*store.Store, func(), error) {
	if strings.TrimSpace(o.email) == "" {
		return nil, nil, errors.New("-email is required")
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}
	u, err := res.Backend.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(o.email)))
	if err != nil {
		cleanup()
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, fmt.Errorf("no account for %s", o.email)
		}
		return nil, nil, err
	}
	st := store.New(u.ID, res.Backend,
		store.WithLogger(logger),
		store.WithDefaultSalary(core.Money{Cents: cfg.DefaultSalaryCents()}))
	if err := st.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return st, cleanup, nil
}

func commandEnv() (*log.Logger, *config.Config) {
	LoadEnvFile()
	logger := SetupLogger(envOr("LOG_LEVEL", "warn"))
	return logger, config.Load()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type reportCmd struct {
	owner    ownerFlag
	month    string
	category string
	from     string
	to       string
}

func (*reportCmd) Name() string { return "report" }
func (*reportCmd) Synopsis() string {
	return "print the salary summary and spending breakdown of an account"
}
func (*reportCmd) Usage() string {
	return `saldoctl report -email <email> [-month YYYY-MM] [-category <name>] [-from YYYY-MM-DD] [-to YYYY-MM-DD]

  Prints the salary summary over every expense, then the filtered expenses
  with their totals by category and by month.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.owner.register(f)
	f.StringVar(&c.month, "month", core.All, "Only expenses of this month (YYYY-MM).")
	f.StringVar(&c.category, "category", core.All, "Only expenses of this category.")
	f.StringVar(&c.from, "from", "", "Earliest date, inclusive.")
	f.StringVar(&c.to, "to", "", "Latest date, inclusive.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger, cfg := commandEnv()
	spec := core.FilterSpec{Month: c.month, Category: c.category, DateFrom: c.from, DateTo: c.to}
	if err := spec.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid filter: %v\n", err)
		return subcommands.ExitUsageError
	}
	formatter, err := view.NewFormatter(cfg.Currency)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	st, cleanup, err := c.owner.openStore(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	if err := WriteReport(os.Stdout, st.Snapshot(), spec, formatter); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// WriteReport renders the summary, the filtered expenses and both aggregates
// as aligned plain text.
func WriteReport(out io.Writer, snap store.Snapshot, spec core.FilterSpec, f *view.Formatter) error {
	summary := core.Summarize(snap.Salary, core.Sum(snap.Expenses))
	filtered := core.Filter(snap.Expenses, spec)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Salary\t%s\t\n", f.Money(summary.Salary))
	fmt.Fprintf(w, "Spent\t%s\t\n", f.Money(summary.Total))
	fmt.Fprintf(w, "Remaining\t%s\t\n", f.Money(summary.Remaining))
	fmt.Fprintf(w, "Share of salary\t%s\t\n", f.Percent(summary.Percentage))
	if summary.Overspent() {
		fmt.Fprintln(w, "Over budget\t\t")
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nExpenses (%d of %d)\n", len(filtered), len(snap.Expenses))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, e := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Date, e.Category, e.Description, f.Money(e.Amount))
	}
	fmt.Fprintf(w, "Total\t\t\t%s\n", f.Money(core.Sum(filtered)))
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nBy category")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range core.AggregateByCategory(filtered) {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, f.Money(c.Value))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nBy month")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range core.AggregateByMonth(filtered) {
		fmt.Fprintf(w, "%s\t%s\n", core.LongMonthLabel(m.Key), f.Money(m.Total))
	}
	return w.Flush()
}

type categoriesCmd struct {
	owner ownerFlag
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list the categories available to an account" }
func (*categoriesCmd) Usage() string {
	return `saldoctl categories -email <email>
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) { c.owner.register(f) }

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger, cfg := commandEnv()
	st, cleanup, err := c.owner.openStore(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()
	for _, name := range st.Snapshot().Categories {
		fmt.Println(name)
	}
	return subcommands.ExitSuccess
}

type migrateCmd struct {
	status bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending SQLite schema migrations" }
func (*migrateCmd) Usage() string {
	return `saldoctl migrate [-status]

  Applies every pending migration to SQLITE_DB_PATH. With -status only the
  current schema version is printed.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.status, "status", false, "Print the schema version without migrating.")
}

func (c *migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, cfg := commandEnv()
	if !c.status {
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: schema version %d", cfg.SQLiteDBPath, version)
	if dirty {
		fmt.Print(" (dirty)")
	}
	fmt.Println()
	return subcommands.ExitSuccess
}

type journalCmd struct {
	year int
}

func (*journalCmd) Name() string     { return "journal" }
func (*journalCmd) Synopsis() string { return "print the Google Sheets change journal for a year" }
func (*journalCmd) Usage() string {
	return `saldoctl journal [-year YYYY]
`
}

func (c *journalCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", time.Now().Year(), "Journal year to read.")
}

func (c *journalCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger, cfg := commandEnv()
	client, err := gsheet.NewClient(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleJournalSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Logger:          logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	entries, err := client.ReadJournal(ctx, c.year)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Event, e.RecordID, e.Description, e.Category, e.Amount)
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
