// Command expenseledger is a thin host around the expense ledger data
// layer: it wires the registry, record store, normalizer and backup
// scheduler together for use from the shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/thespacelab/expenseledger/internal/backup"
	"github.com/thespacelab/expenseledger/internal/models"
	"github.com/thespacelab/expenseledger/internal/registry"
	"github.com/thespacelab/expenseledger/internal/storage/sqlite"
	"github.com/thespacelab/expenseledger/internal/store"
	"github.com/thespacelab/expenseledger/internal/tabular"
	"github.com/thespacelab/expenseledger/pkg/logging"
)

const usage = `usage: expenseledger <command> [flags]

commands:
  dbs               list registered databases
  create-db         register a new database file
  switch            switch the active database
  import            import a CSV or XLSX file into the active database
  export            export the (filtered) active database to CSV or XLSX
  list              print records of the active database
  summary           print totals by category and merchant
  set-backup        update the backup policy
  check-due         report whether a scheduled backup is due
  backup            run a backup (scheduled due-check or manual for all)
  backups           list recent backup artifacts
`

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

type app struct {
	reg       *registry.Registry
	store     *store.Store
	scheduler *backup.Scheduler
}

func main() {
	_ = godotenv.Load()
	logging.Setup()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	dataDir := getEnv("LEDGER_DATA_DIR", "./data")
	backupDir := getEnv("LEDGER_BACKUP_DIR", filepath.Join(dataDir, "backups"))
	ctx := context.Background()

	reg, err := registry.Open(dataDir)
	if err != nil {
		slog.Error("failed to open registry", "error", err)
		os.Exit(1)
	}
	st, err := store.Open(ctx, reg, sqlite.Open, dataDir)
	if err != nil {
		slog.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	a := &app{
		reg:       reg,
		store:     st,
		scheduler: backup.New(reg, st, sqlite.Open, dataDir, backupDir),
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "dbs":
		active := a.store.ActiveFileID()
		for _, d := range a.reg.List() {
			marker := " "
			if d.FileID == active {
				marker = "*"
			}
			fmt.Printf("%s %-24s %s\n", marker, d.FileID, d.DisplayName)
		}
		return nil

	case "create-db":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		name := fs.String("name", "", "display name for the new database")
		fs.Parse(args)
		if *name == "" {
			return fmt.Errorf("create-db requires -name")
		}
		desc, err := a.reg.Create(*name)
		if err != nil {
			return err
		}
		fmt.Println(desc.FileID)
		return nil

	case "switch":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		fileID := fs.String("db", "", "FileID of the database to activate")
		fs.Parse(args)
		return a.store.SwitchActive(ctx, *fileID)

	case "import":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		path := fs.String("file", "", "CSV or XLSX file to import")
		dedupe := fs.Bool("dedupe", true, "skip records already present")
		fs.Parse(args)
		return a.importFile(ctx, *path, *dedupe)

	case "export":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		path := fs.String("file", "", "destination CSV or XLSX file")
		filter := filterFlags(fs)
		fs.Parse(args)
		return a.exportFile(*path, filter().Predicate())

	case "list":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		filter := filterFlags(fs)
		fs.Parse(args)
		for _, r := range a.store.List(filter().Predicate()) {
			fmt.Printf("%s  %-30s %-15s %10s %10s\n",
				r.Date, r.Description, r.Category, r.Income, r.Expense)
		}
		return nil

	case "summary":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		filter := filterFlags(fs)
		fs.Parse(args)
		printSummary(a.store.Summarize(filter().Predicate()))
		return nil

	case "set-backup":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		enabled := fs.Bool("enabled", true, "enable scheduled backups")
		freq := fs.String("frequency", string(models.FrequencyDaily), "daily, weekly or monthly")
		at := fs.String("time", "09:00", "time of day, HH:mm")
		fs.Parse(args)
		frequency := models.BackupFrequency(*freq)
		if !frequency.Valid() {
			return fmt.Errorf("invalid frequency %q", *freq)
		}
		return a.store.SetSettings(ctx, models.SettingsPatch{
			BackupEnabled:   enabled,
			BackupFrequency: &frequency,
			BackupTime:      at,
		})

	case "check-due":
		fmt.Println(a.scheduler.CheckDue())
		return nil

	case "backup":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		scheduled := fs.Bool("scheduled", false, "only run if the cadence says a backup is due")
		fs.Parse(args)
		var (
			res backup.Result
			err error
		)
		if *scheduled {
			res, err = a.scheduler.RunScheduled(ctx)
		} else {
			res, err = a.scheduler.RunManualBackupNow(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Printf("created %d, failed %d\n", res.Created, res.Failed)
		return nil

	case "backups":
		artifacts, err := a.scheduler.ListRecent(3)
		if err != nil {
			return err
		}
		for _, art := range artifacts {
			fmt.Printf("%s  %s\n", art.CreatedAt.Format("2006-01-02 15:04"), art.Name)
		}
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) importFile(ctx context.Context, path string, dedupe bool) error {
	if path == "" {
		return fmt.Errorf("import requires -file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var records []models.ExpenseRecord
	if isSpreadsheet(path) {
		records, err = tabular.ParseSpreadsheet(data)
		if err != nil {
			return err
		}
	} else {
		records = tabular.ParseDelimited(string(data))
	}

	imported, err := a.store.ImportMerge(ctx, records, dedupe)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d of %d records\n", imported, len(records))
	return nil
}

func (a *app) exportFile(path string, filter store.Filter) error {
	if path == "" {
		return fmt.Errorf("export requires -file")
	}
	records := a.store.List(filter)

	var data []byte
	if isSpreadsheet(path) {
		var err error
		data, err = tabular.SerializeSpreadsheet(records)
		if err != nil {
			return err
		}
	} else {
		data = []byte(tabular.SerializeDelimited(records))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("exported %d records to %s\n", len(records), path)
	return nil
}

// filterFlags registers the cumulative filter flags and returns a getter to
// call after parsing.
func filterFlags(fs *flag.FlagSet) func() store.FieldFilter {
	category := fs.String("category", "", "filter by exact category")
	merchant := fs.String("merchant", "", "filter by exact merchant")
	paid := fs.String("paid-through", "", "filter by exact paid-through value")
	search := fs.String("search", "", "filter by description substring")
	return func() store.FieldFilter {
		return store.FieldFilter{
			Category:            *category,
			Merchant:            *merchant,
			PaidThrough:         *paid,
			DescriptionContains: *search,
		}
	}
}

func printSummary(s store.Summary) {
	fmt.Printf("records: %d  income: %s  expense: %s  net: %s\n",
		s.Total.Count, s.Total.Income, s.Total.Expense, s.Total.Net())
	fmt.Println("by category:")
	for name, b := range s.ByCategory {
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("  %-20s %4d  %10s %10s %10s\n", name, b.Count, b.Income, b.Expense, b.Net())
	}
	fmt.Println("by merchant:")
	for name, b := range s.ByMerchant {
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("  %-20s %4d  %10s %10s %10s\n", name, b.Count, b.Income, b.Expense, b.Net())
	}
}

func isSpreadsheet(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}
