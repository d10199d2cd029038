package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/database"
	"trade-journal-go/internal/importer"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/stats"
	"trade-journal-go/internal/store"

	"go.uber.org/zap"
)

const usage = `usage: journal <command> [flags]

commands:
  import-csv     import a generic CSV file
  import-broker  import a broker statement CSV (auto-detected or -broker)
  import-share   import trades from a shared journal page
  import-email   import account/payout receipts from the mail search API
  stats          print aggregate statistics
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize database and gateway
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	st := store.New(db, log, cfg.Import.ChunkSize)
	imp := importer.New(st, log)

	switch os.Args[1] {
	case "import-csv":
		runImportCSV(os.Args[2:], imp, log)
	case "import-broker":
		runImportBroker(os.Args[2:], imp, log)
	case "import-share":
		runImportShare(os.Args[2:], &cfg, imp, log)
	case "import-email":
		runImportEmail(os.Args[2:], &cfg, imp, log)
	case "stats":
		runStats(os.Args[2:], st, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func commonFlags(fs *flag.FlagSet) (user, account *string) {
	user = fs.String("user", "local", "user id the records belong to")
	account = fs.String("account", "", "target account id")
	return
}

func runImportCSV(args []string, imp *importer.Importer, log *zap.Logger) {
	fs := flag.NewFlagSet("import-csv", flag.ExitOnError)
	user, account := commonFlags(fs)
	file := fs.String("file", "", "path to the CSV file")
	fs.Parse(args)

	f := mustOpen(*file, log)
	defer f.Close()

	ictx := importer.Context{UserID: *user, AccountID: *account}
	normalized, err := importer.NormalizeGenericCSV(f, ictx)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}
	commit(imp, ictx, normalized, log)
}

func runImportBroker(args []string, imp *importer.Importer, log *zap.Logger) {
	fs := flag.NewFlagSet("import-broker", flag.ExitOnError)
	user, account := commonFlags(fs)
	file := fs.String("file", "", "path to the statement CSV")
	broker := fs.String("broker", "", "broker id (omit to auto-detect)")
	fs.Parse(args)

	f := mustOpen(*file, log)
	defer f.Close()

	ictx := importer.Context{UserID: *user, AccountID: *account}
	normalized, err := importer.NewRegistry().NormalizeBrokerCSV(f, *broker, ictx)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}
	commit(imp, ictx, normalized, log)
}

func runImportShare(args []string, cfg *config.Config, imp *importer.Importer, log *zap.Logger) {
	fs := flag.NewFlagSet("import-share", flag.ExitOnError)
	user, account := commonFlags(fs)
	shareID := fs.String("id", "", "share page id")
	fs.Parse(args)

	client := importer.NewShareClient(cfg.Import.ShareBaseURL, cfg.Import.RateLimit, cfg.Import.RateLimitBurst, log)
	scraper := importer.NewShareScraper(client, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ictx := importer.Context{UserID: *user, AccountID: *account}
	normalized, err := scraper.Normalize(ctx, *shareID, ictx)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}
	commit(imp, ictx, normalized, log)
}

func runImportEmail(args []string, cfg *config.Config, imp *importer.Importer, log *zap.Logger) {
	fs := flag.NewFlagSet("import-email", flag.ExitOnError)
	user, _ := commonFlags(fs)
	query := fs.String("query", "from:noreply subject:payout", "mail search query")
	fs.Parse(args)

	client := importer.NewMailClient(cfg.Import.MailBaseURL, cfg.Import.MailToken, log)
	scraper := importer.NewEmailScraper(client, cfg.Import.MaxMailPages, log)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	ictx := importer.Context{UserID: *user}
	normalized, err := scraper.Normalize(ctx, *query, ictx)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}
	commit(imp, ictx, normalized, log)
}

func runStats(args []string, st *store.Store, log *zap.Logger) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	user, account := commonFlags(fs)
	fs.Parse(args)

	trades, err := st.TradesByAccount(*user, *account)
	if err != nil {
		log.Fatal("Failed to load trades", zap.Error(err))
	}
	summary := stats.Aggregate(trades)

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

func commit(imp *importer.Importer, ictx importer.Context, normalized importer.Result, log *zap.Logger) {
	result, err := imp.Commit(ictx, normalized)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}
	fmt.Printf("created %d, skipped %d, errors %d\n", result.Created, result.Skipped, len(result.Errors))
	for _, e := range result.Errors {
		fmt.Printf("  %s\n", e.Error())
	}
}

func mustOpen(path string, log *zap.Logger) *os.File {
	if path == "" {
		log.Fatal("Missing -file flag")
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open file", zap.String("path", path), zap.Error(err))
	}
	return f
}
