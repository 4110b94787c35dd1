package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"driveinvoice/internal"
	"driveinvoice/internal/analytics"
	"driveinvoice/internal/config"
	driveconnector "driveinvoice/internal/connectors/drive"
	"driveinvoice/internal/logging"
	"driveinvoice/internal/pipeline"
	"driveinvoice/internal/storage"
	"driveinvoice/internal/store"
	"driveinvoice/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logging.Setup(cfg.LogLevel)

	st, err := store.Open(cfg.DataDir)
	must(err)
	db, err := storage.Open(cfg.LedgerDBPath)
	must(err)
	defer db.Close()

	engine := analytics.NewEngine(st)

	cmd := os.Args[1]
	switch cmd {
	case "drive:scan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		folder := fs.String("folder", cfg.DriveFolderID, "drive folder id")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("GDRIVE_FOLDER_ID", *folder))
		conn, err := driveconnector.NewConnector(cfg)
		must(err)
		coordinator := pipeline.NewCoordinator(st, db, conn, cfg, logging.Component(log, "coordinator"))
		result, err := coordinator.ProcessFolder(context.Background(), *folder)
		must(err)
		fmt.Printf("scan done listed=%d stored=%d rejected=%d skipped=%d failed=%d\n",
			result.Listed, result.Stored, result.Rejected, result.Skipped, result.Failed)
	case "drive:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		folder := fs.String("folder", cfg.DriveFolderID, "drive folder id")
		fileID := fs.String("fileId", "", "drive file id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*fileID) == "" {
			must(fmt.Errorf("--fileId is required"))
		}
		conn, err := driveconnector.NewConnector(cfg)
		must(err)
		coordinator := pipeline.NewCoordinator(st, db, conn, cfg, logging.Component(log, "coordinator"))
		outcome, err := coordinator.ProcessFileByID(context.Background(), *folder, *fileID)
		must(err)
		fmt.Printf("processed fileId=%s outcome=%s\n", *fileID, outcome)
	case "drive:watch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		folder := fs.String("folder", cfg.DriveFolderID, "drive folder id")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("GDRIVE_FOLDER_ID", *folder))
		conn, err := driveconnector.NewConnector(cfg)
		must(err)
		coordinator := pipeline.NewCoordinator(st, db, conn, cfg, logging.Component(log, "coordinator"))
		svc := watcher.NewService(coordinator, cfg, logging.Component(log, "watcher"))
		must(svc.Run(context.Background(), *folder))
	case "invoices:list":
		printJSON(invoiceSummaries(st.ListAll()))
	case "invoices:get":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "invoice id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}
		rec, err := st.Get(*id)
		must(err)
		printJSON(rec)
	case "vendors:list":
		printJSON(st.Vendors())
	case "vendors:detail":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "vendor name")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		printJSON(invoiceSummaries(st.FindByVendor(*name)))
	case "analytics":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		kind := fs.String("kind", "summary", "summary|spend|licenses|terms|upcoming")
		withinDays := fs.Int("within", 30, "window in days for upcoming payments")
		_ = fs.Parse(os.Args[2:])
		now := time.Now().UTC()
		switch *kind {
		case "summary":
			printJSON(engine.Summary())
		case "spend":
			printJSON(engine.SpendByVendor())
		case "licenses":
			window := time.Duration(cfg.ExpiryWindowDays) * 24 * time.Hour
			printJSON(engine.LicenseUtilization(now, window))
		case "terms":
			printJSON(engine.PaymentTerms())
		case "upcoming":
			printJSON(engine.UpcomingPayments(now, *withinDays))
		default:
			must(fmt.Errorf("unknown analytics kind: %s", *kind))
		}
	case "search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		vendor := fs.String("vendor", "", "vendor substring")
		minAmount := fs.Float64("min", -1, "minimum total amount")
		maxAmount := fs.Float64("max", -1, "maximum total amount")
		from := fs.String("from", "", "invoice date from (YYYY-MM-DD)")
		to := fs.String("to", "", "invoice date to (YYYY-MM-DD)")
		confidence := fs.String("confidence", "", "high|medium|low")
		keyword := fs.String("keyword", "", "keyword in raw text")
		_ = fs.Parse(os.Args[2:])
		criteria, err := buildCriteria(*vendor, *minAmount, *maxAmount, *from, *to, *confidence, *keyword)
		must(err)
		printJSON(invoiceSummaries(engine.Search(criteria)))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		records := st.ListAll()
		must(pipeline.ExportRecordsToXLSX(records, *out))
		fmt.Printf("exported %d invoices to %s\n", len(records), *out)
	default:
		usage()
		os.Exit(1)
	}
}

type invoiceSummary struct {
	ID         string `json:"id"`
	Vendor     string `json:"vendor"`
	Date       string `json:"date"`
	Amount     any    `json:"amount"`
	Currency   string `json:"currency"`
	Confidence string `json:"confidence"`
}

func invoiceSummaries(records []internal.InvoiceRecord) []invoiceSummary {
	out := make([]invoiceSummary, 0, len(records))
	for _, rec := range records {
		s := invoiceSummary{
			ID:         rec.ID,
			Vendor:     rec.VendorName,
			Currency:   rec.Currency,
			Confidence: string(rec.Confidence),
		}
		if rec.InvoiceDate != nil {
			s.Date = rec.InvoiceDate.Format("2006-01-02")
		}
		if rec.TotalAmount != nil {
			s.Amount = *rec.TotalAmount
		}
		out = append(out, s)
	}
	return out
}

func buildCriteria(vendor string, minAmount, maxAmount float64, from, to, confidence, keyword string) (internal.SearchCriteria, error) {
	var criteria internal.SearchCriteria
	if strings.TrimSpace(vendor) != "" {
		criteria.Vendor = &vendor
	}
	if minAmount >= 0 {
		criteria.MinAmount = &minAmount
	}
	if maxAmount >= 0 {
		criteria.MaxAmount = &maxAmount
	}
	if strings.TrimSpace(from) != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return criteria, fmt.Errorf("bad --from: %w", err)
		}
		criteria.DateFrom = &parsed
	}
	if strings.TrimSpace(to) != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return criteria, fmt.Errorf("bad --to: %w", err)
		}
		criteria.DateTo = &parsed
	}
	if strings.TrimSpace(confidence) != "" {
		c := internal.Confidence(confidence)
		criteria.Confidence = &c
	}
	if strings.TrimSpace(keyword) != "" {
		criteria.Keyword = &keyword
	}
	return criteria, nil
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(blob))
}

func usage() {
	fmt.Println("usage: driveinvoice <command>")
	fmt.Println("commands:")
	fmt.Println("  drive:scan --folder=<id>")
	fmt.Println("  drive:process --fileId=<id> [--folder=<id>]")
	fmt.Println("  drive:watch --folder=<id>")
	fmt.Println("  invoices:list")
	fmt.Println("  invoices:get --id=<invoice id>")
	fmt.Println("  vendors:list")
	fmt.Println("  vendors:detail --name=<vendor>")
	fmt.Println("  analytics --kind=summary|spend|licenses|terms|upcoming [--within=30]")
	fmt.Println("  search [--vendor=...] [--min=...] [--max=...] [--from=...] [--to=...] [--confidence=...] [--keyword=...]")
	fmt.Println("  export:xlsx --out=./out/invoices.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
