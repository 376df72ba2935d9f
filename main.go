package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/contafacil/statement-engine/internal/api"
	"github.com/contafacil/statement-engine/internal/config"
	"github.com/contafacil/statement-engine/internal/extractor"
	"github.com/contafacil/statement-engine/internal/logger"
	"github.com/contafacil/statement-engine/internal/models"
	"github.com/contafacil/statement-engine/internal/omie"
	"github.com/contafacil/statement-engine/internal/parser"
	"github.com/contafacil/statement-engine/internal/reconcile"
	"github.com/contafacil/statement-engine/internal/writer"
)

const version = "2.0.0"

func main() {
	bankFlag := flag.String("bank", "", "Bank: sicoob, itau, bb, caixa, santander (required)")
	formatFlag := flag.String("format", "", "Statement format override: ofx, pdf or xlsx (defaults to the bank's standard format)")
	clientFlag := flag.String("client", "", "Omie client name; enables supplier reconciliation")
	accountFlag := flag.String("account", "", "Account label written to the spreadsheet")
	dueDateFlag := flag.String("due-date", "", "Due date (DD/MM/YYYY) written to the spreadsheet")
	outputFlag := flag.String("output", "", "Output CSV path (defaults to input filename with .csv extension)")
	xlsxFlag := flag.Bool("xlsx", false, "Append to a copy of the accounts-payable template instead of CSV")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Credit-Card Statement Engine

Converts bank credit-card statements (Sicoob OFX; Itaú, Banco do
Brasil, Caixa and Santander PDF) into a uniform transaction list,
optionally reconciled against the Omie supplier directory.

Usage:
  statement-engine [flags] <statement.ofx|statement.pdf> [more files...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert an Itaú invoice to CSV
  statement-engine --bank=itau fatura.pdf

  # Reconcile against Omie and fill the accounts-payable spreadsheet
  statement-engine --bank=sicoob --client="Aurora Hotel" \
      --account="Cartão Sicoob" --due-date=10/09/2026 --xlsx extrato.ofx

  # Run the HTTP API
  statement-engine --serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-engine v%s\n", version)
		os.Exit(0)
	}

	cfg := config.Load()

	if *serveFlag {
		runServer(cfg)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	if *bankFlag == "" {
		fatalf("--bank is required\n")
	}

	bank, err := parser.BankFromString(strings.ToLower(*bankFlag))
	if err != nil {
		fatalf("%v\n", err)
	}

	for _, inputPath := range flag.Args() {
		err := processFile(cfg, inputPath, bank, *formatFlag, *clientFlag, *accountFlag, *dueDateFlag, *outputFlag, *xlsxFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func runServer(cfg *config.Config) {
	app := fiber.New(fiber.Config{BodyLimit: 32 << 20})
	app.Get("/api/health", api.HandleHealth)
	app.Post("/api/convert", api.HandleConvert)

	log := logger.New()
	log.Info().Str("addr", cfg.ListenAddr).Msg("statement engine listening")
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func processFile(cfg *config.Config, inputPath string, bank models.Bank, formatOverride, client, account, dueDate, outputPath string, toXLSX bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	log := logger.New()
	fmt.Printf("Processing: %s\n", inputPath)

	format, err := parser.FormatFor(bank)
	if err != nil {
		return err
	}
	if formatOverride != "" {
		format, err = parser.FormatFromString(strings.ToLower(formatOverride))
		if err != nil {
			return err
		}
	}

	var text string
	switch format {
	case models.FormatOFX:
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("reading statement: %w", err)
		}
		text = parser.DecodeStatement(data)
	case models.FormatPageText:
		pages, err := extractor.ExtractPages(inputPath, log)
		if err != nil {
			return fmt.Errorf("text extraction failed: %w", err)
		}
		fmt.Printf("  Extracted text from %d page(s)\n", len(pages))
		text = strings.Join(pages, "\n")
	case models.FormatSpreadsheet:
		// No text layer; the adapter binding decides what to do.
	}

	report, err := parser.ParseAs(bank, format, text)
	if errors.Is(err, parser.ErrNoTransactions) {
		fmt.Println("  No transactions found in the statement.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	if report.Notice != "" {
		fmt.Printf("  Notice: %s\n", report.Notice)
		return nil
	}

	fmt.Printf("  Found %d transaction(s), %d line(s) skipped\n", len(report.Records), len(report.Skipped))

	results := make([]models.MatchResult, 0, len(report.Records))
	if client != "" {
		matched, err := reconcileRecords(cfg, client, report.Records)
		if err != nil {
			return err
		}
		results = matched
		accepted := 0
		for _, r := range results {
			if r.Supplier != "" {
				accepted++
			}
		}
		fmt.Printf("  Reconciled %d of %d against the Omie directory\n", accepted, len(results))
	} else {
		for _, r := range report.Records {
			results = append(results, models.MatchResult{Record: r})
		}
	}

	if toXLSX {
		w := &writer.XLSXWriter{TemplatePath: cfg.TemplatePath, OutputDir: cfg.OutputDir}
		outPath, err := w.WriteResults(results, account, dueDate)
		if err != nil {
			return fmt.Errorf("spreadsheet write failed: %w", err)
		}
		fmt.Printf("  Output: %s\n", outPath)
		return nil
	}

	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outPath = base + ".csv"
	}
	w := &writer.CSVWriter{IncludeHeader: true}
	if err := w.WriteToFile(outPath, results); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)
	return nil
}

func reconcileRecords(cfg *config.Config, client string, records []models.TransactionRecord) ([]models.MatchResult, error) {
	creds, err := cfg.LoadCredentials(client)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	suppliers, err := omie.NewClient(creds.AppKey, creds.AppSecret).ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching Omie suppliers: %w", err)
	}
	if len(suppliers) == 0 {
		fmt.Println("  No suppliers registered in Omie for this client; skipping reconciliation.")
		results := make([]models.MatchResult, 0, len(records))
		for _, r := range records {
			results = append(results, models.MatchResult{Record: r})
		}
		return results, nil
	}

	return reconcile.MatchAll(records, suppliers), nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
