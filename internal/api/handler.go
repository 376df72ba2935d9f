package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

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

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Notice  string               `json:"notice,omitempty"`
	Bank    string               `json:"bank,omitempty"`
	Results []models.MatchResult `json:"results"`
	Skipped []models.SkippedLine `json:"skipped,omitempty"`
	CSV     string               `json:"csv,omitempty"`
	Total   string               `json:"total"`
	Count   int                  `json:"count"`
	Version string               `json:"version,omitempty"`
}

// HandleHealth reports service liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
		"engine":  "fiber",
	})
}

// HandleConvert accepts a statement upload and returns the parsed,
// optionally reconciled, transaction list.
//
// Form fields:
//
//	file    - the statement (.ofx, .pdf or .xlsx), required
//	bank    - sicoob, itau, bb, caixa or santander, required
//	format  - ofx, pdf or xlsx; overrides the bank's standard format
//	client  - Omie client name; when present, reconciliation runs
func HandleConvert(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	bank, err := parser.BankFromString(strings.ToLower(c.FormValue("bank")))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	format, _ := parser.FormatFor(bank)
	if fv := c.FormValue("format"); fv != "" {
		format, err = parser.FormatFromString(strings.ToLower(fv))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	suffix := formatSuffix(format)
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), suffix) {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("%s statements must be %s files", bank, suffix))
	}
	tmpFile, err := os.CreateTemp("", "statement-*"+suffix)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to create temp file.")
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	if err := c.SaveFile(fileHeader, tmpFile.Name()); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}

	text, err := loadStatementText(tmpFile.Name(), format)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Text extraction failed: %v", err))
	}

	report, err := parser.ParseAs(bank, format, text)
	if err != nil && !errors.Is(err, parser.ErrNoTransactions) {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Parsing failed: %v", err))
	}

	results := make([]models.MatchResult, 0, len(report.Records))
	if client := c.FormValue("client"); client != "" && len(report.Records) > 0 {
		cfg := config.Load()
		creds, err := cfg.LoadCredentials(client)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Minute)
		defer cancel()
		suppliers, err := omie.NewClient(creds.AppKey, creds.AppSecret).ListSuppliers(ctx)
		if err != nil {
			return writeError(c, fiber.StatusBadGateway, fmt.Sprintf("Omie directory unavailable: %v", err))
		}
		results = reconcile.MatchAll(report.Records, suppliers)
	} else {
		for _, r := range report.Records {
			results = append(results, models.MatchResult{Record: r})
		}
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: true}
	if err := csvWriter.Write(&csvBuf, results); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.Record.Amount)
	}

	return c.JSON(ConvertResponse{
		Success: true,
		Notice:  report.Notice,
		Bank:    string(bank),
		Results: results,
		Skipped: report.Skipped,
		CSV:     csvBuf.String(),
		Total:   total.StringFixed(2),
		Count:   len(results),
		Version: version,
	})
}

// loadStatementText produces the text the adapters scan: decoded
// bytes for OFX, extracted page text (with OCR fallback) for PDFs,
// nothing for spreadsheets (the adapter binding decides what to do).
func loadStatementText(path string, format models.FileFormat) (string, error) {
	switch format {
	case models.FormatOFX:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return parser.DecodeStatement(data), nil
	case models.FormatSpreadsheet:
		return "", nil
	}
	pages, err := extractor.ExtractPages(path, logger.New())
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

func formatSuffix(format models.FileFormat) string {
	switch format {
	case models.FormatOFX:
		return ".ofx"
	case models.FormatSpreadsheet:
		return ".xlsx"
	default:
		return ".pdf"
	}
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
		Results: []models.MatchResult{},
	})
}
