package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/contafacil/statement-engine/internal/models"
)

// CSVWriter renders reconciled records as CSV for quick inspection.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the results to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, results []models.MatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, results)
}

// Write writes the results in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, results []models.MatchResult) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeHeader {
		header := []string{"Date", "Supplier", "Statement Description", "Category", "Amount", "Match Score"}
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, r := range results {
		row := []string{
			r.Record.Date,
			r.FinalSupplier(),
			r.Record.Description,
			r.Record.Category,
			r.Record.Amount.StringFixed(2),
			strconv.Itoa(r.Score),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}
