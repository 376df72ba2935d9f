package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/contafacil/statement-engine/internal/models"
)

// startRow is the first data row of the accounts-payable template;
// rows above it are headers.
const startRow = 6

// Template column layout:
//
//	C - supplier, D - category, E - account, F - amount,
//	J - transaction date, K - due date
//
// XLSXWriter appends reconciled records to a copy of the fixed-layout
// accounts-payable template, starting at the first blank row. The
// template's own formatting is preserved by copying the file as-is
// and editing cell values only.
type XLSXWriter struct {
	TemplatePath string
	OutputDir    string
}

// WriteResults copies the template to a timestamped file and appends
// one row per record. Returns the path of the new file.
func (w *XLSXWriter) WriteResults(results []models.MatchResult, account, dueDate string) (string, error) {
	if _, err := os.Stat(w.TemplatePath); err != nil {
		return "", fmt.Errorf("template spreadsheet not found at %q: %w", w.TemplatePath, err)
	}

	outPath := filepath.Join(w.OutputDir,
		fmt.Sprintf("Omie_Contas_Pagar_Atualizada_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := copyFile(w.TemplatePath, outPath); err != nil {
		return "", fmt.Errorf("failed to copy template: %w", err)
	}

	if err := w.appendTo(outPath, results, account, dueDate); err != nil {
		os.Remove(outPath)
		return "", err
	}
	return outPath, nil
}

func (w *XLSXWriter) appendTo(path string, results []models.MatchResult, account, dueDate string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)

	row, err := firstBlankRow(f, sheet)
	if err != nil {
		return err
	}

	for _, r := range results {
		amount, _ := r.Record.Amount.Float64()
		cells := map[string]interface{}{
			"C": r.FinalSupplier(),
			"D": r.Record.Category,
			"E": account,
			"F": amount,
			"J": r.Record.Date,
			"K": dueDate,
		}
		for col, value := range cells {
			if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), value); err != nil {
				return fmt.Errorf("failed to write cell %s%d: %w", col, row, err)
			}
		}
		row++
	}

	return f.Save()
}

// firstBlankRow walks column C from the template's first data row
// down to the first empty cell.
func firstBlankRow(f *excelize.File, sheet string) (int, error) {
	row := startRow
	for {
		value, err := f.GetCellValue(sheet, fmt.Sprintf("C%d", row))
		if err != nil {
			return 0, fmt.Errorf("failed to read cell C%d: %w", row, err)
		}
		if value == "" {
			return row, nil
		}
		row++
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
