package parser

import (
	"errors"
	"fmt"

	"github.com/contafacil/statement-engine/internal/models"
)

// ErrNoTransactions distinguishes "nothing found" from a parse
// failure. Callers treat it as a user-facing outcome, not an error.
var ErrNoTransactions = errors.New("no transactions found in statement")

// Context carries per-document parsing state. The statement year is
// inferred once from the whole text and passed in explicitly so
// adapters stay pure line scanners.
type Context struct {
	Year int
}

// StatementAdapter extracts purchase records from one institution's
// statement text.
type StatementAdapter interface {
	// Parse scans the full extracted text and returns accepted records
	// plus skip diagnostics. Per-line problems never produce an error.
	Parse(text string, ctx Context) (*models.ParseReport, error)
	// BankName returns the human-readable institution name.
	BankName() string
}

// binding statically ties an institution to its interchange format
// and adapter. Adding an institution means adding one row here.
type binding struct {
	format  models.FileFormat
	adapter StatementAdapter
}

var registry = map[models.Bank]binding{
	models.BankSicoob:    {models.FormatOFX, &SicoobOFXAdapter{}},
	models.BankItau:      {models.FormatPageText, &ItauAdapter{}},
	models.BankBB:        {models.FormatPageText, &BBAdapter{}},
	models.BankCaixa:     {models.FormatPageText, &CaixaAdapter{}},
	models.BankSantander: {models.FormatPageText, &SantanderAdapter{}},
}

// New returns the adapter bound to the given bank.
func New(bank models.Bank) (StatementAdapter, error) {
	b, ok := registry[bank]
	if !ok {
		return nil, fmt.Errorf("unsupported bank: %q", bank)
	}
	return b.adapter, nil
}

// FormatFor returns the interchange format bound to the given bank.
func FormatFor(bank models.Bank) (models.FileFormat, error) {
	b, ok := registry[bank]
	if !ok {
		return "", fmt.Errorf("unsupported bank: %q", bank)
	}
	return b.format, nil
}

// FormatFromString maps user input to a statement format. The common
// file extensions are accepted as aliases.
func FormatFromString(s string) (models.FileFormat, error) {
	switch s {
	case "ofx":
		return models.FormatOFX, nil
	case "pdf", "pagetext":
		return models.FormatPageText, nil
	case "xlsx", "spreadsheet":
		return models.FormatSpreadsheet, nil
	default:
		return "", fmt.Errorf("unknown format %q: use ofx, pdf or xlsx", s)
	}
}

// BankFromString maps user input to a Bank identifier.
func BankFromString(s string) (models.Bank, error) {
	switch s {
	case "sicoob":
		return models.BankSicoob, nil
	case "itau", "itaú":
		return models.BankItau, nil
	case "bb", "bancodobrasil", "banco-do-brasil":
		return models.BankBB, nil
	case "caixa", "cef":
		return models.BankCaixa, nil
	case "santander":
		return models.BankSantander, nil
	default:
		return "", fmt.Errorf("unknown bank %q: use sicoob, itau, bb, caixa or santander", s)
	}
}

// stubs name the bank/format combinations that exist on paper but
// have no adapter yet. They fail soft with a user-facing notice.
var stubs = map[models.Bank]map[models.FileFormat]string{
	models.BankSicoob: {models.FormatPageText: "Sicoob page-text statements are not implemented yet"},
	models.BankCaixa:  {models.FormatSpreadsheet: "Caixa spreadsheet statements are not implemented yet"},
}

// Parse routes the statement text through the bank's adapter with a
// freshly built context. Unknown banks and unimplemented adapters
// produce an empty report with a notice, never a hard failure past
// this boundary.
func Parse(bank models.Bank, text string) (*models.ParseReport, error) {
	b, ok := registry[bank]
	if !ok {
		return emptyReport(bank, fmt.Sprintf("bank %q is not supported", bank)), nil
	}
	return parseWith(b.adapter, bank, text)
}

// ParseAs is Parse for an explicitly requested format, covering the
// institutions whose secondary format is a known stub.
func ParseAs(bank models.Bank, format models.FileFormat, text string) (*models.ParseReport, error) {
	b, ok := registry[bank]
	if ok && b.format == format {
		return parseWith(b.adapter, bank, text)
	}
	if notice, ok := stubs[bank][format]; ok {
		return emptyReport(bank, notice), nil
	}
	return emptyReport(bank, fmt.Sprintf("no adapter for bank %q in format %q", bank, format)), nil
}

func parseWith(a StatementAdapter, bank models.Bank, text string) (*models.ParseReport, error) {
	report, err := a.Parse(text, Context{Year: inferYear(text)})
	if err != nil {
		return nil, err
	}
	if len(report.Records) == 0 && report.Notice == "" {
		return report, ErrNoTransactions
	}
	return report, nil
}

func emptyReport(bank models.Bank, notice string) *models.ParseReport {
	return &models.ParseReport{
		Bank:    bank,
		Notice:  notice,
		Records: []models.TransactionRecord{},
	}
}
