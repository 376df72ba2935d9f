package models

import "github.com/shopspring/decimal"

// DefaultCategory is the fixed expense category assigned to every
// extracted purchase.
const DefaultCategory = "Cartão de Credito"

// TransactionRecord is one purchase extracted from a statement.
// Amount is always strictly positive: credits, refunds and payments
// are filtered out before a record is created.
type TransactionRecord struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"` // DD/MM/YYYY
}

// Bank identifies a supported institution.
type Bank string

const (
	BankSicoob    Bank = "sicoob"
	BankItau      Bank = "itau"
	BankBB        Bank = "bb"
	BankCaixa     Bank = "caixa"
	BankSantander Bank = "santander"
)

// FileFormat is the interchange format a bank's statement arrives in.
type FileFormat string

const (
	FormatOFX         FileFormat = "ofx"
	FormatPageText    FileFormat = "pagetext"
	FormatSpreadsheet FileFormat = "spreadsheet"
)

// SkippedLine records why a line of input produced no transaction.
// Per-line failures never abort a document; they are collected here
// so callers and tests can inspect skip reasons.
type SkippedLine struct {
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Reason  string `json:"reason"`
}

// ParseReport is the output of one adapter invocation: the accepted
// records in source order plus diagnostics for everything dropped.
type ParseReport struct {
	Bank    Bank                `json:"bank"`
	Records []TransactionRecord `json:"records"`
	Skipped []SkippedLine       `json:"skipped,omitempty"`
	// Notice carries a user-facing message for soft failures such as
	// an institution whose adapter is not implemented yet.
	Notice string `json:"notice,omitempty"`
}

// Supplier is one entry of the external supplier directory. Records
// are matched against DisplayName; nothing here is ever mutated.
type Supplier struct {
	TradeName string `json:"nome_fantasia"`
	LegalName string `json:"razao_social"`
}

// DisplayName returns the preferred label: trade name when present,
// legal name otherwise.
func (s Supplier) DisplayName() string {
	if s.TradeName != "" {
		return s.TradeName
	}
	return s.LegalName
}

// Category is one entry of the external category directory.
type Category struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
}

// MatchResult pairs a record with its best directory candidate.
// Supplier is empty when no candidate beat the acceptance threshold;
// such records are surfaced for manual resolution, never dropped.
type MatchResult struct {
	Record   TransactionRecord `json:"record"`
	Supplier string            `json:"supplier,omitempty"`
	Score    int               `json:"score"`
}

// FinalSupplier is the name handed to downstream writers: the matched
// directory name when reconciliation accepted one, the normalized
// statement description otherwise.
func (m MatchResult) FinalSupplier() string {
	if m.Supplier != "" {
		return m.Supplier
	}
	return m.Record.Description
}
