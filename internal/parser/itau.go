package parser

import (
	"regexp"
	"strings"

	"github.com/contafacil/statement-engine/internal/models"
)

// ItauAdapter handles Itaú credit-card invoices.
//
// Transaction rows look like:
//
//	02/01 PAG*JoseDaSilva 12/12        149,90
//	15/01 MERCADOLIVRE*LOJA un01/03     89,00
//
// Day/month only; the year comes from the inferred statement year.
type ItauAdapter struct{}

func (a *ItauAdapter) BankName() string {
	return "Itaú"
}

// Date, description, value. "R" before the value is an artifact of
// the R$ currency marker losing its "$" during text extraction.
var itauRowPattern = regexp.MustCompile(`(\d{2}/\d{2})\s+([^\n]+?)\s+R?\$?\s*(-?[\d.]+,\d{2})`)

// Summary vocabulary of the Itaú layout; rows containing these are
// totals, balances or fees, never purchases.
var itauNoiseKeywords = []string{
	"Total", "Saldo", "Pagamento", "Encargos", "Tarifas", "Custo Efetivo",
}

var (
	// Trailing installment tag: "LOJA X 02/10".
	itauInstallmentPattern = regexp.MustCompile(`\s*\d{2}/\d{2}$`)
	// Variant with a glued unit marker: "LOJA X un02/10".
	itauInstallmentUnPattern = regexp.MustCompile(`\s*un\d{2}/\d{2}$`)
)

func (a *ItauAdapter) Parse(text string, ctx Context) (*models.ParseReport, error) {
	report := &models.ParseReport{Bank: models.BankItau}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if containsAny(line, itauNoiseKeywords) {
			report.Skipped = append(report.Skipped, skipped(i, line, "summary keyword"))
			continue
		}

		m := itauRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.Contains(m[3], "-") {
			report.Skipped = append(report.Skipped, skipped(i, line, "negative value (credit)"))
			continue
		}

		value, err := parseBRLValue(m[3])
		if err != nil {
			report.Skipped = append(report.Skipped, skipped(i, line, "unparsable value "+m[3]))
			continue
		}
		if value.Sign() <= 0 {
			report.Skipped = append(report.Skipped, skipped(i, line, "non-positive value"))
			continue
		}

		report.Records = append(report.Records, models.TransactionRecord{
			Description: normalizeDescription(cleanItauDescription(m[2])),
			Category:    models.DefaultCategory,
			Amount:      value,
			Date:        expandShortDate(m[1], ctx.Year),
		})
	}

	return report, nil
}

// cleanItauDescription strips the trailing installment tag in both
// its plain and "un"-prefixed spellings. The "un" variant goes first,
// otherwise the plain pattern eats its digits and leaves the marker.
func cleanItauDescription(desc string) string {
	cleaned := itauInstallmentUnPattern.ReplaceAllString(strings.TrimSpace(desc), "")
	cleaned = itauInstallmentPattern.ReplaceAllString(cleaned, "")
	return collapseSpaces(cleaned)
}

func skipped(lineNum int, text, reason string) models.SkippedLine {
	if runes := []rune(text); len(runes) > 120 {
		text = string(runes[:120]) + "..."
	}
	return models.SkippedLine{LineNum: lineNum + 1, Text: text, Reason: reason}
}
