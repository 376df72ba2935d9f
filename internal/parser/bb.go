package parser

import (
	"regexp"
	"strings"

	"github.com/contafacil/statement-engine/internal/models"
)

// BBAdapter handles Banco do Brasil (Ourocard) invoices.
//
// Transaction rows look like:
//
//	10/01 SUPERMERCADO TAUSTE SAO PAULO      245,90
//	12/01 POSTO SHELL PARC 02/06             180,00
type BBAdapter struct{}

func (a *BBAdapter) BankName() string {
	return "Banco do Brasil"
}

var bbRowPattern = regexp.MustCompile(`(\d{2}/\d{2})\s+(.*?)\s+([\d.]+,\d{2})`)

// Section titles and totals of the BB layout, printed in caps.
var bbNoiseKeywords = []string{
	"LANÇAMENTOS", "TOTAL", "FATURA", "SALDO", "RESUMO", "ANTERIOR", "PARCIAL",
}

// Markers of credit and reversal rows; BB prints credits with a
// leading dash or an explicit label rather than a sign on the value.
var bbCreditMarkers = []string{"CRÉDITO", "ESTORNO"}

var bbInstallmentPattern = regexp.MustCompile(`(?i)\s*PARC\s+\d{2}/\d{2}`)

func (a *BBAdapter) Parse(text string, ctx Context) (*models.ParseReport, error) {
	report := &models.ParseReport{Bank: models.BankBB}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if containsAny(line, bbNoiseKeywords) {
			report.Skipped = append(report.Skipped, skipped(i, line, "summary keyword"))
			continue
		}
		if strings.Contains(line, " - ") || strings.Contains(line, "-R$") ||
			containsAny(strings.ToUpper(line), bbCreditMarkers) {
			report.Skipped = append(report.Skipped, skipped(i, line, "credit or reversal row"))
			continue
		}

		m := bbRowPattern.FindStringSubmatch(line)
		if m == nil {
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
			Description: normalizeDescription(cleanBBDescription(m[2])),
			Category:    models.DefaultCategory,
			Amount:      value,
			Date:        expandShortDate(m[1], ctx.Year),
		})
	}

	return report, nil
}

// cleanBBDescription strips the PARC NN/NN installment token wherever
// it appears and a known city only when it is a trailing suffix.
func cleanBBDescription(desc string) string {
	cleaned := bbInstallmentPattern.ReplaceAllString(strings.TrimSpace(desc), "")
	cleaned = stripTrailingCity(cleaned)
	return collapseSpaces(cleaned)
}
