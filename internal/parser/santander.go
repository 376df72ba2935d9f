package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/contafacil/statement-engine/internal/models"
)

// SantanderAdapter handles Santander credit-card invoices, including
// the scanned ones that arrive through the OCR fallback, which is why
// its patterns are more permissive about currency markers and
// stray spacing than the other adapters.
//
// Rows look like:
//
//	04/01 UBER *TRIP 01/02 EMCT06D06    R$ 23,90
type SantanderAdapter struct{}

func (a *SantanderAdapter) BankName() string {
	return "Santander"
}

// Date (with or without year), description, optional R$ marker, value.
var santanderRowPattern = regexp.MustCompile(
	`(\d{2}/\d{2}(?:/\d{2,4})?)\s+(.+?)\s+(?:R\$)?\s*([\d.,]+,\d{2})`)

// A negative value anywhere marks a credit row.
var santanderNegativePattern = regexp.MustCompile(`-\s*[\d.,]+,\d{2}`)

// Santander prints the invoice year only in the due-date header.
var santanderDueDatePattern = regexp.MustCompile(`(?i)Vencimento\s+\d{2}/\d{2}/(20\d{2})`)

var santanderNoiseKeywords = []string{
	"TOTAL", "SALDO", "PAGAMENTO", "FATURA", "ANTERIOR", "CRÉDITO",
	"DÉBITO AUTOM", "ENCARGOS", "ANUIDADE DIFERENCIADA", "RESUMO",
	"LIMITE", "DISPONÍVEL",
}

var (
	santanderInstallmentPattern = regexp.MustCompile(`\s+\d{2}/\d{2}\s*$`)
	// Trailing transaction codes such as "EMCT06D06": leading letters,
	// then a digit, then more of either. Requiring the digit keeps
	// all-caps merchant names out of the match.
	santanderCodePattern = regexp.MustCompile(`\s+[A-Z]+\d[A-Z0-9]{4,}$`)
)

// statementYear prefers the due-date header over the generic
// first-full-date inference.
func (a *SantanderAdapter) statementYear(text string, ctx Context) int {
	if m := santanderDueDatePattern.FindStringSubmatch(text); m != nil {
		return atoiOr(m[1], ctx.Year)
	}
	return ctx.Year
}

func (a *SantanderAdapter) Parse(text string, ctx Context) (*models.ParseReport, error) {
	report := &models.ParseReport{Bank: models.BankSantander}
	year := a.statementYear(text, ctx)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if containsAny(strings.ToUpper(line), santanderNoiseKeywords) {
			report.Skipped = append(report.Skipped, skipped(i, line, "summary keyword"))
			continue
		}
		if santanderNegativePattern.MatchString(line) {
			report.Skipped = append(report.Skipped, skipped(i, line, "negative value (credit)"))
			continue
		}

		m := santanderRowPattern.FindStringSubmatch(line)
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

		desc := cleanSantanderDescription(m[2])
		if desc == "" {
			// OCR sometimes leaves only the currency marker behind.
			report.Skipped = append(report.Skipped, skipped(i, line, "empty description after cleaning"))
			continue
		}

		report.Records = append(report.Records, models.TransactionRecord{
			Description: normalizeDescription(desc),
			Category:    models.DefaultCategory,
			Amount:      value,
			Date:        expandSantanderDate(m[1], year),
		})
	}

	return report, nil
}

// expandSantanderDate completes a row date that may or may not carry
// its own year, widening two-digit years to 20YY.
func expandSantanderDate(dateStr string, year int) string {
	parts := strings.Split(dateStr, "/")
	switch len(parts) {
	case 2:
		return expandShortDate(dateStr, year)
	case 3:
		if len(parts[2]) == 2 {
			return parts[0] + "/" + parts[1] + "/20" + parts[2]
		}
		return dateStr
	default:
		return fallbackDate
	}
}

// cleanSantanderDescription strips the trailing transaction code and
// installment tag, turns asterisks into spaces, then title-cases the
// remaining words. The code comes off first: in a row like
// "UBER *TRIP 01/02 EMCT06D06" the installment tag only reaches the
// end of the string once the code is gone. A result that is empty or
// only the currency marker is discarded by the caller.
func cleanSantanderDescription(desc string) string {
	cleaned := santanderCodePattern.ReplaceAllString(strings.TrimSpace(desc), "")
	cleaned = santanderInstallmentPattern.ReplaceAllString(strings.TrimSpace(cleaned), "")
	cleaned = strings.ReplaceAll(cleaned, "*", " ")
	cleaned = collapseSpaces(cleaned)
	if strings.EqualFold(cleaned, "R$") {
		return ""
	}
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// capitalize lowercases a word and uppercases its first rune.
func capitalize(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return fallback
	}
	return n
}
