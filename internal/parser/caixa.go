package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/contafacil/statement-engine/internal/models"
)

// CaixaAdapter handles Caixa Econômica Federal invoices. Unlike the
// other layouts, Caixa groups rows under named sections per card,
// each with its own row grammar, so scanning is driven by an explicit
// state machine instead of a single line pattern.
//
// A typical fragment:
//
//	COMPRAS (Cartão 5234)
//	Data  Descrição            Cidade/País  Valor      Crédito/Débito
//	05/01 PADARIA CENTRAL      SAO PAULO    45,60      D
//	Total COMPRAS
type CaixaAdapter struct{}

func (a *CaixaAdapter) BankName() string {
	return "Caixa"
}

// Recognized section names. ANUIDADE rows have no date column.
var caixaSections = []string{"ANUIDADE", "COMPRAS", "COMPRAS PARCELADAS"}

// Keywords that terminate the current section.
var caixaSectionClosers = []string{
	"OUTROS", "Demonstrativo", "Total final", "Valor total desta fatura",
	"Total COMPRAS", "Total COMPRAS PARCELADAS",
}

// Column headers consumed without leaving the section.
var caixaHeaderKeywords = []string{
	"Data", "Descrição", "Cidade/País", "Valor U$", "Crédito/Débito",
	"Total", "Valor Original", "Cotação",
}

var (
	// A header opening an unrelated card section: "NOME TITULAR (Cartão 1234)".
	caixaCardHeaderPattern = regexp.MustCompile(`^[A-ZÀ-Ú\s]+\s*\(Cartão\s+\d+\)`)

	// Primary row: date, description, trailing city of one or two
	// ALL-CAPS words, value, debit marker. Bounding the city at two
	// words keeps multi-word merchants out of the city capture.
	caixaRowPattern = regexp.MustCompile(
		`(\d{2}/\d{2})\s+(.+?)\s+([A-Z]{2,}(?:\s+[A-Z]{2,})?)\s+([\d.]+,\d{2})\s*D\s*$`)

	// Annual-fee row: no date column.
	caixaFeeRowPattern = regexp.MustCompile(`^([A-Z\s\d/]+?)\s+([\d.]+,\d{2})\s*D\s*$`)

	// Loose fallback: date, free text, value, debit marker.
	caixaLooseRowPattern = regexp.MustCompile(`(\d{2}/\d{2})\s+(.+)\s+([\d.]+,\d{2})\s*D`)
)

// Description post-cleaning for Caixa rows: date-like fragments,
// dash-number suffixes, six-digit authorization codes, asterisks.
var (
	caixaDDdeDDPattern   = regexp.MustCompile(`(?i)\s+\d{2}\s+DE\s+\d{2}`)
	caixaTrailDatePattern = regexp.MustCompile(`\s+\d{2}/\d{2}$`)
	caixaLooseDatePattern = regexp.MustCompile(`\s+\d{1,2}/\s*\d{1,2}`)
	caixaDashNumPattern   = regexp.MustCompile(`\s+-\s+\d+`)
	caixaSixDigitPattern  = regexp.MustCompile(`\s+\d{6}`)
)

// sectionState is the scanner state: idle outside any recognized
// section, or inside the named one. It is threaded explicitly through
// the line loop so transitions are testable in isolation.
type sectionState struct {
	section string // empty when idle
}

func (s sectionState) active() bool { return s.section != "" }

// stepSection advances the state machine by one line and returns the
// record emitted by that line, if any, with a skip reason otherwise.
func stepSection(state sectionState, line string, year int) (sectionState, *models.TransactionRecord, string) {
	// Section openers are checked before closers: a line like
	// "COMPRAS (Cartão 1234)" both names a section and mentions a
	// card, and must open, not close.
	for _, section := range caixaSections {
		if strings.Contains(line, section) && (strings.Contains(line, "Cartão") || line == section) {
			return sectionState{section: section}, nil, ""
		}
	}
	if !state.active() {
		return state, nil, ""
	}

	if containsAny(line, caixaSectionClosers) {
		return sectionState{}, nil, ""
	}
	if caixaCardHeaderPattern.MatchString(line) && !containsAny(line, caixaSections) {
		return sectionState{}, nil, ""
	}
	if containsAny(line, caixaHeaderKeywords) {
		return state, nil, ""
	}

	if m := caixaRowPattern.FindStringSubmatch(line); m != nil {
		rec, reason := buildCaixaRecord(m[1], m[2], m[4], year)
		return state, rec, reason
	}

	if state.section == "ANUIDADE" {
		if m := caixaFeeRowPattern.FindStringSubmatch(line); m != nil {
			value, err := parseBRLValue(m[2])
			if err != nil {
				return state, nil, "unparsable value " + m[2]
			}
			if value.Sign() <= 0 {
				return state, nil, "non-positive value"
			}
			return state, &models.TransactionRecord{
				Description: normalizeDescription(m[1]),
				Category:    models.DefaultCategory,
				Amount:      value,
				// Annual fees carry no date; the fixed August first is
				// inherited from the previous tool generation.
				Date: fmt.Sprintf("01/08/%d", year),
			}, ""
		}
		return state, nil, ""
	}

	if m := caixaLooseRowPattern.FindStringSubmatch(line); m != nil {
		rec, reason := buildCaixaRecord(m[1], dropTrailingCityTokens(m[2]), m[3], year)
		return state, rec, reason
	}

	return state, nil, ""
}

func buildCaixaRecord(date, desc, value string, year int) (*models.TransactionRecord, string) {
	v, err := parseBRLValue(value)
	if err != nil {
		return nil, "unparsable value " + value
	}
	if v.Sign() <= 0 {
		return nil, "non-positive value"
	}
	return &models.TransactionRecord{
		Description: normalizeDescription(cleanCaixaDescription(desc)),
		Category:    models.DefaultCategory,
		Amount:      v,
		Date:        expandShortDate(date, year),
	}, ""
}

// dropTrailingCityTokens treats the last two space-separated tokens
// of the loose pattern's free text as the city column and drops them.
func dropTrailingCityTokens(desc string) string {
	fields := strings.Fields(desc)
	if len(fields) < 3 {
		return desc
	}
	return strings.Join(fields[:len(fields)-2], " ")
}

func (a *CaixaAdapter) Parse(text string, ctx Context) (*models.ParseReport, error) {
	report := &models.ParseReport{Bank: models.BankCaixa}
	state := sectionState{}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		wasActive := state.active()

		var rec *models.TransactionRecord
		var reason string
		state, rec, reason = stepSection(state, line, ctx.Year)

		if rec != nil {
			report.Records = append(report.Records, *rec)
			continue
		}
		if reason != "" {
			report.Skipped = append(report.Skipped, skipped(i, line, reason))
			continue
		}
		if wasActive && state.active() {
			report.Skipped = append(report.Skipped, skipped(i, line, "no row pattern matched"))
		}
	}

	return report, nil
}

// cleanCaixaDescription removes the layout debris Caixa packs into
// the description column.
func cleanCaixaDescription(desc string) string {
	cleaned := caixaDDdeDDPattern.ReplaceAllString(desc, "")
	cleaned = caixaTrailDatePattern.ReplaceAllString(cleaned, "")
	cleaned = caixaLooseDatePattern.ReplaceAllString(cleaned, "")
	cleaned = caixaDashNumPattern.ReplaceAllString(cleaned, "")
	cleaned = caixaSixDigitPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "*", " ")
	return collapseSpaces(cleaned)
}
