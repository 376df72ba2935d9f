package parser

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/contafacil/statement-engine/internal/models"
)

// SicoobOFXAdapter extracts purchases from Sicoob credit-card OFX
// exports. These are the loose SGML variant: no closing tags on leaf
// fields in some exports, so fields are pulled with per-tag patterns
// instead of a strict OFX parser.
type SicoobOFXAdapter struct{}

func (a *SicoobOFXAdapter) BankName() string {
	return "Sicoob"
}

var (
	stmtTrnPattern = regexp.MustCompile(`(?s)<STMTTRN>(.*?)</STMTTRN>`)
	trnTypePattern = regexp.MustCompile(`<TRNTYPE>(.*?)</TRNTYPE>`)
	dtPostedPattern = regexp.MustCompile(`(?s)<DTPOSTED>(\d{8}).*?</DTPOSTED>`)
	trnAmtPattern  = regexp.MustCompile(`<TRNAMT>(-?\d+\.?\d*)`)
	memoPattern    = regexp.MustCompile(`<MEMO>(.*?)</MEMO>`)

	// Embedded installment token ("LOJA 01/03 SAO PAULO").
	installmentTokenPattern = regexp.MustCompile(`\s+\d{2}/\d{2}\s+`)
	// Trailing foreign-currency annotation ("US$ 12,00 V.DOL 5,1234").
	currencyTailPattern = regexp.MustCompile(`\s*-?\s*US\$.*$`)
)

// Sicoob memos carry one city spelling the shared list doesn't: the
// processor sometimes glues a stray letter onto the city name. The
// glued variant is tried first so the plain one cannot match inside
// it and leave the stray letter behind.
var sicoobCityPatterns = compileCityPatterns(
	append([]string{"ARIBEIRAO PRE"}, knownCities...),
	`(?i)\s*%s.*$`,
)

// DecodeStatement interprets raw OFX bytes as UTF-8, falling back to
// ISO-8859-1 when the bytes are not valid UTF-8. Exactly these two
// encodings are attempted; Sicoob has never produced anything else.
func DecodeStatement(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO-8859-1 maps every byte; only allocation can fail.
		return string(data)
	}
	return string(decoded)
}

// Parse scans for <STMTTRN> blocks and accepts a block only when all
// four sub-fields are present and the amount is negative (a debit).
// Positive amounts are payments or refunds and are dropped.
func (a *SicoobOFXAdapter) Parse(text string, ctx Context) (*models.ParseReport, error) {
	report := &models.ParseReport{Bank: models.BankSicoob}

	for i, match := range stmtTrnPattern.FindAllStringSubmatch(text, -1) {
		block := match[1]

		trnType := trnTypePattern.FindStringSubmatch(block)
		posted := dtPostedPattern.FindStringSubmatch(block)
		amount := trnAmtPattern.FindStringSubmatch(block)
		memo := memoPattern.FindStringSubmatch(block)

		if trnType == nil || posted == nil || amount == nil || memo == nil {
			report.Skipped = append(report.Skipped, models.SkippedLine{
				LineNum: i + 1,
				Text:    summarize(block),
				Reason:  "missing required OFX sub-field",
			})
			continue
		}

		// OFX amounts are plain dot-decimal, unlike the page formats.
		value, err := decimal.NewFromString(amount[1])
		if err != nil {
			report.Skipped = append(report.Skipped, models.SkippedLine{
				LineNum: i + 1,
				Text:    summarize(block),
				Reason:  "unparsable amount " + amount[1],
			})
			continue
		}
		if value.Sign() >= 0 {
			report.Skipped = append(report.Skipped, models.SkippedLine{
				LineNum: i + 1,
				Text:    summarize(block),
				Reason:  "positive amount (credit or payment)",
			})
			continue
		}

		report.Records = append(report.Records, models.TransactionRecord{
			Description: normalizeDescription(cleanSicoobMemo(memo[1])),
			Category:    models.DefaultCategory,
			Amount:      value.Abs(),
			Date:        parseOFXDate(posted[1]),
		})
	}

	return report, nil
}

// parseOFXDate reformats an 8-digit YYYYMMDD prefix to DD/MM/YYYY.
// An unparsable date defaults instead of failing the block.
func parseOFXDate(s string) string {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return fallbackDate
	}
	return t.Format("02/01/2006")
}

// cleanSicoobMemo strips the embedded installment token, the trailing
// city (and anything the processor appended after it) and the
// foreign-currency footer.
func cleanSicoobMemo(memo string) string {
	cleaned := installmentTokenPattern.ReplaceAllString(strings.TrimSpace(memo), " ")
	for _, p := range sicoobCityPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	cleaned = collapseSpaces(cleaned)
	cleaned = currencyTailPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func summarize(block string) string {
	s := collapseSpaces(block)
	if runes := []rune(s); len(runes) > 120 {
		return string(runes[:120]) + "..."
	}
	return s
}
