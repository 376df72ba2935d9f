package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// fallbackDate is written whenever a source date cannot be parsed.
// Kept byte-for-byte compatible with the previous generation of this
// tool; likely a placeholder rather than a business rule.
const fallbackDate = "01/01/2025"

// knownCities are trailing city suffixes card processors append to
// merchant descriptions. Matching is case-insensitive and several
// entries are truncated exactly as they appear on statements.
var knownCities = []string{
	"RIBEIRAO PRET", "RIBEIRAO PRE", "SAO PAULO", "OSASCO",
	"HORTOLANDIA", "BELO HORIZON", "SAN FRANCISCO",
}

var (
	multiSpacePattern = regexp.MustCompile(`\s+`)
	fullDatePattern   = regexp.MustCompile(`\d{2}/\d{2}/(\d{4})`)
)

// collapseSpaces folds runs of whitespace into single spaces and
// trims the ends.
func collapseSpaces(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}

// normalizeDescription applies the shared record-level normalization:
// whitespace collapse plus truncation to 50 characters with a
// trailing ellipsis. Truncation counts runes, not bytes, so accented
// descriptions are never cut mid-character. Every emitted record goes
// through this.
func normalizeDescription(s string) string {
	cleaned := collapseSpaces(s)
	if runes := []rune(cleaned); len(runes) > 50 {
		cleaned = string(runes[:50]) + "..."
	}
	return cleaned
}

// parseBRLValue converts thousands-dot decimal-comma notation
// ("1.234,56") into a decimal value.
func parseBRLValue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// inferYear scans the whole document for the first complete
// DD/MM/YYYY date and returns its year. Statements print day/month
// only on transaction rows, so the year has to come from a header,
// due date or print date somewhere in the text. Falls back to the
// current calendar year.
func inferYear(text string) int {
	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil && year > 0 {
			return year
		}
	}
	return time.Now().Year()
}

// expandShortDate turns a DD/MM fragment into DD/MM/YYYY using the
// inferred statement year. Malformed fragments yield the fixed
// fallback date instead of failing the line.
func expandShortDate(dayMonth string, year int) string {
	parts := strings.Split(strings.ReplaceAll(dayMonth, " ", ""), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return fallbackDate
	}
	day := parts[0]
	month := parts[1]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return fmt.Sprintf("%s/%s/%d", day, month, year)
}

// containsAny reports whether any needle occurs in s. Statement noise
// keywords are matched exactly as printed.
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// stripTrailingCity removes a known city name when it appears as a
// suffix of the description. Case-insensitive, suffix only.
func stripTrailingCity(s string) string {
	for _, p := range trailingCityPatterns {
		s = p.ReplaceAllString(s, "")
	}
	return s
}

var trailingCityPatterns = compileCityPatterns(knownCities, `(?i)\s+%s\s*$`)

func compileCityPatterns(cities []string, format string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(cities))
	for _, city := range cities {
		patterns = append(patterns, regexp.MustCompile(fmt.Sprintf(format, regexp.QuoteMeta(city))))
	}
	return patterns
}
