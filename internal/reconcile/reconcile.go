// Package reconcile proposes a canonical supplier name for each
// extracted transaction by approximate string matching against the
// directory snapshot.
package reconcile

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/contafacil/statement-engine/internal/models"
)

// AcceptThreshold is the strict lower bound for accepting a match:
// a candidate scoring exactly this value is rejected.
const AcceptThreshold = 80

// Match scores every supplier display name against the record
// description and returns the best candidate. The linear scan is fine
// at statement scale (tens of rows, hundreds of suppliers).
func Match(record models.TransactionRecord, suppliers []models.Supplier) models.MatchResult {
	result := models.MatchResult{Record: record}
	desc := strings.ToLower(record.Description)

	best := ""
	bestScore := 0
	for _, s := range suppliers {
		name := s.DisplayName()
		if name == "" {
			continue
		}
		score := fuzzy.Ratio(desc, strings.ToLower(name))
		if score > bestScore {
			bestScore = score
			best = name
		}
	}

	result.Score = bestScore
	if bestScore > AcceptThreshold {
		result.Supplier = best
	}
	return result
}

// MatchAll reconciles records in order. Records with no acceptable
// candidate keep an empty supplier and are surfaced for manual
// resolution, never dropped.
func MatchAll(records []models.TransactionRecord, suppliers []models.Supplier) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(records))
	for _, r := range records {
		results = append(results, Match(r, suppliers))
	}
	return results
}
