// Package matching implements the reconciliation core: candidate
// generation, weighted confidence scoring and greedy one-to-one assignment
// of bank transactions to ledger transactions.
package matching

import (
	"time"

	"github.com/shopspring/decimal"

	"ledger-reconciler/internal/models"
)

// Tolerances bound which ledger transactions qualify as candidates for a
// bank transaction at all. AmountTolerance is read both as an absolute
// currency delta and as a fraction of the larger amount; satisfying either
// reading qualifies the pair.
type Tolerances struct {
	AmountTolerance   decimal.Decimal
	DateToleranceDays int
}

// GenerateCandidates filters the pool down to ledger transactions within
// amount and date tolerance of the bank transaction. The amount rule is
// checked first so that amount rejects never reach the date comparison.
func GenerateCandidates(bank models.BankTransaction, pool []models.LedgerTransaction, tol Tolerances) []models.LedgerTransaction {
	var candidates []models.LedgerTransaction
	for _, lt := range pool {
		if !withinAmountTolerance(bank.Amount, lt.Amount, tol.AmountTolerance) {
			continue
		}
		if dateDiffDays(bank.Date, lt.Date) > tol.DateToleranceDays {
			continue
		}
		candidates = append(candidates, lt)
	}
	return candidates
}

func withinAmountTolerance(bank, ledger, tolerance decimal.Decimal) bool {
	diff := bank.Sub(ledger).Abs()
	if diff.LessThanOrEqual(tolerance) {
		return true
	}
	denom := decimal.Max(bank.Abs(), ledger.Abs())
	if denom.IsZero() {
		return false
	}
	return diff.Div(denom).LessThanOrEqual(tolerance)
}

// dateDiffDays returns the absolute calendar-day difference, ignoring any
// time-of-day component.
func dateDiffDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ad.Sub(bd).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
