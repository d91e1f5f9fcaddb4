package matching

import (
	"ledger-reconciler/internal/models"
)

// Engine assigns bank transactions to ledger transactions one run at a
// time. A run is a pure planning step: nothing is persisted.
type Engine struct {
	tolerances    Tolerances
	minConfidence float64
}

func NewEngine(tol Tolerances, minConfidence float64) *Engine {
	return &Engine{
		tolerances:    tol,
		minConfidence: minConfidence,
	}
}

// Run processes bank transactions in the order the store returned them.
// Each bank transaction claims its best still-available ledger transaction
// when the confidence clears the minimum; both sides stay claimed for the
// remainder of the run. The claimed set is local to the run, so concurrent
// runs never interfere.
//
// The assignment is greedy and order-dependent: an earlier bank transaction
// can claim a ledger transaction that a later one would have scored higher.
func (e *Engine) Run(bankTxs []models.BankTransaction, ledgerTxs []models.LedgerTransaction) *models.ReconciliationResult {
	result := &models.ReconciliationResult{
		Matched:         []models.MatchCandidate{},
		UnmatchedBank:   []string{},
		UnmatchedLedger: []string{},
		Discrepancies:   []models.MatchCandidate{},
	}

	claimedLedger := make(map[string]bool)

	for _, bt := range bankTxs {
		available := make([]models.LedgerTransaction, 0, len(ledgerTxs))
		for _, lt := range ledgerTxs {
			if !claimedLedger[lt.ID] {
				available = append(available, lt)
			}
		}

		var best *models.MatchCandidate
		for _, lt := range GenerateCandidates(bt, available, e.tolerances) {
			scored := Score(bt, lt)
			if best == nil || scored.Confidence > best.Confidence {
				s := scored
				best = &s
			}
		}

		if best != nil && best.Confidence >= e.minConfidence {
			claimedLedger[best.LedgerTransactionID] = true
			result.Matched = append(result.Matched, *best)
		} else {
			result.UnmatchedBank = append(result.UnmatchedBank, bt.ID)
		}
	}

	for _, lt := range ledgerTxs {
		if !claimedLedger[lt.ID] {
			result.UnmatchedLedger = append(result.UnmatchedLedger, lt.ID)
		}
	}

	result.Discrepancies = ClassifyDiscrepancies(result.Matched)
	return result
}

// ClassifyDiscrepancies returns the subset of matched candidates whose
// amount or date differs between the two sides.
func ClassifyDiscrepancies(matched []models.MatchCandidate) []models.MatchCandidate {
	discrepancies := []models.MatchCandidate{}
	for _, m := range matched {
		if m.AmountDifference != nil || m.DateDifference > 0 {
			discrepancies = append(discrepancies, m)
		}
	}
	return discrepancies
}
