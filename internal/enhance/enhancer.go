// Package enhance holds the optional confidence-adjustment port. The
// matching engine produces identical results with the port disabled; any
// failure here leaves the rule-based scores in place.
package enhance

import (
	"context"

	"ledger-reconciler/internal/models"
)

// Enhancer re-scores a list of rule-matched candidates. Implementations
// return the same candidates in the same order; confidence may change and
// reasons may be appended.
type Enhancer interface {
	Enhance(ctx context.Context, candidates []models.MatchCandidate, bankTxs []models.BankTransaction, ledgerTxs []models.LedgerTransaction) ([]models.MatchCandidate, error)
}
