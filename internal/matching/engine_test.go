package matching

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-reconciler/internal/models"
)

func newTestEngine() *Engine {
	return NewEngine(defaultTolerances(), 0.7)
}

func TestRunGreedyClaimInIngestionOrder(t *testing.T) {
	// Both bank transactions plausibly match the single ledger transaction.
	// The first one in ingestion order clears the minimum confidence and
	// claims it, even though the second would have scored higher.
	ledger := []models.LedgerTransaction{
		{ID: "L-1", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-05"), ReferenceNumber: "CHK123"},
	}
	bank := []models.BankTransaction{
		{ID: "B-1", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-06")},
		{ID: "B-2", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-05"), ReferenceNumber: "CHK123"},
	}

	result := newTestEngine().Run(bank, ledger)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "B-1", result.Matched[0].BankTransactionID)
	assert.Equal(t, "L-1", result.Matched[0].LedgerTransactionID)
	assert.Equal(t, []string{"B-2"}, result.UnmatchedBank)
	assert.Empty(t, result.UnmatchedLedger)
}

func TestRunPicksBestCandidatePerBankTransaction(t *testing.T) {
	ledger := []models.LedgerTransaction{
		{ID: "L-close", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-07")},
		{ID: "L-exact", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-05")},
	}
	bank := []models.BankTransaction{
		{ID: "B-1", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-05")},
	}

	result := newTestEngine().Run(bank, ledger)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "L-exact", result.Matched[0].LedgerTransactionID)
}

func TestRunInjectivity(t *testing.T) {
	var bank []models.BankTransaction
	var ledger []models.LedgerTransaction
	for _, id := range []string{"1", "2", "3", "4"} {
		bank = append(bank, models.BankTransaction{
			ID: "B-" + id, Amount: decimal.RequireFromString("50.00"), Date: mustDate("2024-02-01"),
		})
		ledger = append(ledger, models.LedgerTransaction{
			ID: "L-" + id, Amount: decimal.RequireFromString("50.00"), Date: mustDate("2024-02-01"),
		})
	}

	result := newTestEngine().Run(bank, ledger)

	seenBank := make(map[string]bool)
	seenLedger := make(map[string]bool)
	for _, m := range result.Matched {
		assert.False(t, seenBank[m.BankTransactionID], "bank id %s matched twice", m.BankTransactionID)
		assert.False(t, seenLedger[m.LedgerTransactionID], "ledger id %s matched twice", m.LedgerTransactionID)
		seenBank[m.BankTransactionID] = true
		seenLedger[m.LedgerTransactionID] = true
	}
	assert.Len(t, result.Matched, 4)
}

func TestRunMinConfidenceCutoff(t *testing.T) {
	// Amount within tolerance (0.3) + date two days off (0.2) = 0.5 < 0.7.
	bank := []models.BankTransaction{
		{ID: "B-1", Amount: decimal.RequireFromString("1000.00"), Date: mustDate("2024-01-05")},
	}
	ledger := []models.LedgerTransaction{
		{ID: "L-1", Amount: decimal.RequireFromString("1001.00"), Date: mustDate("2024-01-07")},
	}

	result := newTestEngine().Run(bank, ledger)

	assert.Empty(t, result.Matched)
	assert.Equal(t, []string{"B-1"}, result.UnmatchedBank)
	assert.Equal(t, []string{"L-1"}, result.UnmatchedLedger)
}

func TestRunDiscrepanciesAreSubsetOfMatches(t *testing.T) {
	bank := []models.BankTransaction{
		{ID: "B-clean", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-05"), ReferenceNumber: "R1", Description: "rent"},
		{ID: "B-off", Amount: decimal.RequireFromString("200.00"), Date: mustDate("2024-01-05"), ReferenceNumber: "R2", Description: "fees"},
	}
	ledger := []models.LedgerTransaction{
		{ID: "L-clean", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-05"), ReferenceNumber: "R1", Description: "rent"},
		{ID: "L-off", Amount: decimal.RequireFromString("200.50"), Date: mustDate("2024-01-06"), ReferenceNumber: "R2", Description: "fees"},
	}

	result := newTestEngine().Run(bank, ledger)

	require.Len(t, result.Matched, 2)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "B-off", result.Discrepancies[0].BankTransactionID)
	require.NotNil(t, result.Discrepancies[0].AmountDifference)
	assert.Equal(t, 1, result.Discrepancies[0].DateDifference)
}

func TestRunEmptyInputs(t *testing.T) {
	result := newTestEngine().Run(nil, nil)

	assert.Empty(t, result.Matched)
	assert.Empty(t, result.UnmatchedBank)
	assert.Empty(t, result.UnmatchedLedger)
	assert.Empty(t, result.Discrepancies)
}
