package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ledger-reconciler/internal/models"
)

func mustDate(date string) time.Time {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return day
}

func defaultTolerances() Tolerances {
	return Tolerances{
		AmountTolerance:   decimal.RequireFromString("0.01"),
		DateToleranceDays: 3,
	}
}

func TestGenerateCandidates(t *testing.T) {
	tests := []struct {
		name    string
		bank    models.BankTransaction
		pool    []models.LedgerTransaction
		tol     Tolerances
		wantIDs []string
	}{
		{
			name: "amount outside both tolerance readings is excluded",
			// 3.00 absolute and 3/103 relative both exceed 0.01
			bank:    bankTx("100.00", "2024-01-05", "", ""),
			pool:    []models.LedgerTransaction{ledgerTx("103.00", "2024-01-05", "", "")},
			tol:     defaultTolerances(),
			wantIDs: nil,
		},
		{
			name:    "absolute tolerance alone qualifies",
			bank:    bankTx("100.00", "2024-01-05", "", ""),
			pool:    []models.LedgerTransaction{ledgerTx("100.005", "2024-01-05", "", "")},
			tol:     defaultTolerances(),
			wantIDs: []string{"ledger-1"},
		},
		{
			name: "relative tolerance alone qualifies",
			// 5.00 absolute fails, 5/1005 relative passes
			bank:    bankTx("1000.00", "2024-01-05", "", ""),
			pool:    []models.LedgerTransaction{ledgerTx("1005.00", "2024-01-05", "", "")},
			tol:     defaultTolerances(),
			wantIDs: []string{"ledger-1"},
		},
		{
			name:    "date outside tolerance is excluded",
			bank:    bankTx("100.00", "2024-01-05", "", ""),
			pool:    []models.LedgerTransaction{ledgerTx("100.00", "2024-01-10", "", "")},
			tol:     defaultTolerances(),
			wantIDs: nil,
		},
		{
			name:    "date at the tolerance boundary qualifies",
			bank:    bankTx("100.00", "2024-01-05", "", ""),
			pool:    []models.LedgerTransaction{ledgerTx("100.00", "2024-01-08", "", "")},
			tol:     defaultTolerances(),
			wantIDs: []string{"ledger-1"},
		},
		{
			name:    "zero amounts on both sides qualify",
			bank:    bankTx("0.00", "2024-01-05", "", ""),
			pool:    []models.LedgerTransaction{ledgerTx("0.00", "2024-01-05", "", "")},
			tol:     defaultTolerances(),
			wantIDs: []string{"ledger-1"},
		},
		{
			name: "mixed pool keeps only qualifying entries",
			bank: bankTx("100.00", "2024-01-05", "", ""),
			pool: []models.LedgerTransaction{
				{ID: "l-1", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-01-06")},
				{ID: "l-2", Amount: decimal.RequireFromString("250.00"), Date: mustDate("2024-01-05")},
				{ID: "l-3", Amount: decimal.RequireFromString("99.50"), Date: mustDate("2024-01-05")},
				{ID: "l-4", Amount: decimal.RequireFromString("100.00"), Date: mustDate("2024-02-01")},
			},
			tol:     defaultTolerances(),
			wantIDs: []string{"l-1", "l-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := GenerateCandidates(tt.bank, tt.pool, tt.tol)
			var ids []string
			for _, c := range candidates {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestDateDiffDaysIgnoresTimeOfDay(t *testing.T) {
	a := mustDate("2024-01-05").Add(23 * time.Hour)
	b := mustDate("2024-01-06")
	assert.Equal(t, 1, dateDiffDays(a, b))
	assert.Equal(t, 1, dateDiffDays(b, a))
	assert.Equal(t, 0, dateDiffDays(a, a))
}
