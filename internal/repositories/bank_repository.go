package repositories

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"ledger-reconciler/internal/models"
)

type BankRepository interface {
	InsertBankTransaction(ctx context.Context, tx *sql.Tx, bt *models.BankTransaction) error
	GetUnmatchedTransactions(ctx context.Context, accountID, fromDate, toDate string) ([]models.BankTransaction, error)
	CountInRange(ctx context.Context, accountID, fromDate, toDate string) (total, matched int, err error)
}

type bankRepository struct {
	db *sql.DB
}

func NewBankRepository(db *sql.DB) BankRepository {
	return &bankRepository{db: db}
}

func (r *bankRepository) InsertBankTransaction(ctx context.Context, tx *sql.Tx, bt *models.BankTransaction) error {
	query := `
		INSERT INTO bank_transactions (
			transaction_id, account_id, amount,
			transaction_date, description, reference_number, balance
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var balance decimal.NullDecimal
	if bt.Balance != nil {
		balance = decimal.NullDecimal{Decimal: *bt.Balance, Valid: true}
	}
	_, err := tx.ExecContext(ctx, query,
		bt.ID,
		bt.AccountID,
		bt.Amount,
		bt.Date.Format("2006-01-02"),
		bt.Description,
		bt.ReferenceNumber,
		balance,
	)
	return err
}

// GetUnmatchedTransactions returns bank transactions in the window that are
// not covered by an existing match record, in ingestion order.
func (r *bankRepository) GetUnmatchedTransactions(ctx context.Context, accountID, fromDate, toDate string) ([]models.BankTransaction, error) {
	query := `
		SELECT bt.transaction_id, bt.account_id, bt.amount,
		       bt.transaction_date, bt.description, bt.reference_number,
		       bt.balance, bt.created_at
		FROM bank_transactions bt
		LEFT JOIN match_records mr ON bt.transaction_id = mr.bank_transaction_id
		WHERE mr.id IS NULL
		AND bt.transaction_date BETWEEN ? AND ?
		AND (? = '' OR bt.account_id = ?)
		ORDER BY bt.id
	`
	rows, err := r.db.QueryContext(ctx, query, fromDate, toDate, accountID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.BankTransaction
	for rows.Next() {
		var bt models.BankTransaction
		var balance decimal.NullDecimal
		err := rows.Scan(
			&bt.ID,
			&bt.AccountID,
			&bt.Amount,
			&bt.Date,
			&bt.Description,
			&bt.ReferenceNumber,
			&balance,
			&bt.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if balance.Valid {
			bt.Balance = &balance.Decimal
		}
		transactions = append(transactions, bt)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

// CountInRange returns the total bank transactions in the window and how
// many of them are covered by a match record.
func (r *bankRepository) CountInRange(ctx context.Context, accountID, fromDate, toDate string) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(mr.id)
		FROM bank_transactions bt
		LEFT JOIN match_records mr ON bt.transaction_id = mr.bank_transaction_id
		WHERE bt.transaction_date BETWEEN ? AND ?
		AND (? = '' OR bt.account_id = ?)
	`
	var total, matched int
	err := r.db.QueryRowContext(ctx, query, fromDate, toDate, accountID, accountID).Scan(&total, &matched)
	if err != nil {
		return 0, 0, err
	}
	return total, matched, nil
}
