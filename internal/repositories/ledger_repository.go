package repositories

import (
	"context"
	"database/sql"

	"ledger-reconciler/internal/models"
)

type LedgerRepository interface {
	InsertLedgerTransaction(ctx context.Context, tx *sql.Tx, lt *models.LedgerTransaction) error
	GetUnmatchedTransactions(ctx context.Context, accountID, fromDate, toDate string) ([]models.LedgerTransaction, error)
	CountInRange(ctx context.Context, accountID, fromDate, toDate string) (total, matched int, err error)
}

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) InsertLedgerTransaction(ctx context.Context, tx *sql.Tx, lt *models.LedgerTransaction) error {
	query := `
		INSERT INTO ledger_transactions (
			transaction_id, account_id, amount,
			transaction_date, description, reference_number
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		lt.ID,
		lt.AccountID,
		lt.Amount,
		lt.Date.Format("2006-01-02"),
		lt.Description,
		lt.ReferenceNumber,
	)
	return err
}

func (r *ledgerRepository) GetUnmatchedTransactions(ctx context.Context, accountID, fromDate, toDate string) ([]models.LedgerTransaction, error) {
	query := `
		SELECT lt.transaction_id, lt.account_id, lt.amount,
		       lt.transaction_date, lt.description, lt.reference_number,
		       lt.created_at
		FROM ledger_transactions lt
		LEFT JOIN match_records mr ON lt.transaction_id = mr.ledger_transaction_id
		WHERE mr.id IS NULL
		AND lt.transaction_date BETWEEN ? AND ?
		AND (? = '' OR lt.account_id = ?)
		ORDER BY lt.id
	`
	rows, err := r.db.QueryContext(ctx, query, fromDate, toDate, accountID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.LedgerTransaction
	for rows.Next() {
		var lt models.LedgerTransaction
		err := rows.Scan(
			&lt.ID,
			&lt.AccountID,
			&lt.Amount,
			&lt.Date,
			&lt.Description,
			&lt.ReferenceNumber,
			&lt.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, lt)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *ledgerRepository) CountInRange(ctx context.Context, accountID, fromDate, toDate string) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(mr.id)
		FROM ledger_transactions lt
		LEFT JOIN match_records mr ON lt.transaction_id = mr.ledger_transaction_id
		WHERE lt.transaction_date BETWEEN ? AND ?
		AND (? = '' OR lt.account_id = ?)
	`
	var total, matched int
	err := r.db.QueryRowContext(ctx, query, fromDate, toDate, accountID, accountID).Scan(&total, &matched)
	if err != nil {
		return 0, 0, err
	}
	return total, matched, nil
}
