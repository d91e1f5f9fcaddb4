package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"ledger-reconciler/internal/models"
)

type MatchRepository interface {
	SaveMatches(ctx context.Context, candidates []models.MatchCandidate, matchedBy string) (int, error)
	Unmatch(ctx context.Context, bankTransactionID, ledgerTransactionID string) error
	GetMatch(ctx context.Context, bankTransactionID, ledgerTransactionID string) (*models.MatchRecord, error)
	ListMatchesInRange(ctx context.Context, accountID, fromDate, toDate string) ([]models.MatchRecord, error)
}

type matchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) MatchRepository {
	return &matchRepository{db: db}
}

// SaveMatches inserts one record per candidate and returns how many were
// newly created. Idempotency rests on the table's unique keys: INSERT IGNORE
// turns a duplicate pair, or a side already claimed by another record, into
// a skip rather than an error, so concurrent savers cannot double-insert.
func (r *matchRepository) SaveMatches(ctx context.Context, candidates []models.MatchCandidate, matchedBy string) (int, error) {
	query := `
		INSERT IGNORE INTO match_records (
			bank_transaction_id, ledger_transaction_id,
			confidence_score, matched_by, metadata
		) VALUES (?, ?, ?, ?, ?)
	`
	saved := 0
	for _, c := range candidates {
		metadata := models.MatchMetadata{
			MatchReasons:   c.Reasons,
			DateDifference: c.DateDifference,
		}
		if c.AmountDifference != nil {
			metadata.AmountDifference = c.AmountDifference.String()
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return saved, err
		}

		result, err := r.db.ExecContext(ctx, query,
			c.BankTransactionID,
			c.LedgerTransactionID,
			strconv.FormatFloat(c.Confidence, 'f', 2, 64),
			matchedBy,
			metadataJSON,
		)
		if err != nil {
			return saved, err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return saved, err
		}
		saved += int(rows)
	}
	return saved, nil
}

// Unmatch deletes the record for the pair. A missing record is a no-op.
func (r *matchRepository) Unmatch(ctx context.Context, bankTransactionID, ledgerTransactionID string) error {
	query := `
		DELETE FROM match_records
		WHERE bank_transaction_id = ? AND ledger_transaction_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, bankTransactionID, ledgerTransactionID)
	return err
}

func (r *matchRepository) GetMatch(ctx context.Context, bankTransactionID, ledgerTransactionID string) (*models.MatchRecord, error) {
	query := `
		SELECT id, bank_transaction_id, ledger_transaction_id,
		       confidence_score, matched_by, metadata, created_at
		FROM match_records
		WHERE bank_transaction_id = ? AND ledger_transaction_id = ?
	`
	var record models.MatchRecord
	var metadataJSON []byte
	err := r.db.QueryRowContext(ctx, query, bankTransactionID, ledgerTransactionID).Scan(
		&record.ID,
		&record.BankTransactionID,
		&record.LedgerTransactionID,
		&record.ConfidenceScore,
		&record.MatchedBy,
		&metadataJSON,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListMatchesInRange returns match records whose bank transaction falls in
// the window.
func (r *matchRepository) ListMatchesInRange(ctx context.Context, accountID, fromDate, toDate string) ([]models.MatchRecord, error) {
	query := `
		SELECT mr.id, mr.bank_transaction_id, mr.ledger_transaction_id,
		       mr.confidence_score, mr.matched_by, mr.metadata, mr.created_at
		FROM match_records mr
		JOIN bank_transactions bt ON bt.transaction_id = mr.bank_transaction_id
		WHERE bt.transaction_date BETWEEN ? AND ?
		AND (? = '' OR bt.account_id = ?)
		ORDER BY mr.id
	`
	rows, err := r.db.QueryContext(ctx, query, fromDate, toDate, accountID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var record models.MatchRecord
		var metadataJSON []byte
		err := rows.Scan(
			&record.ID,
			&record.BankTransactionID,
			&record.LedgerTransactionID,
			&record.ConfidenceScore,
			&record.MatchedBy,
			&metadataJSON,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
