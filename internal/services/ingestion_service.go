package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ledger-reconciler/internal/models"
	"ledger-reconciler/internal/repositories"
)

// IngestionService is the transaction store's write boundary. Input is
// validated into fully-typed records here so nothing downstream ever sees
// partially-typed data.
type IngestionService struct {
	db         *sql.DB
	bankRepo   repositories.BankRepository
	ledgerRepo repositories.LedgerRepository
	logger     *slog.Logger
}

func NewIngestionService(db *sql.DB, bankRepo repositories.BankRepository, ledgerRepo repositories.LedgerRepository, logger *slog.Logger) *IngestionService {
	return &IngestionService{
		db:         db,
		bankRepo:   bankRepo,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

type BankTransactionInput struct {
	TransactionID   string           `json:"transaction_id"`
	AccountID       string           `json:"account_id"`
	Amount          decimal.Decimal  `json:"amount"`
	TransactionDate string           `json:"transaction_date"`
	Description     string           `json:"description,omitempty"`
	ReferenceNumber string           `json:"reference_number,omitempty"`
	Balance         *decimal.Decimal `json:"balance,omitempty"`
}

type LedgerTransactionInput struct {
	TransactionID   string          `json:"transaction_id"`
	AccountID       string          `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate string          `json:"transaction_date"`
	Description     string          `json:"description,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
}

type IngestionResult struct {
	Success      bool     `json:"success"`
	RecordsCount int      `json:"records_count"`
	Errors       []string `json:"errors,omitempty"`
}

func (s *IngestionService) IngestBankTransactions(ctx context.Context, inputs []BankTransactionInput) (*IngestionResult, error) {
	result := &IngestionResult{Success: true}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, input := range inputs {
		date, err := validateTransactionInput(input.TransactionID, input.AccountID, input.TransactionDate)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invalid transaction %s: %v", input.TransactionID, err))
			continue
		}

		record := &models.BankTransaction{
			ID:              input.TransactionID,
			AccountID:       input.AccountID,
			Amount:          input.Amount,
			Date:            date,
			Description:     input.Description,
			ReferenceNumber: input.ReferenceNumber,
			Balance:         input.Balance,
		}
		if err := s.bankRepo.InsertBankTransaction(ctx, tx, record); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to insert transaction %s: %v", input.TransactionID, err))
			continue
		}
		result.RecordsCount++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.Success = len(result.Errors) == 0
	s.logger.Info("ingested bank transactions",
		"total", len(inputs), "inserted", result.RecordsCount, "failed", len(result.Errors))
	return result, nil
}

func (s *IngestionService) IngestLedgerTransactions(ctx context.Context, inputs []LedgerTransactionInput) (*IngestionResult, error) {
	result := &IngestionResult{Success: true}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, input := range inputs {
		date, err := validateTransactionInput(input.TransactionID, input.AccountID, input.TransactionDate)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invalid transaction %s: %v", input.TransactionID, err))
			continue
		}

		record := &models.LedgerTransaction{
			ID:              input.TransactionID,
			AccountID:       input.AccountID,
			Amount:          input.Amount,
			Date:            date,
			Description:     input.Description,
			ReferenceNumber: input.ReferenceNumber,
		}
		if err := s.ledgerRepo.InsertLedgerTransaction(ctx, tx, record); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to insert transaction %s: %v", input.TransactionID, err))
			continue
		}
		result.RecordsCount++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.Success = len(result.Errors) == 0
	s.logger.Info("ingested ledger transactions",
		"total", len(inputs), "inserted", result.RecordsCount, "failed", len(result.Errors))
	return result, nil
}

func validateTransactionInput(transactionID, accountID, transactionDate string) (time.Time, error) {
	if transactionID == "" {
		return time.Time{}, fmt.Errorf("transaction_id is required")
	}
	if accountID == "" {
		return time.Time{}, fmt.Errorf("account_id is required")
	}
	date, err := time.Parse("2006-01-02", transactionDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid transaction_date, use YYYY-MM-DD")
	}
	return date, nil
}
