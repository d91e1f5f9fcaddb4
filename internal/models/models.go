package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents a bank statement transaction. Records are
// created by the statement ingestion boundary and never mutated afterwards.
type BankTransaction struct {
	ID              string           `db:"transaction_id" json:"transaction_id"`
	AccountID       string           `db:"account_id" json:"account_id"`
	Amount          decimal.Decimal  `db:"amount" json:"amount"`
	Date            time.Time        `db:"transaction_date" json:"transaction_date"`
	Description     string           `db:"description" json:"description"`
	ReferenceNumber string           `db:"reference_number" json:"reference_number,omitempty"`
	Balance         *decimal.Decimal `db:"balance" json:"balance,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"-"`
}

// LedgerTransaction represents a transaction synced from the external
// accounting system.
type LedgerTransaction struct {
	ID              string          `db:"transaction_id" json:"transaction_id"`
	AccountID       string          `db:"account_id" json:"account_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Date            time.Time       `db:"transaction_date" json:"transaction_date"`
	Description     string          `db:"description" json:"description"`
	ReferenceNumber string          `db:"reference_number" json:"reference_number,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"-"`
}

// MatchCandidate is an unconfirmed, scored pairing of one bank and one
// ledger transaction. It lives for the duration of a single matching run
// unless confirmed through SaveMatches.
type MatchCandidate struct {
	BankTransactionID   string           `json:"bank_transaction_id"`
	LedgerTransactionID string           `json:"ledger_transaction_id"`
	Confidence          float64          `json:"confidence"`
	Reasons             []string         `json:"reasons"`
	AmountDifference    *decimal.Decimal `json:"amount_difference,omitempty"`
	DateDifference      int              `json:"date_difference"`
}

// MatchMetadata is the audit snapshot stored alongside a confirmed match.
type MatchMetadata struct {
	MatchReasons     []string `json:"match_reasons"`
	AmountDifference string   `json:"amount_difference,omitempty"`
	DateDifference   int      `json:"date_difference"`
}

// MatchRecord is a confirmed pairing. At most one record exists per
// (bank, ledger) pair, and each side belongs to at most one active record.
type MatchRecord struct {
	ID                  int64         `db:"id" json:"id"`
	BankTransactionID   string        `db:"bank_transaction_id" json:"bank_transaction_id"`
	LedgerTransactionID string        `db:"ledger_transaction_id" json:"ledger_transaction_id"`
	ConfidenceScore     string        `db:"confidence_score" json:"confidence_score"`
	MatchedBy           string        `db:"matched_by" json:"matched_by"`
	Metadata            MatchMetadata `db:"metadata" json:"metadata"`
	CreatedAt           time.Time     `db:"created_at" json:"-"`
}

// ReconciliationOptions configures a single matching run.
type ReconciliationOptions struct {
	AccountID         string          `json:"account_id,omitempty"`
	FromDate          string          `json:"from_date"`
	ToDate            string          `json:"to_date"`
	DateToleranceDays int             `json:"date_tolerance_days"`
	AmountTolerance   decimal.Decimal `json:"amount_tolerance"`
	MinConfidence     float64         `json:"min_confidence"`
	UseAI             bool            `json:"use_ai"`
}

// ReconciliationResult is the outcome of one matching run. Nothing in it is
// persisted; the caller decides whether to confirm via SaveMatches.
type ReconciliationResult struct {
	Matched         []MatchCandidate `json:"matched"`
	UnmatchedBank   []string         `json:"unmatched_bank"`
	UnmatchedLedger []string         `json:"unmatched_ledger"`
	Discrepancies   []MatchCandidate `json:"discrepancies"`
}

// ReconciliationReport aggregates a reconciliation window into a health
// score and status. Reports are append-only.
type ReconciliationReport struct {
	ID               int64     `db:"id" json:"-"`
	ReportID         string    `db:"report_id" json:"report_id"`
	AccountID        string    `db:"account_id" json:"account_id,omitempty"`
	PeriodStart      string    `db:"period_start" json:"period_start"`
	PeriodEnd        string    `db:"period_end" json:"period_end"`
	TotalBank        int       `db:"total_bank" json:"total_bank"`
	TotalLedger      int       `db:"total_ledger" json:"total_ledger"`
	MatchedCount     int       `db:"matched_count" json:"matched_count"`
	UnmatchedBank    int       `db:"unmatched_bank" json:"unmatched_bank"`
	UnmatchedLedger  int       `db:"unmatched_ledger" json:"unmatched_ledger"`
	DiscrepancyCount int       `db:"discrepancy_count" json:"discrepancy_count"`
	HealthScore      int       `db:"health_score" json:"health_score"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// RunSummary is the payload delivered to the notification sink after a run.
type RunSummary struct {
	MatchedCount         int `json:"matched_count"`
	UnmatchedBankCount   int `json:"unmatched_bank_count"`
	UnmatchedLedgerCount int `json:"unmatched_ledger_count"`
	DiscrepancyCount     int `json:"discrepancy_count"`
	HealthScore          int `json:"health_score"`
}

// MatchedBy constants
const (
	MatchedByRule   = "rule"
	MatchedByAI     = "ai"
	MatchedByManual = "manual"
)

// Report status constants
const (
	ReportStatusCompleted = "completed"
	ReportStatusUnmatched = "unmatched"
	ReportStatusPending   = "pending"
)
