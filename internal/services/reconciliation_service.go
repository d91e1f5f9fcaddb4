package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/enhance"
	"ledger-reconciler/internal/matching"
	"ledger-reconciler/internal/models"
	"ledger-reconciler/internal/notify"
	"ledger-reconciler/internal/repositories"
)

// ErrInvalidInput marks validation failures on public operations. Handlers
// branch on it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

const notifyTimeout = 10 * time.Second

type ReconciliationService struct {
	bankRepo   repositories.BankRepository
	ledgerRepo repositories.LedgerRepository
	matchRepo  repositories.MatchRepository
	reportRepo repositories.ReportRepository
	enhancer   enhance.Enhancer
	notifier   notify.Sink
	defaults   config.MatchingConfig
	logger     *slog.Logger
}

func NewReconciliationService(
	bankRepo repositories.BankRepository,
	ledgerRepo repositories.LedgerRepository,
	matchRepo repositories.MatchRepository,
	reportRepo repositories.ReportRepository,
	enhancer enhance.Enhancer,
	notifier notify.Sink,
	defaults config.MatchingConfig,
	logger *slog.Logger,
) *ReconciliationService {
	if notifier == nil {
		notifier = notify.NoopSink{}
	}
	return &ReconciliationService{
		bankRepo:   bankRepo,
		ledgerRepo: ledgerRepo,
		matchRepo:  matchRepo,
		reportRepo: reportRepo,
		enhancer:   enhancer,
		notifier:   notifier,
		defaults:   defaults,
		logger:     logger,
	}
}

// MatchTransactions runs one matching pass over the scope. It is a planning
// step: the caller decides whether to persist the result via SaveMatches.
// Failure to read the transaction store is fatal; failures in the AI port
// or the notification sink are logged and never abort the run.
func (s *ReconciliationService) MatchTransactions(ctx context.Context, opts models.ReconciliationOptions) (*models.ReconciliationResult, error) {
	if err := validateDateRange(opts.FromDate, opts.ToDate); err != nil {
		return nil, err
	}
	opts = s.applyDefaults(opts)

	bankTxs, ledgerTxs, err := s.fetchUnmatched(ctx, opts)
	if err != nil {
		return nil, err
	}

	engine := matching.NewEngine(matching.Tolerances{
		AmountTolerance:   opts.AmountTolerance,
		DateToleranceDays: opts.DateToleranceDays,
	}, opts.MinConfidence)

	result := engine.Run(bankTxs, ledgerTxs)

	if opts.UseAI && s.enhancer != nil && len(result.Matched) > 0 {
		enhanced, err := s.enhancer.Enhance(ctx, result.Matched, bankTxs, ledgerTxs)
		if err != nil {
			s.logger.Warn("confidence enhancement failed, keeping rule-based scores", "error", err)
		} else {
			result.Matched = enhanced
			result.Discrepancies = matching.ClassifyDiscrepancies(result.Matched)
		}
	}

	s.notifyRun(result)

	return result, nil
}

// fetchUnmatched loads both sides of the scope concurrently. Either error
// is a hard failure: without the primary reads there is nothing to match.
func (s *ReconciliationService) fetchUnmatched(ctx context.Context, opts models.ReconciliationOptions) ([]models.BankTransaction, []models.LedgerTransaction, error) {
	var (
		wg        sync.WaitGroup
		bankTxs   []models.BankTransaction
		ledgerTxs []models.LedgerTransaction
		bankErr   error
		ledgerErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		bankTxs, bankErr = s.bankRepo.GetUnmatchedTransactions(ctx, opts.AccountID, opts.FromDate, opts.ToDate)
	}()
	go func() {
		defer wg.Done()
		ledgerTxs, ledgerErr = s.ledgerRepo.GetUnmatchedTransactions(ctx, opts.AccountID, opts.FromDate, opts.ToDate)
	}()
	wg.Wait()

	if bankErr != nil {
		return nil, nil, fmt.Errorf("failed to load bank transactions: %w", bankErr)
	}
	if ledgerErr != nil {
		return nil, nil, fmt.Errorf("failed to load ledger transactions: %w", ledgerErr)
	}
	return bankTxs, ledgerTxs, nil
}

// notifyRun delivers the run summary in the background; matching never
// waits on the sink.
func (s *ReconciliationService) notifyRun(result *models.ReconciliationResult) {
	matched := len(result.Matched)
	summary := models.RunSummary{
		MatchedCount:         matched,
		UnmatchedBankCount:   len(result.UnmatchedBank),
		UnmatchedLedgerCount: len(result.UnmatchedLedger),
		DiscrepancyCount:     len(result.Discrepancies),
		HealthScore:          healthScore(matched, matched+len(result.UnmatchedBank), matched+len(result.UnmatchedLedger)),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, summary); err != nil {
			s.logger.Warn("run summary notification failed", "error", err)
		}
	}()
}

// SaveMatches confirms candidates as match records and returns how many
// were newly created. Re-saving the same candidates is a no-op.
func (s *ReconciliationService) SaveMatches(ctx context.Context, candidates []models.MatchCandidate, matchedBy string) (int, error) {
	switch matchedBy {
	case models.MatchedByRule, models.MatchedByAI, models.MatchedByManual:
	default:
		return 0, fmt.Errorf("%w: unknown matched_by %q", ErrInvalidInput, matchedBy)
	}
	for _, c := range candidates {
		if c.BankTransactionID == "" || c.LedgerTransactionID == "" {
			return 0, fmt.Errorf("%w: candidate is missing a transaction id", ErrInvalidInput)
		}
	}
	return s.matchRepo.SaveMatches(ctx, candidates, matchedBy)
}

// Unmatch removes a confirmed pairing. Unmatching a pair that was never
// saved is a no-op, not an error.
func (s *ReconciliationService) Unmatch(ctx context.Context, bankTransactionID, ledgerTransactionID string) error {
	if bankTransactionID == "" || ledgerTransactionID == "" {
		return fmt.Errorf("%w: both transaction ids are required", ErrInvalidInput)
	}
	return s.matchRepo.Unmatch(ctx, bankTransactionID, ledgerTransactionID)
}

func (s *ReconciliationService) applyDefaults(opts models.ReconciliationOptions) models.ReconciliationOptions {
	if opts.DateToleranceDays <= 0 {
		opts.DateToleranceDays = s.defaults.DateToleranceDays
	}
	if opts.AmountTolerance.IsZero() {
		tolerance, err := decimal.NewFromString(s.defaults.AmountTolerance)
		if err != nil {
			tolerance = decimal.NewFromFloat(0.01)
		}
		opts.AmountTolerance = tolerance
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = s.defaults.MinConfidence
	}
	return opts
}

func validateDateRange(fromDate, toDate string) error {
	if fromDate == "" || toDate == "" {
		return fmt.Errorf("%w: from_date and to_date are required", ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", fromDate); err != nil {
		return fmt.Errorf("%w: invalid from_date, use YYYY-MM-DD", ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", toDate); err != nil {
		return fmt.Errorf("%w: invalid to_date, use YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}
