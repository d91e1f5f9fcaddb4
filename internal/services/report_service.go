package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"ledger-reconciler/internal/models"
)

// GenerateReport re-derives the matched and unmatched counts for the period
// directly from the store; it never re-runs the assignment engine. The
// report is persisted before being returned.
func (s *ReconciliationService) GenerateReport(ctx context.Context, accountID, periodStart, periodEnd string) (*models.ReconciliationReport, error) {
	if err := validateDateRange(periodStart, periodEnd); err != nil {
		return nil, err
	}

	totalBank, matchedBank, err := s.bankRepo.CountInRange(ctx, accountID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count bank transactions: %w", err)
	}
	totalLedger, matchedLedger, err := s.ledgerRepo.CountInRange(ctx, accountID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger transactions: %w", err)
	}

	records, err := s.matchRepo.ListMatchesInRange(ctx, accountID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	discrepancies := 0
	for _, r := range records {
		if r.Metadata.AmountDifference != "" || r.Metadata.DateDifference > 0 {
			discrepancies++
		}
	}

	unmatchedBank := totalBank - matchedBank
	unmatchedLedger := totalLedger - matchedLedger

	report := &models.ReconciliationReport{
		ReportID:         uuid.New().String(),
		AccountID:        accountID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		TotalBank:        totalBank,
		TotalLedger:      totalLedger,
		MatchedCount:     matchedBank,
		UnmatchedBank:    unmatchedBank,
		UnmatchedLedger:  unmatchedLedger,
		DiscrepancyCount: discrepancies,
		HealthScore:      healthScore(matchedBank, totalBank, totalLedger),
		Status:           reportStatus(totalBank, totalLedger, unmatchedBank, unmatchedLedger),
	}

	if err := s.reportRepo.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return report, nil
}

// GetReport retrieves a persisted report. Absence surfaces as
// repositories.ErrNotFound.
func (s *ReconciliationService) GetReport(ctx context.Context, reportID string) (*models.ReconciliationReport, error) {
	if reportID == "" {
		return nil, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}
	return s.reportRepo.GetReportByID(ctx, reportID)
}

// healthScore is the matched share of the larger side, as a rounded
// percentage. An empty window scores 100.
func healthScore(matched, totalBank, totalLedger int) int {
	total := totalBank
	if totalLedger > total {
		total = totalLedger
	}
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(matched) / float64(total) * 100))
}

func reportStatus(totalBank, totalLedger, unmatchedBank, unmatchedLedger int) string {
	if totalBank == 0 && totalLedger == 0 {
		return models.ReportStatusPending
	}
	if unmatchedBank == 0 && unmatchedLedger == 0 {
		return models.ReportStatusCompleted
	}
	return models.ReportStatusUnmatched
}
