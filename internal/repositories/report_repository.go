package repositories

import (
	"context"
	"database/sql"

	"ledger-reconciler/internal/models"
)

type ReportRepository interface {
	InsertReport(ctx context.Context, report *models.ReconciliationReport) error
	GetReportByID(ctx context.Context, reportID string) (*models.ReconciliationReport, error)
}

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// InsertReport appends a report. Reports are never updated in place.
func (r *reportRepository) InsertReport(ctx context.Context, report *models.ReconciliationReport) error {
	query := `
		INSERT INTO reconciliation_reports (
			report_id, account_id, period_start, period_end,
			total_bank, total_ledger, matched_count,
			unmatched_bank, unmatched_ledger, discrepancy_count,
			health_score, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		report.ReportID,
		report.AccountID,
		report.PeriodStart,
		report.PeriodEnd,
		report.TotalBank,
		report.TotalLedger,
		report.MatchedCount,
		report.UnmatchedBank,
		report.UnmatchedLedger,
		report.DiscrepancyCount,
		report.HealthScore,
		report.Status,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	report.ID = id
	return nil
}

func (r *reportRepository) GetReportByID(ctx context.Context, reportID string) (*models.ReconciliationReport, error) {
	query := `
		SELECT id, report_id, account_id, period_start, period_end,
		       total_bank, total_ledger, matched_count,
		       unmatched_bank, unmatched_ledger, discrepancy_count,
		       health_score, status, created_at
		FROM reconciliation_reports
		WHERE report_id = ?
	`
	var report models.ReconciliationReport
	err := r.db.QueryRowContext(ctx, query, reportID).Scan(
		&report.ID,
		&report.ReportID,
		&report.AccountID,
		&report.PeriodStart,
		&report.PeriodEnd,
		&report.TotalBank,
		&report.TotalLedger,
		&report.MatchedCount,
		&report.UnmatchedBank,
		&report.UnmatchedLedger,
		&report.DiscrepancyCount,
		&report.HealthScore,
		&report.Status,
		&report.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
