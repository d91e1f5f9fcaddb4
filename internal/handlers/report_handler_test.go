package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-reconciler/internal/models"
	"ledger-reconciler/internal/repositories"
	"ledger-reconciler/internal/services"
)

type stubReporter struct {
	report *models.ReconciliationReport
	err    error
}

func (s *stubReporter) GenerateReport(_ context.Context, accountID, periodStart, periodEnd string) (*models.ReconciliationReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubReporter) GetReport(_ context.Context, reportID string) (*models.ReconciliationReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func newReportRouter(stub *stubReporter) *mux.Router {
	handler := NewReportHandler(stub)
	router := mux.NewRouter()
	router.HandleFunc("/reports", handler.GenerateReport).Methods(http.MethodPost)
	router.HandleFunc("/reports/{report_id}", handler.GetReport).Methods(http.MethodGet)
	return router
}

func TestGenerateReportHandler(t *testing.T) {
	stub := &stubReporter{report: &models.ReconciliationReport{
		ReportID: "r-1", HealthScore: 90, Status: models.ReportStatusUnmatched,
	}}
	router := newReportRouter(stub)

	body := strings.NewReader(`{"period_start": "2024-01-01", "period_end": "2024-01-31"}`)
	request := httptest.NewRequest(http.MethodPost, "/reports", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"report_id":"r-1"`)
}

func TestGenerateReportHandlerValidation(t *testing.T) {
	stub := &stubReporter{err: fmt.Errorf("%w: from_date and to_date are required", services.ErrInvalidInput)}
	router := newReportRouter(stub)

	request := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetReportHandlerNotFound(t *testing.T) {
	stub := &stubReporter{err: repositories.ErrNotFound}
	router := newReportRouter(stub)

	request := httptest.NewRequest(http.MethodGet, "/reports/missing", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Report not found")
}
