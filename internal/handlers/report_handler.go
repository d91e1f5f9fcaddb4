package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"ledger-reconciler/internal/models"
	"ledger-reconciler/internal/repositories"
	"ledger-reconciler/internal/services"
)

type Reporter interface {
	GenerateReport(ctx context.Context, accountID, periodStart, periodEnd string) (*models.ReconciliationReport, error)
	GetReport(ctx context.Context, reportID string) (*models.ReconciliationReport, error)
}

type ReportHandler struct {
	service Reporter
}

func NewReportHandler(service Reporter) *ReportHandler {
	return &ReportHandler{service: service}
}

type generateReportRequest struct {
	AccountID   string `json:"account_id,omitempty"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var request generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	report, err := h.service.GenerateReport(r.Context(), request.AccountID, request.PeriodStart, request.PeriodEnd)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	report, err := h.service.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Report not found")
			return
		}
		if errors.Is(err, services.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
