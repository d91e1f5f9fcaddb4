package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"ledger-reconciler/internal/models"
	"ledger-reconciler/internal/services"
)

// Reconciler is the slice of the reconciliation service the handler needs.
type Reconciler interface {
	MatchTransactions(ctx context.Context, opts models.ReconciliationOptions) (*models.ReconciliationResult, error)
	SaveMatches(ctx context.Context, candidates []models.MatchCandidate, matchedBy string) (int, error)
	Unmatch(ctx context.Context, bankTransactionID, ledgerTransactionID string) error
}

type ReconciliationHandler struct {
	service         Reconciler
	logger          *slog.Logger
	processingMutex sync.Mutex
	activeRuns      map[string]bool
}

func NewReconciliationHandler(service Reconciler, logger *slog.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		service:    service,
		logger:     logger,
		activeRuns: make(map[string]bool),
	}
}

func (h *ReconciliationHandler) MatchTransactions(w http.ResponseWriter, r *http.Request) {
	var opts models.ReconciliationOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	runKey := opts.AccountID + "_" + opts.FromDate + "_" + opts.ToDate

	h.processingMutex.Lock()
	if h.activeRuns[runKey] {
		h.processingMutex.Unlock()
		respondWithError(w, http.StatusConflict, "Reconciliation for this scope is already in progress")
		return
	}
	h.activeRuns[runKey] = true
	h.processingMutex.Unlock()

	defer func() {
		h.processingMutex.Lock()
		delete(h.activeRuns, runKey)
		h.processingMutex.Unlock()
	}()

	result, err := h.service.MatchTransactions(r.Context(), opts)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("matching run failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type saveMatchesRequest struct {
	Candidates []models.MatchCandidate `json:"candidates"`
	MatchedBy  string                  `json:"matched_by"`
}

func (h *ReconciliationHandler) SaveMatches(w http.ResponseWriter, r *http.Request) {
	var request saveMatchesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(request.Candidates) == 0 {
		respondWithError(w, http.StatusBadRequest, "No candidates provided")
		return
	}

	saved, err := h.service.SaveMatches(r.Context(), request.Candidates, request.MatchedBy)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("saving matches failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"saved": saved})
}

type unmatchRequest struct {
	BankTransactionID   string `json:"bank_transaction_id"`
	LedgerTransactionID string `json:"ledger_transaction_id"`
}

func (h *ReconciliationHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	var request unmatchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := h.service.Unmatch(r.Context(), request.BankTransactionID, request.LedgerTransactionID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("unmatch failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Match removed"})
}
