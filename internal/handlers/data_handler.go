package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"ledger-reconciler/internal/services"
)

type Ingester interface {
	IngestBankTransactions(ctx context.Context, inputs []services.BankTransactionInput) (*services.IngestionResult, error)
	IngestLedgerTransactions(ctx context.Context, inputs []services.LedgerTransactionInput) (*services.IngestionResult, error)
}

type DataHandler struct {
	service Ingester
}

func NewDataHandler(service Ingester) *DataHandler {
	return &DataHandler{service: service}
}

func (h *DataHandler) IngestBankTransactions(w http.ResponseWriter, r *http.Request) {
	var inputs []services.BankTransactionInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(inputs) == 0 {
		respondWithError(w, http.StatusBadRequest, "No transactions provided")
		return
	}

	result, err := h.service.IngestBankTransactions(r.Context(), inputs)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusPartialContent
	}
	respondWithJSON(w, status, result)
}

func (h *DataHandler) IngestLedgerTransactions(w http.ResponseWriter, r *http.Request) {
	var inputs []services.LedgerTransactionInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(inputs) == 0 {
		respondWithError(w, http.StatusBadRequest, "No transactions provided")
		return
	}

	result, err := h.service.IngestLedgerTransactions(r.Context(), inputs)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusPartialContent
	}
	respondWithJSON(w, status, result)
}
