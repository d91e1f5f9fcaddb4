package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"ledger-reconciler/internal/models"
	"ledger-reconciler/internal/services"
)

type stubReconciler struct {
	result  *models.ReconciliationResult
	saved   int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (s *stubReconciler) MatchTransactions(_ context.Context, opts models.ReconciliationOptions) (*models.ReconciliationResult, error) {
	if s.entered != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubReconciler) SaveMatches(_ context.Context, candidates []models.MatchCandidate, matchedBy string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.saved, nil
}

func (s *stubReconciler) Unmatch(_ context.Context, bankID, ledgerID string) error {
	return s.err
}

func newReconciliationRouter(stub *stubReconciler) *mux.Router {
	handler := NewReconciliationHandler(stub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := mux.NewRouter()
	router.HandleFunc("/reconciliation/match", handler.MatchTransactions).Methods(http.MethodPost)
	router.HandleFunc("/reconciliation/matches", handler.SaveMatches).Methods(http.MethodPost)
	router.HandleFunc("/reconciliation/matches", handler.Unmatch).Methods(http.MethodDelete)
	return router
}

func TestMatchTransactionsHandler(t *testing.T) {
	stub := &stubReconciler{result: &models.ReconciliationResult{
		Matched:         []models.MatchCandidate{},
		UnmatchedBank:   []string{"B-1"},
		UnmatchedLedger: []string{},
		Discrepancies:   []models.MatchCandidate{},
	}}
	router := newReconciliationRouter(stub)

	body := strings.NewReader(`{"from_date": "2024-01-01", "to_date": "2024-01-31"}`)
	request := httptest.NewRequest(http.MethodPost, "/reconciliation/match", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"unmatched_bank":["B-1"]`)
}

func TestMatchTransactionsHandlerBadPayload(t *testing.T) {
	router := newReconciliationRouter(&stubReconciler{})

	request := httptest.NewRequest(http.MethodPost, "/reconciliation/match", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMatchTransactionsHandlerValidationError(t *testing.T) {
	stub := &stubReconciler{err: fmt.Errorf("%w: from_date and to_date are required", services.ErrInvalidInput)}
	router := newReconciliationRouter(stub)

	request := httptest.NewRequest(http.MethodPost, "/reconciliation/match", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMatchTransactionsHandlerConflictOnDuplicateRun(t *testing.T) {
	stub := &stubReconciler{
		result:  &models.ReconciliationResult{},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	router := newReconciliationRouter(stub)

	payload := `{"from_date": "2024-01-01", "to_date": "2024-01-31"}`
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/reconciliation/match", strings.NewReader(payload)))
	}()

	// The conflict is only observable once the first run holds the scope.
	select {
	case <-stub.entered:
	case <-time.After(time.Second):
		t.Fatal("first run never reached the service")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/reconciliation/match", strings.NewReader(payload)))
	assert.Equal(t, http.StatusConflict, recorder.Code)

	close(stub.release)
	<-firstDone
}

func TestSaveMatchesHandler(t *testing.T) {
	stub := &stubReconciler{saved: 2}
	router := newReconciliationRouter(stub)

	body := strings.NewReader(`{"candidates": [{"bank_transaction_id": "B-1", "ledger_transaction_id": "L-1"}], "matched_by": "manual"}`)
	request := httptest.NewRequest(http.MethodPost, "/reconciliation/matches", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"saved":2`)
}

func TestSaveMatchesHandlerEmptyCandidates(t *testing.T) {
	router := newReconciliationRouter(&stubReconciler{})

	body := strings.NewReader(`{"candidates": [], "matched_by": "manual"}`)
	request := httptest.NewRequest(http.MethodPost, "/reconciliation/matches", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUnmatchHandler(t *testing.T) {
	router := newReconciliationRouter(&stubReconciler{})

	body := strings.NewReader(`{"bank_transaction_id": "B-1", "ledger_transaction_id": "L-1"}`)
	request := httptest.NewRequest(http.MethodDelete, "/reconciliation/matches", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}
