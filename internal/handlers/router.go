package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/enhance"
	"ledger-reconciler/internal/notify"
	"ledger-reconciler/internal/repositories"
	"ledger-reconciler/internal/services"
)

func SetupRouter(db *sql.DB, cfg *config.Config, logger *slog.Logger) *mux.Router {
	bankRepo := repositories.NewBankRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	matchRepo := repositories.NewMatchRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	var enhancer enhance.Enhancer
	if cfg.OpenAI.APIKey != "" {
		enhancer = enhance.NewOpenAIEnhancer(cfg.OpenAI, logger)
	}

	var notifier notify.Sink = notify.NoopSink{}
	if cfg.Notification.WebhookURL != "" {
		notifier = notify.NewWebhookSink(cfg.Notification.WebhookURL)
	}

	reconciliationService := services.NewReconciliationService(
		bankRepo, ledgerRepo, matchRepo, reportRepo,
		enhancer, notifier, cfg.Matching, logger,
	)
	ingestionService := services.NewIngestionService(db, bankRepo, ledgerRepo, logger)

	reconciliationHandler := NewReconciliationHandler(reconciliationService, logger)
	reportHandler := NewReportHandler(reconciliationService)
	dataHandler := NewDataHandler(ingestionService)

	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware(logger))
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/reconciliation/match", reconciliationHandler.MatchTransactions).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/matches", reconciliationHandler.SaveMatches).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/matches", reconciliationHandler.Unmatch).Methods(http.MethodDelete)
	api.HandleFunc("/reports", reportHandler.GenerateReport).Methods(http.MethodPost)
	api.HandleFunc("/reports/{report_id}", reportHandler.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/transactions/bank", dataHandler.IngestBankTransactions).Methods(http.MethodPost)
	api.HandleFunc("/transactions/ledger", dataHandler.IngestLedgerTransactions).Methods(http.MethodPost)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
