package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/models"
)

const (
	defaultBatchSize  = 5
	defaultBatchDelay = 1 * time.Second
	requestTimeout    = 30 * time.Second
)

// OpenAIEnhancer adjusts candidate confidences through the OpenAI chat
// completion API. Candidates are sent in small batches with a delay between
// batches to stay inside rate limits; a failed batch keeps its rule-based
// scores and does not stop later batches.
type OpenAIEnhancer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	batchSize  int
	batchDelay time.Duration
	logger     *slog.Logger
}

func NewOpenAIEnhancer(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAIEnhancer {
	return &OpenAIEnhancer{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: "https://api.openai.com/v1",
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		batchSize:  defaultBatchSize,
		batchDelay: defaultBatchDelay,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type pairReview struct {
	BankTransactionID   string  `json:"bank_transaction_id"`
	LedgerTransactionID string  `json:"ledger_transaction_id"`
	Confidence          float64 `json:"confidence"`
	Reason              string  `json:"reason,omitempty"`
}

const systemPrompt = `You review pairs of bank and ledger transactions that a rule engine ` +
	`already matched. For each pair, return an adjusted confidence between 0 and 1 ` +
	`and a short reason. Respond with a JSON array of objects with keys ` +
	`bank_transaction_id, ledger_transaction_id, confidence, reason. No other text.`

// Enhance processes candidates in batches. It returns an error only when
// the context is done; per-batch failures are logged and the affected
// candidates keep their original scores.
func (e *OpenAIEnhancer) Enhance(ctx context.Context, candidates []models.MatchCandidate, bankTxs []models.BankTransaction, ledgerTxs []models.LedgerTransaction) ([]models.MatchCandidate, error) {
	out := make([]models.MatchCandidate, len(candidates))
	copy(out, candidates)

	bankByID := make(map[string]models.BankTransaction, len(bankTxs))
	for _, bt := range bankTxs {
		bankByID[bt.ID] = bt
	}
	ledgerByID := make(map[string]models.LedgerTransaction, len(ledgerTxs))
	for _, lt := range ledgerTxs {
		ledgerByID[lt.ID] = lt
	}

	for start := 0; start < len(out); start += e.batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(e.batchDelay):
			}
		}

		end := start + e.batchSize
		if end > len(out) {
			end = len(out)
		}

		if err := e.enhanceBatch(ctx, out[start:end], bankByID, ledgerByID); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			e.logger.Warn("enhancement batch failed, keeping rule-based scores",
				"batch_start", start, "batch_end", end, "error", err)
		}
	}

	return out, nil
}

// enhanceBatch mutates the batch slice in place on success.
func (e *OpenAIEnhancer) enhanceBatch(ctx context.Context, batch []models.MatchCandidate, bankByID map[string]models.BankTransaction, ledgerByID map[string]models.LedgerTransaction) error {
	type pairContext struct {
		Candidate models.MatchCandidate    `json:"candidate"`
		Bank      models.BankTransaction   `json:"bank_transaction"`
		Ledger    models.LedgerTransaction `json:"ledger_transaction"`
	}

	pairs := make([]pairContext, 0, len(batch))
	for _, c := range batch {
		pairs = append(pairs, pairContext{
			Candidate: c,
			Bank:      bankByID[c.BankTransactionID],
			Ledger:    ledgerByID[c.LedgerTransactionID],
		})
	}

	userContent, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("failed to marshal pairs: %w", err)
	}

	request := chatCompletionRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userContent)},
		},
		Temperature: 0.1,
	}

	response, err := e.createChatCompletion(ctx, request)
	if err != nil {
		return err
	}
	if len(response.Choices) == 0 {
		return fmt.Errorf("empty completion response")
	}

	var reviews []pairReview
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &reviews); err != nil {
		return fmt.Errorf("failed to parse completion content: %w", err)
	}

	reviewByPair := make(map[string]pairReview, len(reviews))
	for _, r := range reviews {
		reviewByPair[r.BankTransactionID+"|"+r.LedgerTransactionID] = r
	}

	for i, c := range batch {
		review, ok := reviewByPair[c.BankTransactionID+"|"+c.LedgerTransactionID]
		if !ok {
			continue
		}
		confidence := review.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		batch[i].Confidence = confidence
		if review.Reason != "" {
			batch[i].Reasons = append(batch[i].Reasons, "AI: "+review.Reason)
		}
	}
	return nil
}

func (e *OpenAIEnhancer) createChatCompletion(ctx context.Context, request chatCompletionRequest) (*chatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("OpenAI API error: %s (type: %s)", errorResp.Error.Message, errorResp.Error.Type)
		}
		return nil, fmt.Errorf("OpenAI API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &response, nil
}
