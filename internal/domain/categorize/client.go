// Package categorize assigns categories to extracted transactions, trying a
// remote classification service first and falling back to a deterministic
// keyword cascade when the remote call fails.
package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// defaultConfidence is assumed when the remote service omits a score.
const defaultConfidence = 0.5

// ClientConfig points at the remote classifier.
type ClientConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RatePerSecond  int
	RateBurst      int
}

// Client calls the remote transaction classification service. Calls are rate
// limited so a burst of parsed documents does not overwhelm it.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a classifier client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = perSecond
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

type classifyRequest struct {
	Industry     string         `json:"industry"`
	BusinessName string         `json:"business_name"`
	Transactions []classifyItem `json:"transactions"`
}

type classifyItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	PartyName   string `json:"party_name,omitempty"`
}

type classifyResponse struct {
	Categories []Classification `json:"categories"`
}

// Classification is one classified transaction keyed by its id, so results
// correlate regardless of response ordering.
type Classification struct {
	ID              string  `json:"id"`
	Category        string  `json:"category"`
	SubCategory     string  `json:"sub_category"`
	Confidence      float64 `json:"confidence"`
	IsTaxDeductible bool    `json:"is_tax_deductible"`
}

// Classify sends one batch to the remote service and returns classifications
// keyed by transaction id. Ids the service did not answer for are absent.
func (c *Client) Classify(ctx context.Context, industry, businessName string, txs []*transaction.Transaction) (map[uuid.UUID]Classification, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("classifier rate limit wait: %w", err)
	}

	reqBody := classifyRequest{
		Industry:     industry,
		BusinessName: businessName,
		Transactions: make([]classifyItem, 0, len(txs)),
	}
	for _, tx := range txs {
		reqBody.Transactions = append(reqBody.Transactions, classifyItem{
			ID:          tx.ID.String(),
			Description: tx.Description,
			Amount:      tx.Amount.String(),
			Type:        string(tx.Type),
			PartyName:   tx.PartyName,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/categorize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify request failed with status %d", resp.StatusCode)
	}

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}

	results := make(map[uuid.UUID]Classification, len(body.Categories))
	for _, cat := range body.Categories {
		id, err := uuid.Parse(cat.ID)
		if err != nil {
			c.logger.Warn("classifier returned unknown transaction id", slog.String("id", cat.ID))
			continue
		}
		if cat.Confidence <= 0 {
			cat.Confidence = defaultConfidence
		}
		results[id] = cat
	}
	return results, nil
}
