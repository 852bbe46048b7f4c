package paystack

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

const ProviderName = "paystack"

const StatusSuccess = "success"

// Transaction is the fixed-shape form of a provider verification response.
// The external JSON is parsed into it immediately on receipt so nothing past
// this boundary handles loosely-typed provider data.
type Transaction struct {
	Reference string
	Status    string
	// Amount is in the smallest currency unit (kobo for NGN).
	Amount   int64
	Currency string
	PaidAt   time.Time
}

type Client struct {
	log        logger.Log
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(log logger.Log, baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		log:       log,
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		PaidAt    string `json:"paid_at"`
	} `json:"data"`
}

// VerifyTransaction asks the provider whether money was actually received for
// reference. The call is read-only and bounded by the client timeout; it is
// never retried here — a timeout or transport failure is surfaced as a
// retryable-later error for the caller to act on.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, app_errors.ErrProviderTimeout
		}
		return nil, fmt.Errorf("%w: %s", app_errors.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("provider verify returned non-2xx", "status", resp.StatusCode, "reference", reference)
		return nil, fmt.Errorf("%w: status %d", app_errors.ErrProviderUnreachable, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %s", app_errors.ErrProviderUnreachable, err)
	}

	if !body.Status {
		// The provider answered but does not know a successful transaction
		// by this reference. Not retryable.
		return nil, fmt.Errorf("%w: %s", app_errors.ErrPaymentRejected, body.Message)
	}
	if body.Data.Reference == "" || body.Data.Status == "" {
		return nil, fmt.Errorf("%w: response missing reference or status", app_errors.ErrProviderUnreachable)
	}

	tx := &Transaction{
		Reference: body.Data.Reference,
		Status:    body.Data.Status,
		Amount:    body.Data.Amount,
		Currency:  body.Data.Currency,
	}
	if body.Data.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, body.Data.PaidAt); err == nil {
			tx.PaidAt = paidAt
		}
	}

	if tx.Status != StatusSuccess {
		return nil, fmt.Errorf("%w: transaction status %q", app_errors.ErrPaymentRejected, tx.Status)
	}

	return tx, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
