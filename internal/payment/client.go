package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// DefaultBaseURL is the live Paystack API host.
const DefaultBaseURL = "https://api.paystack.co"

// GatewayTransaction is the verified state of one gateway transaction.
// Amount is in major currency units; the gateway reports minor units.
type GatewayTransaction struct {
	Reference string
	Status    string
	Amount    float64
	Gateway   string
	Currency  string
}

// Client calls the Paystack verification API.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewClient(baseURL, secret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// verifyEnvelope is the gateway's response shape for GET /transaction/verify.
type verifyEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Gateway   string `json:"gateway"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// VerifyTransaction looks up a transaction by reference. Transport failures
// and non-2xx replies wrap sentinel.ErrUnavailable so callers can
// distinguish gateway trouble from a declined payment.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*GatewayTransaction, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call paystack: %v: %w", err, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paystack replied %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var envelope verifyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode paystack response: %v: %w", err, sentinel.ErrUnavailable)
	}
	if !envelope.Status {
		return nil, fmt.Errorf("paystack rejected verify: %s: %w", envelope.Message, sentinel.ErrUnavailable)
	}

	gateway := envelope.Data.Gateway
	if gateway == "" {
		gateway = "Paystack"
	}
	return &GatewayTransaction{
		Reference: envelope.Data.Reference,
		Status:    envelope.Data.Status,
		// Paystack reports minor units (pesewas / kobo).
		Amount:   float64(envelope.Data.Amount) / 100,
		Gateway:  gateway,
		Currency: envelope.Data.Currency,
	}, nil
}
