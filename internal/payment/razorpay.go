package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cafehub/internal/apperr"
)

// Client talks to the Razorpay-compatible payment gateway. The gateway
// collects the payment client-side; the backend only creates gateway
// orders and verifies confirmation signatures.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewClient(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewayOrderRequest struct {
	Amount   int64  `json:"amount"` // smallest currency unit (paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type gatewayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder registers an order with the gateway and returns the
// gateway order id the storefront uses for checkout.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(gatewayOrderRequest{
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal gateway order: %w", err)
	}

	url := fmt.Sprintf("%s/v1/orders", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: payment gateway: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: gateway status %d, body: %s", apperr.ErrUpstream, resp.StatusCode, string(b))
	}

	var res gatewayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}

	return res.ID, nil
}

// VerifySignature checks the checkout confirmation the client posts
// back: HMAC-SHA256 of "<gatewayOrderID>|<paymentID>" under the key
// secret, hex encoded. Comparison is constant time.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
