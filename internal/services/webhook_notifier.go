package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"iapkit/pkg/logging"

	"github.com/go-resty/resty/v2"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-IAPKit-Signature"

// Notifier delivers verification events to the app backend.
type Notifier interface {
	Notify(ctx context.Context, payload WebhookPayload)
}

// WebhookNotifier handles webhook notifications to App Backend
type WebhookNotifier struct {
	client      *resty.Client
	callbackURL string
	secret      string
	retryDelays []time.Duration
}

// NewWebhookNotifier creates a new webhook notifier
func NewWebhookNotifier(callbackURL, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		client:      resty.New().SetTimeout(10 * time.Second),
		callbackURL: callbackURL,
		secret:      secret,
		retryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// WebhookPayload represents the payload sent to App Backend
type WebhookPayload struct {
	Event                 string   `json:"event"` // receipt.verified
	RequestID             string   `json:"request_id"`
	Endpoint              string   `json:"endpoint"`
	ReceiptHash           string   `json:"receipt_hash"`
	ProductIDs            []string `json:"product_ids,omitempty"`
	Verdict               string   `json:"verdict,omitempty"`
	TransactionID         string   `json:"transaction_id,omitempty"`
	OriginalTransactionID string   `json:"original_transaction_id,omitempty"`
	ExpiresDate           string   `json:"expires_date,omitempty"` // ISO 8601 format
	Status                int      `json:"status"`
	Timestamp             string   `json:"timestamp"` // ISO 8601 format
}

// Notify sends the payload, retrying on failure. It blocks until the payload
// was delivered, retries are exhausted or ctx is done, so callers normally
// run it on its own goroutine.
func (wn *WebhookNotifier) Notify(ctx context.Context, payload WebhookPayload) {
	if wn.callbackURL == "" {
		// No webhook configured, skip
		return
	}
	if payload.Event == "" {
		payload.Event = "receipt.verified"
	}
	if payload.Timestamp == "" {
		payload.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	wn.sendWithRetry(ctx, payload)
}

// sendWithRetry sends webhook with retry mechanism
func (wn *WebhookNotifier) sendWithRetry(ctx context.Context, payload WebhookPayload) bool {
	maxRetries := len(wn.retryDelays)

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := wn.sendWebhook(ctx, payload)
		if err == nil {
			logging.Infof("Webhook notification sent successfully - url: %s, request: %s, attempt: %d",
				wn.callbackURL, payload.RequestID, attempt+1)
			return true
		}

		logging.Errorf("Webhook notification failed - url: %s, request: %s, attempt: %d, error: %v",
			wn.callbackURL, payload.RequestID, attempt+1, err)

		// If not the last attempt, wait before retry
		if attempt < maxRetries-1 {
			select {
			case <-time.After(wn.retryDelays[attempt]):
			case <-ctx.Done():
				return false
			}
		}
	}

	logging.Errorf("Webhook notification failed after %d attempts - url: %s, request: %s",
		maxRetries, wn.callbackURL, payload.RequestID)
	return false
}

// sendWebhook sends a single webhook request
func (wn *WebhookNotifier) sendWebhook(ctx context.Context, payload WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req := wn.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "IAPKit-Webhook/1.0").
		SetBody(jsonData)

	// Add signature if secret is provided
	if wn.secret != "" {
		req.SetHeader(SignatureHeader, GenerateSignature(jsonData, wn.secret))
	}

	resp, err := req.Post(wn.callbackURL)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	return nil
}

// GenerateSignature generates HMAC-SHA256 signature for webhook payload
func GenerateSignature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
