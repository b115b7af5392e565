package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"iapkit/internal/middleware"
	"iapkit/internal/models"
	"iapkit/internal/services"
	"iapkit/pkg/logging"
	"iapkit/pkg/receipt"

	"github.com/gin-gonic/gin"
)

// ReceiptVerifier validates receipts and evaluates purchases in them.
type ReceiptVerifier interface {
	Validate(ctx context.Context, receiptData string) (receipt.Info, error)
	VerifyPurchase(ctx context.Context, receiptData, productID string) (receipt.Info, receipt.VerifyPurchaseResult, error)
	VerifySubscriptions(ctx context.Context, receiptData string, typ receipt.SubscriptionType, productIDs []string, asOf time.Time) (receipt.Info, receipt.VerifySubscriptionResult, error)
	PurchasedProductIDs(ctx context.Context, receiptData string, typ receipt.SubscriptionType) (receipt.Info, []string, error)
}

// Handler serves the receipt API.
type Handler struct {
	receipts ReceiptVerifier
	audit    services.AuditLogger
	notifier services.Notifier
	dedup    *services.NotificationDeduper

	// ping checks the backing stores for /health. Optional.
	ping func(ctx context.Context) error
}

// HandlerConfig carries the dependencies of a Handler. Only Receipts is
// required.
type HandlerConfig struct {
	Receipts ReceiptVerifier
	Audit    services.AuditLogger
	Notifier services.Notifier
	Dedup    *services.NotificationDeduper
	Ping     func(ctx context.Context) error
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		receipts: cfg.Receipts,
		audit:    cfg.Audit,
		notifier: cfg.Notifier,
		dedup:    cfg.Dedup,
		ping:     cfg.Ping,
	}
}

// verification collects what one request did, for the audit log and the
// webhook.
type verification struct {
	endpoint    string
	receiptData string
	productIDs  []string
	info        receipt.Info
	verdict     string
	item        *receipt.Item
	expiresDate *time.Time
	err         error
}

// record writes the audit entry and, for successful verifications, notifies
// the app backend.
func (h *Handler) record(c *gin.Context, v verification) {
	requestID := middleware.GetRequestID(c)
	hash := services.ReceiptHash(v.receiptData)

	status := int(receipt.StatusNone)
	if v.info != nil {
		status = int(v.info.Status())
	}
	if invalid, ok := asReceiptInvalid(v.err); ok {
		status = int(invalid.Status)
	}

	if h.audit != nil {
		entry := &models.VerificationLog{
			RequestID:   requestID,
			Endpoint:    v.endpoint,
			ReceiptHash: hash,
			ProductIDs:  strings.Join(v.productIDs, ","),
			Status:      status,
			Verdict:     v.verdict,
			ExpiresDate: v.expiresDate,
			Success:     v.err == nil,
			IPAddress:   c.ClientIP(),
			UserAgent:   c.GetHeader("User-Agent"),
			RequestTime: requestTime(c),
		}
		if v.err != nil {
			entry.ErrorMsg = v.err.Error()
		}
		if err := h.audit.LogVerification(c.Request.Context(), entry); err != nil {
			logging.Errorf("Failed to record verification %s: %v", requestID, err)
		}
	}

	if v.err != nil || h.notifier == nil {
		return
	}

	payload := services.WebhookPayload{
		Event:       "receipt.verified",
		RequestID:   requestID,
		Endpoint:    v.endpoint,
		ReceiptHash: hash,
		ProductIDs:  v.productIDs,
		Verdict:     v.verdict,
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if v.item != nil {
		payload.TransactionID = v.item.TransactionID
		payload.OriginalTransactionID = v.item.OriginalTransactionID
	}
	if v.expiresDate != nil {
		payload.ExpiresDate = v.expiresDate.UTC().Format(time.RFC3339)
	}
	if h.dedup != nil && !h.dedup.ShouldNotify(payload) {
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go h.notifier.Notify(ctx, payload)
}

func requestTime(c *gin.Context) time.Time {
	if t, ok := c.Get("request_time"); ok {
		if rt, ok := t.(time.Time); ok {
			return rt
		}
	}
	return time.Now()
}

// Health reports whether the service and its stores are reachable.
func (h *Handler) Health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": "iapkit",
				"error":   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "iapkit",
	})
}
