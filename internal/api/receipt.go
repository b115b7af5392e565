package api

import (
	"net/http"
	"time"

	"iapkit/internal/response"
	"iapkit/pkg/receipt"

	"github.com/gin-gonic/gin"
)

const (
	typeAutoRenewable = "auto_renewable"
	typeNonRenewing   = "non_renewing"
)

// VerifyReceiptRequest represents a raw receipt validation request
type VerifyReceiptRequest struct {
	ReceiptData string `json:"receipt_data" binding:"required"` // Base64 receipt
}

// VerifyReceiptData is returned by VerifyReceipt.
type VerifyReceiptData struct {
	Status  int          `json:"status"`
	Receipt receipt.Info `json:"receipt"`
}

// VerifyReceipt validates a receipt and returns the decoded response.
// POST /api/receipt/verify
func (h *Handler) VerifyReceipt(c *gin.Context) {
	var req VerifyReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request format: "+err.Error())
		return
	}

	info, err := h.receipts.Validate(c.Request.Context(), req.ReceiptData)
	h.record(c, verification{
		endpoint:    "verify",
		receiptData: req.ReceiptData,
		info:        info,
		err:         err,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, VerifyReceiptData{
		Status:  int(info.Status()),
		Receipt: info,
	})
}

// VerifyPurchaseRequest represents a purchase check request
type VerifyPurchaseRequest struct {
	ReceiptData string `json:"receipt_data" binding:"required"`
	ProductID   string `json:"product_id" binding:"required"`
}

// VerifyPurchaseData is returned by VerifyPurchase.
type VerifyPurchaseData struct {
	Verdict string   `json:"verdict"`
	Item    *ItemDTO `json:"item,omitempty"`
}

// VerifyPurchase checks a single product in a receipt.
// POST /api/receipt/purchase
func (h *Handler) VerifyPurchase(c *gin.Context) {
	var req VerifyPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request format: "+err.Error())
		return
	}

	info, result, err := h.receipts.VerifyPurchase(c.Request.Context(), req.ReceiptData, req.ProductID)

	v := verification{
		endpoint:    "purchase",
		receiptData: req.ReceiptData,
		productIDs:  []string{req.ProductID},
		info:        info,
		err:         err,
	}
	data := VerifyPurchaseData{Verdict: result.Verdict.String()}
	if err == nil {
		v.verdict = data.Verdict
		if result.Verdict == receipt.Purchased {
			v.item = &result.Item
			item := newItemDTO(result.Item)
			data.Item = &item
		}
	}
	h.record(c, v)

	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, data)
}

// VerifySubscriptionRequest represents a subscription check request
type VerifySubscriptionRequest struct {
	ReceiptData string   `json:"receipt_data" binding:"required"`
	ProductIDs  []string `json:"product_ids" binding:"required,min=1,dive,required"`
	Type        string   `json:"type" binding:"required,oneof=auto_renewable non_renewing"`

	// ValidDurationSeconds is required for non_renewing subscriptions.
	ValidDurationSeconds int64 `json:"valid_duration_seconds" binding:"omitempty,min=0"`

	// AsOf is used when the receipt carries no request date. Defaults to now.
	AsOf *time.Time `json:"as_of"`
}

// VerifySubscriptionData is returned by VerifySubscription.
type VerifySubscriptionData struct {
	Verdict     string    `json:"verdict"`
	ExpiresDate *string   `json:"expires_date,omitempty"`
	Items       []ItemDTO `json:"items"`
}

// VerifySubscription checks a subscription group in a receipt.
// POST /api/receipt/subscription
func (h *Handler) VerifySubscription(c *gin.Context) {
	var req VerifySubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request format: "+err.Error())
		return
	}

	typ := receipt.AutoRenewable()
	if req.Type == typeNonRenewing {
		if req.ValidDurationSeconds <= 0 {
			response.Fail(c, http.StatusBadRequest, response.CodeBadRequest,
				"valid_duration_seconds is required for non_renewing subscriptions")
			return
		}
		typ = receipt.NonRenewing(time.Duration(req.ValidDurationSeconds) * time.Second)
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	info, result, err := h.receipts.VerifySubscriptions(c.Request.Context(),
		req.ReceiptData, typ, req.ProductIDs, asOf)

	v := verification{
		endpoint:    "subscription",
		receiptData: req.ReceiptData,
		productIDs:  req.ProductIDs,
		info:        info,
		err:         err,
	}
	data := VerifySubscriptionData{
		Verdict: result.Verdict.String(),
		Items:   make([]ItemDTO, 0, len(result.Items)),
	}
	if err == nil {
		v.verdict = data.Verdict
		if result.Verdict != receipt.NotPurchased {
			expires := result.ExpiryDate
			v.expiresDate = &expires
			data.ExpiresDate = formatDate(expires)
			if len(result.Items) > 0 {
				v.item = &result.Items[0]
			}
		}
		for _, item := range result.Items {
			data.Items = append(data.Items, newItemDTO(item))
		}
	}
	h.record(c, v)

	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, data)
}

// PurchasedProductsRequest represents a product listing request
type PurchasedProductsRequest struct {
	ReceiptData string `json:"receipt_data" binding:"required"`
	Type        string `json:"type" binding:"omitempty,oneof=auto_renewable non_renewing"`
}

// PurchasedProductsData is returned by PurchasedProducts.
type PurchasedProductsData struct {
	ProductIDs []string `json:"product_ids"`
}

// PurchasedProducts lists the distinct products found in a receipt. Type
// selects latest_receipt_info (auto_renewable, the default) or in_app.
// POST /api/receipt/products
func (h *Handler) PurchasedProducts(c *gin.Context) {
	var req PurchasedProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request format: "+err.Error())
		return
	}

	typ := receipt.AutoRenewable()
	if req.Type == typeNonRenewing {
		typ = receipt.NonRenewing(0)
	}

	info, ids, err := h.receipts.PurchasedProductIDs(c.Request.Context(), req.ReceiptData, typ)
	h.record(c, verification{
		endpoint:    "products",
		receiptData: req.ReceiptData,
		productIDs:  ids,
		info:        info,
		err:         err,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if ids == nil {
		ids = []string{}
	}
	response.OK(c, PurchasedProductsData{ProductIDs: ids})
}
