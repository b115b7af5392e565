package api

import (
	"time"

	"iapkit/pkg/receipt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ItemDTO is the JSON form of a receipt item. Dates are RFC 3339 in UTC.
type ItemDTO struct {
	ProductID                  string  `json:"product_id"`
	Quantity                   int     `json:"quantity"`
	TransactionID              string  `json:"transaction_id"`
	OriginalTransactionID      string  `json:"original_transaction_id"`
	PurchaseDate               string  `json:"purchase_date"`
	OriginalPurchaseDate       string  `json:"original_purchase_date"`
	WebOrderLineItemID         *string `json:"web_order_line_item_id,omitempty"`
	SubscriptionExpirationDate *string `json:"subscription_expiration_date,omitempty"`
	CancellationDate           *string `json:"cancellation_date,omitempty"`
	IsTrialPeriod              bool    `json:"is_trial_period"`
	IsInIntroOfferPeriod       bool    `json:"is_in_intro_offer_period"`
	IsUpgraded                 bool    `json:"is_upgraded"`
}

func newItemDTO(item receipt.Item) ItemDTO {
	return ItemDTO{
		ProductID:                  item.ProductID,
		Quantity:                   item.Quantity,
		TransactionID:              item.TransactionID,
		OriginalTransactionID:      item.OriginalTransactionID,
		PurchaseDate:               item.PurchaseDate.UTC().Format(time.RFC3339),
		OriginalPurchaseDate:       item.OriginalPurchaseDate.UTC().Format(time.RFC3339),
		WebOrderLineItemID:         optionalString(item.WebOrderLineItemID),
		SubscriptionExpirationDate: optionalDate(item.SubscriptionExpirationDate),
		CancellationDate:           optionalDate(item.CancellationDate),
		IsTrialPeriod:              item.IsTrialPeriod,
		IsInIntroOfferPeriod:       item.IsInIntroOfferPeriod,
		IsUpgraded:                 item.IsUpgraded,
	}
}

func optionalString(o fn.Option[string]) *string {
	if o.IsNone() {
		return nil
	}
	s := o.UnwrapOr("")
	return &s
}

func optionalDate(o fn.Option[time.Time]) *string {
	if o.IsNone() {
		return nil
	}
	return formatDate(o.UnwrapOr(time.Time{}))
}

func formatDate(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339)
	return &s
}
