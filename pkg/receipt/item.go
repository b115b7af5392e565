package receipt

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Keys of a single in-app purchase entry.
const (
	keyProductID             = "product_id"
	keyQuantity              = "quantity"
	keyTransactionID         = "transaction_id"
	keyOriginalTransactionID = "original_transaction_id"
	keyPurchaseDateMs        = "purchase_date_ms"
	keyOriginalPurchaseMs    = "original_purchase_date_ms"
	keyWebOrderLineItemID    = "web_order_line_item_id"
	keyExpiresDateMs         = "expires_date_ms"
	keyCancellationDate      = "cancellation_date"
	keyCancellationDateMs    = "cancellation_date_ms"
	keyIsTrialPeriod         = "is_trial_period"
	keyIsInIntroOfferPeriod  = "is_in_intro_offer_period"
	keyIsUpgraded            = "is_upgraded"
)

// Item is the typed projection of one in-app purchase entry of a receipt.
type Item struct {
	ProductID             string
	Quantity              int
	TransactionID         string
	OriginalTransactionID string
	PurchaseDate          time.Time
	OriginalPurchaseDate  time.Time

	// WebOrderLineItemID identifies subscription purchase events across
	// devices, including renewals.
	WebOrderLineItemID fn.Option[string]

	// SubscriptionExpirationDate is only present for auto-renewable
	// subscriptions.
	SubscriptionExpirationDate fn.Option[time.Time]

	// CancellationDate is set when the transaction was refunded by support
	// or the subscription was upgraded.
	CancellationDate fn.Option[time.Time]

	IsTrialPeriod        bool
	IsInIntroOfferPeriod bool
	IsUpgraded           bool
}

// ParseItem builds an Item out of a raw entry. The result carries the reason
// the entry was dropped if any required field is absent or malformed.
func ParseItem(entry map[string]interface{}) fn.Result[Item] {
	productID, ok := stringValue(entry[keyProductID])
	if !ok || productID == "" {
		return fn.Err[Item](missingField(keyProductID))
	}
	quantity, ok := intValue(entry[keyQuantity])
	if !ok {
		return fn.Err[Item](missingField(keyQuantity))
	}
	transactionID, ok := stringValue(entry[keyTransactionID])
	if !ok || transactionID == "" {
		return fn.Err[Item](missingField(keyTransactionID))
	}
	originalTransactionID, ok := stringValue(entry[keyOriginalTransactionID])
	if !ok || originalTransactionID == "" {
		return fn.Err[Item](missingField(keyOriginalTransactionID))
	}
	purchaseDate, ok := msDate(entry[keyPurchaseDateMs])
	if !ok {
		return fn.Err[Item](missingField(keyPurchaseDateMs))
	}
	originalPurchaseDate, ok := msDate(entry[keyOriginalPurchaseMs])
	if !ok {
		return fn.Err[Item](missingField(keyOriginalPurchaseMs))
	}

	item := Item{
		ProductID:                  productID,
		Quantity:                   quantity,
		TransactionID:              transactionID,
		OriginalTransactionID:      originalTransactionID,
		PurchaseDate:               purchaseDate,
		OriginalPurchaseDate:       originalPurchaseDate,
		WebOrderLineItemID:         fn.None[string](),
		SubscriptionExpirationDate: fn.None[time.Time](),
		CancellationDate:           fn.None[time.Time](),
		IsTrialPeriod:              boolValue(entry[keyIsTrialPeriod]),
		IsInIntroOfferPeriod:       boolValue(entry[keyIsInIntroOfferPeriod]),
		IsUpgraded:                 boolValue(entry[keyIsUpgraded]),
	}
	if id, ok := stringValue(entry[keyWebOrderLineItemID]); ok && id != "" {
		item.WebOrderLineItemID = fn.Some(id)
	}
	if expires, ok := msDate(entry[keyExpiresDateMs]); ok {
		item.SubscriptionExpirationDate = fn.Some(expires)
	}
	if cancelled, ok := msDate(entry[keyCancellationDateMs]); ok {
		item.CancellationDate = fn.Some(cancelled)
	}

	return fn.Ok(item)
}

// ParseItems parses every entry, in order, silently excluding the ones that
// fail validation.
func ParseItems(entries []map[string]interface{}) []Item {
	items := make([]Item, 0, len(entries))
	for i, entry := range entries {
		item, err := ParseItem(entry).Unpack()
		if err != nil {
			log.Debugf("Dropping receipt entry %d: %v", i, err)
			continue
		}
		items = append(items, item)
	}
	return items
}

func missingField(key string) error {
	return fmt.Errorf("missing or malformed %q", key)
}

// isCancelled reports whether the raw entry carries a cancellation date.
func isCancelled(entry map[string]interface{}) bool {
	for _, key := range []string{keyCancellationDate, keyCancellationDateMs} {
		if v, ok := entry[key]; ok && v != nil {
			if s, isString := v.(string); isString && s == "" {
				continue
			}
			return true
		}
	}
	return false
}
