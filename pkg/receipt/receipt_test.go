package receipt

import (
	"strconv"
	"time"
)

var refDate = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func ms(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// entry builds a raw in-app purchase entry the way the validation endpoint
// returns it: every scalar as a string.
func entry(productID, transactionID string, purchase time.Time) map[string]interface{} {
	return map[string]interface{}{
		"product_id":                productID,
		"quantity":                  "1",
		"transaction_id":            transactionID,
		"original_transaction_id":   "orig-" + transactionID,
		"purchase_date_ms":          ms(purchase),
		"original_purchase_date_ms": ms(purchase),
	}
}

func withExpiry(e map[string]interface{}, expires time.Time) map[string]interface{} {
	e["expires_date_ms"] = ms(expires)
	return e
}

func cancelled(e map[string]interface{}) map[string]interface{} {
	e["cancellation_date"] = "2024-02-01 10:00:00 Etc/GMT"
	e["cancellation_date_ms"] = ms(refDate.Add(-time.Hour))
	return e
}

func list(entries ...map[string]interface{}) []interface{} {
	result := make([]interface{}, len(entries))
	for i, e := range entries {
		result[i] = e
	}
	return result
}

// receiptInfo builds a decoded response. A zero requestDate leaves the
// request date out of the receipt.
func receiptInfo(inApp, latest []interface{}, requestDate time.Time) Info {
	receipt := map[string]interface{}{
		"bundle_id": "com.example.app",
		"in_app":    inApp,
	}
	if !requestDate.IsZero() {
		receipt["request_date_ms"] = ms(requestDate)
	}
	info := Info{
		"status":  float64(0),
		"receipt": receipt,
	}
	if latest != nil {
		info["latest_receipt_info"] = latest
	}
	return info
}
