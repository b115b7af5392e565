package receipt

import (
	"encoding/json"
	"strconv"
	"time"
)

// Keys of the decoded verifyReceipt response.
const (
	keyStatus            = "status"
	keyReceipt           = "receipt"
	keyInApp             = "in_app"
	keyLatestReceiptInfo = "latest_receipt_info"
	keyRequestDateMs     = "request_date_ms"
)

// Info is a decoded receipt as returned by the validation endpoint. Values are
// loosely typed: nested objects are map[string]interface{}, lists are
// []interface{} and most scalars are strings.
type Info map[string]interface{}

// Status returns the numeric status embedded in the response, or StatusNone if
// the response carries no status at all.
func (i Info) Status() ReceiptStatus {
	v, ok := i[keyStatus]
	if !ok {
		return StatusNone
	}
	n, ok := intValue(v)
	if !ok {
		return StatusUnknown
	}
	return ReceiptStatus(n)
}

// Receipt returns the nested "receipt" object.
func (i Info) Receipt() map[string]interface{} {
	m, _ := i[keyReceipt].(map[string]interface{})
	return m
}

// InApp returns the non-subscription purchase entries of the receipt.
func (i Info) InApp() []map[string]interface{} {
	return entries(i.Receipt()[keyInApp])
}

// LatestReceiptInfo returns the auto-renewable subscription entries.
func (i Info) LatestReceiptInfo() []map[string]interface{} {
	return entries(i[keyLatestReceiptInfo])
}

// RequestDate is the date the receipt was validated, as reported by the
// validation endpoint.
func (i Info) RequestDate() (time.Time, bool) {
	return msDate(i.Receipt()[keyRequestDateMs])
}

func entries(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		if typed, ok := v.([]map[string]interface{}); ok {
			return typed
		}
		return nil
	}

	result := make([]map[string]interface{}, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]interface{}); ok {
			result = append(result, m)
		}
	}
	return result
}

func stringValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

func intValue(v interface{}) (int, bool) {
	s, ok := stringValue(v)
	if !ok {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

func boolValue(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	s, ok := stringValue(v)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// msDate converts a millisecond epoch string into an absolute time.
func msDate(v interface{}) (time.Time, bool) {
	s, ok := stringValue(v)
	if !ok || s == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}
