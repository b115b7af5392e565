package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseItem(t *testing.T) {
	raw := withExpiry(entry("p1", "t1", refDate), refDate.Add(time.Hour))
	raw["quantity"] = "3"
	raw["web_order_line_item_id"] = "1000000012345"
	raw["is_trial_period"] = "true"
	raw["is_in_intro_offer_period"] = "1"

	item, err := ParseItem(raw).Unpack()
	require.NoError(t, err)
	require.Equal(t, "p1", item.ProductID)
	require.Equal(t, 3, item.Quantity)
	require.Equal(t, "t1", item.TransactionID)
	require.Equal(t, "orig-t1", item.OriginalTransactionID)
	require.True(t, item.PurchaseDate.Equal(refDate))
	require.True(t, item.OriginalPurchaseDate.Equal(refDate))
	require.Equal(t, "1000000012345", item.WebOrderLineItemID.UnwrapOr(""))
	require.True(t, item.SubscriptionExpirationDate.UnwrapOr(time.Time{}).Equal(refDate.Add(time.Hour)))
	require.True(t, item.CancellationDate.IsNone())
	require.True(t, item.IsTrialPeriod)
	require.True(t, item.IsInIntroOfferPeriod)
	require.False(t, item.IsUpgraded)
}

func TestParseItemRequiredFields(t *testing.T) {
	required := []string{
		"product_id",
		"quantity",
		"transaction_id",
		"original_transaction_id",
		"purchase_date_ms",
		"original_purchase_date_ms",
	}

	for _, key := range required {
		t.Run("missing "+key, func(t *testing.T) {
			raw := entry("p1", "t1", refDate)
			delete(raw, key)
			require.True(t, ParseItem(raw).IsErr())
		})
	}

	t.Run("malformed quantity", func(t *testing.T) {
		raw := entry("p1", "t1", refDate)
		raw["quantity"] = "many"
		require.True(t, ParseItem(raw).IsErr())
	})

	t.Run("malformed date", func(t *testing.T) {
		raw := entry("p1", "t1", refDate)
		raw["purchase_date_ms"] = "yesterday"
		require.True(t, ParseItem(raw).IsErr())
	})
}

func TestParseItemBooleansDefaultFalse(t *testing.T) {
	raw := entry("p1", "t1", refDate)
	raw["is_upgraded"] = "maybe"

	item, err := ParseItem(raw).Unpack()
	require.NoError(t, err)
	require.False(t, item.IsTrialPeriod)
	require.False(t, item.IsInIntroOfferPeriod)
	require.False(t, item.IsUpgraded)
}

func TestParseItemsDropsInvalidEntries(t *testing.T) {
	bad := entry("p2", "t2", refDate)
	delete(bad, "transaction_id")

	items := ParseItems([]map[string]interface{}{
		entry("p1", "t1", refDate),
		bad,
		entry("p3", "t3", refDate),
	})
	require.Len(t, items, 2)
	require.Equal(t, "t1", items[0].TransactionID)
	require.Equal(t, "t3", items[1].TransactionID)
}

func TestMillisecondDates(t *testing.T) {
	date, ok := msDate("1500000000123")
	require.True(t, ok)
	require.Equal(t, int64(1500000000), date.Unix())
	require.Equal(t, 123*time.Millisecond, time.Duration(date.Nanosecond()))

	_, ok = msDate("")
	require.False(t, ok)
}
