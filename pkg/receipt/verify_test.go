package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyPurchase(t *testing.T) {
	testcases := []struct {
		name        string
		inApp       []interface{}
		verdict     Verdict
		transaction string
	}{
		{
			"no entries",
			list(),
			NotPurchased,
			"",
		},
		{
			"one uncancelled entry",
			list(entry("p1", "t1", refDate)),
			Purchased,
			"t1",
		},
		{
			"other product only",
			list(entry("p2", "t1", refDate)),
			NotPurchased,
			"",
		},
		{
			"cancelled entry is ignored",
			list(cancelled(entry("p1", "t1", refDate))),
			NotPurchased,
			"",
		},
		{
			"first uncancelled entry in receipt order",
			list(
				cancelled(entry("p1", "t1", refDate)),
				entry("p1", "t2", refDate.Add(time.Hour)),
				entry("p1", "t3", refDate.Add(-time.Hour)),
			),
			Purchased,
			"t2",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			result := VerifyPurchase("p1", receiptInfo(tc.inApp, nil, refDate))
			require.Equal(t, tc.verdict, result.Verdict)
			require.Equal(t, tc.transaction, result.Item.TransactionID)
		})
	}
}

func TestVerifyPurchaseWithoutReceipt(t *testing.T) {
	result := VerifyPurchase("p1", Info{"status": float64(0)})
	require.Equal(t, NotPurchased, result.Verdict)
}

func TestVerifyAutoRenewableSubscription(t *testing.T) {
	latest := list(withExpiry(entry("sub", "t1", refDate.Add(-time.Hour)), refDate.Add(time.Hour)))

	result := VerifySubscription(AutoRenewable(), "sub", receiptInfo(list(), latest, refDate), time.Time{})
	require.Equal(t, Purchased, result.Verdict)
	require.True(t, result.ExpiryDate.Equal(refDate.Add(time.Hour)))
	require.Len(t, result.Items, 1)

	result = VerifySubscription(AutoRenewable(), "sub", receiptInfo(list(), latest, refDate.Add(2*time.Hour)), time.Time{})
	require.Equal(t, Expired, result.Verdict)
	require.True(t, result.ExpiryDate.Equal(refDate.Add(time.Hour)))
	require.Len(t, result.Items, 1)
}

func TestVerifySubscriptionExpiryEqualToReferenceIsExpired(t *testing.T) {
	latest := list(withExpiry(entry("sub", "t1", refDate.Add(-time.Hour)), refDate))

	result := VerifySubscription(AutoRenewable(), "sub", receiptInfo(list(), latest, refDate), time.Time{})
	require.Equal(t, Expired, result.Verdict)
}

func TestVerifySubscriptionSortsLatestExpiryFirst(t *testing.T) {
	older := withExpiry(entry("sub", "older", refDate.Add(-2*time.Hour)), refDate.Add(time.Hour))
	newer := withExpiry(entry("sub", "newer", refDate), refDate.Add(3*time.Hour))

	result := VerifySubscription(AutoRenewable(), "sub", receiptInfo(list(), list(older, newer), refDate), time.Time{})
	require.Equal(t, Purchased, result.Verdict)
	require.True(t, result.ExpiryDate.Equal(refDate.Add(3*time.Hour)))
	require.Equal(t, "newer", result.Items[0].TransactionID)
	require.Equal(t, "older", result.Items[1].TransactionID)
}

func TestVerifySubscriptionTiesKeepReceiptOrder(t *testing.T) {
	expiry := refDate.Add(time.Hour)
	first := withExpiry(entry("sub", "first", refDate), expiry)
	second := withExpiry(entry("sub", "second", refDate), expiry)

	result := VerifySubscription(AutoRenewable(), "sub", receiptInfo(list(), list(first, second), refDate), time.Time{})
	require.Equal(t, "first", result.Items[0].TransactionID)
	require.Equal(t, "second", result.Items[1].TransactionID)
}

func TestVerifySubscriptionsAcrossProducts(t *testing.T) {
	monthly := withExpiry(entry("monthly", "t1", refDate), refDate.Add(-time.Hour))
	yearly := withExpiry(entry("yearly", "t2", refDate), refDate.Add(24*time.Hour))
	other := withExpiry(entry("other", "t3", refDate), refDate.Add(48*time.Hour))

	info := receiptInfo(list(), list(monthly, yearly, other), refDate)
	result := VerifySubscriptions(AutoRenewable(), []string{"monthly", "yearly"}, info, time.Time{})
	require.Equal(t, Purchased, result.Verdict)
	require.True(t, result.ExpiryDate.Equal(refDate.Add(24*time.Hour)))
	require.Len(t, result.Items, 2)
	require.Equal(t, "yearly", result.Items[0].ProductID)
}

func TestVerifySubscriptionFallsBackToAsOfDate(t *testing.T) {
	latest := list(withExpiry(entry("sub", "t1", refDate), refDate.Add(time.Hour)))
	info := receiptInfo(list(), latest, time.Time{})

	result := VerifySubscription(AutoRenewable(), "sub", info, refDate)
	require.Equal(t, Purchased, result.Verdict)

	result = VerifySubscription(AutoRenewable(), "sub", info, refDate.Add(2*time.Hour))
	require.Equal(t, Expired, result.Verdict)
}

func TestVerifySubscriptionIgnoresCancelledEntries(t *testing.T) {
	latest := list(cancelled(withExpiry(entry("sub", "t1", refDate), refDate.Add(time.Hour))))

	result := VerifySubscription(AutoRenewable(), "sub", receiptInfo(list(), latest, refDate), time.Time{})
	require.Equal(t, NotPurchased, result.Verdict)
	require.Empty(t, result.Items)
}

func TestVerifyAutoRenewableWithoutExpiryIsNotPurchased(t *testing.T) {
	latest := list(entry("sub", "t1", refDate))

	result := VerifySubscription(AutoRenewable(), "sub", receiptInfo(list(), latest, refDate), time.Time{})
	require.Equal(t, NotPurchased, result.Verdict)
}

func TestVerifyNonRenewingSubscription(t *testing.T) {
	purchase := refDate.Add(-10 * 24 * time.Hour)
	raw := entry("season", "t1", purchase)
	// The entry's own expiry must not be used for non-renewing products.
	raw["expires_date_ms"] = ms(refDate.Add(-time.Hour))
	info := receiptInfo(list(raw), nil, refDate)

	result := VerifySubscription(NonRenewing(30*24*time.Hour), "season", info, time.Time{})
	require.Equal(t, Purchased, result.Verdict)
	require.True(t, result.ExpiryDate.Equal(purchase.Add(30*24*time.Hour)))

	result = VerifySubscription(NonRenewing(7*24*time.Hour), "season", info, time.Time{})
	require.Equal(t, Expired, result.Verdict)
	require.True(t, result.ExpiryDate.Equal(purchase.Add(7*24*time.Hour)))
}

func TestGetDistinctPurchaseIDs(t *testing.T) {
	inApp := list(
		entry("b", "t1", refDate),
		entry("a", "t2", refDate),
		cancelled(entry("c", "t3", refDate)),
		entry("a", "t4", refDate),
	)
	info := receiptInfo(inApp, nil, refDate)

	ids, ok := GetDistinctPurchaseIDs(NonRenewing(time.Hour), info)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, ids)

	_, ok = GetDistinctPurchaseIDs(AutoRenewable(), info)
	require.False(t, ok)
}
