package receipt

import (
	"sort"
	"time"
)

// Verdict is the outcome of a purchase or subscription check.
type Verdict int

const (
	NotPurchased Verdict = iota
	Purchased
	Expired
)

func (v Verdict) String() string {
	switch v {
	case Purchased:
		return "purchased"
	case Expired:
		return "expired"
	default:
		return "not_purchased"
	}
}

// VerifyPurchaseResult is returned by VerifyPurchase. Item is only meaningful
// when Verdict is Purchased.
type VerifyPurchaseResult struct {
	Verdict Verdict
	Item    Item
}

// VerifySubscriptionResult is returned by VerifySubscription(s). ExpiryDate and
// Items are empty when Verdict is NotPurchased. Items are ordered by expiry
// date, latest first.
type VerifySubscriptionResult struct {
	Verdict    Verdict
	ExpiryDate time.Time
	Items      []Item
}

type subscriptionKind int

const (
	autoRenewable subscriptionKind = iota
	nonRenewing
)

// SubscriptionType selects where subscription entries are read from and how
// their expiry is computed.
type SubscriptionType struct {
	kind          subscriptionKind
	validDuration time.Duration
}

// AutoRenewable subscriptions are read from latest_receipt_info and expire at
// each entry's own expiration date.
func AutoRenewable() SubscriptionType {
	return SubscriptionType{kind: autoRenewable}
}

// NonRenewing subscriptions are read from in_app and expire validDuration
// after their original purchase date.
func NonRenewing(validDuration time.Duration) SubscriptionType {
	return SubscriptionType{kind: nonRenewing, validDuration: validDuration}
}

// IsAutoRenewable reports whether t was built with AutoRenewable.
func (t SubscriptionType) IsAutoRenewable() bool {
	return t.kind == autoRenewable
}

// ValidDuration is the fixed duration of a non-renewing subscription.
func (t SubscriptionType) ValidDuration() time.Duration {
	return t.validDuration
}

func (t SubscriptionType) String() string {
	if t.kind == nonRenewing {
		return "non_renewing"
	}
	return "auto_renewable"
}

func (t SubscriptionType) source(info Info) []map[string]interface{} {
	if t.kind == autoRenewable {
		return info.LatestReceiptInfo()
	}
	return info.InApp()
}

// VerifyPurchase looks for an uncancelled in_app entry of productID. The first
// valid entry in receipt order wins.
func VerifyPurchase(productID string, info Info) VerifyPurchaseResult {
	matching := filterEntries(info.InApp(), map[string]struct{}{productID: {}})
	items := ParseItems(matching)
	if len(items) == 0 {
		return VerifyPurchaseResult{Verdict: NotPurchased}
	}
	return VerifyPurchaseResult{Verdict: Purchased, Item: items[0]}
}

// VerifySubscription checks a single subscription product.
func VerifySubscription(typ SubscriptionType, productID string, info Info, asOf time.Time) VerifySubscriptionResult {
	return VerifySubscriptions(typ, []string{productID}, info, asOf)
}

// VerifySubscriptions checks whether any of productIDs is an active
// subscription. The receipt's own request date is used as the reference date;
// asOf is only used when the receipt does not carry one.
func VerifySubscriptions(typ SubscriptionType, productIDs []string, info Info, asOf time.Time) VerifySubscriptionResult {
	ids := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		ids[id] = struct{}{}
	}

	matching := filterEntries(typ.source(info), ids)
	if len(matching) == 0 {
		return VerifySubscriptionResult{Verdict: NotPurchased}
	}

	referenceDate := asOf
	if requestDate, ok := info.RequestDate(); ok {
		referenceDate = requestDate
	}

	pairs := expiryPairs(typ, ParseItems(matching))
	if len(pairs) == 0 {
		return VerifySubscriptionResult{Verdict: NotPurchased}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].expiry.After(pairs[j].expiry)
	})

	items := make([]Item, len(pairs))
	for i, p := range pairs {
		items[i] = p.item
	}

	expiry := pairs[0].expiry
	if expiry.After(referenceDate) {
		return VerifySubscriptionResult{Verdict: Purchased, ExpiryDate: expiry, Items: items}
	}
	return VerifySubscriptionResult{Verdict: Expired, ExpiryDate: expiry, Items: items}
}

// GetDistinctPurchaseIDs returns the product ids found in the source list for
// typ, sorted. Cancelled entries are included. ok is false when the source list
// is absent or empty.
func GetDistinctPurchaseIDs(typ SubscriptionType, info Info) (ids []string, ok bool) {
	source := typ.source(info)
	if len(source) == 0 {
		return nil, false
	}

	seen := make(map[string]struct{})
	ids = []string{}
	for _, item := range ParseItems(source) {
		if _, dup := seen[item.ProductID]; dup {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	sort.Strings(ids)
	return ids, true
}

type expiryPair struct {
	item   Item
	expiry time.Time
}

func expiryPairs(typ SubscriptionType, items []Item) []expiryPair {
	pairs := make([]expiryPair, 0, len(items))
	for _, item := range items {
		if typ.kind == nonRenewing {
			pairs = append(pairs, expiryPair{item, item.OriginalPurchaseDate.Add(typ.validDuration)})
			continue
		}
		item := item
		item.SubscriptionExpirationDate.WhenSome(func(expiry time.Time) {
			pairs = append(pairs, expiryPair{item, expiry})
		})
	}
	return pairs
}

func filterEntries(source []map[string]interface{}, productIDs map[string]struct{}) []map[string]interface{} {
	var matching []map[string]interface{}
	for _, entry := range source {
		id, _ := stringValue(entry[keyProductID])
		if _, ok := productIDs[id]; !ok {
			continue
		}
		if isCancelled(entry) {
			continue
		}
		matching = append(matching, entry)
	}
	return matching
}
