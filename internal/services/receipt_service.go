package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"iapkit/pkg/logging"
	"iapkit/pkg/receipt"

	"golang.org/x/sync/singleflight"
)

// ReceiptService validates receipts through the App Store, caching valid
// results and collapsing concurrent validations of the same receipt.
type ReceiptService struct {
	validator receipt.Validator
	cache     ReceiptCache
	ttl       time.Duration

	group singleflight.Group
}

// NewReceiptService creates a receipt service. cache may be nil.
func NewReceiptService(validator receipt.Validator, cache ReceiptCache, ttl time.Duration) *ReceiptService {
	return &ReceiptService{
		validator: validator,
		cache:     cache,
		ttl:       ttl,
	}
}

// ReceiptHash identifies a receipt without storing it.
func ReceiptHash(receiptData string) string {
	sum := sha256.Sum256([]byte(receiptData))
	return hex.EncodeToString(sum[:])
}

// Validate returns the decoded receipt for receiptData.
func (s *ReceiptService) Validate(ctx context.Context, receiptData string) (receipt.Info, error) {
	if receiptData == "" {
		return nil, receipt.ErrNoReceiptData
	}

	key := ReceiptHash(receiptData)
	if s.cache != nil && s.ttl > 0 {
		info, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logging.Errorf("Failed to read receipt cache: %v", err)
		} else if ok {
			logging.Debugf("Receipt cache hit - hash: %s", key)
			return info, nil
		}
	}

	// The shared call outlives any single caller, so it runs detached from
	// the request context and is bounded by the validator's own timeout.
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		info, err := s.validator.Validate(detached, receiptData)
		if err != nil {
			return nil, err
		}

		if s.cache != nil && s.ttl > 0 {
			if err := s.cache.Set(detached, key, info, s.ttl); err != nil {
				logging.Errorf("Failed to cache receipt: %v", err)
			}
		}
		return info, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logging.Debugf("Shared in-flight validation - hash: %s", key)
		}
		return res.Val.(receipt.Info), nil
	}
}

// VerifyPurchase validates the receipt and checks productID in it.
func (s *ReceiptService) VerifyPurchase(ctx context.Context, receiptData, productID string) (receipt.Info, receipt.VerifyPurchaseResult, error) {
	info, err := s.Validate(ctx, receiptData)
	if err != nil {
		return nil, receipt.VerifyPurchaseResult{}, err
	}
	return info, receipt.VerifyPurchase(productID, info), nil
}

// VerifySubscriptions validates the receipt and checks the subscription group
// made of productIDs.
func (s *ReceiptService) VerifySubscriptions(ctx context.Context, receiptData string, typ receipt.SubscriptionType, productIDs []string, asOf time.Time) (receipt.Info, receipt.VerifySubscriptionResult, error) {
	info, err := s.Validate(ctx, receiptData)
	if err != nil {
		return nil, receipt.VerifySubscriptionResult{}, err
	}
	return info, receipt.VerifySubscriptions(typ, productIDs, info, asOf), nil
}

// PurchasedProductIDs validates the receipt and lists the distinct product
// identifiers it contains.
func (s *ReceiptService) PurchasedProductIDs(ctx context.Context, receiptData string, typ receipt.SubscriptionType) (receipt.Info, []string, error) {
	info, err := s.Validate(ctx, receiptData)
	if err != nil {
		return nil, nil, err
	}
	ids, _ := receipt.GetDistinctPurchaseIDs(typ, info)
	return info, ids, nil
}
