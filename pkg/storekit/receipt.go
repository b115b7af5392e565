package storekit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"iapkit/pkg/receipt"
)

// FetchReceipt delivers the local receipt, base64 encoded. The receipt is
// refreshed first when it is missing or forceRefresh is set.
func (k *Kit) FetchReceipt(ctx context.Context, forceRefresh bool, completion func(string, error)) {
	go func() {
		data, err := k.fetchReceipt(ctx, forceRefresh)
		k.completionQueue(func() {
			completion(data, err)
		})
	}()
}

// VerifyReceipt fetches the local receipt and validates it with v. The
// completion runs on the completion queue.
func (k *Kit) VerifyReceipt(ctx context.Context, v receipt.Validator, forceRefresh bool, completion func(receipt.Info, error)) {
	go func() {
		info, err := k.verifyReceipt(ctx, v, forceRefresh)
		k.completionQueue(func() {
			completion(info, err)
		})
	}()
}

func (k *Kit) verifyReceipt(ctx context.Context, v receipt.Validator, forceRefresh bool) (receipt.Info, error) {
	data, err := k.fetchReceipt(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, data)
}

func (k *Kit) fetchReceipt(ctx context.Context, forceRefresh bool) (string, error) {
	if k.receiptStore == nil {
		return "", receipt.ErrNoReceiptData
	}

	data, err := k.receiptStore.Data()
	switch {
	case err == nil && !forceRefresh:
		return base64.StdEncoding.EncodeToString(data), nil
	case err != nil && !errors.Is(err, receipt.ErrNoReceiptData):
		return "", err
	case k.refresher == nil:
		if err != nil {
			return "", err
		}
		log.Warnf("Receipt refresh requested but no refresher is configured")
		return base64.StdEncoding.EncodeToString(data), nil
	}

	log.Debugf("Refreshing receipt (forced=%v)", forceRefresh)
	if err := k.refresher.RefreshReceipt(ctx); err != nil {
		return "", fmt.Errorf("failed to refresh receipt: %w", err)
	}

	data, err = k.receiptStore.Data()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
