package storekittest

import (
	"context"
	"sync"

	"iapkit/pkg/receipt"
)

// ReceiptStore is an in-memory receipt.Store.
type ReceiptStore struct {
	mu   sync.Mutex
	data []byte
}

var _ receipt.Store = (*ReceiptStore)(nil)

func (s *ReceiptStore) Data() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, receipt.ErrNoReceiptData
	}
	return append([]byte(nil), s.data...), nil
}

// Set replaces the stored receipt.
func (s *ReceiptStore) Set(data []byte) {
	s.mu.Lock()
	s.data = append([]byte(nil), data...)
	s.mu.Unlock()
}

// Refresher writes Fresh into Store on every refresh, or fails with Err.
type Refresher struct {
	Store *ReceiptStore
	Fresh []byte
	Err   error

	mu    sync.Mutex
	calls int
}

func (r *Refresher) RefreshReceipt(ctx context.Context) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Err != nil {
		return r.Err
	}
	r.Store.Set(r.Fresh)
	return nil
}

// Calls is the number of refreshes requested.
func (r *Refresher) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
