package storekit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductSetKey(t *testing.T) {
	k1, ids := productSetKey([]string{"b", "a", "b"})
	k2, _ := productSetKey([]string{"a", "b"})

	require.Equal(t, k1, k2)
	require.Equal(t, []string{"a", "b"}, ids)

	// Identifiers containing the separator of a naive join stay distinct.
	k3, _ := productSetKey([]string{"a,b"})
	k4, _ := productSetKey([]string{"a", "b"})
	require.NotEqual(t, k3, k4)
}

type stubRequest struct {
	started, cancelled int
}

func (r *stubRequest) Start()  { r.started++ }
func (r *stubRequest) Cancel() { r.cancelled++ }

type stubBuilder struct {
	requests    []*stubRequest
	completions []func(RetrieveResults)
}

func (b *stubBuilder) Request(_ []string, completion func(RetrieveResults)) ProductsRequest {
	r := &stubRequest{}
	b.requests = append(b.requests, r)
	b.completions = append(b.completions, completion)
	return r
}

func TestProductsControllerLifecycle(t *testing.T) {
	builder := &stubBuilder{}
	c := newProductsController(builder)

	calls := 0
	c.retrieveInfo([]string{"x"}, func(RetrieveResults) { calls++ })
	c.retrieveInfo([]string{"x"}, func(RetrieveResults) { calls++ })

	require.Len(t, builder.requests, 1)
	require.Equal(t, 1, builder.requests[0].started)
	require.Equal(t, 1, c.inflightCount())

	builder.completions[0](RetrieveResults{})
	require.Equal(t, 2, calls)
	require.Zero(t, c.inflightCount())

	// A second delivery from a misbehaving platform is dropped.
	builder.completions[0](RetrieveResults{})
	require.Equal(t, 2, calls)
}

func TestProductsControllerCancelAll(t *testing.T) {
	builder := &stubBuilder{}
	c := newProductsController(builder)

	calls := 0
	c.retrieveInfo([]string{"x"}, func(RetrieveResults) { calls++ })
	c.retrieveInfo([]string{"y"}, func(RetrieveResults) { calls++ })
	require.Equal(t, 2, c.inflightCount())

	c.cancelAll()
	require.Zero(t, c.inflightCount())
	require.Equal(t, 1, builder.requests[0].cancelled)
	require.Equal(t, 1, builder.requests[1].cancelled)

	// Results arriving after the cancel are dropped.
	builder.completions[0](RetrieveResults{})
	require.Zero(t, calls)
}

func TestProductsControllerDetach(t *testing.T) {
	builder := &stubBuilder{}
	c := newProductsController(builder)

	var first, second int
	r1 := c.retrieveInfo([]string{"x"}, func(RetrieveResults) { first++ })
	r2 := c.retrieveInfo([]string{"x"}, func(RetrieveResults) { second++ })

	// The shared request stays alive while another caller waits on it.
	r1.Cancel()
	r1.Cancel()
	require.Zero(t, builder.requests[0].cancelled)
	require.Equal(t, 1, c.inflightCount())

	r2.Cancel()
	require.Equal(t, 1, builder.requests[0].cancelled)
	require.Zero(t, c.inflightCount())

	builder.completions[0](RetrieveResults{})
	require.Zero(t, first)
	require.Zero(t, second)

	// Cancelling after delivery has no effect.
	r3 := c.retrieveInfo([]string{"x"}, func(RetrieveResults) { first++ })
	require.Len(t, builder.requests, 2)
	builder.completions[1](RetrieveResults{})
	r3.Cancel()
	require.Equal(t, 1, first)
	require.Zero(t, builder.requests[1].cancelled)
}

func TestTransactionError(t *testing.T) {
	require.Equal(t, ErrUnknown, transactionError(nil).Code)

	cancelled := &TransactionError{Code: ErrPaymentCancelled}
	require.Same(t, cancelled, transactionError(cancelled))

	wrapped := transactionError(errors.New("boom"))
	require.Equal(t, ErrUnknown, wrapped.Code)
	require.EqualError(t, wrapped, "unknown error: boom")

	require.Equal(t, "payment cancelled", cancelled.Error())
	require.Equal(t, "error code 42", ErrorCode(42).String())
}
