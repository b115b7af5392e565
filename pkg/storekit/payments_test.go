package storekit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type finishCounter struct {
	finished []string
}

func (f *finishCounter) FinishTransaction(tx Transaction) {
	f.finished = append(f.finished, tx.ID)
}

func TestPaymentsControllerBoundsFailedIntents(t *testing.T) {
	c := &paymentsController{}
	queue := &finishCounter{}

	const total = maxFailedIntents + 10
	calls := make([]int, total)
	for i := 0; i < total; i++ {
		c.append(&paymentIntent{
			product:  Product{ID: fmt.Sprintf("p%d", i)},
			quantity: 1,
			callback: func(PurchaseResult) { calls[i]++ },
		})
	}

	var failed []Transaction
	for i := 0; i < total; i++ {
		failed = append(failed, Transaction{
			ID:      fmt.Sprintf("f%d", i),
			Payment: Payment{ProductID: fmt.Sprintf("p%d", i), Quantity: 1},
			State:   StateFailed,
		})
	}
	require.Empty(t, c.process(failed, queue))
	require.Len(t, queue.finished, total)
	require.Len(t, c.failed, maxFailedIntents)

	// The oldest failures are forgotten, the newest can still be recovered.
	oldest := Transaction{ID: "r0", Payment: Payment{ProductID: "p0", Quantity: 1}, State: StatePurchased}
	newest := Transaction{
		ID:      "r1",
		Payment: Payment{ProductID: fmt.Sprintf("p%d", total-1), Quantity: 1},
		State:   StatePurchased,
	}
	unhandled := c.process([]Transaction{oldest, newest}, queue)
	require.Equal(t, []Transaction{oldest}, unhandled)
	require.Equal(t, 1, calls[0])
	require.Equal(t, 2, calls[total-1])
	require.Len(t, c.failed, maxFailedIntents-1)
}
