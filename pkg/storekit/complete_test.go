package storekit

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

func TestCompleteControllerUnregisteredWarning(t *testing.T) {
	var buf bytes.Buffer
	UseLogger(btclog.NewBackend(&buf).Logger("SKIT"))
	t.Cleanup(DisableLog)

	c := &completeController{}
	queue := &finishCounter{}

	purchasing := Transaction{ID: "a", State: StatePurchasing}
	purchased := Transaction{ID: "b", State: StatePurchased}

	txs := []Transaction{purchasing, purchased, purchasing}
	require.Equal(t, txs, c.process(txs, queue))
	require.Contains(t, buf.String(), "delivered 1 transaction(s)")
	require.Empty(t, queue.finished)

	buf.Reset()
	require.Len(t, c.process([]Transaction{purchasing}, queue), 1)
	require.Empty(t, buf.String())
}
