package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotificationDeduper(t *testing.T) {
	d := NewNotificationDeduper(time.Hour)
	defer d.Stop()

	payload := WebhookPayload{
		RequestID:   "req-1",
		Endpoint:    "purchase",
		ReceiptHash: ReceiptHash("receipt"),
		ProductIDs:  []string{"com.example.coins"},
		Verdict:     "purchased",
	}
	require.True(t, d.ShouldNotify(payload))

	// Same outcome from a later request.
	payload.RequestID = "req-2"
	payload.Timestamp = "2024-03-01T12:00:00Z"
	require.False(t, d.ShouldNotify(payload))

	// A changed verdict is reported.
	payload.Verdict = "expired"
	require.True(t, d.ShouldNotify(payload))

	require.Equal(t, 2, d.GetStats()["tracked_outcomes"])
}

func TestNotificationDeduperCleanup(t *testing.T) {
	d := NewNotificationDeduper(time.Hour)
	defer d.Stop()

	payload := WebhookPayload{Endpoint: "verify", ReceiptHash: "abc"}
	require.True(t, d.ShouldNotify(payload))

	d.mutex.Lock()
	for id := range d.sent {
		d.sent[id] = time.Now().Add(-2 * time.Hour)
	}
	d.mutex.Unlock()

	d.cleanup()
	require.Equal(t, 0, d.GetStats()["tracked_outcomes"])
	require.True(t, d.ShouldNotify(payload))
}
