package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(url, secret string) *WebhookNotifier {
	wn := NewWebhookNotifier(url, secret)
	wn.retryDelays = []time.Duration{0, 0, 0}
	return wn
}

func TestWebhookNotifierSignsPayload(t *testing.T) {
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- r
		bodies <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	wn := newTestNotifier(server.URL, "s3cret")
	wn.Notify(context.Background(), WebhookPayload{
		RequestID:  "req-1",
		Endpoint:   "purchase",
		ProductIDs: []string{"com.example.coins"},
		Verdict:    "purchased",
	})

	r := <-received
	body := <-bodies
	require.Equal(t, http.MethodPost, r.Method)
	require.Equal(t, "application/json", r.Header.Get("Content-Type"))
	require.Equal(t, GenerateSignature(body, "s3cret"), r.Header.Get(SignatureHeader))

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "receipt.verified", payload.Event)
	require.Equal(t, "req-1", payload.RequestID)
	require.NotEmpty(t, payload.Timestamp)
}

func TestWebhookNotifierRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wn := newTestNotifier(server.URL, "")
	require.True(t, wn.sendWithRetry(context.Background(), WebhookPayload{RequestID: "req-2"}))
	require.EqualValues(t, 3, atomic.LoadInt32(&attempts))
}

func TestWebhookNotifierGivesUp(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		assert.Empty(t, r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	wn := newTestNotifier(server.URL, "")
	require.False(t, wn.sendWithRetry(context.Background(), WebhookPayload{RequestID: "req-3"}))
	require.EqualValues(t, 3, atomic.LoadInt32(&attempts))
}

func TestWebhookNotifierWithoutURL(t *testing.T) {
	wn := newTestNotifier("", "")
	// Nothing to assert beyond not blocking or panicking.
	wn.Notify(context.Background(), WebhookPayload{RequestID: "req-4"})
}

func TestGenerateSignature(t *testing.T) {
	require.Equal(t,
		"a777724d943eb48dc69bca8a4a6d57a04db3f9ec7e1de4e581e860265bdf3032",
		GenerateSignature([]byte("{}"), "key"))
	require.NotEqual(t, GenerateSignature([]byte("{}"), "key"), GenerateSignature([]byte("{}"), "other"))
}
