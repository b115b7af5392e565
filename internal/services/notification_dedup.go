package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"iapkit/pkg/logging"
)

// NotificationDeduper suppresses webhook events that repeat an outcome
// already reported within the TTL, such as an app re-verifying the same
// receipt on every launch.
type NotificationDeduper struct {
	sent            map[string]time.Time
	mutex           sync.RWMutex
	cleanupInterval time.Duration
	ttl             time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewNotificationDeduper creates a deduper and starts its cleanup goroutine.
// Call Stop to release it.
func NewNotificationDeduper(ttl time.Duration) *NotificationDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	d := &NotificationDeduper{
		sent:            make(map[string]time.Time),
		cleanupInterval: time.Hour,
		ttl:             ttl,
		stopCleanup:     make(chan struct{}),
	}
	if ttl < d.cleanupInterval {
		d.cleanupInterval = ttl
	}

	go d.startCleanupRoutine()

	return d
}

// ShouldNotify reports whether payload carries an outcome not reported yet,
// and records it.
func (d *NotificationDeduper) ShouldNotify(payload WebhookPayload) bool {
	id := outcomeID(payload)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if sentAt, exists := d.sent[id]; exists && time.Since(sentAt) <= d.ttl {
		logging.Debugf("Duplicate verification outcome - request: %s, first sent at: %v",
			payload.RequestID, sentAt)
		return false
	}

	d.sent[id] = time.Now()
	return true
}

// outcomeID identifies what a payload reports, ignoring when and for which
// request it was produced.
func outcomeID(p WebhookPayload) string {
	data := strings.Join([]string{
		p.Endpoint,
		p.ReceiptHash,
		strings.Join(p.ProductIDs, ","),
		p.Verdict,
		p.TransactionID,
		p.ExpiresDate,
	}, "\x1f")
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func (d *NotificationDeduper) startCleanupRoutine() {
	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanup()
		case <-d.stopCleanup:
			return
		}
	}
}

func (d *NotificationDeduper) cleanup() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	now := time.Now()
	initialCount := len(d.sent)

	for id, sentAt := range d.sent {
		if now.Sub(sentAt) > d.ttl {
			delete(d.sent, id)
		}
	}

	if cleaned := initialCount - len(d.sent); cleaned > 0 {
		logging.Infof("Notification dedup cleanup: removed %d expired entries, remaining: %d",
			cleaned, len(d.sent))
	}
}

// GetStats returns the size and settings of the deduper.
func (d *NotificationDeduper) GetStats() map[string]interface{} {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return map[string]interface{}{
		"tracked_outcomes": len(d.sent),
		"cleanup_interval": d.cleanupInterval.String(),
		"ttl":              d.ttl.String(),
	}
}

// Stop stops the cleanup goroutine.
func (d *NotificationDeduper) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCleanup)
	})
}
