// Package storekittest provides an in-memory platform queue, product catalog
// and receipt refresher for exercising storekit without a device.
package storekittest

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"iapkit/pkg/storekit"
)

// Queue is an in-memory storekit.Queue. Transactions are only delivered when
// the test calls Deliver, unless AutoApprove is set.
type Queue struct {
	mu              sync.Mutex
	observers       []storekit.Observer
	canMakePayments bool
	autoApprove     bool

	added        []storekit.Payment
	restoreCalls []string
	finished     map[string]struct{}
	finishCalls  int
	history      []storekit.Transaction
	downloads    map[string]storekit.DownloadState
}

var _ storekit.Queue = (*Queue)(nil)

// NewQueue creates a queue that allows payments.
func NewQueue() *Queue {
	return &Queue{
		canMakePayments: true,
		finished:        make(map[string]struct{}),
		downloads:       make(map[string]storekit.DownloadState),
	}
}

// SetCanMakePayments toggles the answer of CanMakePayments.
func (q *Queue) SetCanMakePayments(allowed bool) {
	q.mu.Lock()
	q.canMakePayments = allowed
	q.mu.Unlock()
}

// SetAutoApprove makes the queue approve every payment and answer restores
// from its purchase history on its own goroutine.
func (q *Queue) SetAutoApprove(auto bool) {
	q.mu.Lock()
	q.autoApprove = auto
	q.mu.Unlock()
}

// NewTransaction builds a transaction with a fresh identifier.
func NewTransaction(p storekit.Payment, state storekit.TransactionState) storekit.Transaction {
	if p.Quantity == 0 {
		p.Quantity = 1
	}
	return storekit.Transaction{
		ID:      uuid.NewString(),
		Payment: p,
		State:   state,
		Date:    time.Now(),
	}
}

// Restored builds a restored transaction pointing at original.
func Restored(original storekit.Transaction) storekit.Transaction {
	tx := NewTransaction(original.Payment, storekit.StateRestored)
	orig := original
	tx.Original = &orig
	return tx
}

func (q *Queue) AddObserver(o storekit.Observer) {
	q.mu.Lock()
	q.observers = append(q.observers, o)
	q.mu.Unlock()
}

func (q *Queue) RemoveObserver(o storekit.Observer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, existing := range q.observers {
		if existing == o {
			q.observers = append(q.observers[:i:i], q.observers[i+1:]...)
			return
		}
	}
}

func (q *Queue) CanMakePayments() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.canMakePayments
}

func (q *Queue) Add(p storekit.Payment) {
	q.mu.Lock()
	q.added = append(q.added, p)
	auto := q.autoApprove
	q.mu.Unlock()

	if !auto {
		return
	}
	go func() {
		q.Deliver(NewTransaction(p, storekit.StatePurchasing))
		tx := NewTransaction(p, storekit.StatePurchased)
		q.mu.Lock()
		q.history = append(q.history, tx)
		q.mu.Unlock()
		q.Deliver(tx)
	}()
}

func (q *Queue) RestoreCompletedTransactions(applicationUsername string) {
	q.mu.Lock()
	q.restoreCalls = append(q.restoreCalls, applicationUsername)
	auto := q.autoApprove
	history := append([]storekit.Transaction(nil), q.history...)
	q.mu.Unlock()

	if !auto {
		return
	}
	go func() {
		restored := make([]storekit.Transaction, 0, len(history))
		for _, tx := range history {
			restored = append(restored, Restored(tx))
		}
		if len(restored) > 0 {
			q.Deliver(restored...)
		}
		q.FinishRestore()
	}()
}

// FinishTransaction records the acknowledgement. Finishing the same
// transaction twice is a no-op.
func (q *Queue) FinishTransaction(tx storekit.Transaction) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finishCalls++
	q.finished[tx.ID] = struct{}{}
}

func (q *Queue) StartDownloads(downloads []storekit.Download) {
	q.updateDownloads(downloads, storekit.DownloadActive)
}

func (q *Queue) PauseDownloads(downloads []storekit.Download) {
	q.updateDownloads(downloads, storekit.DownloadPaused)
}

func (q *Queue) ResumeDownloads(downloads []storekit.Download) {
	q.updateDownloads(downloads, storekit.DownloadActive)
}

func (q *Queue) CancelDownloads(downloads []storekit.Download) {
	q.updateDownloads(downloads, storekit.DownloadCancelled)
}

func (q *Queue) updateDownloads(downloads []storekit.Download, state storekit.DownloadState) {
	q.mu.Lock()
	updated := make([]storekit.Download, len(downloads))
	for i, d := range downloads {
		q.downloads[d.ContentID] = state
		d.State = state
		updated[i] = d
	}
	observers := q.snapshotObservers()
	q.mu.Unlock()

	for _, o := range observers {
		o.UpdatedDownloads(updated)
	}
}

// Deliver notifies every observer of a batch of transactions on the calling
// goroutine.
func (q *Queue) Deliver(txs ...storekit.Transaction) {
	q.mu.Lock()
	observers := q.snapshotObservers()
	q.mu.Unlock()

	for _, o := range observers {
		o.UpdatedTransactions(txs)
	}
}

// FinishRestore signals that all restorable transactions were delivered.
func (q *Queue) FinishRestore() {
	q.mu.Lock()
	observers := q.snapshotObservers()
	q.mu.Unlock()

	for _, o := range observers {
		o.RestoreCompletedTransactionsFinished()
	}
}

// FailRestore signals that the restore failed with err.
func (q *Queue) FailRestore(err error) {
	q.mu.Lock()
	observers := q.snapshotObservers()
	q.mu.Unlock()

	for _, o := range observers {
		o.RestoreCompletedTransactionsFailed(err)
	}
}

// PromotePayment asks the observers whether a purchase started from the
// store front should be added to the queue.
func (q *Queue) PromotePayment(p storekit.Payment, product storekit.Product) bool {
	q.mu.Lock()
	observers := q.snapshotObservers()
	q.mu.Unlock()

	accepted := false
	for _, o := range observers {
		if o.ShouldAddStorePayment(p, product) {
			accepted = true
		}
	}
	if accepted {
		q.Add(p)
	}
	return accepted
}

func (q *Queue) snapshotObservers() []storekit.Observer {
	return append([]storekit.Observer(nil), q.observers...)
}

// Observers returns the number of registered observers.
func (q *Queue) Observers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.observers)
}

// Added returns the payments enqueued so far.
func (q *Queue) Added() []storekit.Payment {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]storekit.Payment(nil), q.added...)
}

// RestoreCalls returns the application usernames of every restore request.
func (q *Queue) RestoreCalls() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.restoreCalls...)
}

// IsFinished reports whether tx has been acknowledged.
func (q *Queue) IsFinished(tx storekit.Transaction) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.finished[tx.ID]
	return ok
}

// FinishedCount is the number of distinct finished transactions.
func (q *Queue) FinishedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.finished)
}

// FinishCalls is the number of FinishTransaction calls, duplicates included.
func (q *Queue) FinishCalls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finishCalls
}

// DownloadState returns the last state requested for contentID.
func (q *Queue) DownloadState(contentID string) (storekit.DownloadState, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.downloads[contentID]
	return state, ok
}
