package storekit

import (
	"fmt"
	"time"
)

// TransactionState is the lifecycle step a transaction is in.
type TransactionState int

const (
	StatePurchasing TransactionState = iota
	StatePurchased
	StateFailed
	StateRestored
	StateDeferred
)

func (s TransactionState) String() string {
	switch s {
	case StatePurchasing:
		return "purchasing"
	case StatePurchased:
		return "purchased"
	case StateFailed:
		return "failed"
	case StateRestored:
		return "restored"
	case StateDeferred:
		return "deferred"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Payment is what gets enqueued on the platform queue.
type Payment struct {
	ProductID                  string
	Quantity                   int
	ApplicationUsername        string
	SimulatesAskToBuyInSandbox bool
}

// Transaction is a platform-issued record of one step of a purchase or
// restore. It is never modified by this package.
type Transaction struct {
	ID        string
	Payment   Payment
	State     TransactionState
	Date      time.Time
	Err       error
	Original  *Transaction
	Downloads []Download
}

func (t Transaction) String() string {
	return fmt.Sprintf("transaction %s (%s x%d, %v)", t.ID, t.Payment.ProductID,
		t.Payment.Quantity, t.State)
}

// DownloadState mirrors the platform download states.
type DownloadState int

const (
	DownloadWaiting DownloadState = iota
	DownloadActive
	DownloadPaused
	DownloadFinished
	DownloadFailed
	DownloadCancelled
)

// Download is hosted content attached to a transaction. Downloads are passed
// through to the application untouched.
type Download struct {
	ContentID     string
	TransactionID string
	State         DownloadState
	Progress      float64
	ContentURL    string
	Err           error
}

// Product is the metadata returned by a product lookup.
type Product struct {
	ID             string
	Title          string
	Description    string
	PriceMicros    int64
	CurrencyCode   string
	IsDownloadable bool
}

// RetrieveResults is the outcome of a product lookup. Err is set for
// request-level failures.
type RetrieveResults struct {
	Products          []Product
	InvalidProductIDs []string
	Err               error
}

// PurchaseDetails describes a successful purchase started by this process.
type PurchaseDetails struct {
	ProductID              string
	Quantity               int
	Product                Product
	Transaction            Transaction
	OriginalTransaction    *Transaction
	NeedsFinishTransaction bool
}

// PurchaseResult is delivered exactly once per purchase. Exactly one of
// Details and Err is set.
type PurchaseResult struct {
	Details *PurchaseDetails
	Err     error
}

// Purchase is a restored or completed transaction.
type Purchase struct {
	ProductID              string
	Quantity               int
	Transaction            Transaction
	OriginalTransaction    *Transaction
	NeedsFinishTransaction bool
}

// RestoreOutcome is one entry of a restore session, either a restored
// purchase or a failure.
type RestoreOutcome struct {
	Purchase *Purchase
	Err      error
}

// RestoreFailure is a failed restore entry. The platform reports restore
// failures for the whole request, so no product is attached.
type RestoreFailure struct {
	Err error
}

// RestoreResults summarises a restore session, in delivery order.
type RestoreResults struct {
	Restored []Purchase
	Failed   []RestoreFailure
}

// NewRestoreResults splits outcomes into restored purchases and failures.
func NewRestoreResults(outcomes []RestoreOutcome) RestoreResults {
	var results RestoreResults
	for _, o := range outcomes {
		if o.Err != nil {
			results.Failed = append(results.Failed, RestoreFailure{Err: o.Err})
			continue
		}
		if o.Purchase != nil {
			results.Restored = append(results.Restored, *o.Purchase)
		}
	}
	return results
}

func newPurchase(tx Transaction, needsFinish bool) Purchase {
	return Purchase{
		ProductID:              tx.Payment.ProductID,
		Quantity:               tx.Payment.Quantity,
		Transaction:            tx,
		OriginalTransaction:    tx.Original,
		NeedsFinishTransaction: needsFinish,
	}
}
