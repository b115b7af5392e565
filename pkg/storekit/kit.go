package storekit

import (
	"sync"
	"sync/atomic"

	"iapkit/pkg/receipt"
)

// Kit owns the reconcilers and the queue observer. Create one per process
// with New and release it with Close.
type Kit struct {
	queue      Queue
	controller *queueController
	products   *productsController

	receiptStore    receipt.Store
	refresher       ReceiptRefresher
	completionQueue func(func())

	closed    atomic.Bool
	closeOnce sync.Once
}

// Option configures a Kit.
type Option func(*Kit)

// WithReceiptStore sets where the local receipt is read from.
func WithReceiptStore(store receipt.Store) Option {
	return func(k *Kit) {
		k.receiptStore = store
	}
}

// WithReceiptRefresher sets the refresher used when the local receipt is
// missing or a refresh is forced.
func WithReceiptRefresher(r ReceiptRefresher) Option {
	return func(k *Kit) {
		k.refresher = r
	}
}

// WithCompletionQueue sets the function receipt completions are handed to,
// for example one that hops onto the application's main goroutine.
// Transaction callbacks are not affected and always run on the goroutine
// the queue delivers on.
func WithCompletionQueue(dispatch func(func())) Option {
	return func(k *Kit) {
		k.completionQueue = dispatch
	}
}

// WithShouldAddStorePaymentHandler answers purchases started from the store
// front. Without a handler they are declined.
func WithShouldAddStorePaymentHandler(h func(Payment, Product) bool) Option {
	return func(k *Kit) {
		k.controller.shouldAddStorePayment = h
	}
}

// WithUpdatedDownloadsHandler receives download progress updates.
func WithUpdatedDownloadsHandler(h func([]Download)) Option {
	return func(k *Kit) {
		k.controller.updatedDownloads = h
	}
}

// New creates a Kit and registers it as the observer of queue.
func New(queue Queue, products ProductsRequestBuilder, opts ...Option) *Kit {
	k := &Kit{
		queue:      queue,
		controller: newQueueController(queue),
		products:   newProductsController(products),
		completionQueue: func(f func()) {
			f()
		},
	}
	for _, opt := range opts {
		opt(k)
	}

	queue.AddObserver(k.controller)
	return k
}

// Close deregisters the queue observer and cancels outstanding product
// lookups. A lookup that is already resolving may still deliver.
func (k *Kit) Close() {
	k.closeOnce.Do(func() {
		k.closed.Store(true)
		k.queue.RemoveObserver(k.controller)
		k.products.cancelAll()
	})
}

// CanMakePayments reports whether the user is allowed to make payments.
func (k *Kit) CanMakePayments() bool {
	return k.queue.CanMakePayments()
}

// RetrieveProductsInfo looks up product metadata. Concurrent calls for the
// same set of identifiers share one platform request. Cancelling the returned
// request detaches this caller only; the platform request is cancelled when
// no caller is left.
func (k *Kit) RetrieveProductsInfo(productIDs []string, completion func(RetrieveResults)) ProductsRequest {
	if k.closed.Load() {
		completion(RetrieveResults{Err: ErrKitClosed})
		return nopRequest{}
	}
	return k.products.retrieveInfo(productIDs, completion)
}

// PurchaseOptions control how a payment is made.
type PurchaseOptions struct {
	Quantity int

	// Atomically finishes the transaction as soon as the purchase is
	// reported. Otherwise the caller must call FinishTransaction once the
	// content has been delivered.
	Atomically bool

	ApplicationUsername        string
	SimulatesAskToBuyInSandbox bool
}

// DefaultPurchaseOptions buys one unit atomically.
func DefaultPurchaseOptions() PurchaseOptions {
	return PurchaseOptions{Quantity: 1, Atomically: true}
}

// PurchaseProduct retrieves productID and starts a payment for it.
func (k *Kit) PurchaseProduct(productID string, opts PurchaseOptions, completion func(PurchaseResult)) {
	k.RetrieveProductsInfo([]string{productID}, func(results RetrieveResults) {
		for _, product := range results.Products {
			if product.ID == productID {
				k.Purchase(product, opts, completion)
				return
			}
		}

		switch {
		case len(results.InvalidProductIDs) > 0:
			completion(PurchaseResult{Err: &TransactionError{
				Code: ErrPaymentInvalid,
				Err:  &InvalidProductIDsError{IDs: results.InvalidProductIDs},
			}})
		case results.Err != nil:
			completion(PurchaseResult{Err: transactionError(results.Err)})
		default:
			completion(PurchaseResult{Err: &TransactionError{Code: ErrUnknown}})
		}
	})
}

// Purchase starts a payment for an already retrieved product.
func (k *Kit) Purchase(product Product, opts PurchaseOptions, completion func(PurchaseResult)) {
	if k.closed.Load() {
		completion(PurchaseResult{Err: ErrKitClosed})
		return
	}
	if !k.CanMakePayments() {
		completion(PurchaseResult{Err: &TransactionError{Code: ErrPaymentNotAllowed}})
		return
	}

	quantity := opts.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	k.controller.startPayment(&paymentIntent{
		product:                    product,
		quantity:                   quantity,
		atomically:                 opts.Atomically,
		applicationUsername:        opts.ApplicationUsername,
		simulatesAskToBuyInSandbox: opts.SimulatesAskToBuyInSandbox,
		callback:                   completion,
	})
}

// RestorePurchases asks the queue to redeliver completed transactions.
// completion is called once, after the queue reports the restore finished or
// failed. Only one restore may run at a time; ErrRestoreInProgress is returned
// otherwise and completion is not called.
func (k *Kit) RestorePurchases(atomically bool, applicationUsername string, completion func(RestoreResults)) error {
	if k.closed.Load() {
		return ErrKitClosed
	}
	return k.controller.restorePurchases(&restoreSession{
		atomically:          atomically,
		applicationUsername: applicationUsername,
		callback: func(outcomes []RestoreOutcome) {
			completion(NewRestoreResults(outcomes))
		},
	})
}

// CompleteTransactions registers the handler for transactions left
// unfinished by a previous run. Call it once at launch, before any purchase.
func (k *Kit) CompleteTransactions(atomically bool, completion func([]Purchase)) {
	k.controller.completeTransactions(&completionSession{
		atomically: atomically,
		callback:   completion,
	})
}

// FinishTransaction acknowledges a transaction delivered with
// NeedsFinishTransaction set.
func (k *Kit) FinishTransaction(tx Transaction) {
	k.controller.finishTransaction(tx)
}

func (k *Kit) StartDownloads(downloads []Download)  { k.queue.StartDownloads(downloads) }
func (k *Kit) PauseDownloads(downloads []Download)  { k.queue.PauseDownloads(downloads) }
func (k *Kit) ResumeDownloads(downloads []Download) { k.queue.ResumeDownloads(downloads) }
func (k *Kit) CancelDownloads(downloads []Download) { k.queue.CancelDownloads(downloads) }

type nopRequest struct{}

func (nopRequest) Start()  {}
func (nopRequest) Cancel() {}
