package storekit

import "context"

// Queue is the platform transaction queue. FinishTransaction must be safe to
// call more than once for the same transaction.
type Queue interface {
	AddObserver(o Observer)
	RemoveObserver(o Observer)

	CanMakePayments() bool
	Add(p Payment)
	RestoreCompletedTransactions(applicationUsername string)
	FinishTransaction(tx Transaction)

	StartDownloads(downloads []Download)
	PauseDownloads(downloads []Download)
	ResumeDownloads(downloads []Download)
	CancelDownloads(downloads []Download)
}

// Observer receives the notifications emitted by a Queue. The queue may call
// it from any goroutine.
type Observer interface {
	UpdatedTransactions(txs []Transaction)
	RestoreCompletedTransactionsFinished()
	RestoreCompletedTransactionsFailed(err error)
	UpdatedDownloads(downloads []Download)
	ShouldAddStorePayment(p Payment, product Product) bool
}

// ProductsRequest is one outstanding product lookup.
type ProductsRequest interface {
	Start()
	Cancel()
}

// ProductsRequestBuilder creates product lookups. The completion must not be
// called before Start.
type ProductsRequestBuilder interface {
	Request(productIDs []string, completion func(RetrieveResults)) ProductsRequest
}

// ReceiptRefresher asks the platform to fetch a fresh receipt into the local
// receipt store.
type ReceiptRefresher interface {
	RefreshReceipt(ctx context.Context) error
}

// transactionFinisher is the part of Queue the reconcilers need.
type transactionFinisher interface {
	FinishTransaction(tx Transaction)
}
