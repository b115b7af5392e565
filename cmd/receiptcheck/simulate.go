package main

import (
	"fmt"
	"io"
	"time"

	"iapkit/pkg/storekit"
	"iapkit/pkg/storekit/storekittest"
)

// simulate runs a purchase for every product and a restore against the
// in-memory store, printing each outcome.
func simulate(w io.Writer, productIDs []string, timeout time.Duration) error {
	products := make([]storekit.Product, 0, len(productIDs))
	for i, id := range productIDs {
		products = append(products, storekit.Product{
			ID:           id,
			Title:        id,
			PriceMicros:  int64(i+1) * 990000,
			CurrencyCode: "USD",
		})
	}

	queue := storekittest.NewQueue()
	queue.SetAutoApprove(true)
	kit := storekit.New(queue, storekittest.NewCatalog(products...))
	defer kit.Close()

	kit.CompleteTransactions(true, func(purchases []storekit.Purchase) {
		for _, p := range purchases {
			fmt.Fprintf(w, "completed %s (%v)\n", p.ProductID, p.Transaction.State)
		}
	})

	for _, id := range productIDs {
		done := make(chan storekit.PurchaseResult, 1)
		kit.PurchaseProduct(id, storekit.DefaultPurchaseOptions(), func(r storekit.PurchaseResult) {
			done <- r
		})

		select {
		case r := <-done:
			if r.Err != nil {
				fmt.Fprintf(w, "purchase %s failed: %v\n", id, r.Err)
				continue
			}
			fmt.Fprintf(w, "purchased %s in %s\n", r.Details.ProductID, r.Details.Transaction.ID)
		case <-time.After(timeout):
			return fmt.Errorf("purchase of %s timed out", id)
		}
	}

	restored := make(chan storekit.RestoreResults, 1)
	err := kit.RestorePurchases(true, "", func(r storekit.RestoreResults) {
		restored <- r
	})
	if err != nil {
		return err
	}

	select {
	case r := <-restored:
		for _, p := range r.Restored {
			fmt.Fprintf(w, "restored %s (original %s)\n", p.ProductID, p.OriginalTransaction.ID)
		}
		for _, f := range r.Failed {
			fmt.Fprintf(w, "restore failed: %v\n", f.Err)
		}
	case <-time.After(timeout):
		return fmt.Errorf("restore timed out")
	}

	fmt.Fprintf(w, "finished %d transactions\n", queue.FinishedCount())
	return nil
}
