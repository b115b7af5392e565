package storekit

import "sync"

// maxFailedIntents bounds how many failed purchases are remembered for a
// late purchased redelivery. The oldest are forgotten first.
const maxFailedIntents = 64

// paymentIntent is a purchase started by the application and waiting for
// its terminal transaction.
type paymentIntent struct {
	product                    Product
	quantity                   int
	atomically                 bool
	applicationUsername        string
	simulatesAskToBuyInSandbox bool
	callback                   func(PurchaseResult)
}

func (p *paymentIntent) payment() Payment {
	return Payment{
		ProductID:                  p.product.ID,
		Quantity:                   p.quantity,
		ApplicationUsername:        p.applicationUsername,
		SimulatesAskToBuyInSandbox: p.simulatesAskToBuyInSandbox,
	}
}

// paymentsController matches transactions against in-flight purchases.
// Intents are kept in insertion order so duplicate purchases of one product
// are matched first-in first-out.
type paymentsController struct {
	mu       sync.Mutex
	payments []*paymentIntent

	// failed keeps intents whose transaction failed, so a purchased
	// transaction redelivered after the failure can still be matched.
	failed []*paymentIntent
}

func (c *paymentsController) append(p *paymentIntent) {
	c.mu.Lock()
	c.payments = append(c.payments, p)
	c.mu.Unlock()
}

func (c *paymentsController) hasPayment(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return indexOf(c.payments, productID, -1) >= 0
}

// take removes and returns the intent tx resolves, or nil if tx is not for
// this controller.
func (c *paymentsController) take(tx Transaction) *paymentIntent {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch tx.State {
	case StatePurchased, StateRestored, StateFailed:
	default:
		return nil
	}

	productID := tx.Payment.ProductID
	if i := indexOf(c.payments, productID, -1); i >= 0 {
		p := c.payments[i]
		c.payments = append(c.payments[:i:i], c.payments[i+1:]...)
		if tx.State == StateFailed {
			c.rememberFailed(p)
		}
		return p
	}

	if tx.State != StatePurchased {
		return nil
	}
	if i := indexOf(c.failed, productID, tx.Payment.Quantity); i >= 0 {
		p := c.failed[i]
		c.failed = append(c.failed[:i:i], c.failed[i+1:]...)
		log.Infof("Matched %v to a previously failed purchase", tx)
		return p
	}
	return nil
}

func (c *paymentsController) rememberFailed(p *paymentIntent) {
	c.failed = append(c.failed, p)
	if n := len(c.failed) - maxFailedIntents; n > 0 {
		c.failed = append(c.failed[:0:0], c.failed[n:]...)
	}
}

// process handles the transactions that resolve in-flight purchases and
// returns the ones it did not handle, in order.
func (c *paymentsController) process(txs []Transaction, queue transactionFinisher) []Transaction {
	var unhandled []Transaction
	for _, tx := range txs {
		p := c.take(tx)
		if p == nil {
			unhandled = append(unhandled, tx)
			continue
		}

		switch tx.State {
		case StatePurchased, StateRestored:
			if tx.State == StateRestored {
				log.Warnf("Unexpected restored transaction for payment %s",
					tx.Payment.ProductID)
			}
			details := &PurchaseDetails{
				ProductID:              tx.Payment.ProductID,
				Quantity:               tx.Payment.Quantity,
				Product:                p.product,
				Transaction:            tx,
				OriginalTransaction:    tx.Original,
				NeedsFinishTransaction: !p.atomically,
			}
			p.callback(PurchaseResult{Details: details})
			if p.atomically {
				queue.FinishTransaction(tx)
			}

		case StateFailed:
			p.callback(PurchaseResult{Err: transactionError(tx.Err)})
			queue.FinishTransaction(tx)
		}
	}
	return unhandled
}

// indexOf finds the first intent for productID. A non-negative quantity must
// match too.
func indexOf(intents []*paymentIntent, productID string, quantity int) int {
	for i, p := range intents {
		if p.product.ID != productID {
			continue
		}
		if quantity >= 0 && p.quantity != quantity {
			continue
		}
		return i
	}
	return -1
}
