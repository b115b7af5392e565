package storekit

import "sync"

type completionSession struct {
	atomically bool
	callback   func([]Purchase)
}

// completeController reports transactions left over from a previous run.
type completeController struct {
	mu      sync.Mutex
	session *completionSession
}

// register installs s unless a session is already registered.
func (c *completeController) register(s *completionSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return false
	}
	c.session = s
	return true
}

func (c *completeController) registered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *completeController) process(txs []Transaction, queue transactionFinisher) []Transaction {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		if n := countSettled(txs); n > 0 {
			log.Warnf("CompleteTransactions was not registered before the queue "+
				"delivered %d transaction(s)", n)
		}
		return txs
	}

	var (
		unhandled []Transaction
		purchases []Purchase
	)
	for _, tx := range txs {
		if tx.State == StatePurchasing {
			unhandled = append(unhandled, tx)
			continue
		}

		willFinish := session.atomically || tx.State == StateFailed
		purchases = append(purchases, newPurchase(tx, !willFinish))
		if willFinish {
			queue.FinishTransaction(tx)
		}
	}

	if len(purchases) > 0 {
		session.callback(purchases)
	}
	return unhandled
}

// countSettled counts the transactions that are past the purchasing state.
func countSettled(txs []Transaction) int {
	n := 0
	for _, tx := range txs {
		if tx.State != StatePurchasing {
			n++
		}
	}
	return n
}
