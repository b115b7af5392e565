package storekit

import "sync"

type restoreSession struct {
	atomically          bool
	applicationUsername string
	callback            func([]RestoreOutcome)
}

// restoreController accumulates restored transactions for the active restore
// session until the platform reports the restore finished or failed.
type restoreController struct {
	mu       sync.Mutex
	session  *restoreSession
	outcomes []RestoreOutcome
}

// begin installs s as the active session. A second session is rejected with
// ErrRestoreInProgress rather than merged into the first.
func (c *restoreController) begin(s *restoreSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return ErrRestoreInProgress
	}
	c.session = s
	c.outcomes = nil
	return nil
}

func (c *restoreController) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *restoreController) process(txs []Transaction, queue transactionFinisher) []Transaction {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return txs
	}

	var unhandled []Transaction
	for _, tx := range txs {
		if tx.State != StateRestored {
			unhandled = append(unhandled, tx)
			continue
		}

		purchase := newPurchase(tx, !session.atomically)
		if session.atomically {
			queue.FinishTransaction(tx)
		}

		c.mu.Lock()
		if c.session == session {
			c.outcomes = append(c.outcomes, RestoreOutcome{Purchase: &purchase})
		}
		c.mu.Unlock()
	}
	return unhandled
}

func (c *restoreController) restoreFailed(err error) {
	c.complete(&RestoreOutcome{Err: transactionError(err)})
}

func (c *restoreController) restoreFinished() {
	c.complete(nil)
}

// complete fires the session callback once with everything accumulated and
// clears the session.
func (c *restoreController) complete(last *RestoreOutcome) {
	c.mu.Lock()
	session := c.session
	outcomes := c.outcomes
	c.session = nil
	c.outcomes = nil
	c.mu.Unlock()

	if session == nil {
		log.Debugf("Restore completion without an active session, ignoring")
		return
	}
	if last != nil {
		outcomes = append(outcomes, *last)
	}
	session.callback(outcomes)
}
