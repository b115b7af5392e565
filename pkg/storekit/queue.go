package storekit

import "strings"

// queueController is the single observer of the platform queue. It routes
// every transaction batch through the payments, restore and
// complete-transactions controllers, in that order.
type queueController struct {
	queue Queue

	payments *paymentsController
	restore  *restoreController
	complete *completeController

	shouldAddStorePayment func(Payment, Product) bool
	updatedDownloads      func([]Download)
}

var _ Observer = (*queueController)(nil)

func newQueueController(queue Queue) *queueController {
	return &queueController{
		queue:    queue,
		payments: &paymentsController{},
		restore:  &restoreController{},
		complete: &completeController{},
	}
}

func (c *queueController) startPayment(p *paymentIntent) {
	c.warnIfCompleteTransactionsMissing()

	// Register before enqueueing so a queue that answers synchronously
	// still finds the intent.
	c.payments.append(p)
	c.queue.Add(p.payment())
}

func (c *queueController) restorePurchases(s *restoreSession) error {
	c.warnIfCompleteTransactionsMissing()

	if err := c.restore.begin(s); err != nil {
		log.Warnf("Restore requested while another restore is running")
		return err
	}
	c.queue.RestoreCompletedTransactions(s.applicationUsername)
	return nil
}

func (c *queueController) completeTransactions(s *completionSession) {
	if !c.complete.register(s) {
		log.Warnf("CompleteTransactions should only be called once when " +
			"the app launches, ignoring this call")
	}
}

func (c *queueController) finishTransaction(tx Transaction) {
	c.queue.FinishTransaction(tx)
}

func (c *queueController) warnIfCompleteTransactionsMissing() {
	if !c.complete.registered() {
		log.Warnf("CompleteTransactions must be called before purchasing " +
			"or restoring so pending transactions are not lost")
	}
}

// UpdatedTransactions dispatches one batch delivered by the queue.
func (c *queueController) UpdatedTransactions(txs []Transaction) {
	pending := 0
	for _, tx := range txs {
		if tx.State != StatePurchasing {
			pending++
		}
	}
	if pending == 0 {
		return
	}

	unhandled := c.payments.process(txs, c.queue)
	unhandled = c.restore.process(unhandled, c.queue)
	unhandled = c.complete.process(unhandled, c.queue)

	var leftovers []string
	for _, tx := range unhandled {
		if tx.State == StatePurchasing || tx.State == StateDeferred {
			continue
		}
		leftovers = append(leftovers, tx.String())
	}
	if len(leftovers) > 0 {
		log.Warnf("Unhandled transactions:\n%s", strings.Join(leftovers, "\n"))
	}
}

func (c *queueController) RestoreCompletedTransactionsFinished() {
	c.restore.restoreFinished()
}

func (c *queueController) RestoreCompletedTransactionsFailed(err error) {
	c.restore.restoreFailed(err)
}

func (c *queueController) UpdatedDownloads(downloads []Download) {
	if c.updatedDownloads != nil {
		c.updatedDownloads(downloads)
	}
}

func (c *queueController) ShouldAddStorePayment(p Payment, product Product) bool {
	if c.shouldAddStorePayment == nil {
		return false
	}
	return c.shouldAddStorePayment(p, product)
}
