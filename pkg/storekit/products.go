package storekit

import (
	"sort"
	"strings"
	"sync"
)

// productQuery is one in-flight lookup shared by every caller that asked for
// the same set of product identifiers.
type productQuery struct {
	request  ProductsRequest
	handlers []*productHandler

	// done is set once the handlers have been taken for delivery. Callers
	// arriving after that get the cached results replayed.
	done    bool
	results RetrieveResults

	// cancelled is set when the platform request was cancelled. Late
	// results for it are dropped.
	cancelled bool
}

type productHandler struct {
	completion func(RetrieveResults)
}

// productLookup is the handle given to one caller of retrieveInfo. The
// platform request is already started, so Start does nothing.
type productLookup struct {
	controller *productsController
	key        string
	query      *productQuery
	handler    *productHandler
}

func (l *productLookup) Start() {}

// Cancel detaches this caller. The platform request is cancelled once no
// caller is left waiting on it.
func (l *productLookup) Cancel() {
	l.controller.detach(l.key, l.query, l.handler)
}

// productsController deduplicates concurrent lookups of the exact same
// product set into a single platform request.
type productsController struct {
	builder ProductsRequestBuilder

	mu       sync.RWMutex
	inflight map[string]*productQuery
}

func newProductsController(builder ProductsRequestBuilder) *productsController {
	return &productsController{
		builder:  builder,
		inflight: make(map[string]*productQuery),
	}
}

// productSetKey is an order independent encoding of a set of identifiers.
func productSetKey(productIDs []string) (string, []string) {
	seen := make(map[string]struct{}, len(productIDs))
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, "\x1f"), ids
}

func (c *productsController) retrieveInfo(productIDs []string, completion func(RetrieveResults)) ProductsRequest {
	key, ids := productSetKey(productIDs)
	h := &productHandler{completion: completion}

	c.mu.Lock()
	if q, ok := c.inflight[key]; ok {
		if q.done {
			results := q.results
			c.mu.Unlock()
			completion(results)
			return nopRequest{}
		}
		q.handlers = append(q.handlers, h)
		c.mu.Unlock()
		return &productLookup{controller: c, key: key, query: q, handler: h}
	}

	q := &productQuery{handlers: []*productHandler{h}}
	q.request = c.builder.Request(ids, func(results RetrieveResults) {
		c.resolve(key, q, results)
	})
	c.inflight[key] = q
	c.mu.Unlock()

	log.Debugf("Starting product lookup for %v", ids)
	q.request.Start()
	return &productLookup{controller: c, key: key, query: q, handler: h}
}

func (c *productsController) resolve(key string, q *productQuery, results RetrieveResults) {
	c.mu.Lock()
	if q.done || q.cancelled {
		c.mu.Unlock()
		return
	}
	q.done = true
	q.results = results
	handlers := q.handlers
	q.handlers = nil
	c.mu.Unlock()

	for _, h := range handlers {
		h.completion(results)
	}

	c.mu.Lock()
	if c.inflight[key] == q {
		delete(c.inflight, key)
	}
	c.mu.Unlock()
}

// detach removes h from q. When h was the last handler the query is
// cancelled and forgotten, so the next lookup of key starts afresh.
func (c *productsController) detach(key string, q *productQuery, h *productHandler) {
	c.mu.Lock()
	if q.done || q.cancelled {
		c.mu.Unlock()
		return
	}
	for i, other := range q.handlers {
		if other == h {
			q.handlers = append(q.handlers[:i:i], q.handlers[i+1:]...)
			break
		}
	}
	if len(q.handlers) > 0 {
		c.mu.Unlock()
		return
	}
	q.cancelled = true
	if c.inflight[key] == q {
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	log.Debugf("Cancelled product lookup %q", key)
	q.request.Cancel()
}

// inflightCount reports the number of outstanding lookups.
func (c *productsController) inflightCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.inflight)
}

// cancelAll cancels every outstanding lookup without notifying its
// handlers.
func (c *productsController) cancelAll() {
	c.mu.Lock()
	requests := make([]ProductsRequest, 0, len(c.inflight))
	for key, q := range c.inflight {
		if q.done {
			continue
		}
		q.cancelled = true
		q.handlers = nil
		requests = append(requests, q.request)
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	for _, r := range requests {
		r.Cancel()
	}
}
