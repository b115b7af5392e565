package storekittest

import (
	"sync"
	"sync/atomic"

	"iapkit/pkg/storekit"
)

// Catalog is an in-memory storekit.ProductsRequestBuilder. With Manual set,
// started lookups wait until Resolve is called.
type Catalog struct {
	Manual bool

	mu       sync.Mutex
	products map[string]storekit.Product
	pending  []*request
	err      error

	requests int32
}

var _ storekit.ProductsRequestBuilder = (*Catalog)(nil)

// NewCatalog creates a catalog holding products.
func NewCatalog(products ...storekit.Product) *Catalog {
	c := &Catalog{products: make(map[string]storekit.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// FailWith makes every following lookup fail with err.
func (c *Catalog) FailWith(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Requests is the number of lookups created.
func (c *Catalog) Requests() int {
	return int(atomic.LoadInt32(&c.requests))
}

func (c *Catalog) Request(productIDs []string, completion func(storekit.RetrieveResults)) storekit.ProductsRequest {
	atomic.AddInt32(&c.requests, 1)
	return &request{
		catalog:    c,
		productIDs: append([]string(nil), productIDs...),
		completion: completion,
	}
}

// Resolve completes every pending lookup on the calling goroutine.
func (c *Catalog) Resolve() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, r := range pending {
		r.resolve()
	}
}

// Pending is the number of started lookups waiting for Resolve.
func (c *Catalog) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Catalog) lookup(ids []string) storekit.RetrieveResults {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return storekit.RetrieveResults{Err: c.err}
	}

	var results storekit.RetrieveResults
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			results.Products = append(results.Products, p)
			continue
		}
		results.InvalidProductIDs = append(results.InvalidProductIDs, id)
	}
	if len(results.Products) == 0 {
		results.Err = storekit.ErrNoProducts
	}
	return results
}

type request struct {
	catalog    *Catalog
	productIDs []string
	completion func(storekit.RetrieveResults)

	once      sync.Once
	cancelled atomic.Bool
}

func (r *request) Start() {
	if r.catalog.Manual {
		r.catalog.mu.Lock()
		r.catalog.pending = append(r.catalog.pending, r)
		r.catalog.mu.Unlock()
		return
	}
	go r.resolve()
}

// Cancel suppresses delivery unless the lookup is already resolving.
func (r *request) Cancel() {
	r.cancelled.Store(true)
}

func (r *request) resolve() {
	if r.cancelled.Load() {
		return
	}
	r.once.Do(func() {
		r.completion(r.catalog.lookup(r.productIDs))
	})
}
