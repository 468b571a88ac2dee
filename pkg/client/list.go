package client

import "sync"

// fallbackPageSize matches the UI's card grid when neither the server nor
// the caller stated a page size.
const fallbackPageSize = 9

// ProductList is a stateful view over the paginated products endpoint. It
// accumulates fetched pages (`all`) and exposes a visible prefix of them
// (`displayed`): LoadMore grows both, ShowPrevious shrinks only the visible
// prefix without refetching. Changing search, filters or sort discards the
// accumulated pages and restarts from page one. Concurrent fetches are
// sequence-stamped so a slow older response can never overwrite a newer one.
type ProductList struct {
	mu     sync.Mutex
	c      *Client
	params ListParams

	all           []Product // every page fetched since the last refresh
	displayed     []Product // visible prefix of all
	pagination    Pagination
	hasPagination bool
	currentPage   int
	hasLoadedMore bool

	seq      uint64 // stamps fetches so stale responses are dropped
	inFlight bool
}

// NewProductList creates a view with the given parameters. Call Refresh to
// load the first page.
func (c *Client) NewProductList(params ListParams) *ProductList {
	return &ProductList{
		c:           c,
		params:      params,
		currentPage: 1,
	}
}

// Refresh loads page one with the current parameters, discarding all
// accumulated pages. A failed refresh keeps the previously displayed data;
// only a failed initial load leaves the view empty.
func (l *ProductList) Refresh() error {
	return l.fetch(1, false)
}

func (l *ProductList) fetch(page int, appendPage bool) error {
	l.mu.Lock()
	l.seq++
	token := l.seq
	l.inFlight = true
	params := l.params
	l.mu.Unlock()

	result, err := l.c.GetProducts(params, page)

	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.seq {
		// A newer request superseded this one; drop the result.
		return nil
	}
	l.inFlight = false

	if err != nil {
		if !appendPage && len(l.all) == 0 {
			// Nothing was ever loaded, so there is nothing stale to keep.
			l.all = nil
			l.displayed = nil
		}
		return err
	}

	if appendPage {
		l.all = append(l.all, result.Products...)
		l.displayed = append(l.displayed, result.Products...)
		l.currentPage = page
		l.hasLoadedMore = true
	} else {
		l.all = append([]Product(nil), result.Products...)
		l.displayed = append([]Product(nil), result.Products...)
		l.currentPage = 1
		l.hasLoadedMore = false
	}
	l.pagination = result.Pagination
	l.hasPagination = true
	return nil
}

// SetSearch changes the search term and refreshes from page one.
func (l *ProductList) SetSearch(term string) error {
	l.mu.Lock()
	l.params.Search = term
	l.mu.Unlock()
	return l.Refresh()
}

// SetSort changes the ordering and refreshes from page one.
func (l *ProductList) SetSort(field, order string) error {
	l.mu.Lock()
	l.params.SortBy = field
	l.params.SortOrder = order
	l.mu.Unlock()
	return l.Refresh()
}

// SetAmountFilter replaces the selected amount buckets and refreshes.
func (l *ProductList) SetAmountFilter(tokens ...string) error {
	l.mu.Lock()
	l.params.AmountFilter = tokens
	l.mu.Unlock()
	return l.Refresh()
}

// SetDateFilter replaces the selected date buckets and refreshes.
func (l *ProductList) SetDateFilter(tokens ...string) error {
	l.mu.Lock()
	l.params.DateFilter = tokens
	l.mu.Unlock()
	return l.Refresh()
}

// LoadMore fetches the next page and appends it to the view. It is a no-op
// when the server reports no next page or another fetch is in flight.
func (l *ProductList) LoadMore() error {
	l.mu.Lock()
	if l.inFlight || !l.hasPagination || !l.pagination.HasNextPage {
		l.mu.Unlock()
		return nil
	}
	next := l.currentPage + 1
	l.mu.Unlock()
	return l.fetch(next, true)
}

// ShowPrevious shrinks the visible window by one page, purely client-side:
// the already-fetched pages stay cached so no network call is needed. Only
// meaningful after at least one LoadMore.
func (l *ProductList) ShowPrevious() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasLoadedMore || l.currentPage <= 1 {
		return
	}

	limit := l.pageSize()
	end := (l.currentPage - 1) * limit
	if end > len(l.all) {
		end = len(l.all)
	}
	l.displayed = append([]Product(nil), l.all[:end]...)
	l.currentPage--

	if l.currentPage == 1 {
		l.hasLoadedMore = false
		l.pagination.HasNextPage = len(l.all) > limit
	} else {
		l.pagination.HasNextPage = true
	}
	l.pagination.HasPrevPage = l.currentPage > 1
}

// Reorder applies the new order locally first, then confirms it with the
// server. On success the canonical order is re-fetched; on failure the
// pre-drag snapshot is restored and the error returned, without an extra
// round trip.
func (l *ProductList) Reorder(productIDs []string) error {
	l.mu.Lock()
	snapshotAll := append([]Product(nil), l.all...)
	snapshotDisplayed := append([]Product(nil), l.displayed...)
	l.all = permute(l.all, productIDs)
	l.displayed = permute(l.displayed, productIDs)
	l.mu.Unlock()

	if _, err := l.c.Reorder(productIDs); err != nil {
		l.mu.Lock()
		l.all = snapshotAll
		l.displayed = snapshotDisplayed
		l.mu.Unlock()
		return err
	}
	return l.Refresh()
}

// Create adds a product and refreshes from page one. Accumulated load-more
// state is deliberately not preserved across single-row mutations.
func (l *ProductList) Create(in CreateProduct) (*Product, error) {
	product, err := l.c.CreateProduct(in)
	if err != nil {
		return nil, err
	}
	return product, l.Refresh()
}

// Update edits a product and refreshes from page one.
func (l *ProductList) Update(id string, in UpdateProduct) (*Product, error) {
	product, err := l.c.UpdateProduct(id, in)
	if err != nil {
		return nil, err
	}
	return product, l.Refresh()
}

// Delete removes a product and refreshes from page one.
func (l *ProductList) Delete(id string) (*DeleteResult, error) {
	result, err := l.c.DeleteProduct(id)
	if err != nil {
		return nil, err
	}
	return result, l.Refresh()
}

// Products returns a copy of the currently visible products.
func (l *ProductList) Products() []Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Product(nil), l.displayed...)
}

// Pagination returns the most recent pagination metadata.
func (l *ProductList) Pagination() Pagination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pagination
}

// CurrentPage returns the page the visible window ends at.
func (l *ProductList) CurrentPage() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentPage
}

// HasLoadedMore reports whether any page was appended since the last full
// refresh.
func (l *ProductList) HasLoadedMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasLoadedMore
}

// CanShowPrevious reports whether ShowPrevious would change the view.
func (l *ProductList) CanShowPrevious() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasLoadedMore && l.currentPage > 1
}

func (l *ProductList) pageSize() int {
	if l.hasPagination && l.pagination.Limit > 0 {
		return l.pagination.Limit
	}
	if l.params.Limit > 0 {
		return l.params.Limit
	}
	return fallbackPageSize
}

// permute orders products to match ids; products not named by ids keep
// their relative order after the named ones, mirroring how the server
// resolves incomplete reorder requests.
func permute(products []Product, ids []string) []Product {
	named := make(map[string]bool, len(ids))
	out := make([]Product, 0, len(products))
	for _, id := range ids {
		for _, p := range products {
			if p.ID == id {
				out = append(out, p)
				named[id] = true
				break
			}
		}
	}
	for _, p := range products {
		if !named[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
