package client_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"produkku/pkg/client"

	"github.com/stretchr/testify/assert"
)

type serverProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Position int     `json:"position"`
}

// fakeAPI is a minimal stand-in for the products endpoint: it serves pages
// from an in-memory ordered list, counts listing calls so tests can prove
// which operations hit the network, and can be told to fail.
type fakeAPI struct {
	mu          sync.Mutex
	products    []serverProduct
	listCalls   int
	failList    bool
	failReorder bool
}

func newFakeAPI(n int) *fakeAPI {
	f := &fakeAPI{}
	for i := 0; i < n; i++ {
		f.products = append(f.products, serverProduct{
			ID:       fmt.Sprintf("id-%02d", i),
			Name:     fmt.Sprintf("Product %02d", i),
			Amount:   float64(i),
			Position: i,
		})
	}
	return f
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/products", f.handleList)
	mux.HandleFunc("/products/reorder", f.handleReorder)
	return mux
}

func (f *fakeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failList {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		return
	}
	f.listCalls++

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 9
	}

	total := len(f.products)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	totalPages := (total + limit - 1) / limit

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"products": f.products[start:end],
		"pagination": map[string]interface{}{
			"currentPage": page,
			"totalPages":  totalPages,
			"totalCount":  total,
			"hasNextPage": page < totalPages,
			"hasPrevPage": page > 1,
			"limit":       limit,
		},
	})
}

func (f *fakeAPI) handleReorder(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failReorder {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		return
	}

	var req struct {
		ProductIDs []string `json:"productIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	byID := make(map[string]serverProduct, len(f.products))
	for _, p := range f.products {
		byID[p.ID] = p
	}
	reordered := make([]serverProduct, 0, len(f.products))
	named := make(map[string]bool, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		if p, ok := byID[id]; ok {
			reordered = append(reordered, p)
			named[id] = true
		}
	}
	for _, p := range f.products {
		if !named[p.ID] {
			reordered = append(reordered, p)
		}
	}
	for i := range reordered {
		reordered[i].Position = i
	}
	f.products = reordered

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"products": f.products,
	})
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeAPI) setFailList(v bool) {
	f.mu.Lock()
	f.failList = v
	f.mu.Unlock()
}

func (f *fakeAPI) setFailReorder(v bool) {
	f.mu.Lock()
	f.failReorder = v
	f.mu.Unlock()
}

func productIDs(products []client.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func newTestList(t *testing.T, f *fakeAPI, limit int) (*client.ProductList, *httptest.Server) {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL)
	assert.NoError(t, err)
	return c.NewProductList(client.ListParams{Limit: limit}), srv
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Product not found"})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	assert.NoError(t, err)

	_, err = c.GetProduct("missing")
	var apiErr *client.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Product not found", apiErr.Message)
}

func TestClientCarriesSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "session-token", Path: "/"})
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"user":    map[string]string{"id": "user-1", "email": "alice@example.com"},
		})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("token"); err != nil || cookie.Value == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"user":    map[string]string{"id": "user-1", "email": "alice@example.com"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := client.New(srv.URL)
	assert.NoError(t, err)

	// Without a session the API rejects us.
	_, err = c.Me()
	var apiErr *client.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	// Login stores the cookie; subsequent calls carry it automatically.
	user, err := c.Login("alice@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	user, err = c.Me()
	assert.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestProductListLoadMoreAndShowPrevious(t *testing.T) {
	f := newFakeAPI(27)
	list, _ := newTestList(t, f, 9)

	assert.NoError(t, list.Refresh())
	assert.Len(t, list.Products(), 9)
	assert.Equal(t, 1, list.CurrentPage())
	assert.False(t, list.HasLoadedMore())
	assert.True(t, list.Pagination().HasNextPage)

	assert.NoError(t, list.LoadMore())
	assert.Len(t, list.Products(), 18)
	assert.Equal(t, 2, list.CurrentPage())
	assert.True(t, list.HasLoadedMore())

	assert.NoError(t, list.LoadMore())
	assert.Len(t, list.Products(), 27)
	assert.Equal(t, 3, list.CurrentPage())
	assert.False(t, list.Pagination().HasNextPage)

	// No next page: LoadMore is a no-op and does not hit the network.
	calls := f.calls()
	assert.NoError(t, list.LoadMore())
	assert.Equal(t, calls, f.calls())
	assert.Len(t, list.Products(), 27)

	// ShowPrevious trims the window from cache, no network involved.
	list.ShowPrevious()
	assert.Equal(t, calls, f.calls())
	assert.Len(t, list.Products(), 18)
	assert.Equal(t, 2, list.CurrentPage())
	assert.Equal(t, "id-00", list.Products()[0].ID)
	assert.Equal(t, "id-17", list.Products()[17].ID)
	assert.True(t, list.Pagination().HasNextPage)
	assert.True(t, list.Pagination().HasPrevPage)
	assert.True(t, list.CanShowPrevious())

	// Back at page one the load-more state resets, but more pages exist.
	list.ShowPrevious()
	assert.Equal(t, calls, f.calls())
	assert.Len(t, list.Products(), 9)
	assert.Equal(t, 1, list.CurrentPage())
	assert.False(t, list.HasLoadedMore())
	assert.True(t, list.Pagination().HasNextPage)
	assert.False(t, list.Pagination().HasPrevPage)
	assert.False(t, list.CanShowPrevious())

	// A further ShowPrevious changes nothing.
	list.ShowPrevious()
	assert.Len(t, list.Products(), 9)
	assert.Equal(t, 1, list.CurrentPage())
}

func TestProductListOptimisticReorderRollsBackOnFailure(t *testing.T) {
	f := newFakeAPI(3)
	list, _ := newTestList(t, f, 9)

	assert.NoError(t, list.Refresh())
	original := productIDs(list.Products())
	assert.Equal(t, []string{"id-00", "id-01", "id-02"}, original)

	f.setFailReorder(true)
	err := list.Reorder([]string{"id-02", "id-00", "id-01"})
	assert.Error(t, err)
	// The optimistic permutation was rolled back.
	assert.Equal(t, original, productIDs(list.Products()))

	f.setFailReorder(false)
	assert.NoError(t, list.Reorder([]string{"id-02", "id-00", "id-01"}))
	assert.Equal(t, []string{"id-02", "id-00", "id-01"}, productIDs(list.Products()))
}

func TestProductListFailedRefreshKeepsData(t *testing.T) {
	f := newFakeAPI(3)
	list, _ := newTestList(t, f, 9)

	assert.NoError(t, list.Refresh())
	assert.Len(t, list.Products(), 3)

	// A failed filter change keeps what was on screen.
	f.setFailList(true)
	err := list.SetSearch("anything")
	assert.Error(t, err)
	assert.Len(t, list.Products(), 3)
}

func TestProductListFailedInitialLoadStaysEmpty(t *testing.T) {
	f := newFakeAPI(3)
	f.setFailList(true)
	list, _ := newTestList(t, f, 9)

	err := list.Refresh()
	assert.Error(t, err)
	assert.Empty(t, list.Products())
}
