package repositories_test

import (
	"testing"
	"time"

	"produkku/internal/models"
	"produkku/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestProductQuery_SearchIsCaseInsensitive(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo, "user-1", "Widget", 10, 0)
	seed(t, repo, "user-1", "wIDget Pro", 20, 1)
	seed(t, repo, "user-1", "Gadget", 30, 2)

	products, err := repo.Find(repositories.NewProductQuery("user-1").Search("wid"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Widget", "wIDget Pro"}, names(products))

	// Blank terms match everything.
	products, err = repo.Find(repositories.NewProductQuery("user-1").Search("   "))
	assert.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestProductQuery_AmountBoundsAreInclusive(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo, "user-1", "Below", 99, 0)
	seed(t, repo, "user-1", "AtMin", 100, 1)
	seed(t, repo, "user-1", "AtMax", 500, 2)
	seed(t, repo, "user-1", "Above", 501, 3)

	q := repositories.NewProductQuery("user-1").AmountRange(ptr(100), ptr(500))
	products, err := repo.Find(q)
	assert.NoError(t, err)
	assert.Equal(t, []string{"AtMin", "AtMax"}, names(products))

	// A nil upper bound leaves the range open.
	q = repositories.NewProductQuery("user-1").AmountRange(ptr(100), nil)
	products, err = repo.Find(q)
	assert.NoError(t, err)
	assert.Equal(t, []string{"AtMin", "AtMax", "Above"}, names(products))
}

func TestProductQuery_DateRangeIsHalfOpen(t *testing.T) {
	repo := setupRepo(t)

	mk := func(name string, created time.Time, position int) {
		product := &models.Product{
			UserID:    "user-1",
			Name:      name,
			Amount:    1,
			Position:  position,
			CreatedAt: created,
		}
		if err := repo.Create(product); err != nil {
			t.Fatalf("failed to seed product %s: %v", name, err)
		}
	}

	dayStart := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	mk("Yesterday", dayStart.Add(-time.Hour), 0)
	mk("Midnight", dayStart, 1)
	mk("Noon", dayStart.Add(12*time.Hour), 2)
	mk("NextMidnight", dayEnd, 3)

	q := repositories.NewProductQuery("user-1").DateRange(&dayStart, &dayEnd)
	products, err := repo.Find(q)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Midnight", "Noon"}, names(products))
}

func TestProductQuery_UserScoping(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo, "user-1", "Mine", 10, 0)
	seed(t, repo, "user-2", "Theirs", 10, 0)

	products, err := repo.Find(repositories.NewProductQuery("user-1"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Mine"}, names(products))

	count, err := repo.Count(repositories.NewProductQuery("user-2"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProductQuery_Sorting(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo, "user-1", "Cherry", 30, 0)
	seed(t, repo, "user-1", "Apple", 10, 1)
	seed(t, repo, "user-1", "Banana", 20, 2)

	products, err := repo.Find(repositories.NewProductQuery("user-1").Sort("name", "asc"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Banana", "Cherry"}, names(products))

	products, err = repo.Find(repositories.NewProductQuery("user-1").Sort("amount", "desc"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Cherry", "Banana", "Apple"}, names(products))

	// Unknown fields are ignored and the default position order applies.
	products, err = repo.Find(repositories.NewProductQuery("user-1").Sort("amount; DROP TABLE products", "desc"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Cherry", "Apple", "Banana"}, names(products))

	// Any order other than desc means asc.
	products, err = repo.Find(repositories.NewProductQuery("user-1").Sort("amount", "sideways"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Banana", "Cherry"}, names(products))
}

func TestProductQuery_Pagination(t *testing.T) {
	repo := setupRepo(t)
	for i := 0; i < 5; i++ {
		seed(t, repo, "user-1", string(rune('A'+i)), float64(i), i)
	}

	products, err := repo.Find(repositories.NewProductQuery("user-1").Paginate(2, 2))
	assert.NoError(t, err)
	assert.Equal(t, []string{"C", "D"}, names(products))

	products, err = repo.Find(repositories.NewProductQuery("user-1").Paginate(3, 2))
	assert.NoError(t, err)
	assert.Equal(t, []string{"E"}, names(products))

	// Count ignores pagination.
	count, err := repo.Count(repositories.NewProductQuery("user-1").Paginate(3, 2))
	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestProductQuery_Stats(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo, "user-1", "A", 50, 0)
	seed(t, repo, "user-1", "B", 200, 1)
	seed(t, repo, "user-1", "C", 800, 2)
	seed(t, repo, "user-2", "X", 10000, 0)

	stats, err := repo.Stats(repositories.NewProductQuery("user-1"))
	assert.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalProducts)
	assert.Equal(t, 1050.0, stats.TotalAmount)
	assert.Equal(t, 350.0, stats.AverageAmount)
	assert.Equal(t, 800.0, stats.MaxAmount)
	assert.Equal(t, 50.0, stats.MinAmount)

	// An empty result set aggregates to zeros.
	stats, err = repo.Stats(repositories.NewProductQuery("user-3"))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalProducts)
	assert.Equal(t, 0.0, stats.TotalAmount)
}

func TestProductQuery_StatsHonorFilters(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo, "user-1", "Cheap", 50, 0)
	seed(t, repo, "user-1", "Mid", 200, 1)
	seed(t, repo, "user-1", "Expensive", 800, 2)

	q := repositories.NewProductQuery("user-1").AmountRange(ptr(100), ptr(500))
	stats, err := repo.Stats(q)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalProducts)
	assert.Equal(t, 200.0, stats.TotalAmount)
}
