package repositories

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Columns that products may be sorted by, keyed by their API field names.
var sortColumns = map[string]string{
	"name":      "name",
	"amount":    "amount",
	"createdAt": "created_at",
	"position":  "position",
}

// MaxPageSize caps the page size of any product listing.
const MaxPageSize = 100

// ProductQuery is an immutable filter/sort/pagination specification over one
// user's products. Every method returns a modified copy, so query values can
// be shared and extended freely without hidden state. The user scope is fixed
// at construction and cannot be widened afterwards.
type ProductQuery struct {
	userID    string
	search    string
	minAmount *float64
	maxAmount *float64
	dateFrom  *time.Time
	dateTo    *time.Time
	sortField string
	sortOrder string
	offset    int
	limit     int
}

// NewProductQuery creates a query scoped to the given user. Without further
// refinement it matches all of the user's products in default order.
func NewProductQuery(userID string) ProductQuery {
	return ProductQuery{userID: userID}
}

// Search adds a case-insensitive substring match on the product name.
// A blank or whitespace-only term is a no-op.
func (q ProductQuery) Search(term string) ProductQuery {
	if term = strings.TrimSpace(term); term != "" {
		q.search = term
	}
	return q
}

// AmountRange sets inclusive bounds on the amount. Either bound may be nil.
func (q ProductQuery) AmountRange(min, max *float64) ProductQuery {
	q.minAmount = min
	q.maxAmount = max
	return q
}

// DateRange bounds the creation time: from is inclusive, to is exclusive.
// The half-open interval matches the day/week/month/year buckets exposed by
// the API, which always end on a midnight boundary.
func (q ProductQuery) DateRange(from, to *time.Time) ProductQuery {
	q.dateFrom = from
	q.dateTo = to
	return q
}

// Sort orders the results by one of the fields in sortColumns. Unknown
// fields are ignored and leave the current ordering in place; any order
// value other than "desc" means ascending.
func (q ProductQuery) Sort(field, order string) ProductQuery {
	if _, ok := sortColumns[field]; !ok {
		return q
	}
	if order != "desc" {
		order = "asc"
	}
	q.sortField = field
	q.sortOrder = order
	return q
}

// DefaultSort resets the ordering to position then creation time, i.e. the
// user's drag order.
func (q ProductQuery) DefaultSort() ProductQuery {
	q.sortField = ""
	q.sortOrder = ""
	return q
}

// Paginate selects one page of results. Pages start at 1; the limit is
// clamped to [1, MaxPageSize].
func (q ProductQuery) Paginate(page, limit int) ProductQuery {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	q.offset = (page - 1) * limit
	q.limit = limit
	return q
}

// filter applies the WHERE clauses shared by Find, Count and Stats. The user
// scope is always applied first, which makes cross-user leakage impossible
// regardless of how the rest of the query is built.
func (q ProductQuery) filter(db *gorm.DB) *gorm.DB {
	db = db.Where("user_id = ?", q.userID)
	if q.search != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.search)+"%")
	}
	if q.minAmount != nil {
		db = db.Where("amount >= ?", *q.minAmount)
	}
	if q.maxAmount != nil {
		db = db.Where("amount <= ?", *q.maxAmount)
	}
	if q.dateFrom != nil {
		db = db.Where("created_at >= ?", *q.dateFrom)
	}
	if q.dateTo != nil {
		db = db.Where("created_at < ?", *q.dateTo)
	}
	return db
}

// scope additionally applies ordering and pagination on top of filter.
// Count and Stats intentionally bypass it: totals always cover the whole
// filtered set.
func (q ProductQuery) scope(db *gorm.DB) *gorm.DB {
	db = q.filter(db)
	if q.sortField != "" {
		db = db.Order(sortColumns[q.sortField] + " " + q.sortOrder)
	} else {
		db = db.Order("position asc").Order("created_at asc")
	}
	if q.limit > 0 {
		db = db.Offset(q.offset).Limit(q.limit)
	}
	return db
}

// ProductStats aggregates the filtered set, ignoring pagination.
type ProductStats struct {
	TotalProducts int64   `json:"totalProducts"`
	TotalAmount   float64 `json:"totalAmount"`
	AverageAmount float64 `json:"averageAmount"`
	MaxAmount     float64 `json:"maxAmount"`
	MinAmount     float64 `json:"minAmount"`
}
