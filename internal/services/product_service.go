package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"produkku/internal/models"
	"produkku/internal/repositories"
)

// DefaultPageSize is used when a listing request does not specify a limit.
const DefaultPageSize = 50

// EventPublisher publishes product lifecycle events to a message broker.
// It is satisfied by *rabbitmq.Client; a nil publisher disables events.
type EventPublisher interface {
	PublishProductEvent(event string, payload map[string]interface{}) error
}

// ErrEmptyUpdate is returned when an update request carries no fields.
var ErrEmptyUpdate = errors.New("at least one field must be provided")

// ListParams carries the raw listing parameters as they arrive from the API.
type ListParams struct {
	Search       string
	AmountFilter string
	DateFilter   string
	SortBy       string
	SortOrder    string
	Page         int
	Limit        int
}

// Pagination is the metadata returned alongside every product listing.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

// DeleteStats summarizes what remains of the user's list after a delete.
type DeleteStats struct {
	RemainingProducts int64   `json:"remainingProducts"`
	TotalValue        float64 `json:"totalValue"`
}

// CreateProductInput is the validated payload for creating a product.
// Amount is a pointer so that a missing field can be told apart from zero.
type CreateProductInput struct {
	Name    string   `json:"name" validate:"required,max=100"`
	Amount  *float64 `json:"amount" validate:"required,gte=0"`
	Comment string   `json:"comment" validate:"omitempty,max=500"`
}

// UpdateProductInput is a partial update; nil fields are left untouched.
// Position updates are accepted as-is and not validated against density.
type UpdateProductInput struct {
	Name     *string  `json:"name" validate:"omitempty,max=100"`
	Amount   *float64 `json:"amount" validate:"omitempty,gte=0"`
	Comment  *string  `json:"comment" validate:"omitempty,max=500"`
	Position *int     `json:"position" validate:"omitempty,gte=0"`
}

// Empty reports whether the update carries no fields at all.
func (in UpdateProductInput) Empty() bool {
	return in.Name == nil && in.Amount == nil && in.Comment == nil && in.Position == nil
}

// ProductService handles business logic related to products: listing with
// filters and pagination, CRUD scoped to the calling user, and the ordered
// list maintenance delegated to the PositionMaintainer.
type ProductService struct {
	repo      repositories.ProductRepository
	positions *PositionMaintainer
	events    EventPublisher
}

// NewProductService creates a new ProductService. events may be nil, in
// which case lifecycle events are skipped.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		positions: NewPositionMaintainer(repo),
		events:    events,
	}
}

// List returns one page of the user's products plus pagination metadata.
func (s *ProductService) List(userID string, params ListParams) ([]models.Product, Pagination, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > repositories.MaxPageSize {
		limit = repositories.MaxPageSize
	}

	query := repositories.NewProductQuery(userID).Search(params.Search)
	if min, max := ParseAmountFilter(params.AmountFilter); min != nil || max != nil {
		query = query.AmountRange(min, max)
	}
	if from, to := ParseDateFilter(params.DateFilter, time.Now()); from != nil {
		query = query.DateRange(from, to)
	}
	if params.SortBy == "" || params.SortBy == "position" {
		query = query.DefaultSort()
	} else {
		query = query.Sort(params.SortBy, params.SortOrder)
	}
	query = query.Paginate(page, limit)

	products, err := s.repo.Find(query)
	if err != nil {
		return nil, Pagination{}, err
	}
	totalCount, err := s.repo.Count(query)
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))
	pagination := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
		Limit:       limit,
	}
	return products, pagination, nil
}

// Get retrieves a single product owned by the user.
func (s *ProductService) Get(userID, id string) (*models.Product, error) {
	return s.repo.GetByOwner(id, userID)
}

// Create adds a product at the end of the user's list.
func (s *ProductService) Create(userID string, in CreateProductInput) (*models.Product, error) {
	position, err := s.positions.NextPosition(userID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:       uuid.New().String(),
		UserID:   userID,
		Name:     strings.TrimSpace(in.Name),
		Amount:   *in.Amount,
		Comment:  strings.TrimSpace(in.Comment),
		Position: position,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}

	s.publish("product.created", map[string]interface{}{
		"productId": product.ID,
		"userId":    userID,
		"position":  product.Position,
	})
	return product, nil
}

// Update applies a partial update to a product owned by the user.
func (s *ProductService) Update(userID, id string, in UpdateProductInput) (*models.Product, error) {
	if in.Empty() {
		return nil, ErrEmptyUpdate
	}

	product, err := s.repo.GetByOwner(id, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Amount != nil {
		product.Amount = *in.Amount
	}
	if in.Comment != nil {
		product.Comment = strings.TrimSpace(*in.Comment)
	}
	if in.Position != nil {
		product.Position = *in.Position
	}

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}

	s.publish("product.updated", map[string]interface{}{
		"productId": product.ID,
		"userId":    userID,
	})
	return product, nil
}

// Delete removes a product owned by the user, compacts the remaining
// positions and returns the deleted product together with updated aggregate
// stats for the user's list.
func (s *ProductService) Delete(userID, id string) (*models.Product, DeleteStats, error) {
	product, err := s.repo.GetByOwner(id, userID)
	if err != nil {
		return nil, DeleteStats{}, err
	}

	if err := s.positions.Remove(product); err != nil {
		return nil, DeleteStats{}, err
	}

	aggregate, err := s.repo.Stats(repositories.NewProductQuery(userID))
	if err != nil {
		return nil, DeleteStats{}, err
	}
	stats := DeleteStats{
		RemainingProducts: aggregate.TotalProducts,
		TotalValue:        aggregate.TotalAmount,
	}

	s.publish("product.deleted", map[string]interface{}{
		"productId": product.ID,
		"userId":    userID,
		"remaining": stats.RemainingProducts,
	})
	return product, stats, nil
}

// Reorder applies the caller's desired full order and returns the user's
// complete list in the new order.
func (s *ProductService) Reorder(userID string, productIDs []string) ([]models.Product, error) {
	if err := s.positions.Reorder(userID, productIDs); err != nil {
		return nil, err
	}

	products, err := s.repo.Find(repositories.NewProductQuery(userID))
	if err != nil {
		return nil, err
	}

	s.publish("product.reordered", map[string]interface{}{
		"userId": userID,
		"count":  len(products),
	})
	return products, nil
}

// Stats returns aggregate amount statistics over the user's full list.
func (s *ProductService) Stats(userID string) (repositories.ProductStats, error) {
	return s.repo.Stats(repositories.NewProductQuery(userID))
}

// publish sends a product lifecycle event. Event delivery is best-effort:
// a broker failure is logged and never fails the originating request.
func (s *ProductService) publish(event string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(event, payload); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("failed to publish product event")
	}
}
