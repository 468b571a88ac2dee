package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"produkku/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create inserts a new product into the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByOwner retrieves a single product by its ID, scoped to the owner.
// Missing and foreign products both yield ErrNotFound.
func (r *GORMProductRepository) GetByOwner(id, userID string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &product, nil
}

// Update persists all fields of an existing product.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAndCompact removes the product and closes the resulting position gap
// in one transaction: every product of the same user behind the deleted one
// moves forward by one.
func (r *GORMProductRepository) DeleteAndCompact(product *models.Product) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", product.ID, product.UserID).
			Delete(&models.Product{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete product %s: %w", product.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		err := tx.Model(&models.Product{}).
			Where("user_id = ? AND position > ?", product.UserID, product.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return fmt.Errorf("failed to compact positions: %w", err)
		}
		return nil
	})
}

// Find returns the products matching the query, ordered and paginated.
func (r *GORMProductRepository) Find(q ProductQuery) ([]models.Product, error) {
	var products []models.Product
	if err := q.scope(r.db.Model(&models.Product{})).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// Count returns the total number of products matching the query, ignoring
// pagination.
func (r *GORMProductRepository) Count(q ProductQuery) (int64, error) {
	var count int64
	if err := q.filter(r.db.Model(&models.Product{})).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// Stats aggregates amount statistics over the filtered set, ignoring
// pagination.
func (r *GORMProductRepository) Stats(q ProductQuery) (ProductStats, error) {
	var stats ProductStats
	row := q.filter(r.db.Model(&models.Product{})).
		Select("COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0), COALESCE(MAX(amount), 0), COALESCE(MIN(amount), 0)").
		Row()
	if err := row.Scan(&stats.TotalProducts, &stats.TotalAmount, &stats.AverageAmount, &stats.MaxAmount, &stats.MinAmount); err != nil {
		return ProductStats{}, fmt.Errorf("failed to aggregate product stats: %w", err)
	}
	return stats, nil
}

// MaxPosition returns the highest position among the user's products, or -1
// when the user owns none.
func (r *GORMProductRepository) MaxPosition(userID string) (int, error) {
	var max sql.NullInt64
	row := r.db.Model(&models.Product{}).
		Where("user_id = ?", userID).
		Select("MAX(position)").
		Row()
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max position: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// IDsInOrder returns the user's product ids sorted by position (creation
// time as tie-break).
func (r *GORMProductRepository) IDsInOrder(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Product{}).
		Where("user_id = ?", userID).
		Order("position asc").
		Order("created_at asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product ids: %w", err)
	}
	return ids, nil
}

// SetPositions assigns position = index in ids to each product, scoped to
// the user, inside a single transaction so the batch is applied as one
// logical operation. Ids not owned by the user simply update no rows.
func (r *GORMProductRepository) SetPositions(userID string, ids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			err := tx.Model(&models.Product{}).
				Where("id = ? AND user_id = ?", id, userID).
				UpdateColumn("position", i).Error
			if err != nil {
				return fmt.Errorf("failed to set position of product %s: %w", id, err)
			}
		}
		return nil
	})
}
