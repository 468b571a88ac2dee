package repositories

import "produkku/internal/models"

// ProductRepository defines the interface for product data access. Every
// read or write is scoped by the owning user; a lookup for a product that
// exists but belongs to someone else behaves exactly like a missing record.
type ProductRepository interface {
	Create(product *models.Product) error
	GetByOwner(id, userID string) (*models.Product, error)
	Update(product *models.Product) error
	// DeleteAndCompact removes the product and, in the same transaction,
	// decrements the position of every product of the same user that sat
	// behind it, restoring position density.
	DeleteAndCompact(product *models.Product) error

	Find(q ProductQuery) ([]models.Product, error)
	Count(q ProductQuery) (int64, error)
	Stats(q ProductQuery) (ProductStats, error)

	// MaxPosition returns the highest position of the user's products, or
	// -1 if the user owns none.
	MaxPosition(userID string) (int, error)
	// IDsInOrder returns all product ids of the user in current list order.
	IDsInOrder(userID string) ([]string, error)
	// SetPositions assigns position = index for each id, as one transaction.
	// Ids that do not belong to the user are ignored.
	SetPositions(userID string, ids []string) error
}
