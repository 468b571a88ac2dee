package services

import (
	"fmt"

	"produkku/internal/models"
	"produkku/internal/repositories"
)

// PositionMaintainer keeps the position values of one user's products a
// dense 0..N-1 sequence across the three mutation paths: create, delete and
// bulk reorder.
type PositionMaintainer struct {
	repo repositories.ProductRepository
}

// NewPositionMaintainer creates a new PositionMaintainer.
func NewPositionMaintainer(repo repositories.ProductRepository) *PositionMaintainer {
	return &PositionMaintainer{
		repo: repo,
	}
}

// NextPosition returns the position for a product about to be created:
// one past the user's current maximum, or 0 for an empty list. Using max+1
// rather than the row count keeps creates collision-free even if an earlier
// failure left a gap in the sequence.
func (m *PositionMaintainer) NextPosition(userID string) (int, error) {
	max, err := m.repo.MaxPosition(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to determine next position: %w", err)
	}
	return max + 1, nil
}

// Remove deletes the product and closes the gap it leaves: every product of
// the same user with a higher position moves forward by one. The delete and
// the shift happen in one transaction.
func (m *PositionMaintainer) Remove(product *models.Product) error {
	return m.repo.DeleteAndCompact(product)
}

// Reorder applies the caller's desired order. Ids that do not belong to the
// user are silently dropped, and products the caller omitted are appended
// after the supplied ones in their prior relative order, so the resulting
// permutation always covers the user's full list and density holds even for
// an incomplete request.
func (m *PositionMaintainer) Reorder(userID string, requestedIDs []string) error {
	current, err := m.repo.IDsInOrder(userID)
	if err != nil {
		return fmt.Errorf("failed to load current order: %w", err)
	}

	owned := make(map[string]bool, len(current))
	for _, id := range current {
		owned[id] = true
	}

	ordered := make([]string, 0, len(current))
	seen := make(map[string]bool, len(requestedIDs))
	for _, id := range requestedIDs {
		if owned[id] && !seen[id] {
			ordered = append(ordered, id)
			seen[id] = true
		}
	}
	for _, id := range current {
		if !seen[id] {
			ordered = append(ordered, id)
		}
	}

	if err := m.repo.SetPositions(userID, ordered); err != nil {
		return fmt.Errorf("failed to apply new order: %w", err)
	}
	return nil
}
