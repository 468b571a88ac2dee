package models

import "time"

// Product is a single entry in a user's ordered product list. Each product
// belongs to exactly one user (by foreign key). Within one user's list the
// position values form a dense 0..N-1 sequence; creates, deletes and bulk
// reorders all go through the position maintainer to keep it that way.
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index:idx_products_user_position"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Amount    float64   `json:"amount" validate:"gte=0"`
	Comment   string    `json:"comment" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	Position  int       `json:"position" gorm:"index:idx_products_user_position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
