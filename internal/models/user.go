package models

import "time"

// User represents an account in the product manager. Accounts are identified
// solely by email and created lazily on first login; there is no password,
// identity is proven by possession of a signed session token.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
