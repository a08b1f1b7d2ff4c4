package models

import (
	"time"
)

// CartItem one variant selection in a user's cart. Cart lines are hard
// deleted: a soft-deleted row would keep occupying the (user, variant)
// unique slot after checkout.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                          // primary key
	UserID    uint      `gorm:"index:idx_cart_user_variant,unique;not null" json:"user_id"`    // cart owner
	VariantID uint      `gorm:"index:idx_cart_user_variant,unique;not null" json:"variant_id"` // selected variant
	Quantity  int       `gorm:"not null" json:"quantity"`                                      // desired quantity
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                       // creation time
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                       // update time

	Variant *Variant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // selected variant
}

// TableName sets the table name.
func (CartItem) TableName() string {
	return "cart_items"
}
