package models

import (
	"time"

	"gorm.io/gorm"
)

// Product catalog entry owned by a shop.
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                   // primary key
	ShopID      uint           `gorm:"index;not null" json:"shop_id"`          // owning shop
	Name        string         `gorm:"not null" json:"name"`                   // product name
	Description string         `gorm:"type:text" json:"description,omitempty"` // product description
	IsActive    bool           `gorm:"default:true" json:"is_active"`          // listed flag
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                // creation time
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                // update time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                         // soft delete time

	Shop     *Shop     `gorm:"foreignKey:ShopID" json:"shop,omitempty"`        // owning shop
	Variants []Variant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // sellable SKUs
}

// TableName sets the table name.
func (Product) TableName() string {
	return "products"
}
