package models

import (
	"time"

	"gorm.io/gorm"
)

// Variant sellable SKU of a product. Quantity is on-hand stock; reserved
// quantity tracks units held by unpaid orders. Sellable = quantity - reserved.
type Variant struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                      // primary key
	ProductID         uint           `gorm:"index;not null" json:"product_id"`                          // owning product
	SKUCode           string         `gorm:"uniqueIndex;not null" json:"sku_code"`                      // seller SKU code
	Name              string         `gorm:"not null" json:"name"`                                      // variant name, e.g. "Red / XL"
	PriceAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // unit price
	Quantity          int            `gorm:"not null;default:0" json:"quantity"`                        // on-hand stock
	ReservedQuantity  int            `gorm:"not null;default:0" json:"reserved_quantity"`               // held by pending orders
	LowStockThreshold int            `gorm:"not null;default:0" json:"low_stock_threshold"`             // 0 means use the site default
	IsActive          bool           `gorm:"default:true" json:"is_active"`                             // purchasable flag
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                   // creation time
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                   // update time
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                            // soft delete time

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // owning product
}

// TableName sets the table name.
func (Variant) TableName() string {
	return "variants"
}

// Sellable units currently available for purchase.
func (v *Variant) Sellable() int {
	n := v.Quantity - v.ReservedQuantity
	if n < 0 {
		return 0
	}
	return n
}
