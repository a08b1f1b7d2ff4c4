package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem snapshot of one cart line at checkout time. Name and price are
// copied so later catalog edits do not rewrite history.
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // primary key
	SubOrderID  uint           `gorm:"index;not null" json:"sub_order_id"`                       // owning sub-order
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                           // parent order, denormalized for lookups
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                         // product reference
	VariantID   uint           `gorm:"index;not null" json:"variant_id"`                         // purchased variant
	ProductName string         `gorm:"not null" json:"product_name"`                             // product name snapshot
	VariantName string         `json:"variant_name"`                                             // variant name snapshot
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // price snapshot
	Quantity    int            `gorm:"not null" json:"quantity"`                                 // purchased quantity
	TotalPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // unit_price * quantity
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // creation time
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                  // update time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // soft delete time
}

// TableName sets the table name.
func (OrderItem) TableName() string {
	return "order_items"
}
