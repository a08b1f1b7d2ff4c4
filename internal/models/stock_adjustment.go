package models

import "time"

// StockAdjustment audit row for every change to a variant's on-hand quantity.
// Append-only.
type StockAdjustment struct {
	ID          uint      `gorm:"primarykey" json:"id"`             // primary key
	VariantID   uint      `gorm:"index;not null" json:"variant_id"` // adjusted variant
	Delta       int       `gorm:"not null" json:"delta"`            // signed change to on-hand quantity
	NewQuantity int       `gorm:"not null" json:"new_quantity"`     // on-hand quantity after the change
	Reason      string    `gorm:"not null" json:"reason"`           // sale/restock/manual/correction
	CreatedBy   uint      `json:"created_by"`                       // acting user, 0 for system
	CreatedAt   time.Time `gorm:"index" json:"created_at"`          // adjustment time
}

// TableName sets the table name.
func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}
