package models

import (
	"time"

	"gorm.io/gorm"
)

// VoucherUsage one redemption of a voucher by a user, written in the same
// transaction that places the order.
type VoucherUsage struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                  // primary key
	VoucherID uint           `gorm:"index;not null" json:"voucher_id"`                      // redeemed voucher
	UserID    uint           `gorm:"index;not null" json:"user_id"`                         // redeeming user
	OrderID   uint           `gorm:"index;not null" json:"order_id"`                        // order it was applied to
	Discount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"` // granted discount amount
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                               // redemption time
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                               // update time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                        // soft delete time
}

// TableName sets the table name.
func (VoucherUsage) TableName() string {
	return "voucher_usages"
}
