package models

import (
	"time"

	"gorm.io/gorm"
)

// Voucher discount code. Platform vouchers apply to the whole order;
// shop vouchers only to that shop's lines.
type Voucher struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                         // primary key
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`                             // redemption code, stored uppercase
	Scope         string         `gorm:"index;not null" json:"scope"`                                  // platform/shop
	ShopID        *uint          `gorm:"index" json:"shop_id,omitempty"`                               // issuing shop, nil for platform scope
	Type          string         `gorm:"not null" json:"type"`                                         // percentage/fixed
	Value         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`           // percent (0-100) or fixed amount
	MaxDiscount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"`    // percentage cap, 0 means uncapped
	MinOrderValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"` // eligible subtotal floor
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"`                        // total redemptions, 0 means unlimited
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`                         // redemptions so far
	PerUserLimit  int            `gorm:"not null;default:0" json:"per_user_limit"`                     // per-user redemptions, 0 means unlimited
	StartsAt      *time.Time     `json:"starts_at"`                                                    // validity start
	EndsAt        *time.Time     `json:"ends_at"`                                                      // validity end
	IsActive      bool           `json:"is_active"`                                                    // enabled flag; no column default so inactive inserts stick
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                      // creation time
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                      // update time
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                               // soft delete time
}

// TableName sets the table name.
func (Voucher) TableName() string {
	return "vouchers"
}
