package models

import (
	"time"

	"gorm.io/gorm"
)

// Order aggregate root for one checkout. Never deleted; cancellation is a
// status, not a deletion.
type Order struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                        // primary key
	OrderNo           string         `gorm:"uniqueIndex;not null" json:"order_no"`                        // order number
	UserID            uint           `gorm:"index;not null" json:"user_id"`                               // buyer user id
	IdempotencyKey    string         `gorm:"index" json:"-"`                                              // client-supplied checkout idempotency key
	Status            string         `gorm:"index;not null" json:"status"`                                // aggregate status
	PaymentMethod     string         `gorm:"not null" json:"payment_method"`                              // cod/vnpay/momo/wallet
	PaymentStatus     string         `gorm:"index;not null" json:"payment_status"`                        // pending/paid/failed
	Currency          string         `gorm:"not null" json:"currency"`                                    // currency code
	Subtotal          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`       // sum of line totals
	ShippingTotal     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_total"` // sum of per-shop shipping fees
	DiscountTotal     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_total"` // voucher discount
	GrandTotal        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"grand_total"`    // subtotal + shipping - discount
	VoucherID         *uint          `gorm:"index" json:"voucher_id,omitempty"`                           // applied voucher
	ShippingAddressID uint           `gorm:"not null" json:"shipping_address_id"`                         // delivery address reference
	CustomerNote      string         `gorm:"type:text" json:"customer_note,omitempty"`                    // free-form note
	CancelReason      string         `gorm:"type:text" json:"cancel_reason,omitempty"`                    // recorded on cancellation
	ExpiresAt         *time.Time     `gorm:"index" json:"expires_at"`                                     // payment session deadline
	PaidAt            *time.Time     `gorm:"index" json:"paid_at"`                                        // payment confirmation time
	CanceledAt        *time.Time     `gorm:"index" json:"canceled_at"`                                    // cancellation time
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                     // creation time
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                     // update time
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                              // soft delete time

	SubOrders []SubOrder `gorm:"foreignKey:OrderID" json:"sub_orders,omitempty"` // seller-scoped fulfillment units
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
