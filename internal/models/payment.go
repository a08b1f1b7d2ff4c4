package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment one attempt to collect an order's grand total through a gateway or
// the wallet. The raw gateway payload is kept for reconciliation.
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                // primary key
	PaymentNo       string         `gorm:"uniqueIndex;not null" json:"payment_no"`              // internal payment number
	OrderID         uint           `gorm:"index;not null" json:"order_id"`                      // paid order
	Method          string         `gorm:"index;not null" json:"method"`                        // cod/vnpay/momo/wallet
	Amount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // charged amount
	Currency        string         `gorm:"not null" json:"currency"`                            // currency code
	Status          string         `gorm:"index;not null" json:"status"`                        // initiated/pending/success/failed/expired
	ProviderRef     string         `gorm:"index" json:"provider_ref,omitempty"`                 // gateway transaction reference
	ProviderPayload JSON           `gorm:"type:text" json:"-"`                                  // raw callback payload snapshot
	PayURL          string         `gorm:"type:text" json:"pay_url,omitempty"`                  // redirect URL for gateway methods
	PaidAt          *time.Time     `json:"paid_at"`                                             // success time
	ExpiredAt       *time.Time     `json:"expired_at"`                                          // session deadline
	CallbackAt      *time.Time     `json:"callback_at"`                                         // last callback receipt time
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                             // creation time
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                             // update time
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                      // soft delete time
}

// TableName sets the table name.
func (Payment) TableName() string {
	return "payments"
}
