package models

import (
	"time"

	"gorm.io/gorm"
)

// WalletAccount per-user stored-value balance. Debits go through a guarded
// conditional update so the balance never goes negative.
type WalletAccount struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                 // primary key
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`                  // owning user
	Balance   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // current balance
	Currency  string         `gorm:"not null" json:"currency"`                             // currency code
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                              // creation time
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                              // update time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                       // soft delete time
}

// TableName sets the table name.
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction one balance movement. Amount is signed: negative for
// payments, positive for refunds and top-ups.
type WalletTransaction struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                       // primary key
	WalletID     uint           `gorm:"index;not null" json:"wallet_id"`                            // moved account
	UserID       uint           `gorm:"index;not null" json:"user_id"`                              // account owner, denormalized
	Type         string         `gorm:"index;not null" json:"type"`                                 // order_payment/order_refund/top_up
	Amount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`        // signed movement
	BalanceAfter Money          `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"` // balance after the movement
	OrderID      *uint          `gorm:"index" json:"order_id,omitempty"`                            // related order, if any
	Note         string         `gorm:"type:text" json:"note,omitempty"`                            // optional detail
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                    // movement time
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                    // update time
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                             // soft delete time
}

// TableName sets the table name.
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
