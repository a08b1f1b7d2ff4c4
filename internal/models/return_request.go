package models

import (
	"time"

	"gorm.io/gorm"
)

// ReturnRequest buyer-initiated return for one delivered sub-order. A
// sub-order carries at most one request.
type ReturnRequest struct {
	ID           uint           `gorm:"primarykey" json:"id"`                     // primary key
	SubOrderID   uint           `gorm:"uniqueIndex;not null" json:"sub_order_id"` // returned sub-order
	UserID       uint           `gorm:"index;not null" json:"user_id"`            // requesting buyer
	Reason       string         `gorm:"not null" json:"reason"`                   // reason code
	Description  string         `gorm:"type:text" json:"description,omitempty"`   // free-form detail
	Evidence     StringArray    `gorm:"type:text" json:"evidence,omitempty"`      // photo URLs
	Status       string         `gorm:"index;not null" json:"status"`             // requested/approved/rejected/returned/refunded
	RejectReason string         `gorm:"type:text" json:"reject_reason,omitempty"` // seller's rejection note
	ResolvedAt   *time.Time     `json:"resolved_at"`                              // approval or rejection time
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                  // request time
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                  // update time
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                           // soft delete time
}

// TableName sets the table name.
func (ReturnRequest) TableName() string {
	return "return_requests"
}
