package models

import (
	"time"

	"gorm.io/gorm"
)

// SubOrder per-shop slice of an order. Fulfillment state lives here, not on
// the parent.
type SubOrder struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                      // primary key
	OrderID        uint           `gorm:"index;not null" json:"order_id"`                            // parent order id
	SubOrderNo     string         `gorm:"uniqueIndex;not null" json:"sub_order_no"`                  // sub-order number
	ShopID         uint           `gorm:"index;not null" json:"shop_id"`                             // selling shop
	Status         string         `gorm:"index;not null" json:"status"`                              // fulfillment status
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // sum of this shop's line totals
	ShippingFee    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // shop shipping fee
	ShipperID      *uint          `gorm:"index" json:"shipper_id,omitempty"`                         // assigned shipper, set at pickup
	DeliveredAt    *time.Time     `gorm:"index" json:"delivered_at"`                                 // delivery time
	ReturnDeadline *time.Time     `json:"return_deadline"`                                           // end of return window, set at delivery
	CancelReason   string         `gorm:"type:text" json:"cancel_reason,omitempty"`                  // recorded on cancellation
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                   // creation time
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                   // update time
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                            // soft delete time

	Items         []OrderItem    `gorm:"foreignKey:SubOrderID" json:"items,omitempty"`          // line items
	ReturnRequest *ReturnRequest `gorm:"foreignKey:SubOrderID" json:"return_request,omitempty"` // at most one active
}

// TableName sets the table name.
func (SubOrder) TableName() string {
	return "sub_orders"
}
