package models

import "time"

// TrackingEvent append-only lifecycle record for a sub-order. Rows are never
// updated or deleted.
type TrackingEvent struct {
	ID         uint      `gorm:"primarykey" json:"id"`               // primary key
	SubOrderID uint      `gorm:"index;not null" json:"sub_order_id"` // tracked sub-order
	OrderID    uint      `gorm:"index;not null" json:"order_id"`     // parent order, denormalized
	EventType  string    `gorm:"not null" json:"event_type"`         // lifecycle event type
	FromStatus string    `json:"from_status"`                        // status before the transition
	ToStatus   string    `json:"to_status"`                          // status after the transition
	ActorID    uint      `json:"actor_id"`                           // acting user, 0 for system
	ActorRole  string    `json:"actor_role"`                         // customer/seller/shipper/system
	Note       string    `gorm:"type:text" json:"note,omitempty"`    // optional detail
	CreatedAt  time.Time `gorm:"index" json:"created_at"`            // event time
}

// TableName sets the table name.
func (TrackingEvent) TableName() string {
	return "tracking_events"
}
