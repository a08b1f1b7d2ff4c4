package eventbus

import (
	"encoding/json"
	"strconv"
	"time"
)

// Event type names carried in the envelope.
const (
	EventOrderCreated      = "OrderCreated"
	EventOrderStatusMoved  = "OrderStatusMoved"
	EventVariantOutOfStock = "VariantOutOfStock"
)

// Envelope wire format shared by all topics.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

// OrderCreatedPayload emitted once per successful checkout.
type OrderCreatedPayload struct {
	OrderID    uint            `json:"order_id"`
	OrderNo    string          `json:"order_no"`
	UserID     uint            `json:"user_id"`
	GrandTotal string          `json:"grand_total"`
	Currency   string          `json:"currency"`
	SubOrders  []SubOrderBrief `json:"sub_orders"`
}

// SubOrderBrief one shop slice inside an OrderCreated event.
type SubOrderBrief struct {
	SubOrderID uint   `json:"sub_order_id"`
	SubOrderNo string `json:"sub_order_no"`
	ShopID     uint   `json:"shop_id"`
	Subtotal   string `json:"subtotal"`
}

// OrderStatusMovedPayload emitted on every order or sub-order transition.
type OrderStatusMovedPayload struct {
	OrderID    uint   `json:"order_id"`
	SubOrderID uint   `json:"sub_order_id,omitempty"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorRole  string `json:"actor_role"`
}

// VariantOutOfStockPayload emitted when a sale drains a variant's sellable
// balance to zero.
type VariantOutOfStockPayload struct {
	VariantID uint   `json:"variant_id"`
	ProductID uint   `json:"product_id"`
	ShopID    uint   `json:"shop_id"`
	SKUCode   string `json:"sku_code"`
}

// PartitionKey keys all events of one order to one partition so per-order
// ordering holds.
func PartitionKey(orderID uint) []byte {
	return []byte(strconv.FormatUint(uint64(orderID), 10))
}
