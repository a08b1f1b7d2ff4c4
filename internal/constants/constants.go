package constants

// Order status constants (aggregate level).
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusCompleted      = "completed"
	OrderStatusPaymentFailed  = "payment_failed"
	OrderStatusCanceled       = "cancelled"
	OrderStatusRefunded       = "refunded"
)

// SubOrder status constants (seller-scoped fulfillment unit).
const (
	SubOrderStatusPending         = "pending"
	SubOrderStatusProcessing      = "processing"
	SubOrderStatusReadyToShip     = "ready_to_ship"
	SubOrderStatusShipping        = "shipping"
	SubOrderStatusDelivered       = "delivered"
	SubOrderStatusCompleted       = "completed"
	SubOrderStatusCanceled        = "cancelled"
	SubOrderStatusReturnRequested = "return_requested"
	SubOrderStatusReturnApproved  = "return_approved"
	SubOrderStatusReturned        = "returned"
	SubOrderStatusRefunded        = "refunded"
)

// Fulfillment transition actions. One action moves a sub-order across
// exactly one edge of the state machine.
const (
	ActionConfirm        = "confirm"
	ActionPack           = "pack"
	ActionPickup         = "pickup"
	ActionDeliver        = "deliver"
	ActionConfirmReceipt = "confirm_receipt"
	ActionRequestReturn  = "request_return"
	ActionApproveReturn  = "approve_return"
	ActionRejectReturn   = "reject_return"
	ActionMarkReturned   = "mark_returned"
	ActionRefund         = "refund"
)

// Actor role constants.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleShipper  = "shipper"
	RoleSystem   = "system"
)

// Payment status constants (order level).
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment record status constants (per initiation attempt).
const (
	PaymentRecordStatusInitiated = "initiated"
	PaymentRecordStatusPending   = "pending"
	PaymentRecordStatusSuccess   = "success"
	PaymentRecordStatusFailed    = "failed"
	PaymentRecordStatusExpired   = "expired"
)

// Payment method constants.
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodVNPay  = "vnpay"
	PaymentMethodMoMo   = "momo"
	PaymentMethodWallet = "wallet"
)

// Voucher scope constants.
const (
	VoucherScopePlatform = "platform"
	VoucherScopeShop     = "shop"
)

// Voucher discount type constants.
const (
	VoucherTypePercentage = "percentage"
	VoucherTypeFixed      = "fixed"
)

// Return request status constants.
const (
	ReturnStatusRequested = "requested"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
	ReturnStatusReturned  = "returned"
	ReturnStatusRefunded  = "refunded"
)

// Stock status constants.
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// Tracking event type constants.
const (
	TrackingEventOrderPlaced     = "order_placed"
	TrackingEventOrderConfirmed  = "order_confirmed"
	TrackingEventOrderPacked     = "order_packed"
	TrackingEventOrderPickedUp   = "order_picked_up"
	TrackingEventOrderDelivered  = "order_delivered"
	TrackingEventOrderCompleted  = "order_completed"
	TrackingEventOrderCanceled   = "order_cancelled"
	TrackingEventReturnRequested = "return_requested"
	TrackingEventReturnApproved  = "return_approved"
	TrackingEventReturnRejected  = "return_rejected"
	TrackingEventReturnReceived  = "return_received"
	TrackingEventRefundProcessed = "refund_processed"
)

// Wallet transaction type constants.
const (
	WalletTxnTypeOrderPayment = "order_payment"
	WalletTxnTypeOrderRefund  = "order_refund"
	WalletTxnTypeTopUp        = "top_up"
)

// Queue constants.
const (
	QueueDefault            = "default"
	TaskOrderTimeoutCancel  = "order:timeout_cancel"
	TaskSubOrderAutoConfirm = "suborder:auto_confirm"
)

// Event bus topic constants.
const (
	TopicOrderCreated = "order.created"
	TopicOrderStatus  = "order.status"
	TopicOutOfStock   = "stock.out_of_stock"
)

// Cache defaults.
const (
	RedisPrefixDefault = "cg"
)

// Order behavior defaults, overridable through config.
const (
	DefaultPaymentExpireMinutes = 15
	DefaultAutoConfirmDays      = 7
	DefaultReturnWindowDays     = 7
	DefaultLowStockThreshold    = 5
	DefaultShippingBaseFee      = "15000"
	DefaultShippingPerItemFee   = "5000"
	SiteCurrencyDefault         = "VND"
)
