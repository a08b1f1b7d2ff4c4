package service

import "errors"

// Sentinel errors shared across services. Handlers map these to response
// codes with errors.Is.
var (
	ErrNotFound         = errors.New("record not found")
	ErrForbidden        = errors.New("operation not allowed for this actor")
	ErrInvalidOrderItem = errors.New("invalid order item")
	ErrEmptyCheckout    = errors.New("checkout has no items")
	ErrVariantInactive  = errors.New("variant not purchasable")
	ErrStockNotEnough   = errors.New("stock not enough")
	ErrQuantityInvalid  = errors.New("quantity invalid")

	ErrVoucherInvalid    = errors.New("voucher invalid")
	ErrVoucherNotStarted = errors.New("voucher not started")
	ErrVoucherExpired    = errors.New("voucher expired")
	ErrVoucherExhausted  = errors.New("voucher usage limit reached")
	ErrVoucherMinNotMet  = errors.New("order below voucher minimum")
	ErrVoucherUserLimit  = errors.New("voucher per-user limit reached")
	ErrVoucherScopeNoFit = errors.New("voucher does not apply to these items")

	ErrOrderStateConflict  = errors.New("order state does not allow this operation")
	ErrTransitionInvalid   = errors.New("status transition not allowed")
	ErrPaymentMethodNotOK  = errors.New("payment method not supported")
	ErrPaymentStateInvalid = errors.New("payment state does not allow this operation")
	ErrPaymentExpired      = errors.New("payment session expired")
	ErrAmountMismatch      = errors.New("callback amount mismatch")
	ErrWalletInsufficient  = errors.New("wallet balance insufficient")

	ErrReturnWindowClosed = errors.New("return window closed")
	ErrReturnExists       = errors.New("return request already exists")
	ErrReturnStateInvalid = errors.New("return request state does not allow this operation")
	ErrNoReturnableItems  = errors.New("no sub-order is eligible for return")
)
