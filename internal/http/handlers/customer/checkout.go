package customer

import (
	"strings"

	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	CartItemIDs       []uint `json:"cart_item_ids" binding:"required"`
	PaymentMethod     string `json:"payment_method" binding:"required"`
	VoucherCode       string `json:"voucher_code"`
	ShippingAddressID uint   `json:"shipping_address_id" binding:"required"`
	CustomerNote      string `json:"customer_note"`
}

// Checkout converts selected cart lines into an order. The Idempotency-Key
// header makes retried submissions return the original order.
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	result, err := h.CheckoutService.Checkout(service.CheckoutInput{
		UserID:            userID,
		CartItemIDs:       req.CartItemIDs,
		PaymentMethod:     strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		VoucherCode:       req.VoucherCode,
		ShippingAddressID: req.ShippingAddressID,
		CustomerNote:      req.CustomerNote,
		IdempotencyKey:    strings.TrimSpace(c.GetHeader("Idempotency-Key")),
		ClientIP:          c.ClientIP(),
	})
	if err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, checkoutErrorRules), response.CodeInternal, "checkout failed")
		return
	}
	response.Success(c, gin.H{
		"order":    result.Order,
		"pay_url":  result.PayURL,
		"replayed": result.Replayed,
	})
}

// RetryPayment rebuilds the gateway payment session for a pending order
func (h *Handler) RetryPayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(userID, orderID)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	payURL, err := h.PaymentService.InitiateGatewayPayment(order, c.ClientIP())
	if err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, orderErrorRules, []mappedHandlerError{
			{target: service.ErrPaymentExpired, code: response.CodeConflict, msg: "payment window expired"},
			{target: service.ErrPaymentMethodNotOK, code: response.CodeBadRequest, msg: "payment method unavailable"},
			{target: service.ErrPaymentStateInvalid, code: response.CodeConflict, msg: "order is not payable"},
		}), response.CodeInternal, "payment initiation failed")
		return
	}
	response.Success(c, gin.H{"pay_url": payURL})
}
