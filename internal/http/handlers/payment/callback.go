package payment

import (
	"errors"
	"net/http"

	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/payment/momo"
	"github.com/chogo-next/internal/payment/vnpay"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// VNPayReturn handles the browser redirect back from VNPay. The IPN does
// the authoritative settlement; this endpoint settles too (first writer
// wins) so the buyer sees the outcome immediately.
func (h *Handler) VNPayReturn(c *gin.Context) {
	outcome, err := h.PaymentService.HandleVNPayCallback(c.Request.URL.Query())
	if err != nil {
		h.respondVNPayError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_no":  outcome.OrderNo,
		"succeeded": outcome.Succeeded,
	})
}

// VNPayIPN handles VNPay's server-to-server notification. VNPay retries
// until it reads RspCode 00, so duplicates and already-settled payments
// answer 00 as well.
func (h *Handler) VNPayIPN(c *gin.Context) {
	outcome, err := h.PaymentService.HandleVNPayCallback(c.Request.URL.Query())
	if err != nil {
		h.respondVNPayError(c, err)
		return
	}
	if outcome.Duplicate {
		c.JSON(http.StatusOK, gin.H{"RspCode": "02", "Message": "Order already confirmed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
}

func (h *Handler) respondVNPayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vnpay.ErrSignatureInvalid):
		c.JSON(http.StatusOK, gin.H{"RspCode": "97", "Message": "Invalid signature"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"RspCode": "01", "Message": "Order not found"})
	case errors.Is(err, service.ErrAmountMismatch):
		c.JSON(http.StatusOK, gin.H{"RspCode": "04", "Message": "Invalid amount"})
	default:
		logger.Errorw("vnpay_callback_failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"RspCode": "99", "Message": "Unknown error"})
	}
}

// MoMoIPN handles MoMo's server-to-server notification. MoMo treats 204 as
// acknowledged and stops retrying.
func (h *Handler) MoMoIPN(c *gin.Context) {
	var payload momo.IPNPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	if _, err := h.PaymentService.HandleMoMoIPN(&payload); err != nil {
		switch {
		case errors.Is(err, momo.ErrSignatureInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid signature"})
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		case errors.Is(err, service.ErrAmountMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"message": "amount mismatch"})
		default:
			logger.Errorw("momo_ipn_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "processing failed"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
