package customer

import (
	"github.com/chogo-next/internal/constants"
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders lists the buyer's orders
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	orders, total, err := h.OrderService.ListOrders(userID, c.Query("status"), page, pageSize)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}

// GetOrder fetches one order with sub-orders and items
func (h *Handler) GetOrder(c *gin.Context) {
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
	response.Success(c, order)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder abandons an unpaid order
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req cancelOrderRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.OrderService.CancelOrder(userID, orderID, req.Reason); err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, orderErrorRules), response.CodeInternal, "order cancel failed")
		return
	}
	response.Success(c, nil)
}

// GetOrderTracking returns the order's tracking timeline
func (h *Handler) GetOrderTracking(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	events, err := h.OrderService.ListTracking(userID, orderID)
	if err != nil {
		respondWithMappedError(c, err, commonErrorRules, response.CodeInternal, "tracking fetch failed")
		return
	}
	response.Success(c, events)
}

// ConfirmOrderReceipt completes every delivered sub-order of an order
func (h *Handler) ConfirmOrderReceipt(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	confirmed, err := h.FulfillmentService.ConfirmOrderReceipt(userID, orderID)
	if err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, orderErrorRules), response.CodeInternal, "confirm receipt failed")
		return
	}
	response.Success(c, confirmed)
}

// ConfirmReceipt completes a delivered sub-order
func (h *Handler) ConfirmReceipt(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	subOrderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	subOrder, err := h.FulfillmentService.Perform(service.PerformInput{
		SubOrderID: subOrderID,
		Action:     constants.ActionConfirmReceipt,
		ActorID:    userID,
		ActorRole:  constants.RoleCustomer,
	})
	if err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, orderErrorRules), response.CodeInternal, "confirm receipt failed")
		return
	}
	response.Success(c, subOrder)
}
