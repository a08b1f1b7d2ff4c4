package shipper

import (
	"errors"

	"github.com/chogo-next/internal/constants"
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getShipperID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

// ListTasks lists sub-orders the shipper can act on. With no status filter
// it shows the shipper's own assignments; status=ready_to_ship shows the
// open pickup pool.
func (h *Handler) ListTasks(c *gin.Context) {
	shipperID, ok := getShipperID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	subOrders, total, err := h.OrderService.ListShipperSubOrders(shipperID, c.Query("status"), page, pageSize)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "task list failed", err)
		return
	}
	response.SuccessWithPage(c, subOrders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}

// Pickup claims a ready-to-ship sub-order
func (h *Handler) Pickup(c *gin.Context) {
	h.perform(c, constants.ActionPickup)
}

// Deliver marks a shipping sub-order delivered
func (h *Handler) Deliver(c *gin.Context) {
	h.perform(c, constants.ActionDeliver)
}

// MarkReturned hands returned goods back to the seller
func (h *Handler) MarkReturned(c *gin.Context) {
	shipperID, ok := getShipperID(c)
	if !ok {
		return
	}
	returnID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	request, err := h.ReturnService.MarkReturned(returnID, shipperID)
	if err != nil {
		h.respondError(c, err, "mark returned failed")
		return
	}
	response.Success(c, request)
}

func (h *Handler) perform(c *gin.Context, action string) {
	shipperID, ok := getShipperID(c)
	if !ok {
		return
	}
	subOrderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	subOrder, err := h.FulfillmentService.Perform(service.PerformInput{
		SubOrderID: subOrderID,
		Action:     action,
		ActorID:    shipperID,
		ActorRole:  constants.RoleShipper,
	})
	if err != nil {
		h.respondError(c, err, "fulfillment action failed")
		return
	}
	response.Success(c, subOrder)
}

func (h *Handler) respondError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		handlershared.RespondError(c, response.CodeNotFound, "not found", nil)
	case errors.Is(err, service.ErrForbidden):
		handlershared.RespondError(c, response.CodeForbidden, "forbidden", nil)
	case errors.Is(err, service.ErrOrderStateConflict):
		handlershared.RespondError(c, response.CodeConflict, "state changed", nil)
	case errors.Is(err, service.ErrTransitionInvalid):
		handlershared.RespondError(c, response.CodeBadRequest, "action not allowed in this state", nil)
	case errors.Is(err, service.ErrReturnStateInvalid):
		handlershared.RespondError(c, response.CodeBadRequest, "return not in a collectable state", nil)
	default:
		handlershared.RespondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
