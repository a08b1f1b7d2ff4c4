package seller

import (
	"github.com/chogo-next/internal/constants"
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListSubOrders lists the shop's sub-orders
func (h *Handler) ListSubOrders(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	shop, err := h.ShopRepo.GetByOwnerID(sellerID)
	if err != nil || shop == nil {
		handlershared.RespondError(c, response.CodeForbidden, "no shop", err)
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	subOrders, total, err := h.OrderService.ListShopSubOrders(shop.ID, c.Query("status"), page, pageSize)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "sub-order list failed", err)
		return
	}
	response.SuccessWithPage(c, subOrders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}

// ConfirmSubOrder accepts a paid sub-order for processing
func (h *Handler) ConfirmSubOrder(c *gin.Context) {
	h.perform(c, constants.ActionConfirm)
}

// PackSubOrder marks a sub-order packed and ready to ship
func (h *Handler) PackSubOrder(c *gin.Context) {
	h.perform(c, constants.ActionPack)
}

func (h *Handler) perform(c *gin.Context, action string) {
	sellerID, ok := getSellerID(c)
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
		ActorID:    sellerID,
		ActorRole:  constants.RoleSeller,
	})
	if err != nil {
		respondServiceError(c, err, "fulfillment action failed")
		return
	}
	response.Success(c, subOrder)
}
