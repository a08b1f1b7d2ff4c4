package seller

import (
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListReturns lists return requests against the shop
func (h *Handler) ListReturns(c *gin.Context) {
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
	requests, total, err := h.ReturnService.List(repository.ReturnListFilter{
		ShopID:   shop.ID,
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "return list failed", err)
		return
	}
	response.SuccessWithPage(c, requests, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}

// ApproveReturn accepts a return request
func (h *Handler) ApproveReturn(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	returnID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	request, err := h.ReturnService.Approve(returnID, sellerID)
	if err != nil {
		respondServiceError(c, err, "return approve failed")
		return
	}
	response.Success(c, request)
}

type rejectReturnRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectReturn declines a return request
func (h *Handler) RejectReturn(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	returnID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req rejectReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	request, err := h.ReturnService.Reject(returnID, sellerID, req.Reason)
	if err != nil {
		respondServiceError(c, err, "return reject failed")
		return
	}
	response.Success(c, request)
}

// RefundReturn refunds a returned sub-order
func (h *Handler) RefundReturn(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	returnID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	request, err := h.ReturnService.Refund(returnID, sellerID)
	if err != nil {
		respondServiceError(c, err, "refund failed")
		return
	}
	response.Success(c, request)
}
