package customer

import (
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/repository"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createReturnRequest struct {
	Reason      string   `json:"reason" binding:"required"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`
}

// RequestReturn opens a return for a delivered sub-order
func (h *Handler) RequestReturn(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	subOrderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req createReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	request, err := h.ReturnService.CreateReturnRequest(service.CreateReturnInput{
		SubOrderID:  subOrderID,
		UserID:      userID,
		Reason:      req.Reason,
		Description: req.Description,
		Evidence:    req.Evidence,
	})
	if err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, returnErrorRules), response.CodeInternal, "return request failed")
		return
	}
	response.Success(c, request)
}

// RequestOrderReturn opens returns for every eligible sub-order of an order
func (h *Handler) RequestOrderReturn(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req createReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	requests, err := h.ReturnService.CreateOrderReturn(service.CreateOrderReturnInput{
		OrderID:     orderID,
		UserID:      userID,
		Reason:      req.Reason,
		Description: req.Description,
		Evidence:    req.Evidence,
	})
	if err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, returnErrorRules), response.CodeInternal, "return request failed")
		return
	}
	response.Success(c, requests)
}

// ListReturns lists the buyer's return requests
func (h *Handler) ListReturns(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	requests, total, err := h.ReturnService.List(repository.ReturnListFilter{
		UserID:   userID,
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
