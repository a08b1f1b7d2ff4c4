package customer

import (
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/models"

	"github.com/gin-gonic/gin"
)

// GetWallet returns the buyer's balance account
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetBalance(userID)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "wallet fetch failed", err)
		return
	}
	response.Success(c, account)
}

type topUpRequest struct {
	Amount models.Money `json:"amount" binding:"required"`
	Note   string       `json:"note"`
}

// TopUpWallet adds funds to the buyer's balance
func (h *Handler) TopUpWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.WalletService.TopUp(userID, req.Amount, req.Note); err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, checkoutErrorRules), response.CodeInternal, "top up failed")
		return
	}
	account, err := h.WalletService.GetBalance(userID)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "wallet fetch failed", err)
		return
	}
	response.Success(c, account)
}

// ListWalletTransactions lists the buyer's balance movements
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	txns, total, err := h.WalletService.ListTransactions(userID, page, pageSize)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "wallet history failed", err)
		return
	}
	response.SuccessWithPage(c, txns, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}
