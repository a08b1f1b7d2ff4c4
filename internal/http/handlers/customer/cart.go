package customer

import (
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type setCartItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// SetCartItem puts a variant in the cart at the requested quantity
func (h *Handler) SetCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req setCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	item, err := h.CartService.SetItem(userID, req.VariantID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, concatRules(commonErrorRules, checkoutErrorRules), response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, item)
}

// ListCart lists the buyer's cart
func (h *Handler) ListCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.CartService.ListItems(userID)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, items)
}

// RemoveCartItem drops one variant from the cart
func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	variantID, ok := handlershared.ParamUint(c, "variant_id")
	if !ok {
		return
	}
	if err := h.CartService.RemoveItem(userID, variantID); err != nil {
		handlershared.RespondError(c, response.CodeInternal, "cart update failed", err)
		return
	}
	response.Success(c, nil)
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(userID); err != nil {
		handlershared.RespondError(c, response.CodeInternal, "cart update failed", err)
		return
	}
	response.Success(c, nil)
}
