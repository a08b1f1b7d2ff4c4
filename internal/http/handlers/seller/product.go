package seller

import (
	handlershared "github.com/chogo-next/internal/http/handlers/shared"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"
	"github.com/chogo-next/internal/service"

	"github.com/gin-gonic/gin"
)

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type variantRequest struct {
	SKUCode           string       `json:"sku_code"`
	Name              string       `json:"name"`
	PriceAmount       models.Money `json:"price_amount"`
	InitialQuantity   int          `json:"initial_quantity"`
	LowStockThreshold int          `json:"low_stock_threshold"`
	IsActive          *bool        `json:"is_active"`
}

type stockAdjustRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

type stockSetRequest struct {
	Quantity *int   `json:"quantity" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// CreateProduct adds a product to the seller's shop
func (h *Handler) CreateProduct(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	product, err := h.ProductService.CreateProduct(sellerID, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err, "product create failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct edits one of the seller's products
func (h *Handler) UpdateProduct(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	productID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	product, err := h.ProductService.UpdateProduct(sellerID, productID, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err, "product update failed")
		return
	}
	response.Success(c, product)
}

// ListProducts lists the seller's products
func (h *Handler) ListProducts(c *gin.Context) {
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
	products, total, err := h.ProductService.ListProducts(repository.ProductListFilter{
		ShopID:   shop.ID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "product list failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}

// CreateVariant adds a SKU under one of the seller's products
func (h *Handler) CreateVariant(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	productID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	variant, err := h.ProductService.CreateVariant(sellerID, productID, service.VariantInput{
		SKUCode:           req.SKUCode,
		Name:              req.Name,
		PriceAmount:       req.PriceAmount,
		InitialQuantity:   req.InitialQuantity,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err, "variant create failed")
		return
	}
	response.Success(c, variant)
}

// UpdateVariant edits a SKU's price, threshold, or active flag
func (h *Handler) UpdateVariant(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	variantID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	variant, err := h.ProductService.UpdateVariant(sellerID, variantID, service.VariantInput{
		Name:              req.Name,
		PriceAmount:       req.PriceAmount,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err, "variant update failed")
		return
	}
	response.Success(c, variant)
}

// AdjustStock moves a SKU's on-hand stock through the ledger
func (h *Handler) AdjustStock(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	variantID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req stockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	variant, err := h.ProductService.AdjustVariantStock(sellerID, variantID, req.Delta, req.Reason)
	if err != nil {
		respondServiceError(c, err, "stock adjust failed")
		return
	}
	response.Success(c, variant)
}

// SetStock writes an absolute on-hand quantity for a SKU
func (h *Handler) SetStock(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	variantID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req stockSetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	variant, err := h.ProductService.SetVariantStock(sellerID, variantID, *req.Quantity, req.Reason)
	if err != nil {
		respondServiceError(c, err, "stock set failed")
		return
	}
	response.Success(c, variant)
}

// ListStockAdjustments lists a SKU's stock movement history
func (h *Handler) ListStockAdjustments(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	variantID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	if _, err := h.ProductService.GetOwnedVariant(sellerID, variantID); err != nil {
		respondServiceError(c, err, "variant fetch failed")
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	adjustments, total, err := h.InventoryService.ListAdjustments(variantID, page, pageSize)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "stock history failed", err)
		return
	}
	response.SuccessWithPage(c, adjustments, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	})
}
