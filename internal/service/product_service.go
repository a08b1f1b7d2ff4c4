package service

import (
	"strings"

	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"
)

// ProductService seller catalog management. Stock changes never touch the
// variant row directly here; they go through the inventory ledger so every
// movement leaves an adjustment record.
type ProductService struct {
	productRepo  repository.ProductRepository
	variantRepo  repository.VariantRepository
	shopRepo     repository.ShopRepository
	inventorySvc *InventoryService
}

// NewProductService creates the product service
func NewProductService(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	shopRepo repository.ShopRepository,
	inventorySvc *InventoryService,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		shopRepo:     shopRepo,
		inventorySvc: inventorySvc,
	}
}

// ProductInput seller product create/update fields
type ProductInput struct {
	Name        string
	Description string
	IsActive    *bool
}

// VariantInput seller variant create/update fields
type VariantInput struct {
	SKUCode           string
	Name              string
	PriceAmount       models.Money
	InitialQuantity   int
	LowStockThreshold int
	IsActive          *bool
}

// requireShop resolves the seller's shop and checks ownership.
func (s *ProductService) requireShop(sellerID uint) (*models.Shop, error) {
	shop, err := s.shopRepo.GetByOwnerID(sellerID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, ErrForbidden
	}
	return shop, nil
}

// CreateProduct adds a product to the seller's shop.
func (s *ProductService) CreateProduct(sellerID uint, input ProductInput) (*models.Product, error) {
	shop, err := s.requireShop(sellerID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrderItem
	}
	product := &models.Product{
		ShopID:      shop.ID,
		Name:        name,
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "shop_id", shop.ID)
	return product, nil
}

// UpdateProduct edits one of the seller's products.
func (s *ProductService) UpdateProduct(sellerID, productID uint, input ProductInput) (*models.Product, error) {
	product, err := s.ownedProduct(sellerID, productID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		product.Name = name
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// CreateVariant adds a sellable SKU under one of the seller's products.
// Initial stock goes through the ledger so it shows up as an adjustment.
func (s *ProductService) CreateVariant(sellerID, productID uint, input VariantInput) (*models.Variant, error) {
	if _, err := s.ownedProduct(sellerID, productID); err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(input.SKUCode)
	if sku == "" || strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidOrderItem
	}
	if input.InitialQuantity < 0 {
		return nil, ErrQuantityInvalid
	}
	variant := &models.Variant{
		ProductID:         productID,
		SKUCode:           sku,
		Name:              strings.TrimSpace(input.Name),
		PriceAmount:       input.PriceAmount,
		LowStockThreshold: input.LowStockThreshold,
		IsActive:          true,
	}
	if input.IsActive != nil {
		variant.IsActive = *input.IsActive
	}
	if err := s.variantRepo.Create(variant); err != nil {
		return nil, err
	}
	if input.InitialQuantity > 0 {
		if _, err := s.inventorySvc.AdjustStock(variant.ID, input.InitialQuantity, "initial_stock", sellerID); err != nil {
			return nil, err
		}
		variant.Quantity = input.InitialQuantity
	}
	logger.Infow("variant_created", "variant_id", variant.ID, "sku_code", variant.SKUCode)
	return variant, nil
}

// UpdateVariant edits price, threshold, or active flag. Stock is off limits
// here; AdjustVariantStock is the only write path for quantity.
func (s *ProductService) UpdateVariant(sellerID, variantID uint, input VariantInput) (*models.Variant, error) {
	variant, err := s.ownedVariant(sellerID, variantID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		variant.Name = name
	}
	if input.PriceAmount.Decimal.Sign() > 0 {
		variant.PriceAmount = input.PriceAmount
	}
	if input.LowStockThreshold > 0 {
		variant.LowStockThreshold = input.LowStockThreshold
	}
	if input.IsActive != nil {
		variant.IsActive = *input.IsActive
	}
	if err := s.variantRepo.Update(variant); err != nil {
		return nil, err
	}
	return variant, nil
}

// AdjustVariantStock moves a variant's on-hand quantity through the ledger.
func (s *ProductService) AdjustVariantStock(sellerID, variantID uint, delta int, reason string) (*models.Variant, error) {
	if _, err := s.ownedVariant(sellerID, variantID); err != nil {
		return nil, err
	}
	return s.inventorySvc.AdjustStock(variantID, delta, reason, sellerID)
}

// SetVariantStock writes an absolute on-hand quantity through the ledger.
func (s *ProductService) SetVariantStock(sellerID, variantID uint, newQuantity int, reason string) (*models.Variant, error) {
	if _, err := s.ownedVariant(sellerID, variantID); err != nil {
		return nil, err
	}
	return s.inventorySvc.SetStock(variantID, newQuantity, reason, sellerID)
}

// GetProduct fetches a product with variants; inactive products are only
// visible to their owner.
func (s *ProductService) GetProduct(productID uint) (*models.Product, error) {
	product, err := s.productRepo.GetByIDWithVariants(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// ListProducts lists products, optionally scoped to a shop.
func (s *ProductService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetOwnedVariant fetches a variant after checking the seller owns it.
func (s *ProductService) GetOwnedVariant(sellerID, variantID uint) (*models.Variant, error) {
	return s.ownedVariant(sellerID, variantID)
}

// ownedProduct fetches a product and checks it belongs to the seller's shop.
func (s *ProductService) ownedProduct(sellerID, productID uint) (*models.Product, error) {
	shop, err := s.requireShop(sellerID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	if product.ShopID != shop.ID {
		return nil, ErrForbidden
	}
	return product, nil
}

// ownedVariant fetches a variant and checks its product belongs to the
// seller's shop.
func (s *ProductService) ownedVariant(sellerID, variantID uint) (*models.Variant, error) {
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrNotFound
	}
	if _, err := s.ownedProduct(sellerID, variant.ProductID); err != nil {
		return nil, err
	}
	return variant, nil
}
