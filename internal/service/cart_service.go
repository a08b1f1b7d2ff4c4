package service

import (
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"
)

// CartService the buyer's cart. Quantities are validated against the live
// sellable balance on write, but the checkout transaction is the only place
// stock is actually held.
type CartService struct {
	cartRepo    repository.CartRepository
	variantRepo repository.VariantRepository
}

// NewCartService creates the cart service
func NewCartService(cartRepo repository.CartRepository, variantRepo repository.VariantRepository) *CartService {
	return &CartService{cartRepo: cartRepo, variantRepo: variantRepo}
}

// SetItem puts a variant in the cart at the given quantity, replacing any
// existing quantity.
func (s *CartService) SetItem(userID, variantID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrNotFound
	}
	if !variant.IsActive {
		return nil, ErrVariantInactive
	}
	if quantity > variant.Sellable() {
		return nil, ErrStockNotEnough
	}
	item := &models.CartItem{
		UserID:    userID,
		VariantID: variantID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Upsert(item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems lists the buyer's cart with variant and product preloaded.
func (s *CartService) ListItems(userID uint) ([]models.CartItem, error) {
	return s.cartRepo.ListByUser(userID)
}

// RemoveItem drops one variant from the cart.
func (s *CartService) RemoveItem(userID, variantID uint) error {
	return s.cartRepo.DeleteByUserAndVariant(userID, variantID)
}

// Clear empties the cart.
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}
