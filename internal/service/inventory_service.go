package service

import (
	"context"

	"github.com/chogo-next/internal/cache"
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/eventbus"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"

	"gorm.io/gorm"
)

// InventoryService stock ledger operations. Every counter change goes
// through a guarded conditional update; oversell is prevented by the
// database, not by application-level checks.
type InventoryService struct {
	variantRepo    repository.VariantRepository
	productRepo    repository.ProductRepository
	adjustmentRepo repository.StockAdjustmentRepository
	producer       *eventbus.Producer
	lowStockFloor  int
}

// NewInventoryService creates the inventory service
func NewInventoryService(
	variantRepo repository.VariantRepository,
	productRepo repository.ProductRepository,
	adjustmentRepo repository.StockAdjustmentRepository,
	producer *eventbus.Producer,
	lowStockFloor int,
) *InventoryService {
	if lowStockFloor <= 0 {
		lowStockFloor = constants.DefaultLowStockThreshold
	}
	return &InventoryService{
		variantRepo:    variantRepo,
		productRepo:    productRepo,
		adjustmentRepo: adjustmentRepo,
		producer:       producer,
		lowStockFloor:  lowStockFloor,
	}
}

// ReservationLine one variant/quantity pair to hold
type ReservationLine struct {
	VariantID uint
	Quantity  int
}

// Reserve holds stock for every line inside tx. The first short line aborts
// with ErrStockNotEnough and the transaction rollback releases the lines
// already taken, so a checkout holds all of its stock or none of it.
func (s *InventoryService) Reserve(tx *gorm.DB, lines []ReservationLine) error {
	repo := s.variantRepo.WithTx(tx)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return ErrQuantityInvalid
		}
		ok, err := repo.Reserve(line.VariantID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			logger.Infow("stock_reserve_rejected",
				"variant_id", line.VariantID,
				"quantity", line.Quantity,
			)
			return ErrStockNotEnough
		}
	}
	return nil
}

// Release returns held stock, line by line. Used on cancellation and
// payment failure; safe to repeat.
func (s *InventoryService) Release(tx *gorm.DB, lines []ReservationLine) error {
	repo := s.variantRepo.WithTx(tx)
	for _, line := range lines {
		if err := repo.Release(line.VariantID, line.Quantity); err != nil {
			return err
		}
	}
	for _, line := range lines {
		s.invalidateCache(line.VariantID)
	}
	return nil
}

// Restock returns already-sold units to on-hand stock, with an audit row
// per line. Used when a settled order is cancelled before anything ships.
func (s *InventoryService) Restock(tx *gorm.DB, lines []ReservationLine, reason string, actorID uint) error {
	variantRepo := s.variantRepo.WithTx(tx)
	adjustmentRepo := s.adjustmentRepo.WithTx(tx)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return ErrQuantityInvalid
		}
		ok, err := variantRepo.AdjustOnHand(line.VariantID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		variant, err := variantRepo.GetByID(line.VariantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrNotFound
		}
		adjustment := &models.StockAdjustment{
			VariantID:   line.VariantID,
			Delta:       line.Quantity,
			NewQuantity: variant.Quantity,
			Reason:      reason,
			CreatedBy:   actorID,
		}
		if err := adjustmentRepo.Create(adjustment); err != nil {
			return err
		}
		s.invalidateCache(line.VariantID)
	}
	return nil
}

// ConfirmSale converts held stock into sales when payment lands: on-hand
// and reserved both drop; an audit row records the sale.
func (s *InventoryService) ConfirmSale(tx *gorm.DB, lines []ReservationLine, orderNo string) error {
	variantRepo := s.variantRepo.WithTx(tx)
	adjustmentRepo := s.adjustmentRepo.WithTx(tx)
	for _, line := range lines {
		ok, err := variantRepo.ConfirmSale(line.VariantID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			// Reservation missing for paid stock means the ledger was
			// bypassed somewhere; fail loudly instead of overselling.
			logger.Errorw("stock_confirm_without_reservation",
				"variant_id", line.VariantID,
				"quantity", line.Quantity,
				"order_no", orderNo,
			)
			return ErrStockNotEnough
		}
		variant, err := variantRepo.GetByID(line.VariantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrNotFound
		}
		adjustment := &models.StockAdjustment{
			VariantID:   line.VariantID,
			Delta:       -line.Quantity,
			NewQuantity: variant.Quantity,
			Reason:      "sale",
		}
		if err := adjustmentRepo.Create(adjustment); err != nil {
			return err
		}
		if variant.Quantity == 0 {
			if err := variantRepo.Deactivate(variant.ID); err != nil {
				return err
			}
			s.publishOutOfStock(variant)
		}
		s.invalidateCache(line.VariantID)
	}
	return nil
}

// AdjustStock moves a variant's on-hand quantity by delta on behalf of a
// seller and records the audit row. A negative delta that would cut into
// held stock is rejected.
func (s *InventoryService) AdjustStock(variantID uint, delta int, reason string, actorID uint) (*models.Variant, error) {
	if delta == 0 {
		return nil, ErrQuantityInvalid
	}
	if reason == "" {
		reason = "manual"
	}
	var updated *models.Variant
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		variantRepo := s.variantRepo.WithTx(tx)
		ok, err := variantRepo.AdjustOnHand(variantID, delta)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStockNotEnough
		}
		variant, err := variantRepo.GetByID(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrNotFound
		}
		adjustment := &models.StockAdjustment{
			VariantID:   variantID,
			Delta:       delta,
			NewQuantity: variant.Quantity,
			Reason:      reason,
			CreatedBy:   actorID,
		}
		if err := s.adjustmentRepo.WithTx(tx).Create(adjustment); err != nil {
			return err
		}
		if variant.Quantity == 0 {
			if err := variantRepo.Deactivate(variant.ID); err != nil {
				return err
			}
			variant.IsActive = false
			s.publishOutOfStock(variant)
		}
		updated = variant
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCache(variantID)
	logger.Infow("stock_adjusted",
		"variant_id", variantID,
		"delta", delta,
		"new_quantity", updated.Quantity,
		"reason", reason,
		"actor_id", actorID,
	)
	return updated, nil
}

// SetStock writes an absolute on-hand quantity on behalf of a seller. The
// new value may not fall below the reserved balance; the delta lands in the
// audit ledger like any other adjustment.
func (s *InventoryService) SetStock(variantID uint, newQuantity int, reason string, actorID uint) (*models.Variant, error) {
	if newQuantity < 0 {
		return nil, ErrQuantityInvalid
	}
	if reason == "" {
		reason = "manual"
	}
	var updated *models.Variant
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		variantRepo := s.variantRepo.WithTx(tx)
		before, err := variantRepo.GetByID(variantID)
		if err != nil {
			return err
		}
		if before == nil {
			return ErrNotFound
		}
		ok, err := variantRepo.SetOnHand(variantID, newQuantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStockNotEnough
		}
		if delta := newQuantity - before.Quantity; delta != 0 {
			adjustment := &models.StockAdjustment{
				VariantID:   variantID,
				Delta:       delta,
				NewQuantity: newQuantity,
				Reason:      reason,
				CreatedBy:   actorID,
			}
			if err := s.adjustmentRepo.WithTx(tx).Create(adjustment); err != nil {
				return err
			}
		}
		before.Quantity = newQuantity
		if newQuantity == 0 {
			if err := variantRepo.Deactivate(variantID); err != nil {
				return err
			}
			before.IsActive = false
			s.publishOutOfStock(before)
		}
		updated = before
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCache(variantID)
	logger.Infow("stock_set",
		"variant_id", variantID,
		"new_quantity", newQuantity,
		"reason", reason,
		"actor_id", actorID,
	)
	return updated, nil
}

// StockStatus classifies a variant's sellable balance
func (s *InventoryService) StockStatus(variant *models.Variant) string {
	if variant == nil {
		return constants.StockStatusOutOfStock
	}
	sellable := variant.Sellable()
	floor := variant.LowStockThreshold
	if floor <= 0 {
		floor = s.lowStockFloor
	}
	switch {
	case sellable <= 0:
		return constants.StockStatusOutOfStock
	case sellable <= floor:
		return constants.StockStatusLowStock
	default:
		return constants.StockStatusInStock
	}
}

// GetStockState serves the cached stock snapshot, falling back to the
// database and repopulating on miss.
func (s *InventoryService) GetStockState(ctx context.Context, variantID uint) (*cache.VariantStockState, error) {
	state, hit, err := cache.GetVariantStockState(ctx, variantID)
	if err != nil {
		logger.Warnw("stock_cache_read_failed", "variant_id", variantID, "error", err)
	}
	if hit {
		return state, nil
	}
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrNotFound
	}
	state = cache.BuildVariantStockState(variant, s.StockStatus(variant))
	if err := cache.SetVariantStockState(ctx, state); err != nil {
		logger.Warnw("stock_cache_write_failed", "variant_id", variantID, "error", err)
	}
	return state, nil
}

// ListAdjustments fetches a variant's audit trail
func (s *InventoryService) ListAdjustments(variantID uint, page, pageSize int) ([]models.StockAdjustment, int64, error) {
	return s.adjustmentRepo.ListByVariantID(variantID, page, pageSize)
}

func (s *InventoryService) invalidateCache(variantID uint) {
	if err := cache.DelVariantStockState(context.Background(), variantID); err != nil {
		logger.Warnw("stock_cache_invalidate_failed", "variant_id", variantID, "error", err)
	}
}

func (s *InventoryService) publishOutOfStock(variant *models.Variant) {
	if s.producer == nil {
		return
	}
	shopID := uint(0)
	if product, err := s.productRepo.GetByID(variant.ProductID); err == nil && product != nil {
		shopID = product.ShopID
	}
	s.producer.Publish(
		constants.TopicOutOfStock,
		eventbus.EventVariantOutOfStock,
		eventbus.PartitionKey(variant.ID),
		eventbus.VariantOutOfStockPayload{
			VariantID: variant.ID,
			ProductID: variant.ProductID,
			ShopID:    shopID,
			SKUCode:   variant.SKUCode,
		},
	)
}
