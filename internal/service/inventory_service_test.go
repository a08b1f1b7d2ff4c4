package service

import (
	"errors"
	"testing"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

func TestInventoryReserveAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	plenty := env.createVariant(t, shop.ID, "SKU-PLENTY", "10.00", 100)
	scarce := env.createVariant(t, shop.ID, "SKU-SCARCE", "10.00", 2)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return env.inventorySvc.Reserve(tx, []ReservationLine{
			{VariantID: plenty.ID, Quantity: 5},
			{VariantID: scarce.ID, Quantity: 3},
		})
	})
	if !errors.Is(err, ErrStockNotEnough) {
		t.Fatalf("expected ErrStockNotEnough, got %v", err)
	}

	// the rollback must release the first line's hold
	if got := env.reloadVariant(t, plenty.ID).ReservedQuantity; got != 0 {
		t.Fatalf("rolled-back reservation should leave 0 held, got %d", got)
	}

	err = env.db.Transaction(func(tx *gorm.DB) error {
		return env.inventorySvc.Reserve(tx, []ReservationLine{
			{VariantID: plenty.ID, Quantity: 5},
			{VariantID: scarce.ID, Quantity: 2},
		})
	})
	if err != nil {
		t.Fatalf("reserve within stock failed: %v", err)
	}
	if got := env.reloadVariant(t, scarce.ID).ReservedQuantity; got != 2 {
		t.Fatalf("scarce variant should hold 2, got %d", got)
	}
}

func TestInventoryReserveCountsExistingHolds(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-HELD", "10.00", 10)

	reserve := func(qty int) error {
		return env.db.Transaction(func(tx *gorm.DB) error {
			return env.inventorySvc.Reserve(tx, []ReservationLine{{VariantID: variant.ID, Quantity: qty}})
		})
	}
	if err := reserve(7); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if err := reserve(4); !errors.Is(err, ErrStockNotEnough) {
		t.Fatalf("sellable is 3, reserving 4 should fail, got %v", err)
	}
	if err := reserve(3); err != nil {
		t.Fatalf("reserving the remaining 3 failed: %v", err)
	}
}

func TestInventoryReleaseReturnsHold(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-REL", "10.00", 10)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		if err := env.inventorySvc.Reserve(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 6}}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	err = env.db.Transaction(func(tx *gorm.DB) error {
		return env.inventorySvc.Release(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 6}})
	})
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	reloaded := env.reloadVariant(t, variant.ID)
	if reloaded.ReservedQuantity != 0 || reloaded.Quantity != 10 {
		t.Fatalf("release should restore (10, 0), got (%d, %d)", reloaded.Quantity, reloaded.ReservedQuantity)
	}
}

func TestInventoryConfirmSaleWritesAudit(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-SALE", "10.00", 10)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		if err := env.inventorySvc.Reserve(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 4}}); err != nil {
			return err
		}
		return env.inventorySvc.ConfirmSale(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 4}}, "ORD-1")
	})
	if err != nil {
		t.Fatalf("confirm sale failed: %v", err)
	}

	reloaded := env.reloadVariant(t, variant.ID)
	if reloaded.Quantity != 6 || reloaded.ReservedQuantity != 0 {
		t.Fatalf("sale should leave (6, 0), got (%d, %d)", reloaded.Quantity, reloaded.ReservedQuantity)
	}

	var adjustments []models.StockAdjustment
	if err := env.db.Where("variant_id = ?", variant.ID).Find(&adjustments).Error; err != nil {
		t.Fatalf("list adjustments failed: %v", err)
	}
	if len(adjustments) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(adjustments))
	}
	if adjustments[0].Delta != -4 || adjustments[0].Reason != "sale" || adjustments[0].NewQuantity != 6 {
		t.Fatalf("unexpected audit row: %+v", adjustments[0])
	}
}

func TestInventoryConfirmSaleWithoutReservationFails(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-NORES", "10.00", 10)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return env.inventorySvc.ConfirmSale(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 4}}, "ORD-2")
	})
	if !errors.Is(err, ErrStockNotEnough) {
		t.Fatalf("confirming unreserved stock should fail, got %v", err)
	}
	if got := env.reloadVariant(t, variant.ID).Quantity; got != 10 {
		t.Fatalf("failed confirm must not move stock, got %d", got)
	}
}

func TestInventoryAdjustStockGuardsHeldUnits(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-ADJ", "10.00", 10)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return env.inventorySvc.Reserve(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 6}})
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// cutting below the 6 held units must be rejected
	if _, err := env.inventorySvc.AdjustStock(variant.ID, -5, "correction", 1); !errors.Is(err, ErrStockNotEnough) {
		t.Fatalf("adjustment into held stock should fail, got %v", err)
	}

	updated, err := env.inventorySvc.AdjustStock(variant.ID, -4, "correction", 1)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if updated.Quantity != 6 {
		t.Fatalf("quantity want 6 got %d", updated.Quantity)
	}

	if _, err := env.inventorySvc.AdjustStock(variant.ID, 0, "noop", 1); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("zero delta should be rejected, got %v", err)
	}
}

func TestInventoryStockStatus(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		quantity  int
		reserved  int
		threshold int
		want      string
	}{
		{0, 0, 0, constants.StockStatusOutOfStock},
		{5, 5, 0, constants.StockStatusOutOfStock},
		{5, 2, 0, constants.StockStatusLowStock}, // sellable 3 <= default floor 5
		{20, 0, 0, constants.StockStatusInStock},
		{20, 0, 25, constants.StockStatusLowStock}, // per-variant threshold wins
	}
	for _, tc := range cases {
		variant := &models.Variant{Quantity: tc.quantity, ReservedQuantity: tc.reserved, LowStockThreshold: tc.threshold}
		if got := env.inventorySvc.StockStatus(variant); got != tc.want {
			t.Fatalf("StockStatus(q=%d r=%d t=%d) = %s, want %s", tc.quantity, tc.reserved, tc.threshold, got, tc.want)
		}
	}
	if got := env.inventorySvc.StockStatus(nil); got != constants.StockStatusOutOfStock {
		t.Fatalf("nil variant should be out of stock, got %s", got)
	}
}

func TestInventorySetStockAbsolute(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-SET", "10.00", 10)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return env.inventorySvc.Reserve(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 4}})
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// Cannot set below the 4 held units.
	if _, err := env.inventorySvc.SetStock(variant.ID, 3, "recount", 1); !errors.Is(err, ErrStockNotEnough) {
		t.Fatalf("set below reserved want ErrStockNotEnough got %v", err)
	}
	if _, err := env.inventorySvc.SetStock(variant.ID, -1, "recount", 1); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("negative set want ErrQuantityInvalid got %v", err)
	}

	updated, err := env.inventorySvc.SetStock(variant.ID, 25, "recount", 1)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if updated.Quantity != 25 {
		t.Fatalf("quantity want 25 got %d", updated.Quantity)
	}

	// The delta between old and new lands in the ledger.
	var adjustments []models.StockAdjustment
	if err := env.db.Where("variant_id = ?", variant.ID).Find(&adjustments).Error; err != nil {
		t.Fatalf("list adjustments failed: %v", err)
	}
	if len(adjustments) != 1 || adjustments[0].Delta != 15 || adjustments[0].NewQuantity != 25 {
		t.Fatalf("unexpected audit rows: %+v", adjustments)
	}
}

func TestInventoryZeroQuantityDeactivates(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-LAST", "10.00", 1)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		if err := env.inventorySvc.Reserve(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 1}}); err != nil {
			return err
		}
		return env.inventorySvc.ConfirmSale(tx, []ReservationLine{{VariantID: variant.ID, Quantity: 1}}, "ORD-LAST")
	})
	if err != nil {
		t.Fatalf("sell out failed: %v", err)
	}

	reloaded := env.reloadVariant(t, variant.ID)
	if reloaded.Quantity != 0 {
		t.Fatalf("quantity want 0 got %d", reloaded.Quantity)
	}
	if reloaded.IsActive {
		t.Fatal("selling the last unit must pull the variant from the catalog")
	}

	// An absolute set to zero does the same.
	other := env.createVariant(t, shop.ID, "SKU-DRAIN", "10.00", 5)
	if _, err := env.inventorySvc.SetStock(other.ID, 0, "writeoff", 1); err != nil {
		t.Fatalf("set to zero failed: %v", err)
	}
	if env.reloadVariant(t, other.ID).IsActive {
		t.Fatal("zero stock variant must be inactive")
	}
}
