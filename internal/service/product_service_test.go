package service

import (
	"errors"
	"testing"

	"github.com/chogo-next/internal/models"
)

func TestCreateProductRequiresShop(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.productSvc.CreateProduct(99, ProductInput{Name: "orphan"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("shopless seller want ErrForbidden got %v", err)
	}

	env.createShop(t, 11, "shop")
	if _, err := env.productSvc.CreateProduct(11, ProductInput{Name: "  "}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("blank name want ErrInvalidOrderItem got %v", err)
	}
	product, err := env.productSvc.CreateProduct(11, ProductInput{Name: "Ceramic Mug", Description: "stoneware"})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if !product.IsActive {
		t.Fatal("new products default to active")
	}
}

func TestCreateVariantLedgersInitialStock(t *testing.T) {
	env := newTestEnv(t)
	env.createShop(t, 11, "shop")
	product, err := env.productSvc.CreateProduct(11, ProductInput{Name: "Ceramic Mug"})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	variant, err := env.productSvc.CreateVariant(11, product.ID, VariantInput{
		SKUCode:         "MUG-BLU",
		Name:            "blue",
		PriceAmount:     money(t, "25.00"),
		InitialQuantity: 12,
	})
	if err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	if variant.Quantity != 12 {
		t.Fatalf("quantity want 12 got %d", variant.Quantity)
	}

	var adjustments []models.StockAdjustment
	if err := env.db.Where("variant_id = ?", variant.ID).Find(&adjustments).Error; err != nil {
		t.Fatalf("list adjustments failed: %v", err)
	}
	if len(adjustments) != 1 || adjustments[0].Reason != "initial_stock" || adjustments[0].Delta != 12 {
		t.Fatalf("initial stock should land in the ledger, got %+v", adjustments)
	}

	if _, err := env.productSvc.CreateVariant(11, product.ID, VariantInput{SKUCode: "MUG-RED", Name: "red", InitialQuantity: -1}); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("negative initial stock want ErrQuantityInvalid got %v", err)
	}
}

func TestProductOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	env.createShop(t, 11, "shop a")
	env.createShop(t, 12, "shop b")
	product, err := env.productSvc.CreateProduct(11, ProductInput{Name: "Desk Lamp"})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant, err := env.productSvc.CreateVariant(11, product.ID, VariantInput{SKUCode: "LAMP-1", Name: "default", PriceAmount: money(t, "80.00")})
	if err != nil {
		t.Fatalf("create variant failed: %v", err)
	}

	if _, err := env.productSvc.UpdateProduct(12, product.ID, ProductInput{Name: "hijack"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign update want ErrForbidden got %v", err)
	}
	if _, err := env.productSvc.CreateVariant(12, product.ID, VariantInput{SKUCode: "X", Name: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign variant create want ErrForbidden got %v", err)
	}
	if _, err := env.productSvc.GetOwnedVariant(12, variant.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign variant read want ErrForbidden got %v", err)
	}
	if _, err := env.productSvc.AdjustVariantStock(12, variant.ID, 5, "theft"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign stock adjust want ErrForbidden got %v", err)
	}
}

func TestUpdateVariantNeverTouchesStock(t *testing.T) {
	env := newTestEnv(t)
	env.createShop(t, 11, "shop")
	product, err := env.productSvc.CreateProduct(11, ProductInput{Name: "Desk Lamp"})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant, err := env.productSvc.CreateVariant(11, product.ID, VariantInput{
		SKUCode:         "LAMP-2",
		Name:            "default",
		PriceAmount:     money(t, "80.00"),
		InitialQuantity: 9,
	})
	if err != nil {
		t.Fatalf("create variant failed: %v", err)
	}

	updated, err := env.productSvc.UpdateVariant(11, variant.ID, VariantInput{PriceAmount: money(t, "75.00"), LowStockThreshold: 3})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.PriceAmount.String() != "75.00" || updated.LowStockThreshold != 3 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if got := env.reloadVariant(t, variant.ID).Quantity; got != 9 {
		t.Fatalf("update must leave stock alone, got %d", got)
	}

	adjusted, err := env.productSvc.AdjustVariantStock(11, variant.ID, -2, "breakage")
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if adjusted.Quantity != 7 {
		t.Fatalf("quantity want 7 got %d", adjusted.Quantity)
	}
}
