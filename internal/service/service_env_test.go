package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/chogo-next/internal/config"
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// testEnv wires every service against one in-memory database.
type testEnv struct {
	db *gorm.DB

	orderRepo      repository.OrderRepository
	subOrderRepo   repository.SubOrderRepository
	productRepo    repository.ProductRepository
	variantRepo    repository.VariantRepository
	shopRepo       repository.ShopRepository
	cartRepo       repository.CartRepository
	voucherRepo    repository.VoucherRepository
	usageRepo      repository.VoucherUsageRepository
	returnRepo     repository.ReturnRepository
	trackingRepo   repository.TrackingRepository
	paymentRepo    repository.PaymentRepository
	walletRepo     repository.WalletRepository
	adjustmentRepo repository.StockAdjustmentRepository

	inventorySvc   *InventoryService
	voucherSvc     *VoucherService
	walletSvc      *WalletService
	paymentSvc     *PaymentService
	cartSvc        *CartService
	checkoutSvc    *CheckoutService
	orderSvc       *OrderService
	fulfillmentSvc *FulfillmentService
	returnSvc      *ReturnService
	productSvc     *ProductService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &testEnv{db: db}
	env.orderRepo = repository.NewOrderRepository(db)
	env.subOrderRepo = repository.NewSubOrderRepository(db)
	env.productRepo = repository.NewProductRepository(db)
	env.variantRepo = repository.NewVariantRepository(db)
	env.shopRepo = repository.NewShopRepository(db)
	env.cartRepo = repository.NewCartRepository(db)
	env.voucherRepo = repository.NewVoucherRepository(db)
	env.usageRepo = repository.NewVoucherUsageRepository(db)
	env.returnRepo = repository.NewReturnRepository(db)
	env.trackingRepo = repository.NewTrackingRepository(db)
	env.paymentRepo = repository.NewPaymentRepository(db)
	env.walletRepo = repository.NewWalletRepository(db)
	env.adjustmentRepo = repository.NewStockAdjustmentRepository(db)

	env.inventorySvc = NewInventoryService(env.variantRepo, env.productRepo, env.adjustmentRepo, nil, 5)
	env.voucherSvc = NewVoucherService(env.voucherRepo, env.usageRepo)
	env.walletSvc = NewWalletService(env.walletRepo, "VND")
	env.paymentSvc = NewPaymentService(
		env.orderRepo, env.subOrderRepo, env.paymentRepo, env.trackingRepo,
		env.walletSvc, env.inventorySvc, env.voucherSvc, nil, nil, 15,
	)
	env.cartSvc = NewCartService(env.cartRepo, env.variantRepo)
	env.checkoutSvc = NewCheckoutService(
		env.orderRepo, env.subOrderRepo, env.cartRepo, env.trackingRepo,
		env.inventorySvc, env.voucherSvc, env.paymentSvc,
		NewFlatShippingCalculator(&config.ShippingConfig{BaseFee: "10.00", PerItemFee: "2.00"}),
		nil, nil, "VND", 15,
	)
	env.orderSvc = NewOrderService(env.orderRepo, env.subOrderRepo, env.trackingRepo, env.paymentSvc)
	env.fulfillmentSvc = NewFulfillmentService(
		env.orderRepo, env.subOrderRepo, env.shopRepo, env.trackingRepo,
		env.paymentSvc, nil, nil, nil, 7, 7,
	)
	env.returnSvc = NewReturnService(env.orderRepo, env.subOrderRepo, env.returnRepo, env.walletSvc, env.fulfillmentSvc)
	env.productSvc = NewProductService(env.productRepo, env.variantRepo, env.shopRepo, env.inventorySvc)
	return env
}

func (env *testEnv) createShop(t *testing.T, ownerID uint, name string) *models.Shop {
	t.Helper()
	shop := &models.Shop{OwnerID: ownerID, Name: name, IsActive: true}
	if err := env.db.Create(shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	return shop
}

func (env *testEnv) createVariant(t *testing.T, shopID uint, sku string, price string, quantity int) *models.Variant {
	t.Helper()
	product := &models.Product{ShopID: shopID, Name: "product " + sku, IsActive: true}
	if err := env.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("bad price %q: %v", price, err)
	}
	variant := &models.Variant{
		ProductID:   product.ID,
		SKUCode:     sku,
		Name:        "default",
		PriceAmount: models.NewMoneyFromDecimal(d),
		Quantity:    quantity,
		IsActive:    true,
	}
	if err := env.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	variant.Product = product
	return variant
}

func (env *testEnv) addToCart(t *testing.T, userID uint, variantID uint, quantity int) uint {
	t.Helper()
	item := &models.CartItem{UserID: userID, VariantID: variantID, Quantity: quantity}
	if err := env.db.Create(item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
	return item.ID
}

func (env *testEnv) topUpWallet(t *testing.T, userID uint, amount string) {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("bad amount %q: %v", amount, err)
	}
	if err := env.walletSvc.TopUp(userID, models.NewMoneyFromDecimal(d), "test top-up"); err != nil {
		t.Fatalf("top up failed: %v", err)
	}
}

// checkoutCOD places a COD order for the given variant lines and returns it
// with sub-orders loaded.
func (env *testEnv) checkoutCOD(t *testing.T, userID uint, lines map[*models.Variant]int) *models.Order {
	t.Helper()
	var ids []uint
	for variant, qty := range lines {
		ids = append(ids, env.addToCart(t, userID, variant.ID, qty))
	}
	result, err := env.checkoutSvc.Checkout(CheckoutInput{
		UserID:            userID,
		CartItemIDs:       ids,
		PaymentMethod:     constants.PaymentMethodCOD,
		ShippingAddressID: 1,
		IdempotencyKey:    fmt.Sprintf("cod-%d-%d", userID, time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return result.Order
}

func (env *testEnv) reloadSubOrder(t *testing.T, id uint) *models.SubOrder {
	t.Helper()
	subOrder, err := env.subOrderRepo.GetByID(id)
	if err != nil {
		t.Fatalf("reload sub-order failed: %v", err)
	}
	if subOrder == nil {
		t.Fatalf("sub-order %d not found", id)
	}
	return subOrder
}

func (env *testEnv) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := env.orderRepo.GetByIDWithSubOrders(id)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order == nil {
		t.Fatalf("order %d not found", id)
	}
	return order
}

func (env *testEnv) reloadVariant(t *testing.T, id uint) *models.Variant {
	t.Helper()
	variant, err := env.variantRepo.GetByID(id)
	if err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if variant == nil {
		t.Fatalf("variant %d not found", id)
	}
	return variant
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
