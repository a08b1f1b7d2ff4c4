package service

import (
	"errors"
	"testing"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// placeGatewayOrder checks out one unit via VNPay and returns the order with
// its open payment record.
func placeGatewayOrder(t *testing.T, env *testEnv) (*models.Order, *models.Payment) {
	t.Helper()
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-CB", "100.00", 10)
	itemID := env.addToCart(t, 7, variant.ID, 1)
	result, err := env.checkoutSvc.Checkout(CheckoutInput{
		UserID:            7,
		CartItemIDs:       []uint{itemID},
		PaymentMethod:     constants.PaymentMethodVNPay,
		ShippingAddressID: 1,
		IdempotencyKey:    "gateway-cb",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	var payment models.Payment
	if err := env.db.Where("order_id = ?", result.Order.ID).First(&payment).Error; err != nil {
		t.Fatalf("payment record missing: %v", err)
	}
	if payment.Status != constants.PaymentRecordStatusInitiated {
		t.Fatalf("fresh gateway payment should be initiated, got %s", payment.Status)
	}
	return result.Order, &payment
}

func TestGatewayCallbackSuccessSettles(t *testing.T) {
	env := newTestEnv(t)
	order, payment := placeGatewayOrder(t, env)

	outcome, err := env.paymentSvc.applyGatewayResult(payment.PaymentNo, "TXN-1", payment.Amount.IntPart(), true, models.JSON{"code": "00"})
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if !outcome.Succeeded || outcome.Duplicate {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	reloaded := env.reloadOrder(t, order.ID)
	if reloaded.Status != constants.OrderStatusConfirmed || reloaded.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("settled order should be confirmed+paid, got %s/%s", reloaded.Status, reloaded.PaymentStatus)
	}

	var settled models.Payment
	if err := env.db.First(&settled, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if settled.Status != constants.PaymentRecordStatusSuccess || settled.ProviderRef != "TXN-1" {
		t.Fatalf("payment should be success/TXN-1, got %s/%s", settled.Status, settled.ProviderRef)
	}

	// The held unit becomes a sale.
	variantID := reloaded.SubOrders[0].Items[0].VariantID
	stock := env.reloadVariant(t, variantID)
	if stock.Quantity != 9 || stock.ReservedQuantity != 0 {
		t.Fatalf("settlement should leave (9, 0), got (%d, %d)", stock.Quantity, stock.ReservedQuantity)
	}
}

func TestGatewayCallbackReplayIsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	order, payment := placeGatewayOrder(t, env)

	if _, err := env.paymentSvc.applyGatewayResult(payment.PaymentNo, "TXN-1", payment.Amount.IntPart(), true, nil); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	outcome, err := env.paymentSvc.applyGatewayResult(payment.PaymentNo, "TXN-1", payment.Amount.IntPart(), true, nil)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("replayed callback should report duplicate")
	}
	// The first settlement already sold the unit; no double confirm.
	variantID := env.reloadOrder(t, order.ID).SubOrders[0].Items[0].VariantID
	if got := env.reloadVariant(t, variantID).Quantity; got != 9 {
		t.Fatalf("quantity want 9 got %d", got)
	}
}

func TestGatewayCallbackAmountMismatchRejected(t *testing.T) {
	env := newTestEnv(t)
	order, payment := placeGatewayOrder(t, env)

	_, err := env.paymentSvc.applyGatewayResult(payment.PaymentNo, "TXN-1", 999999, true, nil)
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	reloaded := env.reloadOrder(t, order.ID)
	if reloaded.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("mismatched callback must not settle, status %s", reloaded.Status)
	}
}

func TestGatewayCallbackFailureFailsOrderAndReleasesStock(t *testing.T) {
	env := newTestEnv(t)
	order, payment := placeGatewayOrder(t, env)

	outcome, err := env.paymentSvc.applyGatewayResult(payment.PaymentNo, "", payment.Amount.IntPart(), false, models.JSON{"code": "24"})
	if err != nil {
		t.Fatalf("failure callback errored: %v", err)
	}
	if outcome.Succeeded || outcome.Duplicate {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	var failed models.Payment
	if err := env.db.First(&failed, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if failed.Status != constants.PaymentRecordStatusFailed {
		t.Fatalf("payment should be failed, got %s", failed.Status)
	}
	reloaded := env.reloadOrder(t, order.ID)
	if reloaded.Status != constants.OrderStatusPaymentFailed {
		t.Fatalf("order want payment_failed got %s", reloaded.Status)
	}
	if reloaded.PaymentStatus != constants.PaymentStatusFailed {
		t.Fatalf("payment status want failed got %s", reloaded.PaymentStatus)
	}
	for _, subOrder := range reloaded.SubOrders {
		if subOrder.Status != constants.SubOrderStatusCanceled {
			t.Fatalf("sub-order want cancelled got %s", subOrder.Status)
		}
	}
	// The dead session's hold goes straight back on sale.
	variantID := reloaded.SubOrders[0].Items[0].VariantID
	stock := env.reloadVariant(t, variantID)
	if stock.Quantity != 10 || stock.ReservedQuantity != 0 {
		t.Fatalf("failure should release the hold (10, 0), got (%d, %d)", stock.Quantity, stock.ReservedQuantity)
	}

	// A replayed failure is a duplicate and changes nothing further.
	replay, err := env.paymentSvc.applyGatewayResult(payment.PaymentNo, "", payment.Amount.IntPart(), false, models.JSON{"code": "24"})
	if err != nil {
		t.Fatalf("replayed failure errored: %v", err)
	}
	if !replay.Duplicate {
		t.Fatalf("replayed failure should be a duplicate, got %+v", replay)
	}
}

func TestGatewayCallbackUnknownPayment(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.paymentSvc.applyGatewayResult("PAY-UNKNOWN", "", 100, true, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkCODCollected(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 1, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-COD", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return env.paymentSvc.MarkCODCollected(tx, order.ID, time.Now())
	})
	if err != nil {
		t.Fatalf("mark collected failed: %v", err)
	}

	reloaded := env.reloadOrder(t, order.ID)
	if reloaded.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("collected cod order should be paid, got %s", reloaded.PaymentStatus)
	}
	if reloaded.PaidAt == nil {
		t.Fatal("paid_at should be set")
	}

	var payment models.Payment
	if err := env.db.Where("order_id = ? AND method = ?", order.ID, constants.PaymentMethodCOD).First(&payment).Error; err != nil {
		t.Fatalf("cod payment record missing: %v", err)
	}
	if payment.Status != constants.PaymentRecordStatusSuccess {
		t.Fatalf("cod payment record should be success, got %s", payment.Status)
	}

	// Collecting twice is a no-op.
	err = env.db.Transaction(func(tx *gorm.DB) error {
		return env.paymentSvc.MarkCODCollected(tx, order.ID, time.Now())
	})
	if err != nil {
		t.Fatalf("second collect errored: %v", err)
	}
}
