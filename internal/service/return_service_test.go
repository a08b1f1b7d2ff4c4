package service

import (
	"errors"
	"testing"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"
)

// deliverSubOrder walks one sub-order to delivered by the given seller and a
// fixed shipper.
func (env *testEnv) deliverSubOrder(t *testing.T, subOrderID, sellerID uint) {
	t.Helper()
	env.perform(t, subOrderID, constants.ActionConfirm, sellerID, constants.RoleSeller)
	env.perform(t, subOrderID, constants.ActionPack, sellerID, constants.RoleSeller)
	env.perform(t, subOrderID, constants.ActionPickup, 21, constants.RoleShipper)
	env.perform(t, subOrderID, constants.ActionDeliver, 21, constants.RoleShipper)
}

func (env *testEnv) openReturn(t *testing.T, subOrderID, userID uint) *models.ReturnRequest {
	t.Helper()
	request, err := env.returnSvc.CreateReturnRequest(CreateReturnInput{
		SubOrderID: subOrderID,
		UserID:     userID,
		Reason:     "damaged on arrival",
		Evidence:   []string{"https://img.example/1.jpg"},
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}
	return request
}

func TestReturnRequestInsideWindow(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-RET", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID
	env.deliverSubOrder(t, subOrderID, 11)

	request := env.openReturn(t, subOrderID, 7)
	if request.Status != constants.ReturnStatusRequested {
		t.Fatalf("want requested got %s", request.Status)
	}
	if got := env.reloadSubOrder(t, subOrderID).Status; got != constants.SubOrderStatusReturnRequested {
		t.Fatalf("sub-order should be return_requested, got %s", got)
	}
}

func TestReturnRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-VAL", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID

	// Missing reason.
	if _, err := env.returnSvc.CreateReturnRequest(CreateReturnInput{SubOrderID: subOrderID, UserID: 7}); !errors.Is(err, ErrReturnStateInvalid) {
		t.Fatalf("missing reason want ErrReturnStateInvalid got %v", err)
	}
	// Not delivered yet.
	if _, err := env.returnSvc.CreateReturnRequest(CreateReturnInput{SubOrderID: subOrderID, UserID: 7, Reason: "x"}); !errors.Is(err, ErrReturnStateInvalid) {
		t.Fatalf("undelivered want ErrReturnStateInvalid got %v", err)
	}

	env.deliverSubOrder(t, subOrderID, 11)

	// Someone else's order.
	if _, err := env.returnSvc.CreateReturnRequest(CreateReturnInput{SubOrderID: subOrderID, UserID: 8, Reason: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign buyer want ErrForbidden got %v", err)
	}

	env.openReturn(t, subOrderID, 7)
	if _, err := env.returnSvc.CreateReturnRequest(CreateReturnInput{SubOrderID: subOrderID, UserID: 7, Reason: "again"}); !errors.Is(err, ErrReturnExists) {
		t.Fatalf("duplicate want ErrReturnExists got %v", err)
	}
}

func TestReturnRequestWindowClosed(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-LATE", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID
	env.deliverSubOrder(t, subOrderID, 11)

	// Backdate the deadline past.
	expired := time.Now().Add(-time.Hour)
	if err := env.db.Model(&models.SubOrder{}).Where("id = ?", subOrderID).Update("return_deadline", expired).Error; err != nil {
		t.Fatalf("backdate failed: %v", err)
	}
	if _, err := env.returnSvc.CreateReturnRequest(CreateReturnInput{SubOrderID: subOrderID, UserID: 7, Reason: "late"}); !errors.Is(err, ErrReturnWindowClosed) {
		t.Fatalf("want ErrReturnWindowClosed got %v", err)
	}
}

func TestReturnRejectCompletesSubOrder(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-REJ", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID
	env.deliverSubOrder(t, subOrderID, 11)
	request := env.openReturn(t, subOrderID, 7)

	rejected, err := env.returnSvc.Reject(request.ID, 11, "wear and tear is not a defect")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.ReturnStatusRejected || rejected.RejectReason == "" || rejected.ResolvedAt == nil {
		t.Fatalf("unexpected rejected request: %+v", rejected)
	}
	// A rejected return counts as fulfilled: the sub-order completes and
	// leaves the return/auto-confirm machinery for good.
	if got := env.reloadSubOrder(t, subOrderID).Status; got != constants.SubOrderStatusCompleted {
		t.Fatalf("rejected return completes the sub-order, got %s", got)
	}
	if got := env.reloadOrder(t, order.ID).Status; got != constants.OrderStatusCompleted {
		t.Fatalf("order should roll up to completed, got %s", got)
	}
	if _, err := env.returnSvc.CreateReturnRequest(CreateReturnInput{SubOrderID: subOrderID, UserID: 7, Reason: "again"}); !errors.Is(err, ErrReturnExists) {
		t.Fatalf("re-request after rejection want ErrReturnExists got %v", err)
	}

	// Empty reject reason is refused.
	if _, err := env.returnSvc.Reject(request.ID, 11, ""); !errors.Is(err, ErrReturnStateInvalid) {
		t.Fatalf("empty reason want ErrReturnStateInvalid got %v", err)
	}
}

func TestReturnRefundCreditsWalletProRata(t *testing.T) {
	env := newTestEnv(t)
	shopA := env.createShop(t, 11, "shop a")
	shopB := env.createShop(t, 12, "shop b")
	variantA := env.createVariant(t, shopA.ID, "SKU-RFA", "300.00", 10)
	variantB := env.createVariant(t, shopB.ID, "SKU-RFB", "100.00", 10)
	createTestVoucher(t, env, func(v *models.Voucher) {
		v.Code = "CUT40"
		v.Type = constants.VoucherTypeFixed
		v.Value = money(t, "40.00")
	})

	items := []uint{
		env.addToCart(t, 7, variantA.ID, 1),
		env.addToCart(t, 7, variantB.ID, 1),
	}
	env.topUpWallet(t, 7, "1000.00")
	result, err := env.checkoutSvc.Checkout(CheckoutInput{
		UserID:            7,
		CartItemIDs:       items,
		PaymentMethod:     constants.PaymentMethodWallet,
		VoucherCode:       "CUT40",
		ShippingAddressID: 1,
		IdempotencyKey:    "refund-1",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Order
	// 400 goods + 20 shipping - 40 discount = 380; balance 620 after payment.
	subA := order.SubOrders[0]
	env.deliverSubOrder(t, subA.ID, 11)
	request := env.openReturn(t, subA.ID, 7)
	if _, err := env.returnSvc.Approve(request.ID, 11); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := env.returnSvc.MarkReturned(request.ID, 21); err != nil {
		t.Fatalf("mark returned failed: %v", err)
	}
	refunded, err := env.returnSvc.Refund(request.ID, 11)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.Status != constants.ReturnStatusRefunded {
		t.Fatalf("want refunded got %s", refunded.Status)
	}

	// Shop A share of the discount: 40 * 300/400 = 30.
	// Refund = 300 + 10 shipping - 30 = 280. Balance 620 + 280 = 900.
	balance, err := env.walletSvc.GetBalance(7)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if got := balance.Balance.String(); got != "900.00" {
		t.Fatalf("balance want 900.00 got %s", got)
	}

	// Returned goods never restock on their own.
	if got := env.reloadVariant(t, variantA.ID).Quantity; got != 9 {
		t.Fatalf("refund must not restock, quantity want 9 got %d", got)
	}
	if got := env.reloadSubOrder(t, subA.ID).Status; got != constants.SubOrderStatusRefunded {
		t.Fatalf("sub-order want refunded got %s", got)
	}
}

func TestReturnRefundUnpaidCODCreditsNothing(t *testing.T) {
	env := newTestEnv(t)
	shopA := env.createShop(t, 11, "shop a")
	shopB := env.createShop(t, 12, "shop b")
	variantA := env.createVariant(t, shopA.ID, "SKU-UPA", "100.00", 10)
	variantB := env.createVariant(t, shopB.ID, "SKU-UPB", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variantA: 1, variantB: 1})

	// Only shop A delivers, so COD is still uncollected when its return runs.
	subA := order.SubOrders[0]
	env.deliverSubOrder(t, subA.ID, 11)
	request := env.openReturn(t, subA.ID, 7)
	if _, err := env.returnSvc.Approve(request.ID, 11); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := env.returnSvc.MarkReturned(request.ID, 21); err != nil {
		t.Fatalf("mark returned failed: %v", err)
	}
	if _, err := env.returnSvc.Refund(request.ID, 11); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	balance, err := env.walletSvc.GetBalance(7)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if got := balance.Balance.String(); got != "0.00" {
		t.Fatalf("nothing was collected, nothing refunds: want 0.00 got %s", got)
	}
}

func TestReturnRefundRollsUpOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-ROLL", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID
	env.deliverSubOrder(t, subOrderID, 11)
	request := env.openReturn(t, subOrderID, 7)
	if _, err := env.returnSvc.Approve(request.ID, 11); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := env.returnSvc.MarkReturned(request.ID, 21); err != nil {
		t.Fatalf("mark returned failed: %v", err)
	}
	if _, err := env.returnSvc.Refund(request.ID, 11); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if got := env.reloadOrder(t, order.ID).Status; got != constants.OrderStatusRefunded {
		t.Fatalf("single refunded sub-order should mark the order refunded, got %s", got)
	}

	// Foreign seller cannot resolve another shop's return.
	if _, err := env.returnSvc.Refund(request.ID, 12); !errors.Is(err, ErrForbidden) {
		t.Fatalf("already-refunded request by foreign seller want ErrForbidden got %v", err)
	}
}

func TestOrderReturnOpensAllEligible(t *testing.T) {
	env := newTestEnv(t)
	shopA := env.createShop(t, 11, "shop a")
	shopB := env.createShop(t, 12, "shop b")
	variantA := env.createVariant(t, shopA.ID, "SKU-ORRA", "100.00", 10)
	variantB := env.createVariant(t, shopB.ID, "SKU-ORRB", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variantA: 1, variantB: 1})

	var subA, subB uint
	for _, subOrder := range order.SubOrders {
		if subOrder.ShopID == shopA.ID {
			subA = subOrder.ID
		} else {
			subB = subOrder.ID
		}
	}

	// Nothing delivered yet.
	if _, err := env.returnSvc.CreateOrderReturn(CreateOrderReturnInput{OrderID: order.ID, UserID: 7, Reason: "broken"}); !errors.Is(err, ErrNoReturnableItems) {
		t.Fatalf("undelivered order want ErrNoReturnableItems got %v", err)
	}

	env.deliverSubOrder(t, subA, 11)
	env.deliverSubOrder(t, subB, 12)
	// One sub-order already has its own request; the scan must skip it.
	env.openReturn(t, subA, 7)

	if _, err := env.returnSvc.CreateOrderReturn(CreateOrderReturnInput{OrderID: order.ID, UserID: 7}); !errors.Is(err, ErrReturnStateInvalid) {
		t.Fatalf("missing reason want ErrReturnStateInvalid got %v", err)
	}
	if _, err := env.returnSvc.CreateOrderReturn(CreateOrderReturnInput{OrderID: order.ID, UserID: 8, Reason: "broken"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign buyer want ErrForbidden got %v", err)
	}

	requests, err := env.returnSvc.CreateOrderReturn(CreateOrderReturnInput{OrderID: order.ID, UserID: 7, Reason: "broken"})
	if err != nil {
		t.Fatalf("order return failed: %v", err)
	}
	if len(requests) != 1 || requests[0].SubOrderID != subB {
		t.Fatalf("only the un-requested sub-order qualifies, got %+v", requests)
	}
	if got := env.reloadSubOrder(t, subB).Status; got != constants.SubOrderStatusReturnRequested {
		t.Fatalf("sub-order B want return_requested got %s", got)
	}

	// With every sub-order already requested there is nothing left.
	if _, err := env.returnSvc.CreateOrderReturn(CreateOrderReturnInput{OrderID: order.ID, UserID: 7, Reason: "again"}); !errors.Is(err, ErrNoReturnableItems) {
		t.Fatalf("exhausted order want ErrNoReturnableItems got %v", err)
	}
}
