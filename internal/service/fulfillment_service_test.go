package service

import (
	"errors"
	"testing"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"
)

func (env *testEnv) perform(t *testing.T, subOrderID uint, action string, actorID uint, role string) *models.SubOrder {
	t.Helper()
	subOrder, err := env.fulfillmentSvc.Perform(PerformInput{
		SubOrderID: subOrderID,
		Action:     action,
		ActorID:    actorID,
		ActorRole:  role,
	})
	if err != nil {
		t.Fatalf("%s by %s failed: %v", action, role, err)
	}
	return subOrder
}

func TestFulfillmentHappyPath(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-FLOW", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID

	subOrder := env.perform(t, subOrderID, constants.ActionConfirm, 11, constants.RoleSeller)
	if subOrder.Status != constants.SubOrderStatusProcessing {
		t.Fatalf("after confirm want processing got %s", subOrder.Status)
	}
	env.perform(t, subOrderID, constants.ActionPack, 11, constants.RoleSeller)

	subOrder = env.perform(t, subOrderID, constants.ActionPickup, 21, constants.RoleShipper)
	if subOrder.ShipperID == nil || *subOrder.ShipperID != 21 {
		t.Fatalf("pickup should claim the sub-order for shipper 21, got %v", subOrder.ShipperID)
	}

	subOrder = env.perform(t, subOrderID, constants.ActionDeliver, 21, constants.RoleShipper)
	if subOrder.DeliveredAt == nil || subOrder.ReturnDeadline == nil {
		t.Fatal("delivery should stamp delivered_at and return_deadline")
	}
	window := subOrder.ReturnDeadline.Sub(*subOrder.DeliveredAt)
	if days := int(window.Hours() / 24); days != 7 {
		t.Fatalf("return window want 7 days got %d", days)
	}

	subOrder = env.perform(t, subOrderID, constants.ActionConfirmReceipt, 7, constants.RoleCustomer)
	if subOrder.Status != constants.SubOrderStatusCompleted {
		t.Fatalf("after receipt want completed got %s", subOrder.Status)
	}

	// Single sub-order is terminal, so the order completes.
	reloaded := env.reloadOrder(t, order.ID)
	if reloaded.Status != constants.OrderStatusCompleted {
		t.Fatalf("order should complete, got %s", reloaded.Status)
	}

	// Each hop left a tracking row (order_placed + 5 actions).
	events, err := env.trackingRepo.ListBySubOrderID(subOrderID)
	if err != nil {
		t.Fatalf("list tracking failed: %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("expected 6 tracking events, got %d", len(events))
	}
}

func TestFulfillmentWrongSellerForbidden(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	env.createShop(t, 12, "other shop")
	variant := env.createVariant(t, shop.ID, "SKU-OWN", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})

	_, err := env.fulfillmentSvc.Perform(PerformInput{
		SubOrderID: order.SubOrders[0].ID,
		Action:     constants.ActionConfirm,
		ActorID:    12,
		ActorRole:  constants.RoleSeller,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign seller should be forbidden, got %v", err)
	}
}

func TestFulfillmentWrongStateConflicts(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-STATE", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})

	// Packing a pending sub-order skips the confirm edge.
	_, err := env.fulfillmentSvc.Perform(PerformInput{
		SubOrderID: order.SubOrders[0].ID,
		Action:     constants.ActionPack,
		ActorID:    11,
		ActorRole:  constants.RoleSeller,
	})
	if !errors.Is(err, ErrOrderStateConflict) {
		t.Fatalf("expected ErrOrderStateConflict, got %v", err)
	}
}

func TestFulfillmentShipperClaimEnforced(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-CLAIM", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID

	env.perform(t, subOrderID, constants.ActionConfirm, 11, constants.RoleSeller)
	env.perform(t, subOrderID, constants.ActionPack, 11, constants.RoleSeller)
	env.perform(t, subOrderID, constants.ActionPickup, 21, constants.RoleShipper)

	_, err := env.fulfillmentSvc.Perform(PerformInput{
		SubOrderID: subOrderID,
		Action:     constants.ActionDeliver,
		ActorID:    22,
		ActorRole:  constants.RoleShipper,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("another shipper must not deliver a claimed parcel, got %v", err)
	}
}

func TestFulfillmentCODCollectedAtLastDelivery(t *testing.T) {
	env := newTestEnv(t)
	shopA := env.createShop(t, 11, "shop a")
	shopB := env.createShop(t, 12, "shop b")
	variantA := env.createVariant(t, shopA.ID, "SKU-CODA", "100.00", 10)
	variantB := env.createVariant(t, shopB.ID, "SKU-CODB", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variantA: 1, variantB: 1})
	if len(order.SubOrders) != 2 {
		t.Fatalf("want 2 sub-orders got %d", len(order.SubOrders))
	}

	advanceToDelivered := func(subOrderID, sellerID uint) {
		env.perform(t, subOrderID, constants.ActionConfirm, sellerID, constants.RoleSeller)
		env.perform(t, subOrderID, constants.ActionPack, sellerID, constants.RoleSeller)
		env.perform(t, subOrderID, constants.ActionPickup, 21, constants.RoleShipper)
		env.perform(t, subOrderID, constants.ActionDeliver, 21, constants.RoleShipper)
	}

	advanceToDelivered(order.SubOrders[0].ID, 11)
	if got := env.reloadOrder(t, order.ID).PaymentStatus; got != constants.PaymentStatusPending {
		t.Fatalf("one delivery out of two must not collect, got %s", got)
	}

	advanceToDelivered(order.SubOrders[1].ID, 12)
	if got := env.reloadOrder(t, order.ID).PaymentStatus; got != constants.PaymentStatusPaid {
		t.Fatalf("last delivery should collect cod, got %s", got)
	}
}

func TestAutoConfirmReceipt(t *testing.T) {
	env := newTestEnv(t)
	shop := env.createShop(t, 11, "shop")
	variant := env.createVariant(t, shop.ID, "SKU-AUTO", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variant: 1})
	subOrderID := order.SubOrders[0].ID

	// Not delivered yet: a scheduled auto-confirm is a silent no-op.
	if err := env.fulfillmentSvc.AutoConfirmReceipt(subOrderID); err != nil {
		t.Fatalf("premature auto-confirm should no-op, got %v", err)
	}
	if got := env.reloadSubOrder(t, subOrderID).Status; got != constants.SubOrderStatusPending {
		t.Fatalf("sub-order should stay pending, got %s", got)
	}

	env.perform(t, subOrderID, constants.ActionConfirm, 11, constants.RoleSeller)
	env.perform(t, subOrderID, constants.ActionPack, 11, constants.RoleSeller)
	env.perform(t, subOrderID, constants.ActionPickup, 21, constants.RoleShipper)
	env.perform(t, subOrderID, constants.ActionDeliver, 21, constants.RoleShipper)

	if err := env.fulfillmentSvc.AutoConfirmReceipt(subOrderID); err != nil {
		t.Fatalf("auto-confirm failed: %v", err)
	}
	if got := env.reloadSubOrder(t, subOrderID).Status; got != constants.SubOrderStatusCompleted {
		t.Fatalf("auto-confirm should complete, got %s", got)
	}
}

func TestConfirmOrderReceiptSkipsUndelivered(t *testing.T) {
	env := newTestEnv(t)
	shopA := env.createShop(t, 11, "shop a")
	shopB := env.createShop(t, 12, "shop b")
	variantA := env.createVariant(t, shopA.ID, "SKU-ORA", "100.00", 10)
	variantB := env.createVariant(t, shopB.ID, "SKU-ORB", "100.00", 10)
	order := env.checkoutCOD(t, 7, map[*models.Variant]int{variantA: 1, variantB: 1})

	var subA, subB uint
	for _, subOrder := range order.SubOrders {
		if subOrder.ShopID == shopA.ID {
			subA = subOrder.ID
		} else {
			subB = subOrder.ID
		}
	}
	env.deliverSubOrder(t, subA, 11)

	if _, err := env.fulfillmentSvc.ConfirmOrderReceipt(8, order.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign buyer want ErrForbidden got %v", err)
	}

	confirmed, err := env.fulfillmentSvc.ConfirmOrderReceipt(7, order.ID)
	if err != nil {
		t.Fatalf("confirm order receipt failed: %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].ID != subA {
		t.Fatalf("only the delivered sub-order completes, got %+v", confirmed)
	}
	if got := env.reloadSubOrder(t, subA).Status; got != constants.SubOrderStatusCompleted {
		t.Fatalf("sub-order A want completed got %s", got)
	}
	if got := env.reloadSubOrder(t, subB).Status; got != constants.SubOrderStatusPending {
		t.Fatalf("sub-order B must be skipped, got %s", got)
	}
	if got := env.reloadOrder(t, order.ID).Status; got != constants.OrderStatusConfirmed {
		t.Fatalf("order not yet complete, got %s", got)
	}

	// With nothing left in delivered the call is a no-op.
	confirmed, err = env.fulfillmentSvc.ConfirmOrderReceipt(7, order.ID)
	if err != nil {
		t.Fatalf("repeat confirm failed: %v", err)
	}
	if len(confirmed) != 0 {
		t.Fatalf("repeat confirm should move nothing, got %+v", confirmed)
	}

	env.deliverSubOrder(t, subB, 12)
	if _, err := env.fulfillmentSvc.ConfirmOrderReceipt(7, order.ID); err != nil {
		t.Fatalf("second confirm failed: %v", err)
	}
	if got := env.reloadOrder(t, order.ID).Status; got != constants.OrderStatusCompleted {
		t.Fatalf("order want completed got %s", got)
	}
}
