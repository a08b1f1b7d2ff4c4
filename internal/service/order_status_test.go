package service

import (
	"errors"
	"testing"

	"github.com/chogo-next/internal/constants"
)

func TestResolveTransitionRoleGate(t *testing.T) {
	if _, err := resolveTransition(constants.ActionConfirm, constants.RoleSeller); err != nil {
		t.Fatalf("seller confirm should resolve: %v", err)
	}
	if _, err := resolveTransition(constants.ActionConfirm, constants.RoleShipper); !errors.Is(err, ErrForbidden) {
		t.Fatalf("shipper confirm should be forbidden, got %v", err)
	}
	if _, err := resolveTransition(constants.ActionConfirm, constants.RoleSystem); err != nil {
		t.Fatalf("system bypasses the role gate: %v", err)
	}
	if _, err := resolveTransition("teleport", constants.RoleSystem); !errors.Is(err, ErrTransitionInvalid) {
		t.Fatalf("unknown action should be invalid, got %v", err)
	}
}

func TestResolveTransitionEdges(t *testing.T) {
	cases := []struct {
		action string
		from   string
		to     string
	}{
		{constants.ActionConfirm, constants.SubOrderStatusPending, constants.SubOrderStatusProcessing},
		{constants.ActionPack, constants.SubOrderStatusProcessing, constants.SubOrderStatusReadyToShip},
		{constants.ActionPickup, constants.SubOrderStatusReadyToShip, constants.SubOrderStatusShipping},
		{constants.ActionDeliver, constants.SubOrderStatusShipping, constants.SubOrderStatusDelivered},
		{constants.ActionConfirmReceipt, constants.SubOrderStatusDelivered, constants.SubOrderStatusCompleted},
		{constants.ActionRequestReturn, constants.SubOrderStatusDelivered, constants.SubOrderStatusReturnRequested},
		{constants.ActionApproveReturn, constants.SubOrderStatusReturnRequested, constants.SubOrderStatusReturnApproved},
		{constants.ActionRejectReturn, constants.SubOrderStatusReturnRequested, constants.SubOrderStatusCompleted},
		{constants.ActionMarkReturned, constants.SubOrderStatusReturnApproved, constants.SubOrderStatusReturned},
		{constants.ActionRefund, constants.SubOrderStatusReturned, constants.SubOrderStatusRefunded},
	}
	for _, tc := range cases {
		tr, err := resolveTransition(tc.action, constants.RoleSystem)
		if err != nil {
			t.Fatalf("resolve %s failed: %v", tc.action, err)
		}
		if tr.From != tc.from || tr.To != tc.to {
			t.Fatalf("%s: got %s -> %s, want %s -> %s", tc.action, tr.From, tr.To, tc.from, tc.to)
		}
	}
}

func TestCalcOrderStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		current  string
		want     string
	}{
		{"no sub-orders", nil, constants.OrderStatusConfirmed, constants.OrderStatusConfirmed},
		{"mixed non-terminal", []string{"completed", "shipping"}, constants.OrderStatusConfirmed, constants.OrderStatusConfirmed},
		{"all completed", []string{"completed", "completed"}, constants.OrderStatusConfirmed, constants.OrderStatusCompleted},
		{"all cancelled", []string{"cancelled", "cancelled"}, constants.OrderStatusPendingPayment, constants.OrderStatusCanceled},
		{"refund among completed", []string{"completed", "refunded"}, constants.OrderStatusConfirmed, constants.OrderStatusRefunded},
		{"cancelled among completed", []string{"completed", "cancelled"}, constants.OrderStatusConfirmed, constants.OrderStatusCompleted},
		{"delivered not terminal", []string{"delivered", "completed"}, constants.OrderStatusConfirmed, constants.OrderStatusConfirmed},
	}
	for _, tc := range cases {
		if got := calcOrderStatus(tc.statuses, tc.current); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}
