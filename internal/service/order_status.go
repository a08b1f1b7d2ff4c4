package service

import (
	"strings"

	"github.com/chogo-next/internal/constants"
)

// transition one permitted sub-order status move. Every fulfillment action
// resolves to exactly one entry; anything not listed is rejected.
type transition struct {
	From string
	To   string
	Role string
}

// subOrderTransitions action -> permitted move. The table is the single
// authority on who may move a sub-order where; services never compare
// statuses ad hoc.
var subOrderTransitions = map[string]transition{
	constants.ActionConfirm: {
		From: constants.SubOrderStatusPending,
		To:   constants.SubOrderStatusProcessing,
		Role: constants.RoleSeller,
	},
	constants.ActionPack: {
		From: constants.SubOrderStatusProcessing,
		To:   constants.SubOrderStatusReadyToShip,
		Role: constants.RoleSeller,
	},
	constants.ActionPickup: {
		From: constants.SubOrderStatusReadyToShip,
		To:   constants.SubOrderStatusShipping,
		Role: constants.RoleShipper,
	},
	constants.ActionDeliver: {
		From: constants.SubOrderStatusShipping,
		To:   constants.SubOrderStatusDelivered,
		Role: constants.RoleShipper,
	},
	constants.ActionConfirmReceipt: {
		From: constants.SubOrderStatusDelivered,
		To:   constants.SubOrderStatusCompleted,
		Role: constants.RoleCustomer,
	},
	constants.ActionRequestReturn: {
		From: constants.SubOrderStatusDelivered,
		To:   constants.SubOrderStatusReturnRequested,
		Role: constants.RoleCustomer,
	},
	constants.ActionApproveReturn: {
		From: constants.SubOrderStatusReturnRequested,
		To:   constants.SubOrderStatusReturnApproved,
		Role: constants.RoleSeller,
	},
	constants.ActionRejectReturn: {
		From: constants.SubOrderStatusReturnRequested,
		To:   constants.SubOrderStatusCompleted,
		Role: constants.RoleSeller,
	},
	constants.ActionMarkReturned: {
		From: constants.SubOrderStatusReturnApproved,
		To:   constants.SubOrderStatusReturned,
		Role: constants.RoleShipper,
	},
	constants.ActionRefund: {
		From: constants.SubOrderStatusReturned,
		To:   constants.SubOrderStatusRefunded,
		Role: constants.RoleSeller,
	},
}

// resolveTransition looks up the move an action performs and checks the
// acting role. System actors (workers) bypass the role gate.
func resolveTransition(action, role string) (transition, error) {
	t, ok := subOrderTransitions[action]
	if !ok {
		return transition{}, ErrTransitionInvalid
	}
	if role != constants.RoleSystem && t.Role != role {
		return transition{}, ErrForbidden
	}
	return t, nil
}

// calcOrderStatus aggregates sub-order statuses into the parent order
// status. Terminal parent states (canceled, payment failed) are handled by
// their own flows and never recomputed here.
func calcOrderStatus(statuses []string, currentStatus string) string {
	if len(statuses) == 0 {
		return currentStatus
	}
	total := len(statuses)
	var completed, canceled, refunded, terminal int
	for _, s := range statuses {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case constants.SubOrderStatusCompleted:
			completed++
			terminal++
		case constants.SubOrderStatusCanceled:
			canceled++
			terminal++
		case constants.SubOrderStatusRefunded:
			refunded++
			terminal++
		}
	}
	if terminal < total {
		return currentStatus
	}
	switch {
	case canceled == total:
		return constants.OrderStatusCanceled
	case refunded > 0:
		return constants.OrderStatusRefunded
	default:
		return constants.OrderStatusCompleted
	}
}
