package service

import (
	"errors"
	"time"

	"github.com/chogo-next/internal/authz"
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/eventbus"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/queue"
	"github.com/chogo-next/internal/repository"

	"gorm.io/gorm"
)

// actionTrackingEvents transition action -> tracking event type written with it
var actionTrackingEvents = map[string]string{
	constants.ActionConfirm:        constants.TrackingEventOrderConfirmed,
	constants.ActionPack:           constants.TrackingEventOrderPacked,
	constants.ActionPickup:         constants.TrackingEventOrderPickedUp,
	constants.ActionDeliver:        constants.TrackingEventOrderDelivered,
	constants.ActionConfirmReceipt: constants.TrackingEventOrderCompleted,
	constants.ActionRequestReturn:  constants.TrackingEventReturnRequested,
	constants.ActionApproveReturn:  constants.TrackingEventReturnApproved,
	constants.ActionRejectReturn:   constants.TrackingEventReturnRejected,
	constants.ActionMarkReturned:   constants.TrackingEventReturnReceived,
	constants.ActionRefund:         constants.TrackingEventRefundProcessed,
}

// FulfillmentService drives sub-orders through the fulfillment state machine.
// Every move goes through the transition table and a from-status guarded
// update, so concurrent actors cannot double-apply an action.
type FulfillmentService struct {
	orderRepo    repository.OrderRepository
	subOrderRepo repository.SubOrderRepository
	shopRepo     repository.ShopRepository
	trackingRepo repository.TrackingRepository
	paymentSvc   *PaymentService
	authzSvc     *authz.Service
	queueClient  *queue.Client
	producer     *eventbus.Producer

	returnWindowDays int
	autoConfirmDays  int
}

// NewFulfillmentService creates the fulfillment service
func NewFulfillmentService(
	orderRepo repository.OrderRepository,
	subOrderRepo repository.SubOrderRepository,
	shopRepo repository.ShopRepository,
	trackingRepo repository.TrackingRepository,
	paymentSvc *PaymentService,
	authzSvc *authz.Service,
	queueClient *queue.Client,
	producer *eventbus.Producer,
	returnWindowDays, autoConfirmDays int,
) *FulfillmentService {
	if returnWindowDays <= 0 {
		returnWindowDays = constants.DefaultReturnWindowDays
	}
	if autoConfirmDays <= 0 {
		autoConfirmDays = constants.DefaultAutoConfirmDays
	}
	return &FulfillmentService{
		orderRepo:        orderRepo,
		subOrderRepo:     subOrderRepo,
		shopRepo:         shopRepo,
		trackingRepo:     trackingRepo,
		paymentSvc:       paymentSvc,
		authzSvc:         authzSvc,
		queueClient:      queueClient,
		producer:         producer,
		returnWindowDays: returnWindowDays,
		autoConfirmDays:  autoConfirmDays,
	}
}

// PerformInput one fulfillment action against one sub-order
type PerformInput struct {
	SubOrderID uint
	Action     string
	ActorID    uint
	ActorRole  string
	Note       string
}

// Perform applies a fulfillment action: resolve the transition, check the
// actor may touch this sub-order, move it, and sync the parent order.
func (s *FulfillmentService) Perform(input PerformInput) (*models.SubOrder, error) {
	if err := s.enforceAction(input.ActorRole, input.Action); err != nil {
		return nil, err
	}
	t, err := resolveTransition(input.Action, input.ActorRole)
	if err != nil {
		return nil, err
	}
	subOrder, err := s.subOrderRepo.GetByID(input.SubOrderID)
	if err != nil {
		return nil, err
	}
	if subOrder == nil {
		return nil, ErrNotFound
	}
	order, err := s.orderRepo.GetByID(subOrder.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if err := s.checkActor(subOrder, order, input); err != nil {
		return nil, err
	}
	if subOrder.Status != t.From {
		return nil, ErrOrderStateConflict
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ApplyTransition(tx, subOrder, order, input.Action, t, input.ActorID, input.ActorRole, input.Note); err != nil {
			return err
		}
		switch input.Action {
		case constants.ActionPickup:
			if err := s.subOrderRepo.WithTx(tx).UpdateFields(subOrder.ID, map[string]interface{}{
				"shipper_id": input.ActorID,
			}); err != nil {
				return err
			}
		case constants.ActionDeliver:
			deadline := now.AddDate(0, 0, s.returnWindowDays)
			if err := s.subOrderRepo.WithTx(tx).UpdateFields(subOrder.ID, map[string]interface{}{
				"delivered_at":    now,
				"return_deadline": deadline,
			}); err != nil {
				return err
			}
			if err := s.settleCODIfDone(tx, order, subOrder.ID, now); err != nil {
				return err
			}
		}
		return s.SyncOrderStatus(tx, order, input.ActorRole)
	})
	if err != nil {
		return nil, err
	}

	if input.Action == constants.ActionDeliver && s.queueClient != nil {
		delay := time.Duration(s.autoConfirmDays) * 24 * time.Hour
		if err := s.queueClient.EnqueueSubOrderAutoConfirm(queue.SubOrderAutoConfirmPayload{SubOrderID: subOrder.ID}, delay); err != nil {
			logger.Warnw("auto_confirm_enqueue_failed", "sub_order_id", subOrder.ID, "error", err)
		}
	}
	s.publishSubOrderStatus(order.ID, subOrder.ID, t.From, t.To, input.ActorRole)
	logger.Infow("fulfillment_action",
		"sub_order_no", subOrder.SubOrderNo,
		"action", input.Action,
		"from", t.From,
		"to", t.To,
		"actor_role", input.ActorRole,
	)
	return s.subOrderRepo.GetByID(subOrder.ID)
}

// AutoConfirmReceipt completes a delivered sub-order whose receipt window has
// lapsed. Called by the worker; a no-op when the buyer already acted.
func (s *FulfillmentService) AutoConfirmReceipt(subOrderID uint) error {
	subOrder, err := s.subOrderRepo.GetByID(subOrderID)
	if err != nil {
		return err
	}
	if subOrder == nil || subOrder.Status != constants.SubOrderStatusDelivered {
		return nil
	}
	_, err = s.Perform(PerformInput{
		SubOrderID: subOrderID,
		Action:     constants.ActionConfirmReceipt,
		ActorRole:  constants.RoleSystem,
		Note:       "auto-confirmed after receipt window",
	})
	if errors.Is(err, ErrOrderStateConflict) {
		// Lost a race with the buyer or a return request.
		return nil
	}
	return err
}

// ConfirmOrderReceipt completes every delivered sub-order of the buyer's
// order in one call, skipping the rest. Repeating it with nothing left in
// delivered changes nothing.
func (s *FulfillmentService) ConfirmOrderReceipt(userID, orderID uint) ([]models.SubOrder, error) {
	order, err := s.orderRepo.GetByIDWithSubOrders(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if err := s.enforceAction(constants.RoleCustomer, constants.ActionConfirmReceipt); err != nil {
		return nil, err
	}
	t, err := resolveTransition(constants.ActionConfirmReceipt, constants.RoleCustomer)
	if err != nil {
		return nil, err
	}
	var confirmed []models.SubOrder
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		for i := range order.SubOrders {
			sub := &order.SubOrders[i]
			if sub.Status != constants.SubOrderStatusDelivered {
				continue
			}
			if err := s.ApplyTransition(tx, sub, order, constants.ActionConfirmReceipt, t, userID, constants.RoleCustomer, ""); err != nil {
				return err
			}
			confirmed = append(confirmed, *sub)
		}
		if len(confirmed) == 0 {
			return nil
		}
		return s.SyncOrderStatus(tx, order, constants.RoleCustomer)
	})
	if err != nil {
		return nil, err
	}
	for i := range confirmed {
		s.publishSubOrderStatus(order.ID, confirmed[i].ID, t.From, t.To, constants.RoleCustomer)
	}
	return confirmed, nil
}

// ApplyTransition performs one guarded status move with its tracking event.
// Callers own the surrounding transaction and any extra bookkeeping.
func (s *FulfillmentService) ApplyTransition(tx *gorm.DB, subOrder *models.SubOrder, order *models.Order, action string, t transition, actorID uint, actorRole, note string) error {
	moved, err := s.subOrderRepo.WithTx(tx).UpdateStatus(subOrder.ID, t.From, t.To)
	if err != nil {
		return err
	}
	if !moved {
		return ErrOrderStateConflict
	}
	subOrder.Status = t.To
	return s.trackingRepo.WithTx(tx).Create(&models.TrackingEvent{
		SubOrderID: subOrder.ID,
		OrderID:    order.ID,
		EventType:  actionTrackingEvents[action],
		FromStatus: t.From,
		ToStatus:   t.To,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Note:       note,
	})
}

// SyncOrderStatus recomputes the parent order status once every sub-order is
// terminal. Non-terminal mixes leave the order where it is.
func (s *FulfillmentService) SyncOrderStatus(tx *gorm.DB, order *models.Order, actorRole string) error {
	statuses, err := s.subOrderRepo.WithTx(tx).ListStatuses(order.ID)
	if err != nil {
		return err
	}
	next := calcOrderStatus(statuses, order.Status)
	if next == order.Status {
		return nil
	}
	moved, err := s.orderRepo.WithTx(tx).UpdateStatusIf(order.ID, order.Status, next)
	if err != nil {
		return err
	}
	if moved {
		s.publishSubOrderStatus(order.ID, 0, order.Status, next, actorRole)
		order.Status = next
	}
	return nil
}

// settleCODIfDone marks a COD order collected once its last sub-order is
// delivered. justDelivered is the sub-order moved in this transaction, whose
// status the surrounding query would still read as shipping.
func (s *FulfillmentService) settleCODIfDone(tx *gorm.DB, order *models.Order, justDelivered uint, now time.Time) error {
	if order.PaymentMethod != constants.PaymentMethodCOD {
		return nil
	}
	subOrders, err := s.subOrderRepo.WithTx(tx).ListByOrderID(order.ID)
	if err != nil {
		return err
	}
	for _, so := range subOrders {
		if so.ID == justDelivered {
			continue
		}
		switch so.Status {
		case constants.SubOrderStatusDelivered,
			constants.SubOrderStatusCompleted,
			constants.SubOrderStatusCanceled,
			constants.SubOrderStatusReturnRequested,
			constants.SubOrderStatusReturnApproved,
			constants.SubOrderStatusReturned,
			constants.SubOrderStatusRefunded:
			continue
		default:
			return nil
		}
	}
	return s.paymentSvc.MarkCODCollected(tx, order.ID, now)
}

// enforceAction asks the policy layer whether the role may attempt the
// action. The transition table still decides the edge afterward.
func (s *FulfillmentService) enforceAction(role, action string) error {
	if s.authzSvc == nil {
		return nil
	}
	allowed, err := s.authzSvc.Enforce(role, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// checkActor verifies the actor owns the side of the sub-order the action
// touches. System actors skip the check.
func (s *FulfillmentService) checkActor(subOrder *models.SubOrder, order *models.Order, input PerformInput) error {
	switch input.ActorRole {
	case constants.RoleSystem:
		return nil
	case constants.RoleCustomer:
		if order.UserID != input.ActorID {
			return ErrForbidden
		}
	case constants.RoleSeller:
		shop, err := s.shopRepo.GetByID(subOrder.ShopID)
		if err != nil {
			return err
		}
		if shop == nil || shop.OwnerID != input.ActorID {
			return ErrForbidden
		}
	case constants.RoleShipper:
		// Pickup claims the sub-order; later shipper actions must come from
		// the shipper who claimed it.
		if input.Action != constants.ActionPickup {
			if subOrder.ShipperID == nil || *subOrder.ShipperID != input.ActorID {
				return ErrForbidden
			}
		}
	default:
		return ErrForbidden
	}
	return nil
}

// publishSubOrderStatus emits an order.status event, dropped when no broker
// is configured.
func (s *FulfillmentService) publishSubOrderStatus(orderID, subOrderID uint, from, to, actorRole string) {
	if s.producer == nil {
		return
	}
	s.producer.Publish(constants.TopicOrderStatus, eventbus.EventOrderStatusMoved,
		eventbus.PartitionKey(orderID), eventbus.OrderStatusMovedPayload{
			OrderID:    orderID,
			SubOrderID: subOrderID,
			FromStatus: from,
			ToStatus:   to,
			ActorRole:  actorRole,
		})
}
