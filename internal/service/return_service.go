package service

import (
	"fmt"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReturnService the after-delivery return and refund workflow. Returned
// goods never restock: refunded quantity stays out of the sellable balance
// until the seller adjusts stock by hand.
type ReturnService struct {
	orderRepo      repository.OrderRepository
	subOrderRepo   repository.SubOrderRepository
	returnRepo     repository.ReturnRepository
	walletSvc      *WalletService
	fulfillmentSvc *FulfillmentService
}

// NewReturnService creates the return service
func NewReturnService(
	orderRepo repository.OrderRepository,
	subOrderRepo repository.SubOrderRepository,
	returnRepo repository.ReturnRepository,
	walletSvc *WalletService,
	fulfillmentSvc *FulfillmentService,
) *ReturnService {
	return &ReturnService{
		orderRepo:      orderRepo,
		subOrderRepo:   subOrderRepo,
		returnRepo:     returnRepo,
		walletSvc:      walletSvc,
		fulfillmentSvc: fulfillmentSvc,
	}
}

// CreateReturnInput a buyer's return request
type CreateReturnInput struct {
	SubOrderID  uint
	UserID      uint
	Reason      string
	Description string
	Evidence    []string
}

// CreateReturnRequest opens a return for a delivered sub-order. One request
// per sub-order, and only inside the return window.
func (s *ReturnService) CreateReturnRequest(input CreateReturnInput) (*models.ReturnRequest, error) {
	if input.Reason == "" {
		return nil, ErrReturnStateInvalid
	}
	subOrder, order, err := s.loadPair(input.SubOrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != input.UserID {
		return nil, ErrForbidden
	}
	// A prior request reports as a duplicate even though it already moved
	// the sub-order out of delivered.
	existing, err := s.returnRepo.GetBySubOrderID(subOrder.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrReturnExists
	}
	if subOrder.Status != constants.SubOrderStatusDelivered {
		return nil, ErrReturnStateInvalid
	}
	now := time.Now()
	if subOrder.ReturnDeadline == nil || now.After(*subOrder.ReturnDeadline) {
		return nil, ErrReturnWindowClosed
	}

	if err := s.fulfillmentSvc.enforceAction(constants.RoleCustomer, constants.ActionRequestReturn); err != nil {
		return nil, err
	}
	t, err := resolveTransition(constants.ActionRequestReturn, constants.RoleCustomer)
	if err != nil {
		return nil, err
	}
	request := &models.ReturnRequest{
		SubOrderID:  subOrder.ID,
		UserID:      input.UserID,
		Reason:      input.Reason,
		Description: input.Description,
		Evidence:    models.StringArray(input.Evidence),
		Status:      constants.ReturnStatusRequested,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.fulfillmentSvc.ApplyTransition(tx, subOrder, order, constants.ActionRequestReturn, t, input.UserID, constants.RoleCustomer, input.Reason); err != nil {
			return err
		}
		return s.returnRepo.WithTx(tx).Create(request)
	})
	if err != nil {
		return nil, err
	}
	s.fulfillmentSvc.publishSubOrderStatus(order.ID, subOrder.ID, t.From, t.To, constants.RoleCustomer)
	logger.Infow("return_requested",
		"sub_order_no", subOrder.SubOrderNo,
		"user_id", input.UserID,
		"reason", input.Reason,
	)
	return request, nil
}

// CreateOrderReturnInput an order-wide return request
type CreateOrderReturnInput struct {
	OrderID     uint
	UserID      uint
	Reason      string
	Description string
	Evidence    []string
}

// CreateOrderReturn opens a return for every sub-order of the order that is
// delivered, inside its window, and not already requested. At least one
// sub-order must qualify.
func (s *ReturnService) CreateOrderReturn(input CreateOrderReturnInput) ([]models.ReturnRequest, error) {
	if input.Reason == "" {
		return nil, ErrReturnStateInvalid
	}
	order, err := s.orderRepo.GetByIDWithSubOrders(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.UserID != input.UserID {
		return nil, ErrForbidden
	}
	if err := s.fulfillmentSvc.enforceAction(constants.RoleCustomer, constants.ActionRequestReturn); err != nil {
		return nil, err
	}
	t, err := resolveTransition(constants.ActionRequestReturn, constants.RoleCustomer)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var eligible []*models.SubOrder
	for i := range order.SubOrders {
		sub := &order.SubOrders[i]
		if sub.Status != constants.SubOrderStatusDelivered {
			continue
		}
		if sub.ReturnDeadline == nil || now.After(*sub.ReturnDeadline) {
			continue
		}
		existing, err := s.returnRepo.GetBySubOrderID(sub.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		eligible = append(eligible, sub)
	}
	if len(eligible) == 0 {
		return nil, ErrNoReturnableItems
	}
	requests := make([]models.ReturnRequest, 0, len(eligible))
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		returnRepo := s.returnRepo.WithTx(tx)
		for _, sub := range eligible {
			if err := s.fulfillmentSvc.ApplyTransition(tx, sub, order, constants.ActionRequestReturn, t, input.UserID, constants.RoleCustomer, input.Reason); err != nil {
				return err
			}
			request := models.ReturnRequest{
				SubOrderID:  sub.ID,
				UserID:      input.UserID,
				Reason:      input.Reason,
				Description: input.Description,
				Evidence:    models.StringArray(input.Evidence),
				Status:      constants.ReturnStatusRequested,
			}
			if err := returnRepo.Create(&request); err != nil {
				return err
			}
			requests = append(requests, request)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, sub := range eligible {
		s.fulfillmentSvc.publishSubOrderStatus(order.ID, sub.ID, t.From, t.To, constants.RoleCustomer)
	}
	logger.Infow("order_return_requested",
		"order_no", order.OrderNo,
		"sub_orders", len(requests),
	)
	return requests, nil
}

// Approve accepts a pending return request.
func (s *ReturnService) Approve(returnID, sellerID uint) (*models.ReturnRequest, error) {
	return s.resolve(returnID, sellerID, constants.ActionApproveReturn,
		constants.ReturnStatusRequested, constants.ReturnStatusApproved, "")
}

// Reject declines a pending return request; the sub-order counts as
// fulfilled and completes.
func (s *ReturnService) Reject(returnID, sellerID uint, reason string) (*models.ReturnRequest, error) {
	if reason == "" {
		return nil, ErrReturnStateInvalid
	}
	return s.resolve(returnID, sellerID, constants.ActionRejectReturn,
		constants.ReturnStatusRequested, constants.ReturnStatusRejected, reason)
}

// resolve applies the seller's approve/reject decision.
func (s *ReturnService) resolve(returnID, sellerID uint, action, fromStatus, toStatus, rejectReason string) (*models.ReturnRequest, error) {
	request, subOrder, order, err := s.loadRequest(returnID)
	if err != nil {
		return nil, err
	}
	if err := s.fulfillmentSvc.checkActor(subOrder, order, PerformInput{
		SubOrderID: subOrder.ID,
		Action:     action,
		ActorID:    sellerID,
		ActorRole:  constants.RoleSeller,
	}); err != nil {
		return nil, err
	}
	if err := s.fulfillmentSvc.enforceAction(constants.RoleSeller, action); err != nil {
		return nil, err
	}
	t, err := resolveTransition(action, constants.RoleSeller)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := s.returnRepo.WithTx(tx).UpdateStatus(request.ID, fromStatus, toStatus)
		if err != nil {
			return err
		}
		if !moved {
			return ErrReturnStateInvalid
		}
		fields := map[string]interface{}{"resolved_at": now}
		if rejectReason != "" {
			fields["reject_reason"] = rejectReason
		}
		if err := tx.Model(&models.ReturnRequest{}).Where("id = ?", request.ID).Updates(fields).Error; err != nil {
			return err
		}
		if err := s.fulfillmentSvc.ApplyTransition(tx, subOrder, order, action, t, sellerID, constants.RoleSeller, rejectReason); err != nil {
			return err
		}
		// Rejection lands on a terminal status, so the parent may complete.
		return s.fulfillmentSvc.SyncOrderStatus(tx, order, constants.RoleSeller)
	})
	if err != nil {
		return nil, err
	}
	s.fulfillmentSvc.publishSubOrderStatus(order.ID, subOrder.ID, t.From, t.To, constants.RoleSeller)
	logger.Infow("return_resolved",
		"sub_order_no", subOrder.SubOrderNo,
		"decision", toStatus,
	)
	request.Status = toStatus
	request.ResolvedAt = &now
	request.RejectReason = rejectReason
	return request, nil
}

// MarkReturned records the shipper handing the goods back to the seller.
func (s *ReturnService) MarkReturned(returnID, shipperID uint) (*models.ReturnRequest, error) {
	request, subOrder, order, err := s.loadRequest(returnID)
	if err != nil {
		return nil, err
	}
	if err := s.fulfillmentSvc.checkActor(subOrder, order, PerformInput{
		SubOrderID: subOrder.ID,
		Action:     constants.ActionMarkReturned,
		ActorID:    shipperID,
		ActorRole:  constants.RoleShipper,
	}); err != nil {
		return nil, err
	}
	if err := s.fulfillmentSvc.enforceAction(constants.RoleShipper, constants.ActionMarkReturned); err != nil {
		return nil, err
	}
	t, err := resolveTransition(constants.ActionMarkReturned, constants.RoleShipper)
	if err != nil {
		return nil, err
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := s.returnRepo.WithTx(tx).UpdateStatus(request.ID, constants.ReturnStatusApproved, constants.ReturnStatusReturned)
		if err != nil {
			return err
		}
		if !moved {
			return ErrReturnStateInvalid
		}
		return s.fulfillmentSvc.ApplyTransition(tx, subOrder, order, constants.ActionMarkReturned, t, shipperID, constants.RoleShipper, "")
	})
	if err != nil {
		return nil, err
	}
	s.fulfillmentSvc.publishSubOrderStatus(order.ID, subOrder.ID, t.From, t.To, constants.RoleShipper)
	request.Status = constants.ReturnStatusReturned
	return request, nil
}

// Refund closes a returned sub-order and gives the buyer their money back
// as wallet balance. Stock is deliberately left alone: returned goods go
// back on sale only through a manual stock adjustment.
func (s *ReturnService) Refund(returnID, sellerID uint) (*models.ReturnRequest, error) {
	request, subOrder, order, err := s.loadRequest(returnID)
	if err != nil {
		return nil, err
	}
	if err := s.fulfillmentSvc.checkActor(subOrder, order, PerformInput{
		SubOrderID: subOrder.ID,
		Action:     constants.ActionRefund,
		ActorID:    sellerID,
		ActorRole:  constants.RoleSeller,
	}); err != nil {
		return nil, err
	}
	if err := s.fulfillmentSvc.enforceAction(constants.RoleSeller, constants.ActionRefund); err != nil {
		return nil, err
	}
	t, err := resolveTransition(constants.ActionRefund, constants.RoleSeller)
	if err != nil {
		return nil, err
	}
	amount := refundAmount(order, subOrder)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := s.returnRepo.WithTx(tx).UpdateStatus(request.ID, constants.ReturnStatusReturned, constants.ReturnStatusRefunded)
		if err != nil {
			return err
		}
		if !moved {
			return ErrReturnStateInvalid
		}
		if err := s.fulfillmentSvc.ApplyTransition(tx, subOrder, order, constants.ActionRefund, t, sellerID, constants.RoleSeller, ""); err != nil {
			return err
		}
		if order.PaymentStatus == constants.PaymentStatusPaid && amount.Decimal.Sign() > 0 {
			note := fmt.Sprintf("refund %s", subOrder.SubOrderNo)
			if err := s.walletSvc.CreditRefund(tx, order.UserID, amount, order.ID, note); err != nil {
				return err
			}
		}
		return s.fulfillmentSvc.SyncOrderStatus(tx, order, constants.RoleSeller)
	})
	if err != nil {
		return nil, err
	}
	s.fulfillmentSvc.publishSubOrderStatus(order.ID, subOrder.ID, t.From, t.To, constants.RoleSeller)
	logger.Infow("refund_processed",
		"sub_order_no", subOrder.SubOrderNo,
		"order_no", order.OrderNo,
		"amount", amount.String(),
	)
	request.Status = constants.ReturnStatusRefunded
	return request, nil
}

// GetBySubOrder fetches the return request for a sub-order, if any.
func (s *ReturnService) GetBySubOrder(subOrderID uint) (*models.ReturnRequest, error) {
	return s.returnRepo.GetBySubOrderID(subOrderID)
}

// List lists return requests for a buyer or a shop.
func (s *ReturnService) List(filter repository.ReturnListFilter) ([]models.ReturnRequest, int64, error) {
	return s.returnRepo.List(filter)
}

// refundAmount is the sub-order's goods plus its shipping, minus the
// sub-order's proportional share of the order-level discount.
func refundAmount(order *models.Order, subOrder *models.SubOrder) models.Money {
	gross := subOrder.Subtotal.Decimal.Add(subOrder.ShippingFee.Decimal)
	if order.DiscountTotal.Decimal.Sign() > 0 && order.Subtotal.Decimal.Sign() > 0 {
		share := order.DiscountTotal.Decimal.
			Mul(subOrder.Subtotal.Decimal).
			Div(order.Subtotal.Decimal)
		gross = gross.Sub(share)
	}
	if gross.Sign() < 0 {
		gross = decimal.Zero
	}
	return models.NewMoneyFromDecimal(gross)
}

// loadPair fetches a sub-order with its parent order.
func (s *ReturnService) loadPair(subOrderID uint) (*models.SubOrder, *models.Order, error) {
	subOrder, err := s.subOrderRepo.GetByID(subOrderID)
	if err != nil {
		return nil, nil, err
	}
	if subOrder == nil {
		return nil, nil, ErrNotFound
	}
	order, err := s.orderRepo.GetByID(subOrder.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrNotFound
	}
	return subOrder, order, nil
}

// loadRequest fetches a return request with its sub-order and order.
func (s *ReturnService) loadRequest(returnID uint) (*models.ReturnRequest, *models.SubOrder, *models.Order, error) {
	request, err := s.returnRepo.GetByID(returnID)
	if err != nil {
		return nil, nil, nil, err
	}
	if request == nil {
		return nil, nil, nil, ErrNotFound
	}
	subOrder, order, err := s.loadPair(request.SubOrderID)
	if err != nil {
		return nil, nil, nil, err
	}
	return request, subOrder, order, nil
}
