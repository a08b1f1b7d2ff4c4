package service

import (
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"
)

// OrderService buyer-facing order reads plus buyer cancellation. Reads run
// the lazy expiry check so an order whose payment window lapsed between the
// delayed task's enqueue and now is never shown as payable.
type OrderService struct {
	orderRepo    repository.OrderRepository
	subOrderRepo repository.SubOrderRepository
	trackingRepo repository.TrackingRepository
	paymentSvc   *PaymentService
}

// NewOrderService creates the order query service
func NewOrderService(
	orderRepo repository.OrderRepository,
	subOrderRepo repository.SubOrderRepository,
	trackingRepo repository.TrackingRepository,
	paymentSvc *PaymentService,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		subOrderRepo: subOrderRepo,
		trackingRepo: trackingRepo,
		paymentSvc:   paymentSvc,
	}
}

// GetOrder fetches one of the buyer's orders with sub-orders and items.
func (s *OrderService) GetOrder(userID, orderID uint) (*models.Order, error) {
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
	if _, err := s.paymentSvc.EnsureNotExpired(order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByNo fetches one of the buyer's orders by its public number.
func (s *OrderService) GetOrderByNo(userID uint, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return s.GetOrder(userID, order.ID)
}

// ListOrders lists the buyer's orders, newest first.
func (s *OrderService) ListOrders(userID uint, status string, page, pageSize int) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.List(repository.OrderListFilter{
		UserID:   userID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if orders[i].Status != constants.OrderStatusPendingPayment {
			continue
		}
		if _, err := s.paymentSvc.EnsureNotExpired(&orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// CancelOrder lets the buyer back out of an order that has not started
// shipping. Unpaid orders release their stock holds; settled ones restock
// and refund the wallet when the money already moved.
func (s *OrderService) CancelOrder(userID, orderID uint, reason string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNotFound
	}
	if order.UserID != userID {
		return ErrForbidden
	}
	if reason == "" {
		reason = "cancelled by buyer"
	}
	return s.paymentSvc.CancelOrder(orderID, reason, constants.RoleCustomer, userID)
}

// ListTracking returns the order's tracking timeline, oldest first.
func (s *OrderService) ListTracking(userID, orderID uint) ([]models.TrackingEvent, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return s.trackingRepo.ListByOrderID(orderID)
}

// ListShopSubOrders lists a shop's sub-orders for the seller workbench.
func (s *OrderService) ListShopSubOrders(shopID uint, status string, page, pageSize int) ([]models.SubOrder, int64, error) {
	return s.subOrderRepo.List(repository.SubOrderListFilter{
		ShopID:   shopID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
}

// ListShipperSubOrders lists sub-orders a shipper can see: their own plus
// any ready for pickup.
func (s *OrderService) ListShipperSubOrders(shipperID uint, status string, page, pageSize int) ([]models.SubOrder, int64, error) {
	filter := repository.SubOrderListFilter{
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	}
	if status != constants.SubOrderStatusReadyToShip {
		filter.ShipperID = shipperID
	}
	return s.subOrderRepo.List(filter)
}

// GetSubOrder fetches a sub-order with items for any of its three actors.
func (s *OrderService) GetSubOrder(subOrderID uint) (*models.SubOrder, error) {
	subOrder, err := s.subOrderRepo.GetByIDWithItems(subOrderID)
	if err != nil {
		return nil, err
	}
	if subOrder == nil {
		return nil, ErrNotFound
	}
	return subOrder, nil
}
