package service

import (
	"context"
	"fmt"
	"time"

	"github.com/chogo-next/internal/config"
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/eventbus"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/payment/momo"
	"github.com/chogo-next/internal/payment/vnpay"
	"github.com/chogo-next/internal/repository"

	"gorm.io/gorm"
)

// PaymentService payment initiation and settlement. Gateway specifics live
// in the adapter packages; this service owns the records and the state
// changes they drive.
type PaymentService struct {
	orderRepo    repository.OrderRepository
	subOrderRepo repository.SubOrderRepository
	paymentRepo  repository.PaymentRepository
	trackingRepo repository.TrackingRepository
	walletSvc    *WalletService
	inventorySvc *InventoryService
	voucherSvc   *VoucherService
	producer     *eventbus.Producer

	vnpayCfg      *vnpay.Config
	momoCfg       *momo.Config
	expireMinutes int
}

// NewPaymentService creates the payment service. Gateway configs that fail
// validation disable their method rather than failing startup.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	subOrderRepo repository.SubOrderRepository,
	paymentRepo repository.PaymentRepository,
	trackingRepo repository.TrackingRepository,
	walletSvc *WalletService,
	inventorySvc *InventoryService,
	voucherSvc *VoucherService,
	producer *eventbus.Producer,
	cfg *config.PaymentConfig,
	expireMinutes int,
) *PaymentService {
	if expireMinutes <= 0 {
		expireMinutes = constants.DefaultPaymentExpireMinutes
	}
	s := &PaymentService{
		orderRepo:     orderRepo,
		subOrderRepo:  subOrderRepo,
		paymentRepo:   paymentRepo,
		trackingRepo:  trackingRepo,
		walletSvc:     walletSvc,
		inventorySvc:  inventorySvc,
		voucherSvc:    voucherSvc,
		producer:      producer,
		expireMinutes: expireMinutes,
	}
	if cfg != nil {
		if parsed, err := vnpay.ParseConfig(cfg.VNPay); err == nil && vnpay.ValidateConfig(parsed) == nil {
			s.vnpayCfg = parsed
		} else {
			logger.Warnw("vnpay_config_unavailable", "error", err)
		}
		if parsed, err := momo.ParseConfig(cfg.MoMo); err == nil && momo.ValidateConfig(parsed) == nil {
			s.momoCfg = parsed
		} else {
			logger.Warnw("momo_config_unavailable", "error", err)
		}
	}
	return s
}

// settleAtCheckout runs inside the checkout transaction and applies the
// method's settlement rule: COD confirms with payment still owed, wallet
// debits and settles synchronously, gateway methods leave the order pending
// with a payment session.
func (s *PaymentService) settleAtCheckout(tx *gorm.DB, order *models.Order, now time.Time) error {
	payment := &models.Payment{
		PaymentNo: generatePaymentNo(),
		OrderID:   order.ID,
		Method:    order.PaymentMethod,
		Amount:    order.GrandTotal,
		Currency:  order.Currency,
	}
	switch order.PaymentMethod {
	case constants.PaymentMethodCOD:
		// Payment is collected at the door. The order confirms now and
		// the held stock becomes a sale.
		payment.Status = constants.PaymentRecordStatusPending
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}
		if err := s.orderRepo.WithTx(tx).UpdateFields(order.ID, map[string]interface{}{
			"status": constants.OrderStatusConfirmed,
		}); err != nil {
			return err
		}
		order.Status = constants.OrderStatusConfirmed
		return s.inventorySvc.ConfirmSale(tx, reservationLinesFromOrder(order), order.OrderNo)

	case constants.PaymentMethodWallet:
		if err := s.walletSvc.DebitForOrder(tx, order); err != nil {
			return err
		}
		payment.Status = constants.PaymentRecordStatusSuccess
		payment.PaidAt = &now
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}
		if _, err := s.orderRepo.WithTx(tx).MarkPaid(order.ID, now); err != nil {
			return err
		}
		order.Status = constants.OrderStatusConfirmed
		order.PaymentStatus = constants.PaymentStatusPaid
		order.PaidAt = &now
		return s.inventorySvc.ConfirmSale(tx, reservationLinesFromOrder(order), order.OrderNo)

	case constants.PaymentMethodVNPay, constants.PaymentMethodMoMo:
		payment.Status = constants.PaymentRecordStatusInitiated
		payment.ExpiredAt = order.ExpiresAt
		return s.paymentRepo.WithTx(tx).Create(payment)

	default:
		return ErrPaymentMethodNotOK
	}
}

// InitiateGatewayPayment builds the gateway redirect URL for the order's
// open payment session and stores it on the record.
func (s *PaymentService) InitiateGatewayPayment(order *models.Order, clientIP string) (string, error) {
	if order == nil {
		return "", ErrNotFound
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		return "", ErrPaymentStateInvalid
	}
	if canceled, err := s.EnsureNotExpired(order); err != nil {
		return "", err
	} else if canceled {
		return "", ErrPaymentExpired
	}
	payment, err := s.paymentRepo.GetLatestPendingByOrder(order.ID, time.Now())
	if err != nil {
		return "", err
	}
	if payment == nil {
		return "", ErrPaymentStateInvalid
	}
	if payment.PayURL != "" {
		return payment.PayURL, nil
	}

	amount := order.GrandTotal.IntPart()
	orderInfo := fmt.Sprintf("Thanh toan don hang %s", order.OrderNo)
	var payURL string
	switch order.PaymentMethod {
	case constants.PaymentMethodVNPay:
		if s.vnpayCfg == nil {
			return "", ErrPaymentMethodNotOK
		}
		expireAt := time.Time{}
		if payment.ExpiredAt != nil {
			expireAt = *payment.ExpiredAt
		}
		payURL, err = vnpay.BuildPayURL(s.vnpayCfg, vnpay.CreateInput{
			PaymentNo: payment.PaymentNo,
			Amount:    amount,
			OrderInfo: orderInfo,
			ClientIP:  clientIP,
			ExpireAt:  expireAt,
		})
		if err != nil {
			return "", err
		}
	case constants.PaymentMethodMoMo:
		if s.momoCfg == nil {
			return "", ErrPaymentMethodNotOK
		}
		result, err := momo.CreatePayment(context.Background(), s.momoCfg, momo.CreateInput{
			PaymentNo: payment.PaymentNo,
			Amount:    amount,
			OrderInfo: orderInfo,
		})
		if err != nil {
			return "", err
		}
		payURL = result.PayURL
	default:
		return "", ErrPaymentMethodNotOK
	}

	payment.PayURL = payURL
	payment.Status = constants.PaymentRecordStatusPending
	if err := s.paymentRepo.Update(payment); err != nil {
		return "", err
	}
	logger.Infow("payment_initiated",
		"payment_no", payment.PaymentNo,
		"order_no", order.OrderNo,
		"method", order.PaymentMethod,
		"amount", order.GrandTotal.String(),
	)
	return payURL, nil
}

// EnsureNotExpired lazily cancels a pending order whose payment window has
// passed. Returns true when the order was (or already is) dead. The delayed
// task does the same work; this covers reads that arrive first.
func (s *PaymentService) EnsureNotExpired(order *models.Order) (bool, error) {
	if order == nil {
		return false, ErrNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return order.Status == constants.OrderStatusCanceled, nil
	}
	if order.ExpiresAt == nil || time.Now().Before(*order.ExpiresAt) {
		return false, nil
	}
	if err := s.CancelPendingOrder(order.ID, "payment window expired", constants.RoleSystem, 0); err != nil {
		if err == ErrOrderStateConflict {
			return true, nil
		}
		return false, err
	}
	order.Status = constants.OrderStatusCanceled
	return true, nil
}

// CancelPendingOrder cancels an order that never got paid: held stock goes
// back, any voucher slot is returned, the open payment session is expired.
// Used by buyer cancellation, payment timeouts, and failed callbacks.
func (s *PaymentService) CancelPendingOrder(orderID uint, reason, actorRole string, actorID uint) error {
	order, err := s.orderRepo.GetByIDWithSubOrders(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return ErrOrderStateConflict
	}
	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		// Status guard: only one canceller wins under concurrency.
		result := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Where("status = ?", constants.OrderStatusPendingPayment).
			Updates(map[string]interface{}{
				"status":        constants.OrderStatusCanceled,
				"cancel_reason": reason,
				"canceled_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrderStateConflict
		}
		subOrderRepo := s.subOrderRepo.WithTx(tx)
		trackingRepo := s.trackingRepo.WithTx(tx)
		for i := range order.SubOrders {
			sub := &order.SubOrders[i]
			// A sub-order that moved since the pre-check aborts the whole
			// cancellation; its stock must not be released underneath it.
			moved, err := subOrderRepo.UpdateStatus(sub.ID, sub.Status, constants.SubOrderStatusCanceled)
			if err != nil {
				return err
			}
			if !moved {
				return ErrOrderStateConflict
			}
			event := &models.TrackingEvent{
				SubOrderID: sub.ID,
				OrderID:    order.ID,
				EventType:  constants.TrackingEventOrderCanceled,
				FromStatus: sub.Status,
				ToStatus:   constants.SubOrderStatusCanceled,
				ActorID:    actorID,
				ActorRole:  actorRole,
				Note:       reason,
			}
			if err := trackingRepo.Create(event); err != nil {
				return err
			}
		}
		if err := s.inventorySvc.Release(tx, reservationLinesFromOrder(order)); err != nil {
			return err
		}
		if order.VoucherID != nil {
			if err := s.voucherSvc.ReleaseRedemption(tx, *order.VoucherID, order.ID); err != nil {
				return err
			}
		}
		return tx.Model(&models.Payment{}).
			Where("order_id = ?", order.ID).
			Where("status IN ?", []string{constants.PaymentRecordStatusInitiated, constants.PaymentRecordStatusPending}).
			UpdateColumn("status", constants.PaymentRecordStatusExpired).Error
	})
	if err != nil {
		return err
	}
	s.publishOrderStatus(order.ID, 0, constants.OrderStatusPendingPayment, constants.OrderStatusCanceled, actorRole)
	logger.Infow("order_canceled",
		"order_no", order.OrderNo,
		"reason", reason,
		"actor_role", actorRole,
	)
	return nil
}

// CancelOrder cancels a buyer's order in whatever settlement state it is
// in. Unpaid orders go through the pending cancellation path; confirmed
// orders can still back out as long as no sub-order has started shipping.
// Anything further along is refused.
func (s *PaymentService) CancelOrder(orderID uint, reason, actorRole string, actorID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNotFound
	}
	switch order.Status {
	case constants.OrderStatusPendingPayment:
		return s.CancelPendingOrder(orderID, reason, actorRole, actorID)
	case constants.OrderStatusConfirmed:
		return s.cancelConfirmedOrder(orderID, reason, actorRole, actorID)
	default:
		return ErrOrderStateConflict
	}
}

func (s *PaymentService) cancelConfirmedOrder(orderID uint, reason, actorRole string, actorID uint) error {
	order, err := s.orderRepo.GetByIDWithSubOrders(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNotFound
	}
	if order.Status != constants.OrderStatusConfirmed {
		return ErrOrderStateConflict
	}
	for i := range order.SubOrders {
		switch order.SubOrders[i].Status {
		case constants.SubOrderStatusPending,
			constants.SubOrderStatusProcessing,
			constants.SubOrderStatusReadyToShip:
		default:
			return ErrOrderStateConflict
		}
	}
	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Where("status = ?", constants.OrderStatusConfirmed).
			Updates(map[string]interface{}{
				"status":        constants.OrderStatusCanceled,
				"cancel_reason": reason,
				"canceled_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrderStateConflict
		}
		subOrderRepo := s.subOrderRepo.WithTx(tx)
		trackingRepo := s.trackingRepo.WithTx(tx)
		for i := range order.SubOrders {
			sub := &order.SubOrders[i]
			// Concurrent fulfillment (a seller packing mid-cancel) aborts
			// the cancellation instead of restocking a moving sub-order.
			moved, err := subOrderRepo.UpdateStatus(sub.ID, sub.Status, constants.SubOrderStatusCanceled)
			if err != nil {
				return err
			}
			if !moved {
				return ErrOrderStateConflict
			}
			event := &models.TrackingEvent{
				SubOrderID: sub.ID,
				OrderID:    order.ID,
				EventType:  constants.TrackingEventOrderCanceled,
				FromStatus: sub.Status,
				ToStatus:   constants.SubOrderStatusCanceled,
				ActorID:    actorID,
				ActorRole:  actorRole,
				Note:       reason,
			}
			if err := trackingRepo.Create(event); err != nil {
				return err
			}
		}
		// Stock for a confirmed order was already sold at settlement, so
		// cancelling returns the units instead of releasing a hold.
		if err := s.inventorySvc.Restock(tx, reservationLinesFromOrder(order), "order_cancel", actorID); err != nil {
			return err
		}
		if order.VoucherID != nil {
			if err := s.voucherSvc.ReleaseRedemption(tx, *order.VoucherID, order.ID); err != nil {
				return err
			}
		}
		if order.PaymentStatus == constants.PaymentStatusPaid {
			if err := s.walletSvc.CreditRefund(tx, order.UserID, order.GrandTotal, order.ID, "order cancelled"); err != nil {
				return err
			}
		}
		return tx.Model(&models.Payment{}).
			Where("order_id = ?", order.ID).
			Where("status IN ?", []string{constants.PaymentRecordStatusInitiated, constants.PaymentRecordStatusPending}).
			UpdateColumn("status", constants.PaymentRecordStatusExpired).Error
	})
	if err != nil {
		return err
	}
	s.publishOrderStatus(order.ID, 0, constants.OrderStatusConfirmed, constants.OrderStatusCanceled, actorRole)
	logger.Infow("order_canceled",
		"order_no", order.OrderNo,
		"reason", reason,
		"actor_role", actorRole,
		"refunded", order.PaymentStatus == constants.PaymentStatusPaid,
	)
	return nil
}

func (s *PaymentService) publishOrderStatus(orderID, subOrderID uint, from, to, actorRole string) {
	if s.producer == nil {
		return
	}
	s.producer.Publish(
		constants.TopicOrderStatus,
		eventbus.EventOrderStatusMoved,
		eventbus.PartitionKey(orderID),
		eventbus.OrderStatusMovedPayload{
			OrderID:    orderID,
			SubOrderID: subOrderID,
			FromStatus: from,
			ToStatus:   to,
			ActorRole:  actorRole,
		},
	)
}

// reservationLinesFromOrder flattens an order's items into ledger lines
func reservationLinesFromOrder(order *models.Order) []ReservationLine {
	var lines []ReservationLine
	for i := range order.SubOrders {
		for _, item := range order.SubOrders[i].Items {
			lines = append(lines, ReservationLine{VariantID: item.VariantID, Quantity: item.Quantity})
		}
	}
	return lines
}
