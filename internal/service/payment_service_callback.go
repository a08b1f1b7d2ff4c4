package service

import (
	"net/url"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/payment/momo"
	"github.com/chogo-next/internal/payment/vnpay"

	"gorm.io/gorm"
)

// CallbackOutcome what a gateway callback did, for the handler's response
type CallbackOutcome struct {
	OrderNo   string
	PaymentNo string
	Succeeded bool
	Duplicate bool
}

// HandleVNPayCallback verifies and applies a VNPay IPN or return callback.
func (s *PaymentService) HandleVNPayCallback(form url.Values) (*CallbackOutcome, error) {
	if s.vnpayCfg == nil {
		return nil, ErrPaymentMethodNotOK
	}
	result, err := vnpay.VerifyCallback(s.vnpayCfg, form)
	if err != nil {
		logger.Warnw("vnpay_callback_rejected", "error", err)
		return nil, err
	}
	raw := make(models.JSON, len(result.Raw))
	for k, v := range result.Raw {
		raw[k] = v
	}
	return s.applyGatewayResult(result.PaymentNo, result.TransactionNo, result.Amount, result.Succeeded, raw)
}

// HandleMoMoIPN verifies and applies a MoMo async notification.
func (s *PaymentService) HandleMoMoIPN(payload *momo.IPNPayload) (*CallbackOutcome, error) {
	if s.momoCfg == nil {
		return nil, ErrPaymentMethodNotOK
	}
	result, err := momo.VerifyIPN(s.momoCfg, payload)
	if err != nil {
		logger.Warnw("momo_ipn_rejected", "error", err)
		return nil, err
	}
	return s.applyGatewayResult(result.PaymentNo, result.TransactionNo, result.Amount, result.Succeeded, models.JSON(result.Raw))
}

// applyGatewayResult settles one verified callback. All state moves behind
// status-guarded updates inside one transaction, so a replayed callback is
// reported as a duplicate and changes nothing.
func (s *PaymentService) applyGatewayResult(paymentNo, providerRef string, amount int64, succeeded bool, raw models.JSON) (*CallbackOutcome, error) {
	payment, err := s.paymentRepo.GetByPaymentNo(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrNotFound
	}
	order, err := s.orderRepo.GetByIDWithSubOrders(payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	outcome := &CallbackOutcome{
		OrderNo:   order.OrderNo,
		PaymentNo: payment.PaymentNo,
		Succeeded: succeeded,
	}

	if succeeded && amount != payment.Amount.IntPart() {
		// A signed callback carrying the wrong amount is reconciliation
		// material, never an automatic settlement.
		logger.Errorw("payment_callback_amount_mismatch",
			"payment_no", payment.PaymentNo,
			"expected", payment.Amount.String(),
			"received", amount,
		)
		return nil, ErrAmountMismatch
	}

	now := time.Now()
	if succeeded {
		err = models.DB.Transaction(func(tx *gorm.DB) error {
			applied, err := s.paymentRepo.WithTx(tx).MarkSuccess(payment.ID, providerRef, raw, now)
			if err != nil {
				return err
			}
			if !applied {
				outcome.Duplicate = true
				return nil
			}
			paid, err := s.orderRepo.WithTx(tx).MarkPaid(order.ID, now)
			if err != nil {
				return err
			}
			if !paid {
				// Payment raced an expiry cancel. Keep the money recorded;
				// reconciliation refunds it out of band.
				logger.Errorw("payment_succeeded_on_dead_order",
					"payment_no", payment.PaymentNo,
					"order_no", order.OrderNo,
					"order_status", order.Status,
				)
				return nil
			}
			return s.inventorySvc.ConfirmSale(tx, reservationLinesFromOrder(order), order.OrderNo)
		})
		if err != nil {
			return nil, err
		}
		if !outcome.Duplicate {
			s.publishOrderStatus(order.ID, 0, constants.OrderStatusPendingPayment, constants.OrderStatusConfirmed, constants.RoleSystem)
			logger.Infow("payment_settled",
				"payment_no", payment.PaymentNo,
				"order_no", order.OrderNo,
				"provider_ref", providerRef,
			)
		}
		return outcome, nil
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		applied, err := s.paymentRepo.WithTx(tx).MarkFailed(payment.ID, raw, now)
		if err != nil {
			return err
		}
		if !applied {
			outcome.Duplicate = true
			return nil
		}
		// A verified failure is terminal for the order: the gateway
		// session is dead, so the held stock goes back on sale now rather
		// than at window expiry.
		result := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Where("status = ?", constants.OrderStatusPendingPayment).
			Updates(map[string]interface{}{
				"status":         constants.OrderStatusPaymentFailed,
				"payment_status": constants.PaymentStatusFailed,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// The order already moved (paid or cancelled); keep the failed
			// attempt on record and touch nothing else.
			return nil
		}
		subOrderRepo := s.subOrderRepo.WithTx(tx)
		trackingRepo := s.trackingRepo.WithTx(tx)
		for i := range order.SubOrders {
			sub := &order.SubOrders[i]
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
				ActorRole:  constants.RoleSystem,
				Note:       "payment failed",
			}
			if err := trackingRepo.Create(event); err != nil {
				return err
			}
		}
		if err := s.inventorySvc.Release(tx, reservationLinesFromOrder(order)); err != nil {
			return err
		}
		if order.VoucherID != nil {
			return s.voucherSvc.ReleaseRedemption(tx, *order.VoucherID, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !outcome.Duplicate {
		s.publishOrderStatus(order.ID, 0, constants.OrderStatusPendingPayment, constants.OrderStatusPaymentFailed, constants.RoleSystem)
		logger.Infow("payment_attempt_failed",
			"payment_no", payment.PaymentNo,
			"order_no", order.OrderNo,
		)
	}
	return outcome, nil
}

// MarkCODCollected settles the COD payment when the shipper delivers.
func (s *PaymentService) MarkCODCollected(tx *gorm.DB, orderID uint, now time.Time) error {
	order, err := s.orderRepo.WithTx(tx).GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNotFound
	}
	if order.PaymentMethod != constants.PaymentMethodCOD {
		return nil
	}
	if order.PaymentStatus == constants.PaymentStatusPaid {
		return nil
	}
	if err := s.orderRepo.WithTx(tx).UpdateFields(order.ID, map[string]interface{}{
		"payment_status": constants.PaymentStatusPaid,
		"paid_at":        now,
	}); err != nil {
		return err
	}
	return tx.Model(&models.Payment{}).
		Where("order_id = ?", order.ID).
		Where("method = ?", constants.PaymentMethodCOD).
		Where("status = ?", constants.PaymentRecordStatusPending).
		Updates(map[string]interface{}{
			"status":  constants.PaymentRecordStatusSuccess,
			"paid_at": now,
		}).Error
}
