package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/provider"
	"github.com/chogo-next/internal/queue"
	"github.com/chogo-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer async task consumer
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register wires task handlers onto the mux
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskSubOrderAutoConfirm, c.handleSubOrderAutoConfirm)
}

// handleOrderTimeoutCancel cancels an order whose payment window lapsed.
// Orders paid or cancelled in the meantime make this a no-op.
func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_timeout_cancel_fetch_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if order.Status != constants.OrderStatusPendingPayment {
		logger.Debugw("worker_order_timeout_cancel_skip_settled", "order_id", order.ID, "status", order.Status)
		return nil
	}
	err = c.PaymentService.CancelPendingOrder(order.ID, "payment window expired", constants.RoleSystem, 0)
	if err != nil {
		if errors.Is(err, service.ErrOrderStateConflict) || errors.Is(err, service.ErrNotFound) {
			logger.Debugw("worker_order_timeout_cancel_skip_raced", "order_id", order.ID)
			return nil
		}
		logger.Warnw("worker_order_timeout_cancel_failed", "order_id", order.ID, "error", err)
		return err
	}
	return nil
}

// handleSubOrderAutoConfirm completes a delivered sub-order whose receipt
// window lapsed without the buyer acting.
func (c *Consumer) handleSubOrderAutoConfirm(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_auto_confirm_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SubOrderAutoConfirmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_auto_confirm_unmarshal_failed", "error", err)
		return err
	}
	if payload.SubOrderID == 0 {
		logger.Debugw("worker_auto_confirm_skip_invalid_payload", "sub_order_id", payload.SubOrderID)
		return nil
	}
	if err := c.FulfillmentService.AutoConfirmReceipt(payload.SubOrderID); err != nil {
		logger.Warnw("worker_auto_confirm_failed", "sub_order_id", payload.SubOrderID, "error", err)
		return err
	}
	return nil
}
