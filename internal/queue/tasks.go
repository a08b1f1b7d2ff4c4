package queue

import (
	"encoding/json"

	"github.com/chogo-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel cancels an order whose payment window lapsed
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskSubOrderAutoConfirm confirms receipt when the buyer never does
	TaskSubOrderAutoConfirm = constants.TaskSubOrderAutoConfirm
)

// OrderTimeoutCancelPayload timeout cancel task payload
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// SubOrderAutoConfirmPayload auto confirm task payload
type SubOrderAutoConfirmPayload struct {
	SubOrderID uint `json:"sub_order_id"`
}

// NewOrderTimeoutCancelTask builds a timeout cancel task
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewSubOrderAutoConfirmTask builds an auto confirm task
func NewSubOrderAutoConfirmTask(payload SubOrderAutoConfirmPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubOrderAutoConfirm, body), nil
}
