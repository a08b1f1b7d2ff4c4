package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/provider"
	"github.com/chogo-next/internal/queue"
	"github.com/chogo-next/internal/repository"
	"github.com/chogo-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func newWorkerTestConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	subOrderRepo := repository.NewSubOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	productRepo := repository.NewProductRepository(db)
	adjustmentRepo := repository.NewStockAdjustmentRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	usageRepo := repository.NewVoucherUsageRepository(db)
	shopRepo := repository.NewShopRepository(db)

	inventorySvc := service.NewInventoryService(variantRepo, productRepo, adjustmentRepo, nil, 5)
	voucherSvc := service.NewVoucherService(voucherRepo, usageRepo)
	walletSvc := service.NewWalletService(walletRepo, "VND")
	paymentSvc := service.NewPaymentService(
		orderRepo, subOrderRepo, paymentRepo, trackingRepo,
		walletSvc, inventorySvc, voucherSvc, nil, nil, 15,
	)
	fulfillmentSvc := service.NewFulfillmentService(
		orderRepo, subOrderRepo, shopRepo, trackingRepo,
		paymentSvc, nil, nil, nil, 7, 7,
	)

	consumer := NewConsumer(&provider.Container{
		OrderRepo:          orderRepo,
		PaymentService:     paymentSvc,
		FulfillmentService: fulfillmentSvc,
	})
	return consumer, db
}

func timeoutTask(t *testing.T, orderID uint) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(queue.OrderTimeoutCancelPayload{OrderID: orderID})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskOrderTimeoutCancel, body)
}

func TestHandleOrderTimeoutCancel(t *testing.T) {
	consumer, db := newWorkerTestConsumer(t)

	order := &models.Order{
		OrderNo:        "CG-TIMEOUT-1",
		UserID:         7,
		IdempotencyKey: "timeout-1",
		Status:         constants.OrderStatusPendingPayment,
		PaymentMethod:  constants.PaymentMethodVNPay,
		PaymentStatus:  constants.PaymentStatusPending,
		Currency:       "VND",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	subOrder := &models.SubOrder{
		SubOrderNo: "CG-TIMEOUT-1-S1",
		OrderID:    order.ID,
		ShopID:     1,
		Status:     constants.SubOrderStatusPending,
	}
	if err := db.Create(subOrder).Error; err != nil {
		t.Fatalf("create sub-order failed: %v", err)
	}

	if err := consumer.handleOrderTimeoutCancel(context.Background(), timeoutTask(t, order.ID)); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCanceled {
		t.Fatalf("order want cancelled got %s", reloaded.Status)
	}

	// A second fire after settlement is a quiet no-op.
	if err := consumer.handleOrderTimeoutCancel(context.Background(), timeoutTask(t, order.ID)); err != nil {
		t.Fatalf("replayed handler should no-op, got %v", err)
	}
}

func TestHandleOrderTimeoutCancelSkipsSettled(t *testing.T) {
	consumer, db := newWorkerTestConsumer(t)

	order := &models.Order{
		OrderNo:        "CG-PAID-1",
		UserID:         7,
		IdempotencyKey: "paid-1",
		Status:         constants.OrderStatusConfirmed,
		PaymentMethod:  constants.PaymentMethodVNPay,
		PaymentStatus:  constants.PaymentStatusPaid,
		Currency:       "VND",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := consumer.handleOrderTimeoutCancel(context.Background(), timeoutTask(t, order.ID)); err != nil {
		t.Fatalf("settled order should be skipped, got %v", err)
	}
	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusConfirmed {
		t.Fatalf("order must stay confirmed, got %s", reloaded.Status)
	}
}

func TestHandleOrderTimeoutCancelBadPayload(t *testing.T) {
	consumer, _ := newWorkerTestConsumer(t)

	task := asynq.NewTask(queue.TaskOrderTimeoutCancel, []byte("{not json"))
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err == nil {
		t.Fatal("malformed payload should surface an error for retry visibility")
	}

	// A zero id is dropped, not retried.
	if err := consumer.handleOrderTimeoutCancel(context.Background(), timeoutTask(t, 0)); err != nil {
		t.Fatalf("zero order id should no-op, got %v", err)
	}
	// An unknown id is likewise dropped.
	if err := consumer.handleOrderTimeoutCancel(context.Background(), timeoutTask(t, 9999)); err != nil {
		t.Fatalf("unknown order id should no-op, got %v", err)
	}
}

func TestHandleSubOrderAutoConfirmNotDelivered(t *testing.T) {
	consumer, db := newWorkerTestConsumer(t)

	order := &models.Order{
		OrderNo:        "CG-AUTO-1",
		UserID:         7,
		IdempotencyKey: "auto-1",
		Status:         constants.OrderStatusConfirmed,
		PaymentMethod:  constants.PaymentMethodCOD,
		PaymentStatus:  constants.PaymentStatusPending,
		Currency:       "VND",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	subOrder := &models.SubOrder{
		SubOrderNo: "CG-AUTO-1-S1",
		OrderID:    order.ID,
		ShopID:     1,
		Status:     constants.SubOrderStatusShipping,
	}
	if err := db.Create(subOrder).Error; err != nil {
		t.Fatalf("create sub-order failed: %v", err)
	}

	body, err := json.Marshal(queue.SubOrderAutoConfirmPayload{SubOrderID: subOrder.ID})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	task := asynq.NewTask(queue.TaskSubOrderAutoConfirm, body)
	if err := consumer.handleSubOrderAutoConfirm(context.Background(), task); err != nil {
		t.Fatalf("undelivered sub-order should no-op, got %v", err)
	}
	var reloaded models.SubOrder
	if err := db.First(&reloaded, subOrder.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.SubOrderStatusShipping {
		t.Fatalf("sub-order must stay shipping, got %s", reloaded.Status)
	}
}
