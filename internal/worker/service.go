package worker

import (
	"context"
	"errors"
	"time"

	"github.com/chogo-next/internal/config"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	autoConfirmSweepInterval = time.Minute
	autoConfirmSweepBatch    = 100
)

// Service async queue service
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService creates the queue service
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name returns the service name
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start runs the asynq server and the auto-confirm sweep
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.FulfillmentService != nil {
		go s.runAutoConfirmSweep(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop shuts the asynq server down
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runAutoConfirmSweep backstops the delayed auto-confirm tasks: delivered
// sub-orders past their receipt window get completed even when the original
// task was lost with the redis instance.
func (s *Service) runAutoConfirmSweep(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.FulfillmentService == nil {
		return
	}
	runOnce := func() {
		cutoff := time.Now().AddDate(0, 0, -s.consumer.Config.Order.AutoConfirmDays)
		overdue, err := s.consumer.SubOrderRepo.ListOverdueAutoConfirm(cutoff, autoConfirmSweepBatch)
		if err != nil {
			logger.Warnw("worker_auto_confirm_sweep_list_failed", "error", err)
			return
		}
		for _, subOrder := range overdue {
			if err := s.consumer.FulfillmentService.AutoConfirmReceipt(subOrder.ID); err != nil {
				logger.Warnw("worker_auto_confirm_sweep_failed", "sub_order_id", subOrder.ID, "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(autoConfirmSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
