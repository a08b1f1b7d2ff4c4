package app

import (
	"context"

	"github.com/chogo-next/internal/eventbus"
)

// ProducerService runs the event publisher alongside the other services so
// buffered events get flushed on shutdown.
type ProducerService struct {
	producer *eventbus.Producer
}

// NewProducerService wraps the publisher in the service lifecycle
func NewProducerService(producer *eventbus.Producer) *ProducerService {
	return &ProducerService{producer: producer}
}

// Name service name
func (s *ProducerService) Name() string {
	return "eventbus"
}

// Start runs the drain loop until ctx is cancelled
func (s *ProducerService) Start(ctx context.Context) error {
	if s == nil || !s.producer.Enabled() {
		<-ctx.Done()
		return ctx.Err()
	}
	s.producer.Start(ctx)
	<-ctx.Done()
	return ctx.Err()
}

// Stop waits for the publisher to flush its buffer
func (s *ProducerService) Stop(ctx context.Context) error {
	if s == nil || !s.producer.Enabled() {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.producer.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
