package eventbus

import (
	"context"
	"testing"
)

func TestDisabledProducerSwallowsEverything(t *testing.T) {
	p := NewProducer(nil, 0)
	if p.Enabled() {
		t.Fatal("producer without brokers must be disabled")
	}
	p.Start(context.Background())
	p.Publish("orders", "order.created", []byte("1"), map[string]interface{}{"order_id": 1})
	p.WaitClosed()
}

func TestPublishAfterShutdownDrops(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	p.WaitClosed()

	// A publisher racing shutdown must drop the event, never panic on a
	// closed channel.
	p.Publish("orders", "order.created", []byte("1"), map[string]interface{}{"order_id": 1})
	if len(p.inbox) != 0 {
		t.Fatalf("post-shutdown publish must drop, found %d queued", len(p.inbox))
	}
}
