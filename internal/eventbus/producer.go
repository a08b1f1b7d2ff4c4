package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chogo-next/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const producerName = "chogo-api"

// Producer buffered async Kafka publisher. Publishing never blocks request
// handling: messages go through an inbox channel and a background goroutine
// drains it. When the inbox is full the event is dropped and logged; the
// database stays the source of truth.
type Producer struct {
	writer  *kafka.Writer
	inbox   chan kafka.Message
	stopCh  chan struct{} // closed when shutdown begins; publishers drop
	closeCh chan struct{} // closed once the drain goroutine has flushed
	enabled bool
}

// NewProducer creates a publisher over the given brokers. A disabled producer
// (no brokers) swallows all events, which keeps call sites unconditional.
func NewProducer(brokers []string, buf int) *Producer {
	if len(brokers) == 0 {
		return &Producer{}
	}
	if buf <= 0 {
		buf = 256
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		stopCh:  make(chan struct{}),
		closeCh: make(chan struct{}),
		enabled: true,
	}
}

// Enabled reports whether events are actually published
func (p *Producer) Enabled() bool {
	return p != nil && p.enabled
}

// Start launches the drain goroutine. Cancel ctx to flush and stop.
func (p *Producer) Start(ctx context.Context) {
	if !p.Enabled() {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				// The inbox is never closed, so a publisher that slipped
				// past the stop check cannot panic; its message just stays
				// behind after the flush.
				close(p.stopCh)
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						if err := p.writer.Close(); err != nil {
							logger.Warnw("eventbus_writer_close_failed", "error", err)
						}
						close(p.closeCh)
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.writer.WriteMessages(context.Background(), m); err != nil {
		logger.Warnw("eventbus_publish_failed",
			"topic", m.Topic,
			"error", err,
		)
	}
}

// Publish wraps payload in an envelope and queues it, fire-and-forget.
func (p *Producer) Publish(topic, eventType string, key []byte, payload interface{}) {
	if !p.Enabled() {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warnw("eventbus_payload_marshal_failed", "event_type", eventType, "error", err)
		return
	}
	envelope := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producerName,
		Payload:      raw,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		logger.Warnw("eventbus_envelope_marshal_failed", "event_type", eventType, "error", err)
		return
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now(),
	}
	select {
	case <-p.stopCh:
		logger.Warnw("eventbus_stopped_event_dropped",
			"topic", topic,
			"event_type", eventType,
		)
		return
	default:
	}
	select {
	case p.inbox <- msg:
	default:
		logger.Warnw("eventbus_inbox_full_event_dropped",
			"topic", topic,
			"event_type", eventType,
		)
	}
}

// WaitClosed blocks until the drain goroutine has flushed and exited
func (p *Producer) WaitClosed() {
	if !p.Enabled() {
		return
	}
	<-p.closeCh
}
