package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Producer buffers envelopes in a channel and writes them to Kafka from a
// single goroutine, so request handlers never block on the broker.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	service string
}

func NewProducer(brokers []string, topic, service string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		service: service,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				// Flush whatever is buffered. The inbox stays open so a
				// late Publish from an in-flight request cannot panic; it
				// is simply dropped.
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						if err := p.w.Close(); err != nil {
							log.Warn().Err(err).Msg("events: failed to close kafka writer")
						}
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
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		log.Error().Err(err).Str("key", string(m.Key)).Msg("events: failed to publish event")
	}
}

// Publish wraps payload in a versioned envelope keyed by correlationID, so
// all events for one order land on the same partition in order.
func (p *Producer) Publish(eventType, correlationID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("events: failed to marshal payload")
		return
	}

	eventID, err := uuid.NewV4()
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("events: failed to generate event id")
		return
	}

	env := Envelope{
		EventID:       eventID.String(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.service,
		CorrelationID: correlationID,
		Payload:       body,
	}

	value, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("events: failed to marshal envelope")
		return
	}

	select {
	case p.inbox <- kafka.Message{
		Key:     []byte(correlationID),
		Value:   value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "x-event-type", Value: []byte(eventType)}},
	}:
	default:
		log.Warn().Str("event_type", eventType).Str("correlation_id", correlationID).Msg("events: inbox full, event dropped")
	}
}

// WaitClosed blocks until the writer goroutine has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
