// Package events publishes loyalty domain events.
package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"cafepos/pkg/metrics"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	ProfileGenerated = "ProfileGenerated"
	PointsChanged    = "PointsChanged"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CustomerID string    `json:"customerId"`
	CafeID     string    `json:"cafeId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func New(typ, customerID, cafeID string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		CustomerID: customerID,
		CafeID:     cafeID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// PointsPayload is the body of a PointsChanged event.
type PointsPayload struct {
	CustomerID     string `json:"customerId"`
	PointsBalance  int    `json:"pointsBalance"`
	LifetimePoints int    `json:"lifetimePoints"`
	Tier           string `json:"tier"`
	Delta          int    `json:"delta"`
	Type           string `json:"type"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// DefaultPublishTimeout bounds a single publish so an unreachable broker cannot hold a request.
const DefaultPublishTimeout = 2 * time.Second

// KafkaPublisher writes events keyed by customer id so one customer's events stay ordered.
type KafkaPublisher struct {
	writer  *kafka.Writer
	Timeout time.Duration
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, Timeout: DefaultPublishTimeout}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(e.CustomerID),
		Value:   body,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	})
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.EventsPublished.WithLabelValues(e.Type, result).Inc()
	return errors.Wrapf(err, "produce %s", e.Type)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
