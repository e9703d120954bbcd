package booking

import (
	"context"
	"errors"
	"time"
)

type EventType string

const (
	EventCreated   EventType = "booking.created"
	EventUpdated   EventType = "booking.updated"
	EventCancelled EventType = "booking.cancelled"
	EventDeleted   EventType = "booking.deleted"
)

// Event is emitted after a booking write commits.
type Event struct {
	Type       EventType `json:"type"`
	Booking    Booking   `json:"booking"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// Publishers fans an event out to every publisher and joins their errors.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONPublisher sends a payload under a routing key, e.g. a message broker exchange.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type brokerPublisher struct {
	pub JSONPublisher
}

// NewBrokerPublisher routes each event by its type.
func NewBrokerPublisher(pub JSONPublisher) EventPublisher {
	return brokerPublisher{pub: pub}
}

func (b brokerPublisher) Publish(ctx context.Context, e Event) error {
	return b.pub.PublishJSON(ctx, string(e.Type), e)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
