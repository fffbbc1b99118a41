package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Skotchmaster/finance_tracker/internal/config"
)

const (
	UserRegistered     = "user_registered"
	UserLoggedIn       = "user_logged_in"
	TransactionCreated = "transaction_created"
	TransactionUpdated = "transaction_updated"
	TransactionDeleted = "transaction_deleted"
)

type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// Publisher delivers domain events to a broker. Events are keyed by user id.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("events: json.Marshal failed: %w", err)
	}
	return data, nil
}

// FromConfig builds the publisher selected by EVENTS_BACKEND.
func FromConfig(cfg *config.Config) (Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsKafka:
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsAMQP:
		return NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return Noop{}, nil
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
