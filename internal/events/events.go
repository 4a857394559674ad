// Package events publishes completion events for downstream consumers.
// Publication is fire-and-forget: a publish failure never fails the transfer
// it describes, and delivery is at-most-once.
package events

import (
	"context"
	"log/slog"
)

// EventTransactionInitiated is emitted once per committed transfer.
const EventTransactionInitiated = "TransactionInitiated"

// TransactionPayload carries the transfer details downstream consumers need.
type TransactionPayload struct {
	TransactionID string  `json:"transaction_id"`
	FromWallet    string  `json:"from_wallet"`
	ToWallet      string  `json:"to_wallet"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Timestamp     float64 `json:"timestamp"`
}

// Event is the envelope written to the transactions stream.
type Event struct {
	Type      string             `json:"event_type"`
	Timestamp float64            `json:"timestamp"`
	Payload   TransactionPayload `json:"payload"`
}

// NewTransactionInitiated assembles the completion event for a transfer.
func NewTransactionInitiated(payload TransactionPayload) Event {
	return Event{
		Type:      EventTransactionInitiated,
		Timestamp: payload.Timestamp,
		Payload:   payload,
	}
}

// Publisher delivers events to an external stream.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured logger. It stands in for the
// broker in development and tests.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a logging publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish writes the event to the logger.
func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("event published",
		"event_type", event.Type,
		"transaction_id", event.Payload.TransactionID,
		"from_wallet", event.Payload.FromWallet,
		"to_wallet", event.Payload.ToWallet,
		"amount", event.Payload.Amount,
		"currency", event.Payload.Currency,
	)
	return nil
}
