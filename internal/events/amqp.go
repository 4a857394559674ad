package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeTransactions is the stream completed transfers are published to.
	ExchangeTransactions = "transactions"

	publishTimeout = 2 * time.Second
)

// AMQPPublisher publishes events as JSON messages on a fanout exchange.
type AMQPPublisher struct {
	channel *amqp.Channel
}

// NewAMQPPublisher declares the transactions exchange and returns a publisher
// bound to it.
func NewAMQPPublisher(channel *amqp.Channel) (*AMQPPublisher, error) {
	if err := channel.ExchangeDeclare(ExchangeTransactions, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s exchange: %w", ExchangeTransactions, err)
	}
	return &AMQPPublisher{channel: channel}, nil
}

// Publish writes the event to the exchange. The call is bounded so a slow
// broker cannot stall the caller.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		ExchangeTransactions,
		"", // fanout: routing key ignored
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
