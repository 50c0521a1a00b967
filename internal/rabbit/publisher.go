package rabbit

import (
	"context"
	"encoding/json"

	"request-review-service/internal/service"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const eventsExchange = "review_events"

// Publisher forwards review, cancellation and comment events to the
// notification/audit sink.
type Publisher struct {
	ch     *amqp091.Channel
	logger *zap.Logger
}

func NewPublisher(ch *amqp091.Channel, logger *zap.Logger) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		eventsExchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, logger: logger}, nil
}

func (p *Publisher) Publish(ctx context.Context, event service.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx,
		eventsExchange,
		"",
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return err
	}
	p.logger.Debug("event published",
		zap.String("type", event.Type),
		zap.String("requestId", event.RequestID))
	return nil
}
