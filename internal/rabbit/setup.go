// setup.go
package rabbit

import (
	"request-review-service/internal/service"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SetupConsumers binds the request_submitted fanout to a service-owned queue
// and starts consuming.
func SetupConsumers(ch *amqp091.Channel, svc *service.ReviewService, logger *zap.Logger) {
	consumer := NewSubmitRequestConsumer(svc, logger)

	q, err := ch.QueueDeclare(
		"request_review_service_submissions",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to declare queue", zap.Error(err))
		return
	}

	err = ch.QueueBind(
		q.Name,
		"", // fanout ignores the routing key
		"request_submitted",
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to bind queue", zap.Error(err))
		return
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to consume queue", zap.Error(err))
		return
	}

	go func() {
		for m := range msgs {
			consumer.Handle(m.Body)
		}
	}()

	logger.Info("subscribed to exchange request_submitted")
}
