package rabbit

import (
	"context"
	"encoding/json"

	"request-review-service/internal/controller"
	"request-review-service/internal/dto"
	"request-review-service/internal/service"

	"go.uber.org/zap"
)

// SubmitRequestConsumer turns customer submissions from the storefront into
// pending requests awaiting review.
type SubmitRequestConsumer struct {
	Service *service.ReviewService
	Logger  *zap.Logger
}

func NewSubmitRequestConsumer(s *service.ReviewService, logger *zap.Logger) *SubmitRequestConsumer {
	return &SubmitRequestConsumer{Service: s, Logger: logger}
}

type SubmittedRequestMessage struct {
	CorrelationID string `json:"correlation_id"`
	Message       struct {
		RequestID string `json:"requestId"`
		dto.SubmitRequestPayload
	} `json:"message"`
}

func (c *SubmitRequestConsumer) Handle(msg []byte) error {
	var event SubmittedRequestMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		c.Logger.Error("failed to parse request_submitted message", zap.Error(err))
		return err
	}

	req := controller.RequestFromPayload(event.Message.SubmitRequestPayload)
	req.ID = event.Message.RequestID

	created, err := c.Service.CreateRequest(context.Background(), req)
	if err != nil {
		c.Logger.Error("failed to create request from submission",
			zap.String("requestId", event.Message.RequestID),
			zap.Error(err))
		return err
	}

	c.Logger.Info("request created from customer submission",
		zap.String("requestId", created.ID),
		zap.String("requestNumber", created.RequestNumber),
		zap.Int("items", created.ItemCount()))
	return nil
}
