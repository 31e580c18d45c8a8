package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the part of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishWorkspaceAnalysis(ctx context.Context, payload WorkspaceAnalysisPayload) error {
	return p.publish(ctx, WorkspaceAnalysisKey, payload.WorkspaceID, payload)
}

func (p *RabbitMQProducer) PublishSignalIngestion(ctx context.Context, payload SignalIngestionPayload) error {
	return p.publish(ctx, SignalIngestionKey, payload.WorkflowID, payload)
}

func (p *RabbitMQProducer) PublishReviewDecision(ctx context.Context, payload ReviewDecisionPayload) error {
	return p.publish(ctx, ReviewDecisionKey, payload.WorkflowID, payload)
}

func (p *RabbitMQProducer) PublishActivation(ctx context.Context, payload ActivationPayload) error {
	return p.publish(ctx, ActivationKey, payload.WorkflowID, payload)
}

func (p *RabbitMQProducer) publish(ctx context.Context, key, messageID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		key,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ (%s): %w", key, err)
	}
	return nil
}
