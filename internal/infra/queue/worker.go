package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/clientpulse/internal/logging"
)

// ErrMalformedMessage marks a body that can never be processed.
var ErrMalformedMessage = errors.New("malformed message")

// Handler processes one message body.
type Handler func(ctx context.Context, body []byte) error

// ActivationHandler runs the CRM activation of one opportunity.
type ActivationHandler interface {
	HandleActivation(ctx context.Context, payload ActivationPayload) error
}

// SignalIngestionHandler acknowledges a queued signal.
type SignalIngestionHandler interface {
	HandleSignalIngestion(ctx context.Context, payload SignalIngestionPayload) error
}

func ActivationMessages(h ActivationHandler) Handler {
	return func(ctx context.Context, body []byte) error {
		var payload ActivationPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if payload.OpportunityID == "" {
			return fmt.Errorf("%w: missing opportunity_id", ErrMalformedMessage)
		}
		return h.HandleActivation(ctx, payload)
	}
}

func SignalIngestionMessages(h SignalIngestionHandler) Handler {
	return func(ctx context.Context, body []byte) error {
		var payload SignalIngestionPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if payload.SignalID == "" {
			return fmt.Errorf("%w: missing signal_id", ErrMalformedMessage)
		}
		return h.HandleSignalIngestion(ctx, payload)
	}
}

// Consumer is the part of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Logger  logging.Logger
}

func NewWorker(ch Consumer, logger logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Worker{Channel: ch, Logger: logger}
}

// Start consumes queueName until ctx is cancelled or the delivery channel
// closes. Handler errors are nacked without requeue so they land in the DLQ;
// retrying is the handler's job.
func (w *Worker) Start(ctx context.Context, queueName string, handler Handler) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer on %s: %w", queueName, err)
	}

	w.Logger.Info("worker waiting for messages", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				w.Logger.Warn("delivery channel closed", "queue", queueName)
				return nil
			}
			w.handle(ctx, queueName, d, handler)
		}
	}
}

func (w *Worker) handle(ctx context.Context, queueName string, d amqp.Delivery, handler Handler) {
	log := w.Logger.WithFields(map[string]any{"queue": queueName, "message_id": d.MessageId})

	if err := handler(ctx, d.Body); err != nil {
		if errors.Is(err, ErrMalformedMessage) {
			log.Error("dropping malformed message", "error", err)
		} else {
			log.Error("message processing failed", "error", err)
		}
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("nack failed", "error", nackErr)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("ack failed", "error", err)
		return
	}
	log.Debug("message processed")
}
