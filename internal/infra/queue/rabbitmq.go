package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.clientpulse"
	DLXName      = "ex.clientpulse.dlx" // Dead Letter Exchange

	WorkspaceAnalysisQueue = "q.workspace.analysis"
	SignalIngestionQueue   = "q.signal.ingestion"
	ReviewDecisionQueue    = "q.review.decisions"
	ActivationQueue        = "q.crm.activations"

	WorkspaceAnalysisKey = "k.workspace.analysis"
	SignalIngestionKey   = "k.signal.ingestion"
	ReviewDecisionKey    = "k.review.decision"
	ActivationKey        = "k.crm.activation"
)

// binding pairs a durable queue with its routing key. Every queue gets a
// ".dlq" twin on the dead letter exchange.
type binding struct {
	Queue string
	Key   string
}

var bindings = []binding{
	{WorkspaceAnalysisQueue, WorkspaceAnalysisKey},
	{SignalIngestionQueue, SignalIngestionKey},
	{ReviewDecisionQueue, ReviewDecisionKey},
	{ActivationQueue, ActivationKey},
}

func DLQName(queue string) string {
	return queue + ".dlq"
}

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

// topologyDeclarer is the subset of *amqp.Channel used to declare the
// exchanges and queues.
type topologyDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

func setupTopology(ch topologyDeclarer) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(DLQName(b.Queue), true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(DLQName(b.Queue), b.Key, DLXName, false, nil); err != nil {
			return err
		}

		// Nack without requeue goes to the DLX with the same key
		args := amqp.Table{
			"x-dead-letter-exchange":    DLXName,
			"x-dead-letter-routing-key": b.Key,
		}
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, args); err != nil {
			return err
		}
		if err := ch.QueueBind(b.Queue, b.Key, ExchangeName, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// Healthy reports whether the connection is still open.
func (r *RabbitMQ) Healthy() bool {
	return r != nil && r.Conn != nil && !r.Conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.Ch != nil {
		r.Ch.Close()
	}
	if r.Conn != nil {
		return r.Conn.Close()
	}
	return nil
}
