// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/go-faster/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xenking/modelado-pao/internal/domain/order"
)

const defaultDeliveryTimeout = 15 * time.Second

var _ order.EventPublisher = (*Kafka)(nil)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers         string
	Topic           string
	ClientID        string
	DeliveryTimeout time.Duration
}

// producer is the subset of *kafka.Producer the publisher uses.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// Kafka publishes order events to a Kafka topic, keyed by order ID so every
// event of one order lands on the same partition.
//
// Produce is asynchronous: Publish returns once the message is queued and
// delivery failures are logged from the delivery report loop. A circuit
// breaker stops queueing while the local queue keeps rejecting messages.
type Kafka struct {
	producer   producer
	topic      string
	timeout    time.Duration
	deliveries chan kafka.Event
	done       chan struct{}
	breaker    *gobreaker.CircuitBreaker
	lg         *zap.Logger
}

// NewKafka connects a producer to cfg.Brokers.
func NewKafka(cfg KafkaConfig, lg *zap.Logger) (*Kafka, error) {
	if cfg.Brokers == "" {
		return nil, errors.New("kafka brokers required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "pao-api"
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"client.id":         cfg.ClientID,
		"acks":              "all",
	})
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return newKafka(p, cfg, lg), nil
}

func newKafka(p producer, cfg KafkaConfig, lg *zap.Logger) *Kafka {
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = defaultDeliveryTimeout
	}
	k := &Kafka{
		producer:   p,
		topic:      cfg.Topic,
		timeout:    cfg.DeliveryTimeout,
		deliveries: make(chan kafka.Event, 128),
		done:       make(chan struct{}),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "kafka_order_events",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
		}),
		lg: lg,
	}
	go k.handleDeliveryReports()
	return k
}

// Publish queues e for delivery.
func (k *Kafka) Publish(ctx context.Context, e order.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(e.OrderID),
		Value:          Encode(e),
		Timestamp:      e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}

	_, err := k.breaker.Execute(func() (any, error) {
		return nil, k.producer.Produce(msg, k.deliveries)
	})
	if err != nil {
		return errors.Wrapf(err, "produce %s", e.Type)
	}
	return nil
}

// Close flushes queued messages and shuts the producer down. The delivery
// channel is closed only after the producer, since reports for messages
// left over by a timed-out flush may still arrive until then.
func (k *Kafka) Close() {
	if remaining := k.producer.Flush(int(k.timeout.Milliseconds())); remaining > 0 {
		k.lg.Warn("Kafka flush timed out", zap.Int("remaining", remaining))
	}
	k.producer.Close()
	close(k.deliveries)
	<-k.done
}

func (k *Kafka) handleDeliveryReports() {
	defer close(k.done)
	for ev := range k.deliveries {
		m, ok := ev.(*kafka.Message)
		if !ok {
			k.lg.Debug("Unexpected kafka event", zap.Stringer("event", ev))
			continue
		}
		if err := m.TopicPartition.Error; err != nil {
			k.lg.Error("Order event delivery failed",
				zap.String("order_id", string(m.Key)),
				zap.Error(err),
			)
		}
	}
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, order.Event) error { return nil }
