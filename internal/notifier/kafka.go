// Package notifier publishes domain events after successful state
// transitions. Publication is fire-and-forget: the lifecycle service logs a
// failed publish and moves on, so a broker outage never fails a registration.
package notifier

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// AccountCreationTopic receives a text announcement for every registered
// customer. Downstream account provisioning consumes it.
const AccountCreationTopic = "account-creation-topic"

// Kafka publishes events through a franz-go client.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// KafkaOption configures a Kafka notifier.
type KafkaOption func(*Kafka)

// WithTopic overrides the destination topic.
func WithTopic(topic string) KafkaOption {
	return func(k *Kafka) {
		if topic != "" {
			k.topic = topic
		}
	}
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, opts ...KafkaOption) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	k := &Kafka{client: client, topic: AccountCreationTopic}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// NewKafkaFromClient wraps an existing client; used by integration tests.
func NewKafkaFromClient(client *kgo.Client, opts ...KafkaOption) *Kafka {
	k := &Kafka{client: client, topic: AccountCreationTopic}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// CustomerRegistered announces a new customer record on the account creation
// topic. The message is plain text keyed by the customer id.
func (k *Kafka) CustomerRegistered(ctx context.Context, customerID int64, email string) error {
	record := &kgo.Record{
		Topic: k.topic,
		Key:   fmt.Appendf(nil, "%d", customerID),
		Value: fmt.Appendf(nil, "customer registered: id=%d email=%s", customerID, email),
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (k *Kafka) Close() {
	k.client.Close()
}
