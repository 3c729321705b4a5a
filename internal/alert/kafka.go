package alert

import (
	"context"
	"time"

	"OptAlert/pkg/kafka"
)

// KafkaChannel publishes alerts to a Kafka topic for downstream consumers.
type KafkaChannel struct {
	producer *kafka.Producer
	topic    string
	enabled  bool
}

type kafkaPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
}

func NewKafkaChannel(producer *kafka.Producer, topic string, enabled bool) *KafkaChannel {
	return &KafkaChannel{producer: producer, topic: topic, enabled: enabled}
}

func (k *KafkaChannel) Name() string { return "kafka" }

func (k *KafkaChannel) Enabled() bool { return k.enabled && k.producer != nil }

func (k *KafkaChannel) Notify(ctx context.Context, subject, body string) error {
	return k.producer.Publish(ctx, k.topic, []byte(subject), kafkaPayload{
		Timestamp: time.Now(),
		Subject:   subject,
		Body:      body,
	})
}
