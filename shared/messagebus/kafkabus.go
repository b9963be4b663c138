//go:build !local
// +build !local

package messagebus

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const flushTimeoutMs = 5000

// KafkaProducer Kafka implementation for production (default)
type KafkaProducer struct {
	producer *kafka.Producer
}

// NewKafkaProducer creates a Kafka producer from a flat config map, with fallback defaults
func NewKafkaProducer(configMap map[string]any) (Producer, error) {
	config := &kafka.ConfigMap{}

	config.SetKey("bootstrap.servers", GetStringValue(configMap, "bootstrap.servers", "localhost:9092"))
	config.SetKey("client.id", GetStringValue(configMap, "client.id", os.Getenv("HOSTNAME")))
	config.SetKey("acks", GetStringValue(configMap, "acks", "all"))
	config.SetKey("retries", GetIntValue(configMap, "retries", 3))
	config.SetKey("linger.ms", GetIntValue(configMap, "linger.ms", 1))
	config.SetKey("security.protocol", GetStringValue(configMap, "security.protocol", "PLAINTEXT"))
	if ca := GetStringValue(configMap, "ssl.ca.location", ""); ca != "" {
		config.SetKey("ssl.ca.location", ca)
		config.SetKey("ssl.certificate.location", GetStringValue(configMap, "ssl.certificate.location", ""))
		config.SetKey("ssl.key.location", GetStringValue(configMap, "ssl.key.location", ""))
		config.SetKey("enable.ssl.certificate.verification", GetBoolValue(configMap, "enable.ssl.certificate.verification", false))
	}

	producer, err := kafka.NewProducer(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
	}, nil
}

// Send sends a message to Kafka and waits for its delivery report
func (p *KafkaProducer) Send(ctx context.Context, message *Message) (int32, int64, error) {
	message.Timestamp = time.Now()

	kafkaMessage := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &message.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:       []byte(message.Key),
		Value:     message.Value,
		Timestamp: message.Timestamp,
	}

	for key, value := range message.Headers {
		kafkaMessage.Headers = append(kafkaMessage.Headers, kafka.Header{
			Key:   key,
			Value: []byte(value),
		})
	}

	// buffered and never closed: a late delivery report after ctx is done must not panic
	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(kafkaMessage, deliveryChan); err != nil {
		return 0, 0, fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case event := <-deliveryChan:
		if msg, ok := event.(*kafka.Message); ok {
			if msg.TopicPartition.Error != nil {
				return 0, 0, fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
			}
			return msg.TopicPartition.Partition, int64(msg.TopicPartition.Offset), nil
		}
		return 0, 0, fmt.Errorf("unexpected event type %T", event)
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
}

// Close flushes outstanding messages and closes the producer
func (p *KafkaProducer) Close() error {
	remaining := p.producer.Flush(flushTimeoutMs)
	p.producer.Close()
	if remaining > 0 {
		return fmt.Errorf("%d messages were not delivered before close", remaining)
	}
	return nil
}
