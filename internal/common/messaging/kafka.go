package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/safebite/platform/internal/common/config"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher publishes JSON-encoded messages to a topic
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, key string, data interface{}) error
}

// Consumer feeds every message of a topic to handler until ctx is done
type Consumer interface {
	ConsumeMessages(ctx context.Context, topic string, handler func([]byte) error) error
}

// KafkaClient represents a Kafka client for producing and consuming messages
type KafkaClient struct {
	mu        sync.Mutex
	producers map[string]*kafka.Writer
	consumers map[string]*kafka.Reader
	brokers   []string
	group     string
}

// NewKafkaClient creates a new Kafka client
func NewKafkaClient(cfg *config.KafkaConfig) *KafkaClient {
	return &KafkaClient{
		producers: make(map[string]*kafka.Writer),
		consumers: make(map[string]*kafka.Reader),
		brokers:   cfg.Brokers,
		group:     cfg.ConsumerGroup,
	}
}

func (k *KafkaClient) producer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if writer, exists := k.producers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(k.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	k.producers[topic] = writer
	return writer
}

func (k *KafkaClient) consumer(topic string) *kafka.Reader {
	k.mu.Lock()
	defer k.mu.Unlock()

	if reader, exists := k.consumers[topic]; exists {
		return reader
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.brokers,
		Topic:       topic,
		GroupID:     k.group,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})

	k.consumers[topic] = reader
	return reader
}

// PublishMessage publishes a message to a Kafka topic
func (k *KafkaClient) PublishMessage(ctx context.Context, topic string, key string, data interface{}) error {
	value, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshaling message: %w", err)
	}

	err = k.producer(topic).WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("error writing message to Kafka: %w", err)
	}

	return nil
}

// ConsumeMessages consumes messages from a Kafka topic and processes them using a handler function
func (k *KafkaClient) ConsumeMessages(ctx context.Context, topic string, handler func([]byte) error) error {
	reader := k.consumer(topic)
	log := logrus.WithField("topic", topic)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info("Context done, stopping Kafka consumer")
				return ctx.Err()
			}
			log.WithError(err).Warn("Error reading message from Kafka")
			time.Sleep(time.Second)
			continue
		}

		if err := handler(msg.Value); err != nil {
			log.WithError(err).WithField("offset", msg.Offset).Error("Error processing message")
		}
	}
}

// Close closes all Kafka producers and consumers
func (k *KafkaClient) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for topic, producer := range k.producers {
		if err := producer.Close(); err != nil {
			logrus.WithError(err).WithField("topic", topic).Error("Error closing producer")
		}
	}

	for topic, consumer := range k.consumers {
		if err := consumer.Close(); err != nil {
			logrus.WithError(err).WithField("topic", topic).Error("Error closing consumer")
		}
	}

	return nil
}
