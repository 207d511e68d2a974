package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"transcriber/history"
)

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// Producer publishes terminal job records to a Kafka topic so downstream
// consumers can react to finished transcriptions.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer creates a Kafka producer for the given brokers and topic.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("Kafka producer started (topic: %s)", cfg.Topic)
	return &Producer{producer: producer, topic: cfg.Topic}, nil
}

// Publish sends one record keyed by its id. The context is only consulted
// before sending; sarama's SyncProducer has its own timeouts.
func (p *Producer) Publish(ctx context.Context, item history.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(item.ID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("failed to publish record %s: %w", item.ID, err)
	}
	return nil
}

// Close shuts down the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
