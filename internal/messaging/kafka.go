package messaging

import (
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
)

// KafkaProducer publishes audit events to a Kafka topic, keyed by event type
// so all events of one kind land on the same partition.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *slog.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	logger.Info("kafka producer initialized", "brokers", brokers, "topic", topic)

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

func (p *KafkaProducer) Publish(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal audit event", "error", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Type),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("failed to publish audit event to kafka", "error", err)
		return err
	}

	p.logger.Debug("audit event published", "topic", p.topic, "partition", partition, "offset", offset, "type", event.Type)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
