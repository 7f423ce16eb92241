package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	Writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(cfg *config.KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: no topic configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: time.Duration(cfg.BatchTimeout) * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	log.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Info("Kafka producer initialized")

	return &KafkaProducer{Writer: writer, topic: cfg.Topic}, nil
}

// Publish writes an audit message keyed by actor so one admin's events stay ordered.
func (p *KafkaProducer) Publish(ctx context.Context, message models.AuditMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal audit message: %w", err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(message.ActorID),
		Value: body,
		Time:  message.Timestamp,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(message.Action)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write audit message to kafka: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"audit_id": message.ID,
		"topic":    p.topic,
	}).Debug("Audit message written to kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	if err := p.Writer.Close(); err != nil {
		log.WithError(err).Error("Failed to close Kafka writer")
		return err
	}
	log.Info("Kafka producer closed")
	return nil
}
