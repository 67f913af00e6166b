package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"erp-planning/internal/app"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes planning run events to a Kafka topic. Messages are keyed by company
// and hash-balanced, so one company's events land on one partition in order.
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewPublisher constructs a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
		},
		topic: topic,
	}
}

// Publish sends ev as a JSON message.
func (p *Publisher) Publish(ctx context.Context, ev app.RunEvent) error {
	msg, err := newMessage(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event to %s: %w", ev.Kind, p.topic, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(ev app.RunEvent) (kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal run event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.CompanyID),
		Value: payload,
		Time:  ev.CompletedAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("planning.run.completed")},
			{Key: "run-kind", Value: []byte(ev.Kind)},
		},
	}, nil
}
