package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/rajasatyajit/lifesaver/internal/errors"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by report id, so all
// changes to one report land on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a producer for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, topic: topic}
}

// Publish serializes and writes a single event
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := serializeToMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return apperrors.PublishError{Topic: p.topic, ReportID: e.Report.ID, Err: err}
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Event into a Kafka message.
func serializeToMessage(e Event) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.Report.ID),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "urgency", Value: []byte(e.Report.Urgency)},
			{Key: "occurred_at", Value: []byte(e.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
