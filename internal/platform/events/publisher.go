package events

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafkago.Writer
}

// NewKafkaPublisher returns a publisher writing to brokers. The topic is
// taken from each event, so one writer serves every topic.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	return p.writer.WriteMessages(ctx, Message(event))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message keys events by aggregate so a request's events stay ordered
// within one partition.
func Message(event OutboxEvent) kafkago.Message {
	return kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	}
}
