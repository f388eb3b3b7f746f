package notify

import (
	"context"
	"fmt"

	"TechMart/internal/domain/models"
)

// EventPublisher is the part of the Kafka producer the notifier needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaNotifier writes events to the events topic keyed by event type.
type KafkaNotifier struct {
	pub   EventPublisher
	topic string
}

func NewKafkaNotifier(pub EventPublisher, topic string) *KafkaNotifier {
	return &KafkaNotifier{pub: pub, topic: topic}
}

func (k *KafkaNotifier) Notify(ctx context.Context, event models.Event) error {
	if err := k.pub.Publish(ctx, k.topic, []byte(event.Type), event); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, k.topic, err)
	}
	return nil
}
