package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Enqueuer puts work on a queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
	JobTimeout time.Duration // upper bound for a single Handle call
}

// Message represents a message in the queue
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage encodes payload into a fresh message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}
	return Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// ParsePayload decodes a message payload into T. An empty payload yields the zero T.
func ParsePayload[T any](payload json.RawMessage) (*T, error) {
	var result T
	if len(payload) == 0 || string(payload) == "null" {
		return &result, nil
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &result, nil
}
