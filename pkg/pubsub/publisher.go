package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

type publishFunc func(ctx context.Context, msg *pubsub.Message) (string, error)

// JSONPublisher publishes JSON payloads with string attributes and waits for
// the server ack.
type JSONPublisher struct {
	publish publishFunc
}

// NewJSONPublisher wraps a v2 publisher handle.
func NewJSONPublisher(p *pubsub.Publisher) *JSONPublisher {
	if p == nil {
		return &JSONPublisher{}
	}
	return &JSONPublisher{publish: func(ctx context.Context, msg *pubsub.Message) (string, error) {
		return p.Publish(ctx, msg).Get(ctx)
	}}
}

// Publish marshals payload and returns the server message id.
func (p *JSONPublisher) Publish(ctx context.Context, payload any, attrs map[string]string) (string, error) {
	if p == nil || p.publish == nil {
		return "", errors.New("pubsub publisher not initialized")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal pubsub payload: %w", err)
	}
	msg := &pubsub.Message{Data: data, Attributes: attrs}
	id, err := p.publish(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("publish pubsub message: %w", err)
	}
	return id, nil
}
