package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
)

// ProtocolEvent is the message downstream e-signature and email workers consume.
type ProtocolEvent struct {
	ProtocolID  uuid.UUID `json:"protocol_id"`
	Event       string    `json:"event"` // created | returned | closed
	Status      string    `json:"status"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email,omitempty"`
	DocumentURL string    `json:"document_url,omitempty"`
	LineCount   int       `json:"line_count"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PubSubPublisher publishes protocol events to one topic.
type PubSubPublisher struct {
	topic *pubsub.Topic
}

func NewPubSubPublisher(client *pubsub.Client, topicID string) (*PubSubPublisher, error) {
	if client == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if topicID == "" {
		return nil, errors.New("PUBSUB_TOPIC is required")
	}
	return &PubSubPublisher{topic: client.Topic(topicID)}, nil
}

// Publish blocks until the server acknowledges the message or ctx ends.
func (p *PubSubPublisher) Publish(ctx context.Context, ev ProtocolEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event":       ev.Event,
			"protocol_id": ev.ProtocolID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Event, err)
	}
	return nil
}

// Stop flushes pending messages.
func (p *PubSubPublisher) Stop() {
	p.topic.Stop()
}
