package service

import (
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/ws"

	"github.com/google/uuid"
)

// EventPublisher receives committed changes. *ws.Hub satisfies it.
type EventPublisher interface {
	Publish(ev ws.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(ws.Event) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// Actor identifies who triggered a mutation and through which surface.
type Actor struct {
	Name    string
	Channel model.Channel
	// ProtocolID links the log row to a handoff protocol, when there is one.
	ProtocolID *uuid.UUID
}

func (a Actor) channel() model.Channel {
	if a.Channel == "" {
		return model.ChannelWeb
	}
	return a.Channel
}
