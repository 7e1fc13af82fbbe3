// Package notify fans committed protocol changes out to best-effort sinks:
// document archive and the event topic read by e-signature and email workers.
package notify

import (
	"context"
	"time"

	"go-brindes-ws/internal/document"
	"go-brindes-ws/internal/metrics"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/pkg/logger"
)

type Renderer interface {
	Render(p *model.HandoffProtocol) ([]byte, error)
}

type DocumentStore interface {
	Store(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

type EventSink interface {
	Publish(ctx context.Context, ev ProtocolEvent) error
}

// Dispatcher never fails its caller; every sink error is logged and counted.
type Dispatcher struct {
	renderer Renderer
	store    DocumentStore
	sink     EventSink
	timeout  time.Duration
	now      func() time.Time
}

// NewDispatcher wires the sinks. store and sink may be nil when not configured.
func NewDispatcher(renderer Renderer, store DocumentStore, sink EventSink) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		store:    store,
		sink:     sink,
		timeout:  15 * time.Second,
		now:      time.Now,
	}
}

// ProtocolChanged archives the current document (if a store is configured) and
// publishes the event. It returns the archived document URL, or "".
func (d *Dispatcher) ProtocolChanged(ctx context.Context, p *model.HandoffProtocol, event, actor string) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	url := p.DocumentURL
	if d.store != nil && d.renderer != nil {
		if stored, err := d.archive(ctx, p); err != nil {
			metrics.NotifyFailures.WithLabelValues("archive").Inc()
			logger.LogError("notify", "ProtocolChanged", "archive document", p.ID.String(), err)
		} else {
			url = stored
		}
	}

	if d.sink != nil {
		ev := ProtocolEvent{
			ProtocolID:  p.ID,
			Event:       event,
			Status:      string(p.Status),
			ClientName:  p.ClientName,
			ClientEmail: p.ClientEmail,
			DocumentURL: url,
			LineCount:   len(p.Lines),
			Actor:       actor,
			OccurredAt:  d.now(),
		}
		if err := d.sink.Publish(ctx, ev); err != nil {
			metrics.NotifyFailures.WithLabelValues("pubsub").Inc()
			logger.LogError("notify", "ProtocolChanged", "publish event", p.ID.String(), err)
		}
	}

	if url == p.DocumentURL {
		return ""
	}
	return url
}

func (d *Dispatcher) archive(ctx context.Context, p *model.HandoffProtocol) (string, error) {
	data, err := d.renderer.Render(p)
	if err != nil {
		return "", err
	}
	return d.store.Store(ctx, document.Filename(p), data, document.ContentType)
}
