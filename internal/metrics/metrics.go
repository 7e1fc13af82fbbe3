package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolutions counts resolver outcomes by entity kind and tier ("none" on a miss).
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brindes",
		Name:      "resolutions_total",
		Help:      "Reference resolutions by kind and matching tier.",
	}, []string{"kind", "tier"})

	// Mutations counts committed stock and sample mutations.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brindes",
		Name:      "mutations_total",
		Help:      "Committed mutations by kind, action and channel.",
	}, []string{"kind", "action", "channel"})

	// Rejections counts mutations refused by a guard.
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brindes",
		Name:      "mutation_rejections_total",
		Help:      "Mutations refused, by kind and reason.",
	}, []string{"kind", "reason"})

	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brindes",
		Name:      "assistant_tool_calls_total",
		Help:      "Assistant tool invocations by tool name.",
	}, []string{"tool"})

	// EventsDropped counts websocket events discarded because the broadcast buffer was full.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brindes",
		Name:      "ws_events_dropped_total",
		Help:      "Websocket events dropped on a full broadcast buffer, by event type.",
	}, []string{"type"})

	NotifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brindes",
		Name:      "notify_failures_total",
		Help:      "Best-effort post-commit notifications that failed, by sink.",
	}, []string{"sink"})
)
