package ws

import (
	"encoding/json"
	"testing"
	"time"

	"go-brindes-ws/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishQueuesEncodedEvent(t *testing.T) {
	h := NewHub()

	h.Publish(Event{Type: "stock_update", Action: "OUTBOUND", Actor: "alice", Data: map[string]int{"quantity": 3}})

	msg := <-h.Broadcast
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "stock_update", got["type"])
	assert.Equal(t, "alice", got["actor"])
	assert.Equal(t, float64(3), got["data"].(map[string]interface{})["quantity"])
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_PublishDropsWhenBufferIsFull(t *testing.T) {
	h := NewHub()
	dropped := metrics.EventsDropped.WithLabelValues("sample_update")
	before := testutil.ToFloat64(dropped)

	for i := 0; i < cap(h.Broadcast)+10; i++ {
		h.Publish(Event{Type: "sample_update", Action: "CHECKOUT", Actor: "alice"})
	}
	assert.Equal(t, cap(h.Broadcast), len(h.Broadcast))
	assert.Equal(t, before+10, testutil.ToFloat64(dropped))

	for len(h.Broadcast) > 0 {
		<-h.Broadcast
	}
	assert.Never(t, func() bool { return len(h.Broadcast) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}
