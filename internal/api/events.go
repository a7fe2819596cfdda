package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/driftlabs/tunneld/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint for process
// lifecycle events.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of process lifecycle events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"process-started": events.ProcessStartedEvent{},
		"process-exited":  events.ProcessExitedEvent{},
		"process-stopped": events.ProcessStoppedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ProcessStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ProcessExitedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ProcessStoppedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Initial event confirms the connection before any activity occurs.
		if err := send.Data(events.ProcessStartedEvent{
			ProcessID: "system",
			Binary:    "sse-connection-established",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
