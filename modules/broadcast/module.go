package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/example/livestream-chat-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// BroadcastModule owns the WebSocket hub and relays stream lifecycle
// events to connected clients.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"active_rooms":      m.hub.RoomCount(),
		},
	}
}

// RegisterEventConsumers registers stream lifecycle event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.StreamStartedV1, m.handleStreamStarted, m,
	); err != nil {
		return fmt.Errorf("failed to register StreamStarted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.StreamEndedV1, m.handleStreamEnded, m,
	); err != nil {
		return fmt.Errorf("failed to register StreamEnded consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: StreamStarted, StreamEnded")
	return nil
}

func (m *BroadcastModule) handleStreamStarted(_ context.Context, event events.StreamLifecycleEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Stream started: %s", event.StreamKey)

	// Every client hears about new streams so directory views can refresh.
	m.hub.BroadcastAll(StreamLifecycleNotice{
		Type:      "stream-started",
		StreamKey: event.StreamKey,
		Timestamp: event.Timestamp,
	})
	return nil
}

func (m *BroadcastModule) handleStreamEnded(_ context.Context, event events.StreamLifecycleEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Stream ended: %s", event.StreamKey)

	m.hub.BroadcastAll(StreamLifecycleNotice{
		Type:      "stream-ended",
		StreamKey: event.StreamKey,
		Timestamp: event.Timestamp,
	})
	return nil
}

// GetHub returns the WebSocket hub for the API and session modules to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
