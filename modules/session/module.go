package session

import (
	"context"
	"fmt"
	"log"

	"github.com/example/livestream-chat-demo/modules/broadcast"
	"github.com/example/livestream-chat-demo/modules/chatstore"
	"github.com/example/livestream-chat-demo/modules/presence"
	"github.com/go-monolith/mono"
)

// Module wires viewer sessions to presence, chat storage and the hub.
type Module struct {
	registry *presence.Registry
	hub      *broadcast.Hub
	store    chatstore.StorePort
	service  *Service
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new session module backed by the given registry.
func NewModule(registry *presence.Registry) *Module {
	return &Module{registry: registry}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "session"
}

// Dependencies declares the modules whose services this module calls.
func (m *Module) Dependencies() []string {
	return []string{"chatstore"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "chatstore":
		m.store = chatstore.NewStoreAdapter(container)
	}
}

// SetHub injects the WebSocket hub. Must be called before Start.
func (m *Module) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// Start builds the session service from the injected collaborators.
func (m *Module) Start(_ context.Context) error {
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}
	if m.store == nil {
		return fmt.Errorf("chatstore adapter dependency not set")
	}
	m.service = NewService(m.registry, m.hub, m.store)
	log.Println("[session] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[session] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms":  m.registry.RoomCountTotal(),
			"total_viewers": m.registry.ViewerCountTotal(),
		},
	}
}

// Service returns the session service for the API module's handlers.
func (m *Module) Service() *Service {
	return m.service
}
