package presence

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module exposes the viewer registry as a mono module.
type Module struct {
	registry *Registry
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new presence module.
func NewModule() *Module {
	return &Module{
		registry: NewRegistry(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Registry returns the viewer registry for other modules to use.
func (m *Module) Registry() *Registry {
	return m.registry
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[presence] Module started - viewer registry ready")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[presence] Module stopped - %d active rooms", m.registry.RoomCountTotal())
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
