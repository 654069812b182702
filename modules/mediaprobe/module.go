package mediaprobe

import (
	"context"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/example/livestream-chat-demo/events"
	"github.com/go-monolith/mono"
)

const defaultPollInterval = 10 * time.Second

// Status is a snapshot of the media server probe for the status endpoint.
type Status struct {
	MediaServerURL string    `json:"mediaServerUrl"`
	Reachable      bool      `json:"reachable"`
	LiveStreams    []string  `json:"liveStreams"`
	LastPoll       time.Time `json:"lastPoll"`
	LastError      string    `json:"lastError,omitempty"`
}

// Module polls the media server for live streams and publishes lifecycle
// events when the live set changes.
type Module struct {
	prober   *Prober
	baseURL  string
	interval time.Duration
	eventBus mono.EventBus

	cancelPoll context.CancelFunc
	pollDone   chan struct{}

	mu        sync.RWMutex
	live      map[string]struct{}
	lastPoll  time.Time
	lastErr   error
	reachable bool
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new mediaprobe module.
func NewModule() *Module {
	baseURL := os.Getenv("MEDIA_SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	interval := defaultPollInterval
	if v := os.Getenv("MEDIA_POLL_INTERVAL_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			interval = time.Duration(parsed) * time.Second
		}
	}

	return &Module{
		prober:   NewProber(baseURL),
		baseURL:  baseURL,
		interval: interval,
		live:     make(map[string]struct{}),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "mediaprobe"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.StreamStartedV1.ToBase(),
		events.StreamEndedV1.ToBase(),
	}
}

// Start launches the polling loop.
func (m *Module) Start(_ context.Context) error {
	pollCtx, cancel := context.WithCancel(context.Background())
	m.cancelPoll = cancel
	m.pollDone = make(chan struct{})
	go m.runPollLoop(pollCtx)

	log.Printf("[mediaprobe] Module started - polling %s every %s", m.baseURL, m.interval)
	return nil
}

// Stop halts the polling loop.
func (m *Module) Stop(_ context.Context) error {
	if m.cancelPoll != nil {
		m.cancelPoll()
		<-m.pollDone
	}
	log.Println("[mediaprobe] Module stopped")
	return nil
}

// Health reports whether the media server was reachable on the last poll.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.reachable {
		msg := "media server unreachable"
		if m.lastErr != nil {
			msg = m.lastErr.Error()
		}
		return mono.HealthStatus{
			Healthy: false,
			Message: msg,
			Details: map[string]any{"media_server_url": m.baseURL},
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"media_server_url": m.baseURL,
			"live_streams":     len(m.live),
		},
	}
}

// Status returns a snapshot for the status endpoint.
func (m *Module) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	streams := make([]string, 0, len(m.live))
	for streamKey := range m.live {
		streams = append(streams, streamKey)
	}
	sort.Strings(streams)

	status := Status{
		MediaServerURL: m.baseURL,
		Reachable:      m.reachable,
		LiveStreams:    streams,
		LastPoll:       m.lastPoll,
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	return status
}

func (m *Module) runPollLoop(ctx context.Context) {
	defer close(m.pollDone)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

func (m *Module) pollOnce(ctx context.Context) {
	curr, err := m.prober.FetchLiveStreams(ctx)

	m.mu.Lock()
	m.lastPoll = time.Now()
	m.lastErr = err
	m.reachable = err == nil
	if err != nil {
		m.mu.Unlock()
		log.Printf("[mediaprobe] Poll failed: %v", err)
		return
	}

	started, ended := diffLive(m.live, curr)
	m.live = curr
	m.mu.Unlock()

	now := time.Now().UnixMilli()
	for _, streamKey := range started {
		log.Printf("[mediaprobe] Stream started: %s", streamKey)
		event := events.StreamLifecycleEvent{StreamKey: streamKey, Timestamp: now}
		if err := events.StreamStartedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[mediaprobe] Failed to publish StreamStarted for %s: %v", streamKey, err)
		}
	}
	for _, streamKey := range ended {
		log.Printf("[mediaprobe] Stream ended: %s", streamKey)
		event := events.StreamLifecycleEvent{StreamKey: streamKey, Timestamp: now}
		if err := events.StreamEndedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[mediaprobe] Failed to publish StreamEnded for %s: %v", streamKey, err)
		}
	}
}
