package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/livestream-chat-demo/modules/broadcast"
	"github.com/example/livestream-chat-demo/modules/chatstore"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxHistoryLimit = 1000

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API
	m.app.Get("/api/config", m.getConfig)
	m.app.Get("/api/status", m.getStatus)
	m.app.Get("/api/viewers/:streamKey?", m.getViewers)
	m.app.Get("/api/chat", m.listChatStreams)
	m.app.Get("/api/chat/:streamKey", m.getChatHistory)
	m.app.Get("/api/chat/:streamKey/download", m.downloadChat)
	m.app.Get("/api/chat/:streamKey/search", m.searchChat)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
			"active_rooms":      m.registry.RoomCountTotal(),
		},
	})
}

// getConfig handles GET /api/config.
func (m *APIModule) getConfig(c *fiber.Ctx) error {
	mediaServerURL := os.Getenv("MEDIA_SERVER_PUBLIC_URL")
	if mediaServerURL == "" {
		mediaServerURL = "http://localhost:8000"
	}
	rtmpURL := os.Getenv("RTMP_URL")
	if rtmpURL == "" {
		rtmpURL = "rtmp://localhost:1935/live"
	}
	defaultStreamKey := os.Getenv("DEFAULT_STREAM_KEY")
	if defaultStreamKey == "" {
		defaultStreamKey = "stream"
	}

	return c.JSON(ConfigResponse{
		MediaServerURL:   mediaServerURL,
		RTMPURL:          rtmpURL,
		DefaultStreamKey: defaultStreamKey,
	})
}

// getStatus handles GET /api/status.
func (m *APIModule) getStatus(c *fiber.Ctx) error {
	status := m.probe.Status()
	if !status.Reachable {
		return c.JSON(StatusResponse{
			Status: "offline",
			Error:  "Media server not running",
		})
	}
	return c.JSON(StatusResponse{
		Status:      "online",
		MediaServer: status,
	})
}

// getViewers handles GET /api/viewers/:streamKey?. Without a stream key it
// returns the snapshot for every known stream.
func (m *APIModule) getViewers(c *fiber.Ctx) error {
	streamKey := c.Params("streamKey")
	if streamKey == "" {
		return c.JSON(m.registry.AllStats())
	}

	return c.JSON(ViewerStatsResponse{
		StreamKey: streamKey,
		Stats:     m.registry.StatsFor(streamKey),
	})
}

// listChatStreams handles GET /api/chat.
func (m *APIModule) listChatStreams(c *fiber.Ctx) error {
	streams, err := m.store.Streams(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to list streams with chat",
		})
	}
	if streams == nil {
		streams = []*chatstore.StreamChatSummary{}
	}
	return c.JSON(ChatStreamsResponse{Streams: streams})
}

// getChatHistory handles GET /api/chat/:streamKey.
func (m *APIModule) getChatHistory(c *fiber.Ctx) error {
	streamKey := c.Params("streamKey")
	opts := parseHistoryOptions(
		c.Query("limit"),
		c.Query("offset"),
		c.Query("startDate"),
		c.Query("endDate"),
	)

	stats, err := m.store.Stats(c.UserContext(), streamKey)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to get chat stats",
		})
	}

	messages, err := m.store.History(c.UserContext(), streamKey, opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to get chat history",
		})
	}
	if messages == nil {
		messages = []*chatstore.ChatMessage{}
	}

	return c.JSON(ChatHistoryResponse{
		StreamKey: streamKey,
		Stats:     stats,
		Messages:  messages,
	})
}

// downloadChat handles GET /api/chat/:streamKey/download.
func (m *APIModule) downloadChat(c *fiber.Ctx) error {
	streamKey := c.Params("streamKey")

	messages, err := m.store.History(c.UserContext(), streamKey, chatstore.HistoryOptions{})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to get chat history",
		})
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="chat-%s.txt"`, streamKey))
	return c.SendString(formatTranscript(streamKey, messages))
}

// searchChat handles GET /api/chat/:streamKey/search.
func (m *APIModule) searchChat(c *fiber.Ctx) error {
	streamKey := c.Params("streamKey")
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Query parameter q is required",
		})
	}

	messages, err := m.store.Search(c.UserContext(), streamKey, query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to search chat messages",
		})
	}
	if messages == nil {
		messages = []*chatstore.ChatMessage{}
	}

	return c.JSON(ChatSearchResponse{
		StreamKey: streamKey,
		Query:     query,
		Messages:  messages,
	})
}

// parseHistoryOptions maps raw query values to history options. Invalid or
// out-of-range values fall back to the defaults.
func parseHistoryOptions(limitStr, offsetStr, startStr, endStr string) chatstore.HistoryOptions {
	var opts chatstore.HistoryOptions

	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= maxHistoryLimit {
			opts.Limit = parsed
		}
	}
	if offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed > 0 {
			opts.Offset = parsed
		}
	}
	if startStr != "" {
		if parsed, err := strconv.ParseInt(startStr, 10, 64); err == nil && parsed > 0 {
			opts.StartDate = parsed
		}
	}
	if endStr != "" {
		if parsed, err := strconv.ParseInt(endStr, 10, 64); err == nil && parsed > 0 {
			opts.EndDate = parsed
		}
	}
	return opts
}

// formatTranscript renders messages as a plain-text chat log.
func formatTranscript(streamKey string, messages []*chatstore.ChatMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chat transcript - %s\n", streamKey)
	fmt.Fprintf(&b, "Messages: %d\n\n", len(messages))

	for _, msg := range messages {
		ts := time.UnixMilli(msg.Timestamp).UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(&b, "[%s] %s: %s\n", ts, msg.Username, msg.Message)
	}
	return b.String()
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	sessionID := uuid.New().String()

	client := &broadcast.Client{
		ID:   sessionID,
		Conn: c,
	}

	// The hello is written before registration; once the client is in the
	// hub, its run loop is the only goroutine writing to this connection.
	welcome := wsConnected{
		Type:      "connected",
		SessionID: sessionID,
	}
	if err := c.WriteJSON(welcome); err != nil {
		log.Printf("[api] Failed to send welcome: %v", err)
		return
	}

	m.hub.Register(client)
	defer func() {
		m.sessions.Disconnect(sessionID)
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s", sessionID)
	}()

	log.Printf("[api] WebSocket client connected: %s", sessionID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", sessionID)
			} else {
				log.Printf("[api] Read error from %s: %v", sessionID, err)
			}
			break
		}

		var msg wsMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			log.Printf("[api] Dropping malformed message from %s: %v", sessionID, err)
			continue
		}

		switch msg.Type {
		case wsTypeJoinStream:
			m.sessions.JoinStream(sessionID, msg.StreamKey)
		case wsTypeLeaveStream:
			m.sessions.LeaveStream(sessionID, msg.StreamKey)
		case wsTypeChatMessage:
			m.sessions.SubmitChat(context.Background(), sessionID, msg.StreamKey, msg.Username, msg.Message)
		default:
			log.Printf("[api] Unknown message type %q from %s", msg.Type, sessionID)
		}
	}
}
