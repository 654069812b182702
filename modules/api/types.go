package api

import (
	"github.com/example/livestream-chat-demo/modules/chatstore"
	"github.com/example/livestream-chat-demo/modules/presence"
)

// wsMessage is the envelope for client-to-server WebSocket messages.
type wsMessage struct {
	Type      string `json:"type"`
	StreamKey string `json:"streamKey"`
	Username  string `json:"username"`
	Message   string `json:"message"`
}

// Client-to-server message types.
const (
	wsTypeJoinStream  = "join-stream"
	wsTypeLeaveStream = "leave-stream"
	wsTypeChatMessage = "chat-message"
)

// wsConnected is the hello sent right after the upgrade.
type wsConnected struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// ConfigResponse tells clients where the media server lives.
type ConfigResponse struct {
	MediaServerURL   string `json:"mediaServerUrl"`
	RTMPURL          string `json:"rtmpUrl"`
	DefaultStreamKey string `json:"defaultStreamKey"`
}

// StatusResponse reports media server reachability.
type StatusResponse struct {
	Status      string `json:"status"`
	MediaServer any    `json:"mediaServer,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ViewerStatsResponse is the per-stream viewer snapshot.
type ViewerStatsResponse struct {
	StreamKey string `json:"streamKey"`
	presence.Stats
}

// ChatHistoryResponse bundles a stream's aggregates with its messages.
type ChatHistoryResponse struct {
	StreamKey string                     `json:"streamKey"`
	Stats     *chatstore.StreamChatStats `json:"stats"`
	Messages  []*chatstore.ChatMessage   `json:"messages"`
}

// ChatSearchResponse carries keyword search results, newest first.
type ChatSearchResponse struct {
	StreamKey string                   `json:"streamKey"`
	Query     string                   `json:"query"`
	Messages  []*chatstore.ChatMessage `json:"messages"`
}

// ChatStreamsResponse lists every stream with recorded chat.
type ChatStreamsResponse struct {
	Streams []*chatstore.StreamChatSummary `json:"streams"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
