package broadcast

// Wire payload types pushed to WebSocket clients. Field names follow the
// browser client contract, so JSON tags are camelCase.

// ViewerCountEvent reports the audience size of a stream.
type ViewerCountEvent struct {
	Type        string `json:"type"`
	StreamKey   string `json:"streamKey"`
	Viewers     int    `json:"viewers"`
	PeakViewers int    `json:"peakViewers"`
}

// ChatMessageEvent carries a chat message to a stream's room.
type ChatMessageEvent struct {
	Type      string `json:"type"`
	StreamKey string `json:"streamKey"`
	ID        string `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// StreamLifecycleNotice tells clients a stream went live or ended.
type StreamLifecycleNotice struct {
	Type      string `json:"type"`
	StreamKey string `json:"streamKey"`
	Timestamp int64  `json:"timestamp"`
}

// BroadcastViewerCount pushes a viewer-count update to a stream's room.
func (h *Hub) BroadcastViewerCount(streamKey string, viewers, peakViewers int) {
	h.Broadcast(streamKey, ViewerCountEvent{
		Type:        "viewer-count",
		StreamKey:   streamKey,
		Viewers:     viewers,
		PeakViewers: peakViewers,
	})
}

// BroadcastChatMessage pushes a chat message to a stream's room.
func (h *Hub) BroadcastChatMessage(streamKey, id, username, message string, timestamp int64) {
	h.Broadcast(streamKey, ChatMessageEvent{
		Type:      "chat-message",
		StreamKey: streamKey,
		ID:        id,
		Username:  username,
		Message:   message,
		Timestamp: timestamp,
	})
}
