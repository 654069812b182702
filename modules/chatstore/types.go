package chatstore

// Service names registered in the mono service container.
const (
	ServiceSave    = "save"
	ServiceHistory = "history"
	ServiceStats   = "stats"
	ServiceStreams = "streams"
	ServiceSearch  = "search"
	ServiceCleanup = "cleanup"
)

// SaveRequest is the request for persisting a chat message.
type SaveRequest struct {
	MessageID string `json:"messageId"`
	StreamKey string `json:"streamKey"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// SaveResponse acknowledges a persisted chat message.
type SaveResponse struct {
	Saved bool `json:"saved"`
}

// HistoryRequest is the request for a chat history query.
type HistoryRequest struct {
	StreamKey string         `json:"streamKey"`
	Options   HistoryOptions `json:"options"`
}

// HistoryResponse carries the matching messages.
type HistoryResponse struct {
	Messages []*ChatMessage `json:"messages"`
}

// StatsRequest is the request for per-stream chat aggregates.
type StatsRequest struct {
	StreamKey string `json:"streamKey"`
}

// StatsResponse carries the aggregates.
type StatsResponse struct {
	Stats *StreamChatStats `json:"stats"`
}

// StreamsRequest is the request for the all-streams chat report.
type StreamsRequest struct{}

// StreamsResponse carries one summary per stream with messages.
type StreamsResponse struct {
	Streams []*StreamChatSummary `json:"streams"`
}

// SearchRequest is the request for a keyword search within a stream.
type SearchRequest struct {
	StreamKey string `json:"streamKey"`
	Keyword   string `json:"keyword"`
}

// SearchResponse carries the matching messages, newest first.
type SearchResponse struct {
	Messages []*ChatMessage `json:"messages"`
}

// CleanupRequest is the request for a retention sweep.
type CleanupRequest struct {
	Cutoff int64 `json:"cutoff"`
}

// CleanupResponse reports how many messages were removed.
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}
