package chatstore

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
)

// saveMessage handles the chatstore.save service request.
func (m *Module) saveMessage(_ context.Context, req SaveRequest, _ *mono.Msg) (SaveResponse, error) {
	if req.StreamKey == "" {
		return SaveResponse{}, fmt.Errorf("streamKey is required")
	}

	msg := &ChatMessage{
		MessageID: req.MessageID,
		StreamKey: req.StreamKey,
		Username:  req.Username,
		Message:   req.Message,
		Timestamp: req.Timestamp,
	}
	if err := m.repo.Save(msg); err != nil {
		return SaveResponse{}, err
	}
	return SaveResponse{Saved: true}, nil
}

// history handles the chatstore.history service request.
func (m *Module) history(_ context.Context, req HistoryRequest, _ *mono.Msg) (HistoryResponse, error) {
	if req.StreamKey == "" {
		return HistoryResponse{}, fmt.Errorf("streamKey is required")
	}

	messages, err := m.repo.History(req.StreamKey, req.Options)
	if err != nil {
		return HistoryResponse{}, err
	}
	return HistoryResponse{Messages: messages}, nil
}

// stats handles the chatstore.stats service request.
func (m *Module) stats(_ context.Context, req StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	if req.StreamKey == "" {
		return StatsResponse{}, fmt.Errorf("streamKey is required")
	}

	stats, err := m.repo.Stats(req.StreamKey)
	if err != nil {
		return StatsResponse{}, err
	}
	return StatsResponse{Stats: stats}, nil
}

// streams handles the chatstore.streams service request.
func (m *Module) streams(_ context.Context, _ StreamsRequest, _ *mono.Msg) (StreamsResponse, error) {
	summaries, err := m.repo.StreamsWithChat()
	if err != nil {
		return StreamsResponse{}, err
	}
	return StreamsResponse{Streams: summaries}, nil
}

// search handles the chatstore.search service request.
func (m *Module) search(_ context.Context, req SearchRequest, _ *mono.Msg) (SearchResponse, error) {
	if req.StreamKey == "" {
		return SearchResponse{}, fmt.Errorf("streamKey is required")
	}

	messages, err := m.repo.Search(req.StreamKey, req.Keyword)
	if err != nil {
		return SearchResponse{}, err
	}
	return SearchResponse{Messages: messages}, nil
}

// cleanup handles the chatstore.cleanup service request.
func (m *Module) cleanup(_ context.Context, req CleanupRequest, _ *mono.Msg) (CleanupResponse, error) {
	deleted, err := m.repo.DeleteOlderThan(req.Cutoff)
	if err != nil {
		return CleanupResponse{}, err
	}
	return CleanupResponse{Deleted: deleted}, nil
}
