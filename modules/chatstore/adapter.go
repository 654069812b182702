package chatstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// StorePort defines the interface other modules use to reach the chat store.
type StorePort interface {
	Save(ctx context.Context, msg SaveRequest) error
	History(ctx context.Context, streamKey string, opts HistoryOptions) ([]*ChatMessage, error)
	Stats(ctx context.Context, streamKey string) (*StreamChatStats, error)
	Streams(ctx context.Context) ([]*StreamChatSummary, error)
	Search(ctx context.Context, streamKey, keyword string) ([]*ChatMessage, error)
	Cleanup(ctx context.Context, cutoff int64) (int64, error)
}

// storeAdapter implements StorePort on top of the service container.
type storeAdapter struct {
	container mono.ServiceContainer
}

// NewStoreAdapter creates a new StorePort backed by the chatstore services.
func NewStoreAdapter(container mono.ServiceContainer) StorePort {
	if container == nil {
		panic("chatstore: ServiceContainer is nil")
	}
	return &storeAdapter{container: container}
}

// Save persists a chat message.
func (a *storeAdapter) Save(ctx context.Context, req SaveRequest) error {
	var resp SaveResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSave,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// History queries a stream's chat history.
func (a *storeAdapter) History(ctx context.Context, streamKey string, opts HistoryOptions) ([]*ChatMessage, error) {
	req := HistoryRequest{StreamKey: streamKey, Options: opts}
	var resp HistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	return resp.Messages, nil
}

// Stats queries per-stream message aggregates.
func (a *storeAdapter) Stats(ctx context.Context, streamKey string) (*StreamChatStats, error) {
	req := StatsRequest{StreamKey: streamKey}
	var resp StatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get chat stats: %w", err)
	}
	return resp.Stats, nil
}

// Streams queries the all-streams chat report.
func (a *storeAdapter) Streams(ctx context.Context) ([]*StreamChatSummary, error) {
	req := StreamsRequest{}
	var resp StreamsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceStreams,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list streams with chat: %w", err)
	}
	return resp.Streams, nil
}

// Search queries a stream's messages by keyword.
func (a *storeAdapter) Search(ctx context.Context, streamKey, keyword string) ([]*ChatMessage, error) {
	req := SearchRequest{StreamKey: streamKey, Keyword: keyword}
	var resp SearchResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSearch,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to search chat messages: %w", err)
	}
	return resp.Messages, nil
}

// Cleanup deletes messages older than the cutoff.
func (a *storeAdapter) Cleanup(ctx context.Context, cutoff int64) (int64, error) {
	req := CleanupRequest{Cutoff: cutoff}
	var resp CleanupResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCleanup,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return 0, fmt.Errorf("failed to clean up chat messages: %w", err)
	}
	return resp.Deleted, nil
}
