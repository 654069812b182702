package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/livestream-chat-demo/modules/broadcast"
	"github.com/example/livestream-chat-demo/modules/chatstore"
	"github.com/example/livestream-chat-demo/modules/presence"
)

const (
	maxUsernameLen = 50
	maxMessageLen  = 500
)

// Relay is the slice of the broadcast hub the session service drives.
type Relay interface {
	JoinRoom(clientID, streamKey string)
	LeaveRoom(clientID, streamKey string)
	BroadcastViewerCount(streamKey string, viewers, peakViewers int)
	BroadcastChatMessage(streamKey, id, username, message string, timestamp int64)
}

var _ Relay = (*broadcast.Hub)(nil)

// Service coordinates a viewer session's effect on presence, chat storage
// and fan-out. One instance is shared by every connection.
type Service struct {
	registry *presence.Registry
	relay    Relay
	store    chatstore.StorePort
}

// NewService creates a session service.
func NewService(registry *presence.Registry, relay Relay, store chatstore.StorePort) *Service {
	return &Service{
		registry: registry,
		relay:    relay,
		store:    store,
	}
}

// JoinStream subscribes a session to a stream's room and announces the new
// viewer count to the room. Joining the same stream twice is harmless.
func (s *Service) JoinStream(sessionID, streamKey string) {
	if streamKey == "" {
		return
	}

	viewers, peak := s.registry.Join(streamKey, sessionID)
	s.relay.JoinRoom(sessionID, streamKey)
	s.relay.BroadcastViewerCount(streamKey, viewers, peak)

	log.Printf("[session] %s joined stream %s (%d viewers)", sessionID, streamKey, viewers)
}

// LeaveStream unsubscribes a session from a stream's room and announces the
// updated viewer count. Leaving a stream the session never joined is a no-op
// on the count.
func (s *Service) LeaveStream(sessionID, streamKey string) {
	if streamKey == "" {
		return
	}

	viewers, peak := s.registry.Leave(streamKey, sessionID)
	s.relay.LeaveRoom(sessionID, streamKey)
	s.relay.BroadcastViewerCount(streamKey, viewers, peak)

	log.Printf("[session] %s left stream %s (%d viewers)", sessionID, streamKey, viewers)
}

// Disconnect sweeps a session out of every room it joined, announcing the
// updated viewer count per affected room. Called when the transport drops.
func (s *Service) Disconnect(sessionID string) {
	affected := s.registry.LeaveAll(sessionID)
	for _, room := range affected {
		s.relay.LeaveRoom(sessionID, room.StreamKey)
		s.relay.BroadcastViewerCount(room.StreamKey, room.Viewers, room.PeakViewers)
	}

	if len(affected) > 0 {
		log.Printf("[session] %s disconnected from %d streams", sessionID, len(affected))
	}
}

// SubmitChat validates, persists and fans out a chat message. Whitespace-only
// messages are dropped silently. A persistence failure is logged but does not
// block delivery to the room.
func (s *Service) SubmitChat(ctx context.Context, sessionID, streamKey, username, message string) {
	if strings.TrimSpace(streamKey) == "" {
		return
	}

	message = strings.TrimSpace(message)
	username = strings.TrimSpace(username)
	if message == "" || username == "" {
		return
	}
	message = truncateRunes(message, maxMessageLen)
	username = truncateRunes(username, maxUsernameLen)

	timestamp := time.Now().UnixMilli()
	messageID := fmt.Sprintf("%d-%s", timestamp, sessionID)

	if err := s.store.Save(ctx, chatstore.SaveRequest{
		MessageID: messageID,
		StreamKey: streamKey,
		Username:  username,
		Message:   message,
		Timestamp: timestamp,
	}); err != nil {
		log.Printf("[session] Failed to persist chat message %s: %v", messageID, err)
	}

	s.relay.BroadcastChatMessage(streamKey, messageID, username, message, timestamp)
}

// truncateRunes caps s at n runes without splitting a multi-byte character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
