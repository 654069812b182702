package broadcast

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestHub_RoomMembership(t *testing.T) {
	h := NewHub()

	h.JoinRoom("c1", "room")
	h.JoinRoom("c2", "room")
	if got := h.RoomClientCount("room"); got != 2 {
		t.Errorf("RoomClientCount = %d, want 2", got)
	}

	// Joining twice is a no-op.
	h.JoinRoom("c1", "room")
	if got := h.RoomClientCount("room"); got != 2 {
		t.Errorf("RoomClientCount after duplicate join = %d, want 2", got)
	}

	h.LeaveRoom("c1", "room")
	if got := h.RoomClientCount("room"); got != 1 {
		t.Errorf("RoomClientCount after leave = %d, want 1", got)
	}

	// Emptying the room drops it.
	h.LeaveRoom("c2", "room")
	if got := h.RoomCount(); got != 0 {
		t.Errorf("RoomCount = %d, want 0 after last member left", got)
	}
}

func TestHub_LeaveRoomUnknown(t *testing.T) {
	h := NewHub()

	// Leaving a room that was never joined must not panic or create state.
	h.LeaveRoom("c1", "nowhere")
	if got := h.RoomCount(); got != 0 {
		t.Errorf("RoomCount = %d, want 0", got)
	}
}

func TestHub_JoinRoomImmediatelyAfterRegister(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		h.Wait()
	})

	// A session subscribes right after Register returns, while the
	// registration may still be in flight on the channel. Membership must
	// never be dropped.
	const n = 200
	clients := make([]*Client, 0, n)
	for i := 0; i < n; i++ {
		client := &Client{ID: fmt.Sprintf("c%d", i)}
		h.Register(client)
		h.JoinRoom(client.ID, "room")
		clients = append(clients, client)
	}

	if got := h.RoomClientCount("room"); got != n {
		t.Errorf("RoomClientCount = %d, want %d (joins dropped)", got, n)
	}

	for _, client := range clients {
		h.Unregister(client)
	}

	// Unregister returns at channel handoff; give the run loop a moment to
	// finish the final sweep before shutdown closes connections.
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 0 || h.RoomCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("cleanup incomplete: %d clients, %d rooms",
				h.ClientCount(), h.RoomCount())
		}
		time.Sleep(time.Millisecond)
	}
}
