package api

import (
	"strings"
	"testing"

	"github.com/example/livestream-chat-demo/modules/chatstore"
)

func TestParseHistoryOptions(t *testing.T) {
	tests := []struct {
		name                           string
		limit, offset, start, end      string
		want                           chatstore.HistoryOptions
	}{
		{
			name: "all empty",
			want: chatstore.HistoryOptions{},
		},
		{
			name:  "valid values",
			limit: "50", offset: "10", start: "1700000000000", end: "1700000100000",
			want: chatstore.HistoryOptions{
				Limit:     50,
				Offset:    10,
				StartDate: 1700000000000,
				EndDate:   1700000100000,
			},
		},
		{
			name:  "limit above cap ignored",
			limit: "5000",
			want:  chatstore.HistoryOptions{},
		},
		{
			name:  "non-numeric ignored",
			limit: "abc", offset: "x", start: "soon", end: "later",
			want: chatstore.HistoryOptions{},
		},
		{
			name:  "negative values ignored",
			limit: "-5", offset: "-1", start: "-100", end: "-100",
			want: chatstore.HistoryOptions{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseHistoryOptions(tt.limit, tt.offset, tt.start, tt.end)
			if got != tt.want {
				t.Errorf("parseHistoryOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatTranscript(t *testing.T) {
	messages := []*chatstore.ChatMessage{
		{Username: "alice", Message: "hello", Timestamp: 1700000000000},
		{Username: "bob", Message: "hi there", Timestamp: 1700000001000},
	}

	transcript := formatTranscript("stream1", messages)

	if !strings.Contains(transcript, "Chat transcript - stream1") {
		t.Error("transcript missing header")
	}
	if !strings.Contains(transcript, "Messages: 2") {
		t.Error("transcript missing message count")
	}
	if !strings.Contains(transcript, "alice: hello") {
		t.Error("transcript missing first message")
	}
	if !strings.Contains(transcript, "bob: hi there") {
		t.Error("transcript missing second message")
	}

	aliceIdx := strings.Index(transcript, "alice")
	bobIdx := strings.Index(transcript, "bob")
	if aliceIdx > bobIdx {
		t.Error("transcript messages out of order")
	}
}

func TestFormatTranscriptEmpty(t *testing.T) {
	transcript := formatTranscript("stream1", nil)

	if !strings.Contains(transcript, "Messages: 0") {
		t.Errorf("empty transcript = %q, want message count 0", transcript)
	}
}
