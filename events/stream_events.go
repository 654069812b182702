// Package events holds the cross-module event contracts.
package events

import (
	"github.com/go-monolith/mono/pkg/helper"
)

// StreamLifecycleEvent describes a stream going live or ending on the
// media server.
type StreamLifecycleEvent struct {
	StreamKey string `json:"streamKey"`
	Timestamp int64  `json:"timestamp"`
}

// StreamStartedV1 is published when the media server reports a new live stream.
// Subject: events.mediaprobe.v1.stream-started
var StreamStartedV1 = helper.EventDefinition[StreamLifecycleEvent](
	"mediaprobe", "StreamStarted", "v1",
)

// StreamEndedV1 is published when a live stream disappears from the media server.
// Subject: events.mediaprobe.v1.stream-ended
var StreamEndedV1 = helper.EventDefinition[StreamLifecycleEvent](
	"mediaprobe", "StreamEnded", "v1",
)
