package mediaprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Prober queries the media server's stream listing endpoint.
type Prober struct {
	baseURL string
	client  *http.Client
}

// NewProber creates a prober for the given media server base URL.
func NewProber(baseURL string) *Prober {
	return &Prober{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// streamsResponse mirrors the media server's /api/streams payload. Only the
// set of live stream keys matters here.
type streamsResponse struct {
	Live map[string]json.RawMessage `json:"live"`
}

// FetchLiveStreams returns the set of stream keys currently publishing.
func (p *Prober) FetchLiveStreams(ctx context.Context) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/streams", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build streams request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query media server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media server returned status %d", resp.StatusCode)
	}

	var payload streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode streams response: %w", err)
	}

	live := make(map[string]struct{}, len(payload.Live))
	for streamKey := range payload.Live {
		live[streamKey] = struct{}{}
	}
	return live, nil
}

// diffLive compares two live sets and returns which streams appeared and
// which disappeared.
func diffLive(prev, curr map[string]struct{}) (started, ended []string) {
	for streamKey := range curr {
		if _, ok := prev[streamKey]; !ok {
			started = append(started, streamKey)
		}
	}
	for streamKey := range prev {
		if _, ok := curr[streamKey]; !ok {
			ended = append(ended, streamKey)
		}
	}
	return started, ended
}
