package presence

import (
	"sync"
	"time"
)

// Stats is a read-only snapshot of a stream's viewer statistics.
type Stats struct {
	Viewers     int       `json:"viewers"`
	PeakViewers int       `json:"peakViewers"`
	StartTime   time.Time `json:"startTime"`
}

// RoomCount reports the counts of a room affected by a LeaveAll sweep.
type RoomCount struct {
	StreamKey   string
	Viewers     int
	PeakViewers int
}

type roomStats struct {
	viewers     int
	peakViewers int
	startTime   time.Time
}

// Registry is the in-memory authority for who is watching which stream.
// A single mutex guards both maps; no operation performs I/O.
type Registry struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{} // streamKey -> set of session ids
	stats   map[string]*roomStats
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[string]map[string]struct{}),
		stats:   make(map[string]*roomStats),
	}
}

// Join adds a session to a stream's member set and returns the updated
// current and peak viewer counts. Rejoining is a no-op on the count.
// Unknown stream keys create the room lazily; Join never fails.
func (r *Registry) Join(streamKey, sessionID string) (viewers, peak int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[streamKey]
	if !ok {
		set = make(map[string]struct{})
		r.members[streamKey] = set
	}
	set[sessionID] = struct{}{}

	st, ok := r.stats[streamKey]
	if !ok {
		st = &roomStats{startTime: time.Now()}
		r.stats[streamKey] = st
	}

	st.viewers = len(set)
	if st.viewers > st.peakViewers {
		st.peakViewers = st.viewers
	}
	return st.viewers, st.peakViewers
}

// Leave removes a session from a stream's member set. Leaving a room the
// session never joined, or leaving twice, is a no-op. The member set is
// discarded once empty; the stats entry is kept so the peak viewer count
// survives an everyone-left-then-rejoined cycle.
func (r *Registry) Leave(streamKey, sessionID string) (viewers, peak int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(streamKey, sessionID)
}

func (r *Registry) leaveLocked(streamKey, sessionID string) (viewers, peak int) {
	st := r.stats[streamKey]

	set, ok := r.members[streamKey]
	if !ok {
		if st != nil {
			return 0, st.peakViewers
		}
		return 0, 0
	}

	delete(set, sessionID)
	viewers = len(set)
	if st != nil {
		st.viewers = viewers
		peak = st.peakViewers
	}
	if viewers == 0 {
		delete(r.members, streamKey)
	}
	return viewers, peak
}

// LeaveAll removes a session from every room it is a member of, returning
// one entry per affected room. Used on transport disconnect.
func (r *Registry) LeaveAll(sessionID string) []RoomCount {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []RoomCount
	for streamKey, set := range r.members {
		if _, ok := set[sessionID]; !ok {
			continue
		}
		viewers, peak := r.leaveLocked(streamKey, sessionID)
		affected = append(affected, RoomCount{
			StreamKey:   streamKey,
			Viewers:     viewers,
			PeakViewers: peak,
		})
	}
	return affected
}

// StatsFor returns a snapshot for one stream, zeroed if the stream has
// never been joined.
func (r *Registry) StatsFor(streamKey string) Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.stats[streamKey]
	if !ok {
		return Stats{}
	}
	return Stats{
		Viewers:     len(r.members[streamKey]),
		PeakViewers: st.peakViewers,
		StartTime:   st.startTime,
	}
}

// AllStats returns a snapshot of every known stream.
func (r *Registry) AllStats() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Stats, len(r.stats))
	for streamKey, st := range r.stats {
		result[streamKey] = Stats{
			Viewers:     len(r.members[streamKey]),
			PeakViewers: st.peakViewers,
			StartTime:   st.startTime,
		}
	}
	return result
}

// RoomCountTotal returns the number of streams with at least one viewer.
func (r *Registry) RoomCountTotal() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// ViewerCountTotal returns the number of room memberships across all streams.
func (r *Registry) ViewerCountTotal() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, set := range r.members {
		total += len(set)
	}
	return total
}
