package presence

import (
	"sort"
	"testing"
)

func TestRegistry_Join(t *testing.T) {
	r := NewRegistry()

	viewers, peak := r.Join("stream", "s1")
	if viewers != 1 || peak != 1 {
		t.Errorf("Join() = (%d, %d), want (1, 1)", viewers, peak)
	}

	viewers, peak = r.Join("stream", "s2")
	if viewers != 2 || peak != 2 {
		t.Errorf("Join() = (%d, %d), want (2, 2)", viewers, peak)
	}

	stats := r.StatsFor("stream")
	if stats.StartTime.IsZero() {
		t.Error("StatsFor() StartTime should be set after first join")
	}
}

func TestRegistry_JoinIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Join("stream", "s1")
	viewers, peak := r.Join("stream", "s1")

	if viewers != 1 {
		t.Errorf("rejoining session counted twice: viewers = %d, want 1", viewers)
	}
	if peak != 1 {
		t.Errorf("rejoining session inflated peak: peak = %d, want 1", peak)
	}
}

func TestRegistry_Leave(t *testing.T) {
	r := NewRegistry()
	r.Join("stream", "s1")
	r.Join("stream", "s2")

	viewers, peak := r.Leave("stream", "s1")
	if viewers != 1 || peak != 2 {
		t.Errorf("Leave() = (%d, %d), want (1, 2)", viewers, peak)
	}

	// Leaving twice is a no-op, not an error.
	viewers, peak = r.Leave("stream", "s1")
	if viewers != 1 || peak != 2 {
		t.Errorf("double Leave() = (%d, %d), want (1, 2)", viewers, peak)
	}
}

func TestRegistry_LeaveUnknownRoom(t *testing.T) {
	r := NewRegistry()

	viewers, peak := r.Leave("never-seen", "s1")
	if viewers != 0 || peak != 0 {
		t.Errorf("Leave() on unknown room = (%d, %d), want (0, 0)", viewers, peak)
	}
}

func TestRegistry_PeakSurvivesEmptyRoom(t *testing.T) {
	r := NewRegistry()

	r.Join("stream", "s1")
	r.Join("stream", "s2")
	r.Join("stream", "s3")
	r.Leave("stream", "s1")
	r.Leave("stream", "s2")

	viewers, peak := r.Leave("stream", "s3")
	if viewers != 0 {
		t.Errorf("viewers = %d, want 0 after everyone left", viewers)
	}
	if peak != 3 {
		t.Errorf("peak = %d, want 3 after room emptied", peak)
	}

	// A fresh viewer joining the same key keeps the old high-water mark.
	viewers, peak = r.Join("stream", "s4")
	if viewers != 1 || peak != 3 {
		t.Errorf("rejoin after empty = (%d, %d), want (1, 3)", viewers, peak)
	}
}

func TestRegistry_InvariantsAcrossSequence(t *testing.T) {
	r := NewRegistry()

	type op struct {
		join      bool
		sessionID string
	}
	ops := []op{
		{true, "a"}, {true, "b"}, {true, "a"}, {false, "b"},
		{true, "c"}, {true, "d"}, {false, "a"}, {false, "z"},
		{true, "e"}, {false, "c"}, {false, "d"}, {false, "e"},
	}

	lastPeak := 0
	live := make(map[string]struct{})
	for i, o := range ops {
		var viewers, peak int
		if o.join {
			viewers, peak = r.Join("k", o.sessionID)
			live[o.sessionID] = struct{}{}
		} else {
			viewers, peak = r.Leave("k", o.sessionID)
			delete(live, o.sessionID)
		}

		if viewers != len(live) {
			t.Fatalf("op %d: viewers = %d, want member-set size %d", i, viewers, len(live))
		}
		if peak < viewers {
			t.Fatalf("op %d: peak %d < viewers %d", i, peak, viewers)
		}
		if peak < lastPeak {
			t.Fatalf("op %d: peak decreased from %d to %d", i, lastPeak, peak)
		}
		lastPeak = peak
	}
}

func TestRegistry_LeaveAll(t *testing.T) {
	r := NewRegistry()
	r.Join("alpha", "s1")
	r.Join("beta", "s1")
	r.Join("beta", "s2")
	r.Join("gamma", "s2")

	affected := r.LeaveAll("s1")

	keys := make([]string, 0, len(affected))
	for _, rc := range affected {
		keys = append(keys, rc.StreamKey)
	}
	sort.Strings(keys)

	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "beta" {
		t.Fatalf("LeaveAll() affected rooms = %v, want [alpha beta]", keys)
	}

	for _, rc := range affected {
		switch rc.StreamKey {
		case "alpha":
			if rc.Viewers != 0 {
				t.Errorf("alpha viewers = %d, want 0", rc.Viewers)
			}
		case "beta":
			if rc.Viewers != 1 {
				t.Errorf("beta viewers = %d, want 1", rc.Viewers)
			}
		}
	}

	// gamma was untouched.
	if got := r.StatsFor("gamma").Viewers; got != 1 {
		t.Errorf("gamma viewers = %d, want 1", got)
	}

	// Repeating the sweep finds nothing.
	if again := r.LeaveAll("s1"); len(again) != 0 {
		t.Errorf("second LeaveAll() affected %d rooms, want 0", len(again))
	}
}

func TestRegistry_DisconnectScenario(t *testing.T) {
	r := NewRegistry()

	// A and B join; count 2, peak 2.
	r.Join("stream", "A")
	viewers, peak := r.Join("stream", "B")
	if viewers != 2 || peak != 2 {
		t.Fatalf("after A,B join = (%d, %d), want (2, 2)", viewers, peak)
	}

	// B leaves; count 1, peak stays 2.
	viewers, peak = r.Leave("stream", "B")
	if viewers != 1 || peak != 2 {
		t.Fatalf("after B leave = (%d, %d), want (1, 2)", viewers, peak)
	}

	// C joins; count back to 2, peak unchanged.
	viewers, peak = r.Join("stream", "C")
	if viewers != 2 || peak != 2 {
		t.Fatalf("after C join = (%d, %d), want (2, 2)", viewers, peak)
	}

	// A drops without an explicit leave.
	affected := r.LeaveAll("A")
	if len(affected) != 1 || affected[0].StreamKey != "stream" {
		t.Fatalf("LeaveAll(A) = %v, want one entry for stream", affected)
	}
	if affected[0].Viewers != 1 || affected[0].PeakViewers != 2 {
		t.Fatalf("after A disconnect = (%d, %d), want (1, 2)",
			affected[0].Viewers, affected[0].PeakViewers)
	}
}

func TestRegistry_StatsFor(t *testing.T) {
	r := NewRegistry()

	stats := r.StatsFor("unknown")
	if stats.Viewers != 0 || stats.PeakViewers != 0 || !stats.StartTime.IsZero() {
		t.Errorf("StatsFor(unknown) = %+v, want zeroed snapshot", stats)
	}

	r.Join("stream", "s1")
	stats = r.StatsFor("stream")
	if stats.Viewers != 1 || stats.PeakViewers != 1 {
		t.Errorf("StatsFor() = %+v, want viewers=1 peak=1", stats)
	}
}

func TestRegistry_AllStats(t *testing.T) {
	r := NewRegistry()
	r.Join("alpha", "s1")
	r.Join("beta", "s1")
	r.Join("beta", "s2")

	all := r.AllStats()
	if len(all) != 2 {
		t.Fatalf("AllStats() has %d entries, want 2", len(all))
	}
	if all["alpha"].Viewers != 1 {
		t.Errorf("alpha viewers = %d, want 1", all["alpha"].Viewers)
	}
	if all["beta"].Viewers != 2 || all["beta"].PeakViewers != 2 {
		t.Errorf("beta = %+v, want viewers=2 peak=2", all["beta"])
	}
}

func BenchmarkRegistry_JoinLeave(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Join("stream", "session")
		r.Leave("stream", "session")
	}
}
