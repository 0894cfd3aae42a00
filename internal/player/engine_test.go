package player

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func testClock() *MockClock {
	return NewMockClock(time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC))
}

// resolver serves fixed durations per URL; unknown URLs are unplayable.
func resolver(durations map[string]float64) DurationFn {
	return func(url string) (float64, error) {
		d, ok := durations[url]
		if !ok {
			return 0, fmt.Errorf("no source for %s", url)
		}
		return d, nil
	}
}

func testEngine(clock *MockClock, durations map[string]float64) (*Engine, *SimDeck, *SimDeck) {
	a := NewSimDeck(clock, resolver(durations))
	b := NewSimDeck(clock, resolver(durations))
	eng := NewEngine(a, b, clock, Options{
		PreviewSeconds: 20,
		MasterVolume:   1.0,
		TickInterval:   -1, // stepped by hand
	})
	return eng, a, b
}

func entries(n int) []Entry {
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Entry{
			TrackID:     uint(i),
			Title:       fmt.Sprintf("Track %d", i),
			Artist:      "Artist",
			URL:         fmt.Sprintf("file:///audio/%d.mp3", i),
			DurationSec: 240,
		})
	}
	return out
}

func durationsFor(list []Entry) map[string]float64 {
	m := make(map[string]float64, len(list))
	for _, e := range list {
		m[e.URL] = e.DurationSec
	}
	return m
}

func TestStartSeeksToMixableTail(t *testing.T) {
	clock := testClock()
	list := entries(2)
	eng, a, _ := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := eng.Status()
	if snap.State != StateLoaded || snap.Phase != PhaseEnding {
		t.Fatalf("state=%s phase=%s, want loaded/ending", snap.State, snap.Phase)
	}
	if got := a.Position(); got != 220 {
		t.Errorf("position = %.1f, want 220 (240 - preview 20)", got)
	}
	if got := a.Volume(); got != 1.0 {
		t.Errorf("active deck volume = %.2f, want master 1.0", got)
	}
	if snap.Track == nil || snap.Track.TrackID != 1 {
		t.Errorf("displayed track = %+v, want track 1", snap.Track)
	}
}

func TestStartRejectsEmptyAndReentry(t *testing.T) {
	clock := testClock()
	list := entries(1)
	eng, _, _ := testEngine(clock, durationsFor(list))

	if err := eng.Start(nil); err != ErrEmptySetList {
		t.Fatalf("empty start err = %v, want ErrEmptySetList", err)
	}
	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.Start(list); err != ErrAlreadyRunning {
		t.Fatalf("second start err = %v, want ErrAlreadyRunning", err)
	}
}

func TestSingleTrackPlaysToNaturalEnd(t *testing.T) {
	clock := testClock()
	list := entries(1)
	eng, _, b := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Walk the last 20 seconds out in tick-sized steps.
	for i := 0; i < 210; i++ {
		clock.Advance(100 * time.Millisecond)
		eng.Step()
	}

	snap := eng.Status()
	if snap.State != StateIdle {
		t.Fatalf("state = %s, want idle after natural end", snap.State)
	}
	if b.Duration() != 0 {
		t.Error("idle deck was loaded, single track must never crossfade")
	}
}

// crossfadeReady starts a session over list and walks it to the moment
// the ramp opens.
func crossfadeReady(t *testing.T, eng *Engine, clock *MockClock) {
	t.Helper()
	if snap := eng.Status(); snap.State != StateLoaded {
		t.Fatalf("precondition: state = %s", snap.State)
	}
	// Position 220 of 240, trigger fires at remaining <= 8.
	clock.Advance(12500 * time.Millisecond)
	eng.Step()
	if snap := eng.Status(); !snap.Crossfading {
		t.Fatalf("crossfade did not open: %+v", snap)
	}
}

func TestCrossfadeVolumesSumToMaster(t *testing.T) {
	clock := testClock()
	list := entries(2)
	eng, a, b := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	crossfadeReady(t, eng, clock)

	// Ramp runs over the outgoing deck's remaining 7.5 seconds.
	lastIncoming := -1.0
	for i := 0; i < 70; i++ {
		clock.Advance(100 * time.Millisecond)
		eng.Step()
		sum := a.Volume() + b.Volume()
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("step %d: volume sum = %.6f, want master 1.0", i, sum)
		}
		if b.Volume() < lastIncoming-1e-9 {
			t.Fatalf("step %d: incoming volume regressed %.4f -> %.4f", i, lastIncoming, b.Volume())
		}
		lastIncoming = b.Volume()
	}

	// Finish the ramp.
	clock.Advance(time.Second)
	eng.Step()

	snap := eng.Status()
	if snap.State != StateLoaded || snap.Phase != PhaseStarting {
		t.Fatalf("after ramp: state=%s phase=%s, want loaded/starting", snap.State, snap.Phase)
	}
	if snap.ActiveDeck != "B" || snap.Track.TrackID != 2 {
		t.Fatalf("after ramp: deck=%s track=%+v, want B / track 2", snap.ActiveDeck, snap.Track)
	}
	if a.Duration() != 0 {
		t.Error("outgoing deck was not unloaded")
	}
	if b.Volume() != 1.0 {
		t.Errorf("incoming deck volume = %.2f, want master", b.Volume())
	}
}

func TestDisplayedTrackFlipsPastHalfway(t *testing.T) {
	clock := testClock()
	list := entries(2)
	eng, _, _ := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	crossfadeReady(t, eng, clock)

	clock.Advance(3 * time.Second) // progress 0.4 of 7.5s
	eng.Step()
	if snap := eng.Status(); snap.Track.TrackID != 1 {
		t.Fatalf("before halfway: displayed track %d, want 1", snap.Track.TrackID)
	}

	clock.Advance(1500 * time.Millisecond) // progress 0.6
	eng.Step()
	if snap := eng.Status(); snap.Track.TrackID != 2 {
		t.Fatalf("past halfway: displayed track %d, want 2", snap.Track.TrackID)
	}
}

func TestPauseFreezesRampAndResumeContinues(t *testing.T) {
	clock := testClock()
	list := entries(2)
	eng, a, b := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	crossfadeReady(t, eng, clock)

	clock.Advance(3 * time.Second)
	eng.Step()
	snap := eng.Status()
	progressBefore := snap.FadeProgress
	volA, volB := a.Volume(), b.Volume()

	if err := eng.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	// A long pause must not move the ramp or the volumes.
	clock.Advance(30 * time.Second)
	eng.Step()
	if a.Volume() != volA || b.Volume() != volB {
		t.Fatal("volumes moved while paused")
	}

	if err := eng.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	eng.Step()
	snap = eng.Status()
	if math.Abs(snap.FadeProgress-progressBefore) > 0.01 {
		t.Fatalf("resume restarted the ramp: progress %.3f, want ~%.3f", snap.FadeProgress, progressBefore)
	}

	// And it keeps advancing from there.
	clock.Advance(time.Second)
	eng.Step()
	if got := eng.Status().FadeProgress; got <= progressBefore {
		t.Fatalf("ramp stuck after resume: %.3f", got)
	}
}

func TestSkipCancelsCrossfade(t *testing.T) {
	clock := testClock()
	list := entries(3)
	eng, a, b := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	crossfadeReady(t, eng, clock)

	clock.Advance(2 * time.Second)
	eng.Step()

	if err := eng.Skip(); err != nil {
		t.Fatalf("skip: %v", err)
	}

	snap := eng.Status()
	if snap.Crossfading {
		t.Fatal("crossfade survived a skip")
	}
	if snap.State != StateLoaded || snap.Phase != PhaseEnding {
		t.Fatalf("state=%s phase=%s, want loaded/ending", snap.State, snap.Phase)
	}
	if snap.Track.TrackID != 2 {
		t.Fatalf("displayed track %d, want 2", snap.Track.TrackID)
	}
	// Reloaded from the top, as in activation.
	if got := a.Position(); got != 220 {
		t.Errorf("position = %.1f, want tail seek 220", got)
	}
	if b.Duration() != 0 {
		t.Error("preloaded deck was not discarded")
	}
}

func TestPreviousClampsAtFirstEntry(t *testing.T) {
	clock := testClock()
	list := entries(2)
	eng, _, _ := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.Previous(); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if snap := eng.Status(); snap.Track.TrackID != 1 {
		t.Fatalf("displayed track %d, want 1", snap.Track.TrackID)
	}
}

func TestUnplayableNextIsDropped(t *testing.T) {
	clock := testClock()
	list := entries(3)
	durations := durationsFor(list)
	delete(durations, list[1].URL) // track 2 has no resolvable source
	eng, _, b := testEngine(clock, durations)

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}

	// First trigger attempt drops the broken entry without crossfading.
	clock.Advance(12500 * time.Millisecond)
	eng.Step()
	snap := eng.Status()
	if snap.Crossfading {
		t.Fatal("engine crossfaded into an unplayable entry")
	}
	if snap.QueueLength != 2 {
		t.Fatalf("queue length = %d, want 2 after drop", snap.QueueLength)
	}
	if b.Duration() != 0 {
		t.Error("broken entry left residue on the idle deck")
	}

	// Next tick mixes straight into track 3.
	clock.Advance(100 * time.Millisecond)
	eng.Step()
	if snap := eng.Status(); !snap.Crossfading {
		t.Fatalf("no crossfade into the following entry: %+v", snap)
	}
	clock.Advance(10 * time.Second)
	eng.Step()
	if snap := eng.Status(); snap.Track.TrackID != 3 {
		t.Fatalf("displayed track %d, want 3", snap.Track.TrackID)
	}
}

func TestStartSkipsUnplayableHead(t *testing.T) {
	clock := testClock()
	list := entries(2)
	durations := durationsFor(list)
	delete(durations, list[0].URL)
	eng, _, _ := testEngine(clock, durations)

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap := eng.Status(); snap.Track.TrackID != 2 {
		t.Fatalf("displayed track %d, want 2", snap.Track.TrackID)
	}
}

func TestPhaseStartingReseeksAfterPreview(t *testing.T) {
	clock := testClock()
	list := entries(2)
	eng, _, b := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	crossfadeReady(t, eng, clock)

	// Run the ramp out; deck B is now in its opening segment.
	clock.Advance(8 * time.Second)
	eng.Step()
	if snap := eng.Status(); snap.Phase != PhaseStarting {
		t.Fatalf("phase = %s, want starting", snap.Phase)
	}

	// Once the opening has played for the preview window, jump to the tail.
	for i := 0; i < 200; i++ {
		clock.Advance(100 * time.Millisecond)
		eng.Step()
	}
	snap := eng.Status()
	if snap.Phase != PhaseEnding {
		t.Fatalf("phase = %s, want ending after preview elapsed", snap.Phase)
	}
	if got := b.Position(); got < 220 || got >= 240 {
		t.Errorf("position = %.1f, want inside the tail window [220, 240)", got)
	}
}

func TestStopTearsDownBothDecks(t *testing.T) {
	clock := testClock()
	list := entries(2)
	eng, a, b := testEngine(clock, durationsFor(list))

	if err := eng.Start(list); err != nil {
		t.Fatalf("start: %v", err)
	}
	eng.Stop()

	snap := eng.Status()
	if snap.State != StateIdle {
		t.Fatalf("state = %s, want idle", snap.State)
	}
	if a.Duration() != 0 || b.Duration() != 0 {
		t.Error("decks still loaded after stop")
	}

	if err := eng.Pause(); err != ErrNotRunning {
		t.Errorf("pause after stop = %v, want ErrNotRunning", err)
	}
}

func TestEaseInOutQuad(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.5, 0}, {0, 0}, {0.25, 0.125}, {0.5, 0.5}, {0.75, 0.875}, {1, 1}, {1.5, 1},
	}
	for _, c := range cases {
		if got := easeInOutQuad(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("easeInOutQuad(%.2f) = %.4f, want %.4f", c.in, got, c.want)
		}
	}
	// Symmetry around the midpoint.
	for _, p := range []float64{0.1, 0.2, 0.3, 0.4} {
		if math.Abs(easeInOutQuad(p)+easeInOutQuad(1-p)-1) > 1e-9 {
			t.Errorf("curve not symmetric at %.1f", p)
		}
	}
}
