// Package player drives two playback decks through a set list with
// eased crossfades. The engine is an explicit state machine advanced by
// a fixed 100ms tick; every side effect on a deck happens inside a
// named transition, so the ramp math is testable against fake decks.
package player

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics
var (
	tracksPlayed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "booth_tracks_played_total", Help: "Set entries that reached the decks"},
	)
	crossfadesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "booth_crossfades_total", Help: "Completed crossfades"},
	)
	crossfadeSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booth_crossfade_seconds",
			Help:    "Ramp duration of completed crossfades",
			Buckets: []float64{1, 2, 4, 8, 12, 20},
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(tracksPlayed, crossfadesTotal, crossfadeSeconds)
}

type State string

const (
	StateIdle        State = "idle"
	StateLoaded      State = "loaded"
	StateCrossfading State = "crossfading"
)

type Phase string

const (
	PhaseStarting Phase = "starting"
	PhaseEnding   Phase = "ending"
)

// The tail mix never runs longer than this, however wide the preview
// window is.
const maxCrossfadeSeconds = 8.0

var (
	ErrEmptySetList   = errors.New("player: set list is empty")
	ErrAlreadyRunning = errors.New("player: a session is already running")
	ErrNotRunning     = errors.New("player: no session is running")
)

// Entry is one resolved set-list slot: a playable URL plus the display
// metadata the transport surface reports.
type Entry struct {
	TrackID     uint    `json:"track_id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	URL         string  `json:"-"`
	DurationSec float64 `json:"duration_sec"`
}

// Options tune one engine instance. Zero values fall back to the
// defaults below. A negative TickInterval disables the background loop
// so the machine can be stepped by hand.
type Options struct {
	PreviewSeconds float64
	MasterVolume   float64
	TickInterval   time.Duration
}

func (o *Options) fill() {
	if o.PreviewSeconds <= 0 {
		o.PreviewSeconds = 20
	}
	if o.MasterVolume <= 0 || o.MasterVolume > 1 {
		o.MasterVolume = 1.0
	}
	if o.TickInterval == 0 {
		o.TickInterval = 100 * time.Millisecond
	}
}

// Engine owns both decks. All fields below mu are guarded by it; the
// tick loop and the transport methods contend on the same lock, which
// is how transport commands win over a ramp in progress.
type Engine struct {
	clock Clock
	opts  Options

	mu     sync.Mutex
	decks  [2]Deck
	active int
	queue  []Entry
	cursor int

	state  State
	phase  Phase
	paused bool

	fadeStart    time.Time
	fadeDuration float64
	fadeProgress float64
	pausedAt     time.Time

	stopLoop chan struct{}
}

// Snapshot is the transport surface's read-only view. During a
// crossfade the displayed track and position flip to the incoming deck
// once the ramp is past halfway.
type Snapshot struct {
	State        State   `json:"state"`
	Phase        Phase   `json:"phase,omitempty"`
	Paused       bool    `json:"paused"`
	Crossfading  bool    `json:"crossfading"`
	FadeProgress float64 `json:"fade_progress,omitempty"`
	ActiveDeck   string  `json:"active_deck,omitempty"`
	Track        *Entry  `json:"track,omitempty"`
	PositionSec  float64 `json:"position_sec"`
	DurationSec  float64 `json:"duration_sec"`
	QueueIndex   int     `json:"queue_index"`
	QueueLength  int     `json:"queue_length"`
}

func NewEngine(a, b Deck, clock Clock, opts Options) *Engine {
	opts.fill()
	return &Engine{
		clock: clock,
		opts:  opts,
		decks: [2]Deck{a, b},
		state: StateIdle,
	}
}

// Start activates a new session over the given set list. The first
// playable entry lands on deck A, seeked to its mixable tail.
func (e *Engine) Start(entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptySetList
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return ErrAlreadyRunning
	}

	e.queue = append([]Entry(nil), entries...)
	e.cursor = 0
	e.active = 0
	e.paused = false

	if !e.activateCurrent() {
		e.teardown()
		return fmt.Errorf("player: no playable entry in set list")
	}

	if e.opts.TickInterval > 0 {
		e.stopLoop = make(chan struct{})
		go e.loop(e.stopLoop)
	}
	return nil
}

// Step advances the machine by one tick. Only meaningful when the
// background loop is disabled.
func (e *Engine) Step() {
	e.mu.Lock()
	e.tick()
	e.mu.Unlock()
}

func (e *Engine) loop(stop chan struct{}) {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			e.tick()
			e.mu.Unlock()
		}
	}
}

// activateCurrent loads queue[cursor] onto the active deck, seeks to
// the tail preview point and starts playback. Unplayable entries are
// consumed and skipped until one loads or the queue runs out. Caller
// holds the lock; returns false when nothing was playable.
func (e *Engine) activateCurrent() bool {
	for e.cursor < len(e.queue) {
		entry := e.queue[e.cursor]
		deck := e.decks[e.active]

		if err := deck.Load(entry.URL); err != nil {
			log.Printf("⚠️ Deck load failed for %q, skipping: %v", entry.Title, err)
			e.cursor++
			continue
		}

		deck.Seek(tailSeek(deck.Duration(), e.opts.PreviewSeconds))
		deck.SetVolume(e.opts.MasterVolume)

		if err := deck.Play(); err != nil {
			log.Printf("⚠️ Deck play failed for %q, skipping: %v", entry.Title, err)
			deck.Unload()
			e.cursor++
			continue
		}

		e.state = StateLoaded
		e.phase = PhaseEnding
		tracksPlayed.Inc()
		log.Printf("▶️  Deck %s: %s — %s", deckName(e.active), entry.Artist, entry.Title)
		return true
	}
	return false
}

func tailSeek(duration, preview float64) float64 {
	at := duration - preview
	if at < 0 {
		return 0
	}
	return at
}

// tick advances the state machine one step. Caller holds the lock.
func (e *Engine) tick() {
	if e.state == StateIdle || e.paused {
		return
	}

	if e.state == StateCrossfading {
		e.advanceRamp()
		return
	}

	deck := e.decks[e.active]
	pos := deck.Position()
	dur := deck.Duration()

	switch e.phase {
	case PhaseStarting:
		// Opening segment heard; jump to the mixable tail.
		if pos >= e.opts.PreviewSeconds {
			deck.Seek(tailSeek(dur, e.opts.PreviewSeconds))
			e.phase = PhaseEnding
		}

	case PhaseEnding:
		remaining := dur - pos
		trigger := e.opts.PreviewSeconds
		if trigger > maxCrossfadeSeconds {
			trigger = maxCrossfadeSeconds
		}
		if remaining > trigger {
			return
		}
		if e.cursor+1 < len(e.queue) {
			e.beginCrossfade(remaining)
		} else if remaining <= 0 {
			// Last entry played out; session over.
			log.Println("🏁 Set list exhausted")
			e.teardown()
		}
	}
}

// beginCrossfade preloads the next entry on the idle deck at volume
// zero and opens a wall-clock ramp over the outgoing deck's remaining
// time. An entry whose URL refuses to load is dropped from the queue
// without ever entering the starting phase.
func (e *Engine) beginCrossfade(remaining float64) {
	next := e.queue[e.cursor+1]
	idle := e.decks[1-e.active]

	if err := idle.Load(next.URL); err != nil {
		log.Printf("⚠️ Preload failed for %q, dropping from set: %v", next.Title, err)
		e.queue = append(e.queue[:e.cursor+1], e.queue[e.cursor+2:]...)
		return
	}

	idle.SetVolume(0)
	if err := idle.Play(); err != nil {
		log.Printf("⚠️ Preloaded deck would not play %q, dropping from set: %v", next.Title, err)
		idle.Unload()
		e.queue = append(e.queue[:e.cursor+1], e.queue[e.cursor+2:]...)
		return
	}

	if remaining < 0.1 {
		remaining = 0.1
	}
	e.fadeStart = e.clock.Now()
	e.fadeDuration = remaining
	e.fadeProgress = 0
	e.state = StateCrossfading
	log.Printf("🎚️ Crossfading into %s — %s over %.1fs", next.Artist, next.Title, remaining)
}

// advanceRamp recomputes the eased ramp from wall-clock elapsed time.
// Volume on the two decks always sums to the master volume. Caller
// holds the lock.
func (e *Engine) advanceRamp() {
	elapsed := e.clock.Now().Sub(e.fadeStart).Seconds()
	progress := elapsed / e.fadeDuration
	if progress > 1 {
		progress = 1
	}
	e.fadeProgress = progress

	curve := easeInOutQuad(progress)
	outgoing := e.decks[e.active]
	incoming := e.decks[1-e.active]
	outgoing.SetVolume(e.opts.MasterVolume * (1 - curve))
	incoming.SetVolume(e.opts.MasterVolume * curve)

	if progress >= 1 {
		outgoing.Pause()
		outgoing.Unload()
		e.active = 1 - e.active
		e.cursor++
		e.state = StateLoaded
		e.phase = PhaseStarting
		crossfadesTotal.Inc()
		crossfadeSeconds.Observe(e.fadeDuration)
		tracksPlayed.Inc()
		entry := e.queue[e.cursor]
		log.Printf("▶️  Deck %s: %s — %s", deckName(e.active), entry.Artist, entry.Title)
	}
}

// cancelCrossfade discards the preloaded deck and restores the active
// deck to full volume. Caller holds the lock.
func (e *Engine) cancelCrossfade() {
	if e.state != StateCrossfading {
		return
	}
	incoming := e.decks[1-e.active]
	incoming.Pause()
	incoming.Unload()
	e.decks[e.active].SetVolume(e.opts.MasterVolume)
	e.state = StateLoaded
	e.phase = PhaseEnding
	e.fadeProgress = 0
}

// Pause freezes everything in place: both decks stop, and if a ramp is
// live its progress is held where it is.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return ErrNotRunning
	}
	if e.paused {
		return nil
	}
	e.paused = true
	e.pausedAt = e.clock.Now()
	e.decks[e.active].Pause()
	if e.state == StateCrossfading {
		e.decks[1-e.active].Pause()
	}
	return nil
}

// Resume continues from the frozen state. A paused ramp picks up at its
// held progress by shifting its start time, never by replaying.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return ErrNotRunning
	}
	if !e.paused {
		return nil
	}
	if e.state == StateCrossfading {
		e.fadeStart = e.fadeStart.Add(e.clock.Now().Sub(e.pausedAt))
		if err := e.decks[1-e.active].Play(); err != nil {
			log.Printf("⚠️ Incoming deck would not resume: %v", err)
		}
	}
	if err := e.decks[e.active].Play(); err != nil {
		return fmt.Errorf("player: resume: %w", err)
	}
	e.paused = false
	return nil
}

// Skip cancels any in-flight crossfade and reloads the next entry from
// the top, exactly like activation.
func (e *Engine) Skip() error {
	return e.jump(+1)
}

// Previous is Skip's mirror; at the first entry it restarts it.
func (e *Engine) Previous() error {
	return e.jump(-1)
}

func (e *Engine) jump(delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return ErrNotRunning
	}

	e.cancelCrossfade()
	e.decks[e.active].Pause()
	e.decks[e.active].Unload()

	target := e.cursor + delta
	if target < 0 {
		target = 0
	}
	if target >= len(e.queue) {
		log.Println("🏁 Skipped past the last entry")
		e.teardown()
		return nil
	}

	e.cursor = target
	e.paused = false
	if !e.activateCurrent() {
		e.teardown()
		return fmt.Errorf("player: no playable entry after skip")
	}
	return nil
}

// Stop tears the session down: both decks unloaded, state back to idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return
	}
	e.teardown()
}

// teardown releases both decks and resets to the initial state. Caller
// holds the lock.
func (e *Engine) teardown() {
	for _, d := range e.decks {
		d.Pause()
		d.Unload()
	}
	if e.stopLoop != nil {
		close(e.stopLoop)
		e.stopLoop = nil
	}
	e.state = StateIdle
	e.phase = ""
	e.paused = false
	e.queue = nil
	e.cursor = 0
	e.active = 0
	e.fadeProgress = 0
}

// Status reports the displayed view of the session. Past the halfway
// point of a ramp the incoming deck carries the visible track and
// position.
func (e *Engine) Status() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		State:       e.state,
		Phase:       e.phase,
		Paused:      e.paused,
		QueueIndex:  e.cursor,
		QueueLength: len(e.queue),
	}
	if e.state == StateIdle {
		return snap
	}

	displayDeck := e.active
	displayCursor := e.cursor
	if e.state == StateCrossfading {
		snap.Crossfading = true
		snap.FadeProgress = e.fadeProgress
		if e.fadeProgress > 0.5 {
			displayDeck = 1 - e.active
			displayCursor = e.cursor + 1
		}
	}

	snap.ActiveDeck = deckName(displayDeck)
	entry := e.queue[displayCursor]
	snap.Track = &entry
	snap.PositionSec = e.decks[displayDeck].Position()
	snap.DurationSec = e.decks[displayDeck].Duration()
	return snap
}

func deckName(i int) string {
	if i == 0 {
		return "A"
	}
	return "B"
}
