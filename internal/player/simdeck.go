package player

import (
	"fmt"
	"sync"
	"time"
)

// DurationFn resolves a playback URL to a track length in seconds.
// An error marks the URL unplayable.
type DurationFn func(url string) (float64, error)

// SimDeck is a clock-driven stand-in for a real audio deck. It keeps
// the full playback contract (position advances while playing, pause
// freezes it) without touching any audio backend, which is enough for
// booth dry runs and engine tests.
type SimDeck struct {
	clock    Clock
	resolve  DurationFn
	mu       sync.Mutex
	url      string
	duration float64
	volume   float64
	playing  bool
	basePos  float64
	playedAt time.Time
}

func NewSimDeck(clock Clock, resolve DurationFn) *SimDeck {
	return &SimDeck{clock: clock, resolve: resolve}
}

func (d *SimDeck) Load(url string) error {
	dur, err := d.resolve(url)
	if err != nil {
		return fmt.Errorf("simdeck: %w", err)
	}
	d.mu.Lock()
	d.url = url
	d.duration = dur
	d.basePos = 0
	d.playing = false
	d.mu.Unlock()
	return nil
}

func (d *SimDeck) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.url == "" {
		return fmt.Errorf("simdeck: nothing loaded")
	}
	if !d.playing {
		d.playing = true
		d.playedAt = d.clock.Now()
	}
	return nil
}

func (d *SimDeck) Pause() {
	d.mu.Lock()
	if d.playing {
		d.basePos = d.positionLocked()
		d.playing = false
	}
	d.mu.Unlock()
}

func (d *SimDeck) Seek(seconds float64) {
	d.mu.Lock()
	d.basePos = seconds
	if d.playing {
		d.playedAt = d.clock.Now()
	}
	d.mu.Unlock()
}

func (d *SimDeck) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionLocked()
}

// positionLocked clamps to the track length; a simulated deck never
// plays past its end.
func (d *SimDeck) positionLocked() float64 {
	pos := d.basePos
	if d.playing {
		pos += d.clock.Now().Sub(d.playedAt).Seconds()
	}
	if pos > d.duration {
		pos = d.duration
	}
	return pos
}

func (d *SimDeck) Duration() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duration
}

func (d *SimDeck) SetVolume(v float64) {
	d.mu.Lock()
	d.volume = v
	d.mu.Unlock()
}

func (d *SimDeck) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

func (d *SimDeck) Unload() {
	d.mu.Lock()
	d.url = ""
	d.duration = 0
	d.basePos = 0
	d.playing = false
	d.mu.Unlock()
}
