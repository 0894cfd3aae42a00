package player

import (
	"fmt"
	"sync"
)

// DurationBook backs simulated decks with track lengths the catalog
// already knows. A real audio deck reads duration from the media
// itself; a SimDeck resolves it here instead.
type DurationBook struct {
	mu sync.RWMutex
	m  map[string]float64
}

func NewDurationBook() *DurationBook {
	return &DurationBook{m: make(map[string]float64)}
}

func (b *DurationBook) Set(url string, seconds float64) {
	b.mu.Lock()
	b.m[url] = seconds
	b.mu.Unlock()
}

// Resolve satisfies DurationFn.
func (b *DurationBook) Resolve(url string) (float64, error) {
	b.mu.RLock()
	d, ok := b.m[url]
	b.mu.RUnlock()
	if !ok || d <= 0 {
		return 0, fmt.Errorf("no known duration for %s", url)
	}
	return d, nil
}
