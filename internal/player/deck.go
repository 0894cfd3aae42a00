package player

// Deck is the playback resource contract the engine drives. Two decks
// exist per engine; the engine is their exclusive owner and nothing else
// may touch volume, position or source.
//
// Position is in seconds and advances on its own while the deck plays.
// Duration is only meaningful after a successful Load.
type Deck interface {
	Load(url string) error
	Play() error
	Pause()
	Seek(seconds float64)
	Position() float64
	Duration() float64
	SetVolume(v float64)
	Unload()
}
