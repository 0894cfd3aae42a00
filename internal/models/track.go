package models

import (
	"strings"

	"gorm.io/gorm"
)

// Track represents one song in the personal catalog.
// The library scanner owns these rows; the DJ subsystem only reads them.
type Track struct {
	gorm.Model

	// Core Metadata
	Key    string `gorm:"uniqueIndex;not null"` // Storage object key (music/...)
	Title  string `gorm:"index"`
	Artist string `gorm:"index"`
	Album  string
	Genre  string `gorm:"index"`
	Year   int

	// Tech Details
	DurationSec float64 // In seconds (filled by the scanner)

	// Listening Signals
	PlayCount int  `gorm:"default:0"`
	Rating    *int // 1-5, nil when the user never rated it

	// Estimated audio characteristics (nil until the estimator ran)
	Features *AudioFeature `gorm:"foreignKey:TrackID"`
}

// BPM returns the estimated tempo, or 0 when unknown.
func (t *Track) BPM() float64 {
	if t.Features == nil || t.Features.BPM == nil {
		return 0
	}
	return *t.Features.BPM
}

// Energy returns the estimated energy in [0,1] and whether it is known.
func (t *Track) Energy() (float64, bool) {
	if t.Features == nil || t.Features.Energy == nil {
		return 0, false
	}
	return *t.Features.Energy, true
}

// Danceability returns the estimated danceability in [0,1] and whether it is known.
func (t *Track) Danceability() (float64, bool) {
	if t.Features == nil || t.Features.Danceability == nil {
		return 0, false
	}
	return *t.Features.Danceability, true
}

// EffectiveGenre prefers the estimator's refined genre over the raw tag.
func (t *Track) EffectiveGenre() string {
	if t.Features != nil && t.Features.GenreRefined != "" {
		return t.Features.GenreRefined
	}
	return t.Genre
}

// SearchBlob builds the lowercase haystack used for free-text request matching.
func (t *Track) SearchBlob() string {
	parts := []string{t.Genre, t.Title, t.Artist, t.Album}
	if t.Features != nil {
		parts = append(parts, t.Features.GenreRefined, t.Features.StyleTags)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
