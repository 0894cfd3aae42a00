package models

import "gorm.io/gorm"

// AudioFeature holds the estimated audio characteristics for one track.
// There is at most ONE row per track (uniqueIndex on TrackID). Rows are
// written once by the estimator and never updated afterwards.
type AudioFeature struct {
	gorm.Model

	TrackID uint `gorm:"uniqueIndex;not null" json:"track_id"`

	// Acoustic (nil = the estimator could not tell)
	BPM          *float64 `json:"bpm"`
	Energy       *float64 `json:"energy"`       // 0.0 to 1.0
	Danceability *float64 `json:"danceability"` // 0.0 to 1.0

	// Harmonic
	MusicalKey string `gorm:"size:20" json:"musical_key"` // e.g. "F# minor"
	Camelot    string `gorm:"size:4" json:"camelot"`      // e.g. "11A", "" when key unknown

	// Descriptive
	GenreRefined string `gorm:"index" json:"genre_refined"`
	StyleTags    string `json:"style_tags"` // Stored as CSV: "deep,dubby,hypnotic"

	// Provenance
	AnalysisMethod string  `gorm:"size:30;default:'llm_estimate'" json:"analysis_method"`
	Confidence     float64 `json:"confidence"` // 0.0 to 1.0
}
