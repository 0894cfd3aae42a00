// Package curator asks the generative planner to sequence a full set from
// the candidate pool, then validates the response into something the player
// can trust: in-pool track IDs only, no duplicates, never empty.
package curator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"mixbooth/internal/dj"
	"mixbooth/internal/llm"
	"mixbooth/internal/models"
)

var (
	// ErrPlannerParse means the planner text contained no balanced JSON object.
	ErrPlannerParse = errors.New("curator: planner response contains no parseable JSON object")

	// ErrEmptySet means every returned track ID was invalid or duplicate.
	ErrEmptySet = errors.New("curator: planner returned no usable tracks")
)

// SetEntry is one slot in the planned set.
type SetEntry struct {
	TrackID uint   `json:"trackId"`
	Note    string `json:"note"`
}

// SetResult is the validated planner output.
type SetResult struct {
	SetList []SetEntry `json:"setList"`
	DJNotes string     `json:"djNotes"`

	// ReportedDurationSec is whatever the planner claims; ActualDurationSec
	// is re-summed from the catalog and is the one to trust.
	ReportedDurationSec int     `json:"totalDurationSec"`
	ActualDurationSec   float64 `json:"actualDurationSec"`
}

// Curator drives one planner round trip. Stateless between calls: a curation
// either returns a validated result or an error, nothing partial.
type Curator struct {
	planner llm.Chatter
	model   string
}

func New(planner llm.Chatter, model string) *Curator {
	return &Curator{planner: planner, model: model}
}

// Curate sends the candidate pool plus constraint brief to the planner and
// validates the response. No automatic retries: retry policy belongs to the
// caller.
func (c *Curator) Curate(ctx context.Context, pool []models.Track, params dj.SetupParams) (*SetResult, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("curator: empty candidate pool")
	}

	user := buildBrief(params, len(pool)) + serializePool(pool)

	raw, err := c.planner.Chat(ctx, c.model, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("curator: planner call failed: %w", err)
	}

	return validate(raw, pool, params)
}

// validate parses and sanitizes one raw planner response against the pool.
func validate(raw string, pool []models.Track, params dj.SetupParams) (*SetResult, error) {
	payload, ok := extractJSONObject(raw)
	if !ok {
		return nil, ErrPlannerParse
	}

	var result SetResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlannerParse, err)
	}

	byID := make(map[uint]models.Track, len(pool))
	for _, t := range pool {
		byID[t.ID] = t
	}

	seen := make(map[uint]bool)
	var clean []SetEntry
	var actual float64
	dropped := 0

	for _, entry := range result.SetList {
		track, inPool := byID[entry.TrackID]
		if !inPool || seen[entry.TrackID] {
			dropped++
			continue
		}
		seen[entry.TrackID] = true
		clean = append(clean, entry)
		actual += track.DurationSec
	}

	if dropped > 0 {
		log.Printf("⚠️ Curation dropped %d invalid/duplicate track IDs", dropped)
	}
	if len(clean) == 0 {
		return nil, ErrEmptySet
	}

	result.SetList = clean
	result.ActualDurationSec = actual

	// The planner self-reports its duration; we re-sum the real track
	// lengths and warn (but do not fail) when the set misses the window.
	target := float64(params.DurationMinutes) * 60
	if math.Abs(actual-target) > 5*60 {
		log.Printf("⚠️ Planned set is %.0f min, target was %d min (±5)", actual/60, params.DurationMinutes)
	}

	return &result, nil
}
