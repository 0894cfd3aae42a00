package dj

import (
	"log"
	"math"
	"sort"

	"mixbooth/internal/models"
)

const (
	// PoolLimit bounds the candidate pool handed to the planner.
	PoolLimit = 1500

	// minFilteredPool is the survivor count below which the hard filter is
	// considered too strict and the full catalog is used instead.
	minFilteredPool = 100

	// minTrackSeconds excludes unmixable fragments (skits, interludes).
	minTrackSeconds = 60.0

	// Filter widening window applied when a free-text request is present,
	// so tempo never blocks an explicit wish.
	wideBPMMin = 60.0
	wideBPMMax = 160.0
)

// requestBoost is the flat score bonus for tracks matching the free-text
// request. Heuristic constant, tune freely.
var requestBoost = 25.0

// ScoredCandidate pairs a track with its fit score. Only used inside Select.
type ScoredCandidate struct {
	Track models.Track
	Score float64
}

// Select narrows the catalog into a mix-compatible candidate pool for the
// planner: hard filter first, then score survivors and keep the top slice.
func Select(catalog []models.Track, params SetupParams) []models.Track {
	profile := ResolveProfile(params.Vibe, params.Occasion)
	keywords := requestKeywords(params.SpecialRequests)

	// Free-text requests widen the FILTER window only; scoring still pulls
	// towards the vibe's ideal tempo.
	filterMin, filterMax := profile.BPMMin, profile.BPMMax
	if len(keywords) > 0 {
		filterMin = math.Min(filterMin, wideBPMMin)
		filterMax = math.Max(filterMax, wideBPMMax)
	}

	var survivors []models.Track
	var playable []models.Track // everything except sub-minute fragments
	for _, t := range catalog {
		if t.DurationSec < minTrackSeconds {
			continue
		}
		playable = append(playable, t)
		if passesHardFilter(t, params.Vibe, profile, filterMin, filterMax) {
			survivors = append(survivors, t)
		}
	}

	// A starved planner makes a bad DJ: if the filter is too strict for this
	// catalog, hand over everything playable instead.
	if len(survivors) < minFilteredPool {
		log.Printf("⚠️ Hard filter left %d tracks (<%d). Falling back to full catalog.", len(survivors), minFilteredPool)
		survivors = playable
	}

	scored := make([]ScoredCandidate, len(survivors))
	for i, t := range survivors {
		scored[i] = ScoredCandidate{Track: t, Score: scoreTrack(t, params.Vibe, profile, keywords)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	limit := len(scored)
	if limit > PoolLimit {
		limit = PoolLimit
	}

	pool := make([]models.Track, limit)
	for i := 0; i < limit; i++ {
		pool[i] = scored[i].Track
	}
	return pool
}

// passesHardFilter excludes physically unmixable tracks. Unknown values pass:
// only a KNOWN bad BPM or energy disqualifies a track.
func passesHardFilter(t models.Track, vibe Vibe, profile VibeProfile, bpmMin, bpmMax float64) bool {
	// BPM window, with half/double-tempo equivalence: a DJ happily mixes a
	// 70 BPM feel against a 140 BPM track at half-time.
	if bpm := t.BPM(); bpm > 0 {
		if !inRange(bpm, bpmMin, bpmMax) &&
			!inRange(bpm/2, bpmMin, bpmMax) &&
			!inRange(bpm*2, bpmMin, bpmMax) {
			return false
		}
	}

	if energy, known := t.Energy(); known {
		switch vibe {
		case VibeWorkout, VibeHighEnergy:
			if energy < profile.EnergyMin {
				return false
			}
		case VibeChill:
			// Small buffer: a 0.55-energy track is fine for a 0.5 ceiling
			if energy > profile.EnergyMax+0.1 {
				return false
			}
		}
	}

	return true
}

// scoreTrack sums independent fit terms, floored at zero.
func scoreTrack(t models.Track, vibe Vibe, profile VibeProfile, keywords []string) float64 {
	score := bpmScore(t.BPM(), profile.BPMIdeal)
	score += energyScore(t, profile)
	score += genreScore(t, vibe)
	score += danceabilityScore(t, vibe)
	score += popularityScore(t)

	if len(keywords) > 0 && keywordMatches(keywords, t.SearchBlob()) {
		score += requestBoost
	}

	if score < 0 {
		return 0
	}
	return score
}

// bpmScore: 0-40 points, fading by 0.8 per BPM away from the ideal.
func bpmScore(bpm, ideal float64) float64 {
	if bpm <= 0 {
		return 10 // unknown tempo: neutral-ish, never dominant
	}
	return math.Max(0, 40-0.8*math.Abs(bpm-ideal))
}

// energyScore: 0-20 points. Full marks inside the band, fading fast outside.
func energyScore(t models.Track, profile VibeProfile) float64 {
	energy, known := t.Energy()
	if !known {
		return 8
	}
	if energy >= profile.EnergyMin && energy <= profile.EnergyMax {
		return 20
	}
	var dist float64
	if energy < profile.EnergyMin {
		dist = profile.EnergyMin - energy
	} else {
		dist = energy - profile.EnergyMax
	}
	return math.Max(0, 10-25*dist)
}

// genreScore: +15 for a vibe-affine genre, -15 for a clashing one.
func genreScore(t models.Track, vibe Vibe) float64 {
	rules, ok := genreAffinity[vibe]
	if !ok {
		return 0
	}
	genre := t.EffectiveGenre()
	if genre == "" {
		return 0
	}
	if rules.boost.MatchString(genre) {
		return 15
	}
	if rules.penalty.MatchString(genre) {
		return -15
	}
	return 0
}

// danceabilityScore: 0-10 points, direction depends on the vibe.
func danceabilityScore(t models.Track, vibe Vibe) float64 {
	dance, known := t.Danceability()
	if !known {
		return 5
	}
	switch vibe {
	case VibeDance, VibeHighEnergy, VibeWorkout:
		return 10 * dance
	case VibeChill:
		return 10 * (1 - dance)
	default:
		return 5
	}
}

// popularityScore: up to 10 points from the user's rating plus up to 5 from
// play count (log-scaled so heavy rotation doesn't drown everything else).
func popularityScore(t models.Track) float64 {
	score := 0.0
	if t.Rating != nil {
		score += 2 * float64(*t.Rating)
	}
	score += math.Min(5, math.Log2(float64(t.PlayCount)+1))
	return score
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
