package dj

import (
	"fmt"
	"strings"
)

// Vibe is the coarse mood/tempo category anchoring filter and scoring.
type Vibe string

const (
	VibeChill      Vibe = "chill"
	VibeMixed      Vibe = "mixed"
	VibeDance      Vibe = "dance"
	VibeHighEnergy Vibe = "high_energy"
	VibeWorkout    Vibe = "workout"
)

// Occasion describes the kind of event the set is for.
type Occasion string

const (
	OccasionHouseParty Occasion = "house_party"
	OccasionDinner     Occasion = "dinner"
	OccasionBBQ        Occasion = "bbq"
	OccasionWorkout    Occasion = "workout"
	OccasionLateNight  Occasion = "late_night"
	OccasionChillHang  Occasion = "chill_hang"
)

// SetupParams captures what the host asked for. Ephemeral: built per request,
// never persisted by this subsystem.
type SetupParams struct {
	Audience        []string `json:"audience"`
	Vibe            Vibe     `json:"vibe" binding:"required"`
	DurationMinutes int      `json:"duration_minutes" binding:"required"`
	Occasion        Occasion `json:"occasion"`
	SpecialRequests string   `json:"special_requests"`
}

// Validate rejects unknown enum values and nonsense durations before any
// planner money is spent.
func (p *SetupParams) Validate() error {
	switch p.Vibe {
	case VibeChill, VibeMixed, VibeDance, VibeHighEnergy, VibeWorkout:
	default:
		return fmt.Errorf("dj: unknown vibe %q", p.Vibe)
	}

	switch p.Occasion {
	case "", OccasionHouseParty, OccasionDinner, OccasionBBQ, OccasionWorkout, OccasionLateNight, OccasionChillHang:
	default:
		return fmt.Errorf("dj: unknown occasion %q", p.Occasion)
	}

	if p.DurationMinutes < 10 || p.DurationMinutes > 12*60 {
		return fmt.Errorf("dj: duration %d minutes out of range (10-720)", p.DurationMinutes)
	}

	p.SpecialRequests = strings.TrimSpace(p.SpecialRequests)
	return nil
}
