package dj

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// VibeProfile is the tempo/energy target for one vibe.
// Invariants: BPMMin <= BPMIdeal <= BPMMax and EnergyMin <= EnergyMax.
type VibeProfile struct {
	BPMMin    float64 `yaml:"bpm_min"`
	BPMMax    float64 `yaml:"bpm_max"`
	BPMIdeal  float64 `yaml:"bpm_ideal"`
	EnergyMin float64 `yaml:"energy_min"`
	EnergyMax float64 `yaml:"energy_max"`
}

// ProfileOverride is a partial profile: only set fields replace the base.
type ProfileOverride struct {
	BPMMin    *float64 `yaml:"bpm_min"`
	BPMMax    *float64 `yaml:"bpm_max"`
	BPMIdeal  *float64 `yaml:"bpm_ideal"`
	EnergyMin *float64 `yaml:"energy_min"`
	EnergyMax *float64 `yaml:"energy_max"`
}

// MixGuidance is the per-vibe advice handed to the planner brief:
// how hard consecutive tempo jumps may be, and what energy arc to draw.
type MixGuidance struct {
	MaxStepBPM    float64 // largest comfortable BPM delta between neighbours
	TrickStepBPM  float64 // deltas above this need a "trick" transition note
	EnergyShape   string
	GenreAdjacent string
}

var baseProfiles = map[Vibe]VibeProfile{
	VibeChill:      {BPMMin: 60, BPMMax: 115, BPMIdeal: 95, EnergyMin: 0.0, EnergyMax: 0.5},
	VibeMixed:      {BPMMin: 85, BPMMax: 130, BPMIdeal: 110, EnergyMin: 0.2, EnergyMax: 0.8},
	VibeDance:      {BPMMin: 105, BPMMax: 140, BPMIdeal: 122, EnergyMin: 0.5, EnergyMax: 1.0},
	VibeHighEnergy: {BPMMin: 118, BPMMax: 150, BPMIdeal: 128, EnergyMin: 0.65, EnergyMax: 1.0},
	VibeWorkout:    {BPMMin: 120, BPMMax: 160, BPMIdeal: 135, EnergyMin: 0.7, EnergyMax: 1.0},
}

// Occasions stretch or soften the vibe rather than replace it, so they only
// override individual fields.
var occasionOverrides = map[Occasion]ProfileOverride{
	OccasionHouseParty: {BPMIdeal: f(120)},
	OccasionDinner:     {BPMMax: f(110), BPMIdeal: f(92), EnergyMax: f(0.45)},
	OccasionBBQ:        {BPMIdeal: f(105), EnergyMin: f(0.15)},
	OccasionWorkout:    {BPMMin: f(122), BPMIdeal: f(140), EnergyMin: f(0.7)},
	OccasionLateNight:  {BPMMin: f(95), BPMMax: f(128), BPMIdeal: f(116)},
	OccasionChillHang:  {EnergyMax: f(0.6)},
}

var mixGuidance = map[Vibe]MixGuidance{
	VibeChill: {
		MaxStepBPM:   12,
		TrickStepBPM: 18,
		EnergyShape:  "stay low and smooth, one gentle swell in the middle of the set",
		GenreAdjacent: "keep acoustic/organic tracks next to each other, electronic " +
			"textures next to each other",
	},
	VibeMixed: {
		MaxStepBPM:   10,
		TrickStepBPM: 16,
		EnergyShape:  "wave shape: warm up, peak around two-thirds in, ease out",
		GenreAdjacent: "group genre families (disco/funk, pop, house) into runs of " +
			"2-4 tracks before switching family",
	},
	VibeDance: {
		MaxStepBPM:   6,
		TrickStepBPM: 10,
		EnergyShape:  "waves, not a ramp: build for 3-4 tracks, breathe for 1, build again",
		GenreAdjacent: "house next to disco next to funk is fine; avoid jumping " +
			"between four-on-the-floor and breakbeat back to back",
	},
	VibeHighEnergy: {
		MaxStepBPM:   8,
		TrickStepBPM: 12,
		EnergyShape:  "sustained high energy with short breathers, final third is the peak",
		GenreAdjacent: "keep techno/trance/electro families in runs, no sudden " +
			"drops into downtempo",
	},
	VibeWorkout: {
		MaxStepBPM:   8,
		TrickStepBPM: 14,
		EnergyShape:  "interval shape: alternate 2-3 hard tracks with 1 recovery track",
		GenreAdjacent: "keep the beat style consistent inside each interval block",
	},
}

// genreRules carry the per-vibe boost/penalty keyword patterns matched
// against the refined (or raw) genre string.
type genreRules struct {
	boost   *regexp.Regexp
	penalty *regexp.Regexp
}

var genreAffinity = map[Vibe]genreRules{
	VibeChill: {
		boost:   regexp.MustCompile(`(?i)ambient|downtempo|chill|lounge|jazz|acoustic|folk|soul|trip.?hop|balearic`),
		penalty: regexp.MustCompile(`(?i)hardcore|hardstyle|gabber|metal|punk|drum.?n.?bass|dnb`),
	},
	VibeMixed: {
		boost:   regexp.MustCompile(`(?i)pop|disco|funk|indie|house|soul|rock|r&b|rnb`),
		penalty: regexp.MustCompile(`(?i)noise|drone|harsh|gabber`),
	},
	VibeDance: {
		boost:   regexp.MustCompile(`(?i)house|disco|dance|electro|funk|techno|garage|edm`),
		penalty: regexp.MustCompile(`(?i)ambient|drone|ballad|acoustic|classical|spoken`),
	},
	VibeHighEnergy: {
		boost:   regexp.MustCompile(`(?i)techno|trance|electro|edm|big.?room|hard|drum.?n.?bass|dnb|breaks`),
		penalty: regexp.MustCompile(`(?i)ambient|ballad|acoustic|classical|downtempo|lounge`),
	},
	VibeWorkout: {
		boost:   regexp.MustCompile(`(?i)edm|trap|hip.?hop|drum.?n.?bass|dnb|hard|electro|power|phonk`),
		penalty: regexp.MustCompile(`(?i)ambient|ballad|classical|jazz|acoustic|lounge`),
	},
}

var (
	profilesMu      sync.RWMutex
	customProfiles  map[Vibe]VibeProfile
	customOverrides map[Occasion]ProfileOverride
)

// profilesFile matches the optional YAML tuning file.
type profilesFile struct {
	Vibes     map[Vibe]VibeProfile         `yaml:"vibes"`
	Occasions map[Occasion]ProfileOverride `yaml:"occasions"`
}

// LoadProfiles replaces the built-in rule table from a YAML file, so the
// tempo targets can be tuned without a rebuild. Bad entries are rejected
// wholesale; the built-ins stay active on error.
func LoadProfiles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	for vibe, p := range file.Vibes {
		if err := p.check(); err != nil {
			return fmt.Errorf("profile %s: %w", vibe, err)
		}
	}

	profilesMu.Lock()
	customProfiles = file.Vibes
	customOverrides = file.Occasions
	profilesMu.Unlock()

	log.Printf("📐 Vibe profiles loaded: %d vibes, %d occasion overrides", len(file.Vibes), len(file.Occasions))
	return nil
}

func (p VibeProfile) check() error {
	if !(p.BPMMin <= p.BPMIdeal && p.BPMIdeal <= p.BPMMax) {
		return fmt.Errorf("bpm bounds violated: min=%.0f ideal=%.0f max=%.0f", p.BPMMin, p.BPMIdeal, p.BPMMax)
	}
	if p.EnergyMin > p.EnergyMax {
		return fmt.Errorf("energy bounds violated: min=%.2f max=%.2f", p.EnergyMin, p.EnergyMax)
	}
	return nil
}

// ResolveProfile merges the vibe's base profile with the occasion override,
// then clamps the ideal BPM back inside the merged window.
func ResolveProfile(vibe Vibe, occasion Occasion) VibeProfile {
	profilesMu.RLock()
	profile, ok := customProfiles[vibe]
	if !ok {
		profile = baseProfiles[vibe]
	}
	override, haveOverride := customOverrides[occasion]
	if !haveOverride {
		override, haveOverride = occasionOverrides[occasion]
	}
	profilesMu.RUnlock()

	if haveOverride {
		if override.BPMMin != nil {
			profile.BPMMin = *override.BPMMin
		}
		if override.BPMMax != nil {
			profile.BPMMax = *override.BPMMax
		}
		if override.BPMIdeal != nil {
			profile.BPMIdeal = *override.BPMIdeal
		}
		if override.EnergyMin != nil {
			profile.EnergyMin = *override.EnergyMin
		}
		if override.EnergyMax != nil {
			profile.EnergyMax = *override.EnergyMax
		}
	}

	// Keep the invariants intact after merging partial overrides
	if profile.BPMIdeal < profile.BPMMin {
		profile.BPMIdeal = profile.BPMMin
	}
	if profile.BPMIdeal > profile.BPMMax {
		profile.BPMIdeal = profile.BPMMax
	}
	if profile.EnergyMin > profile.EnergyMax {
		profile.EnergyMin = profile.EnergyMax
	}

	return profile
}

// GuidanceFor returns the planner mix guidance for a vibe.
func GuidanceFor(vibe Vibe) MixGuidance {
	if g, ok := mixGuidance[vibe]; ok {
		return g
	}
	return mixGuidance[VibeMixed]
}

func f(v float64) *float64 { return &v }
