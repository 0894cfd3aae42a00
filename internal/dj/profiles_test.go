package dj

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseProfilesHoldInvariants(t *testing.T) {
	for vibe, p := range baseProfiles {
		if err := p.check(); err != nil {
			t.Errorf("base profile %s broken: %v", vibe, err)
		}
	}
}

func TestResolveProfileMergesOccasion(t *testing.T) {
	base := ResolveProfile(VibeMixed, "")
	dinner := ResolveProfile(VibeMixed, OccasionDinner)

	if dinner.BPMMax != 110 {
		t.Errorf("dinner should cap BPMMax at 110, got %.0f", dinner.BPMMax)
	}
	if dinner.EnergyMax != 0.45 {
		t.Errorf("dinner should cap EnergyMax at 0.45, got %.2f", dinner.EnergyMax)
	}
	// Untouched fields come from the base
	if dinner.BPMMin != base.BPMMin {
		t.Errorf("BPMMin should be inherited: got %.0f want %.0f", dinner.BPMMin, base.BPMMin)
	}
}

func TestResolveProfileKeepsInvariantsAfterMerge(t *testing.T) {
	for _, vibe := range []Vibe{VibeChill, VibeMixed, VibeDance, VibeHighEnergy, VibeWorkout} {
		for _, occ := range []Occasion{"", OccasionHouseParty, OccasionDinner, OccasionBBQ, OccasionWorkout, OccasionLateNight, OccasionChillHang} {
			p := ResolveProfile(vibe, occ)
			if err := p.check(); err != nil {
				t.Errorf("resolved %s/%s broken: %v", vibe, occ, err)
			}
		}
	}
}

func TestLoadProfilesRejectsBrokenBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	bad := []byte("vibes:\n  dance:\n    bpm_min: 140\n    bpm_max: 105\n    bpm_ideal: 122\n")
	if err := os.WriteFile(path, bad, 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadProfiles(path); err == nil {
		t.Fatal("expected an error for inverted BPM bounds")
	}

	// Built-ins must stay active after a rejected load
	p := ResolveProfile(VibeDance, "")
	if p.BPMMin != 105 || p.BPMMax != 140 {
		t.Fatalf("built-in dance profile corrupted: %+v", p)
	}
}

func TestRequestKeywords(t *testing.T) {
	kws := requestKeywords("Play some 90s hip hop for the birthday girl!")
	want := map[string]bool{"90s": true, "hip": true, "hop": true, "birthday": true, "girl": true}
	if len(kws) != len(want) {
		t.Fatalf("got keywords %v, want %v", kws, want)
	}
	for _, kw := range kws {
		if !want[kw] {
			t.Errorf("unexpected keyword %q", kw)
		}
	}

	if got := requestKeywords("   "); len(got) != 0 {
		t.Errorf("blank request should yield no keywords, got %v", got)
	}
}

func TestKeywordMatchesPluralVariants(t *testing.T) {
	if !keywordMatches([]string{"bangers"}, "absolute banger anthems") {
		t.Error("plural keyword should match singular haystack")
	}
	if keywordMatches([]string{"reggae"}, "techno minimal dub") {
		t.Error("unrelated keyword should not match")
	}
}
