package audio

import "testing"

func TestCamelotCode(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		// Canonical spellings
		{"C major", "8B"},
		{"A minor", "8A"},
		{"F# minor", "11A"},
		{"B major", "1B"},

		// Enharmonic equivalents land on the same code
		{"Gb major", "2B"},
		{"F# major", "2B"},
		{"C# minor", "12A"},
		{"Db minor", "12A"},

		// Sloppy casing from the estimator
		{"c Major", "8B"},
		{"ab minor", "1A"},

		// Unknowns map to nothing
		{"unknown", ""},
		{"", ""},
		{"H major", ""},
		{"C dorian", ""},
	}

	for _, tt := range tests {
		if got := CamelotCode(tt.key); got != tt.want {
			t.Errorf("CamelotCode(%q) = %q; want %q", tt.key, got, tt.want)
		}
	}
}

func TestCamelotCodeDeterministic(t *testing.T) {
	// Same input must always produce the same code
	for i := 0; i < 100; i++ {
		if got := CamelotCode("Eb minor"); got != "2A" {
			t.Fatalf("CamelotCode unstable on run %d: got %q", i, got)
		}
	}
}

func TestKeysCompatible(t *testing.T) {
	tests := []struct {
		c1, c2 string
		want   bool
	}{
		// 1. Exact Match
		{"8B", "8B", true},
		{"8A", "8A", true},

		// 2. Relative Major/Minor
		{"8B", "8A", true},
		{"8A", "8B", true},

		// 3. Adjacent (Energy Shift)
		{"8B", "9B", true},
		{"8B", "7B", true},

		// 4. Wrap Around (12 -> 1)
		{"12B", "1B", true},

		// 5. Clashes (The "Trainwreck" check)
		{"8B", "2B", false},
		{"8B", "5B", false},
		{"8A", "9B", false}, // adjacent but different rings

		// 6. Unknowns never fabricate a match
		{"", "8B", false},
		{"8B", "", false},
		{"13B", "1B", false},
	}

	for _, tt := range tests {
		if got := KeysCompatible(tt.c1, tt.c2); got != tt.want {
			t.Errorf("KeysCompatible(%q, %q) = %v; want %v", tt.c1, tt.c2, got, tt.want)
		}
	}
}
