package audio

import (
	"strconv"
	"strings"
)

// --- HARMONY ENGINE (Camelot System) ---
//
// Musical keys map onto a 12-position wheel with an inner (minor, "A") and
// outer (major, "B") ring. Neighbouring positions and inner/outer swaps at
// the same position mix smoothly; everything else risks a key clash.

// camelotLookup covers all 24 keys, with enharmonic spellings (sharps and
// flats) pointing at the same code.
var camelotLookup = map[string]string{
	// --- MAJOR KEYS (B) ---
	"B_major":  "1B",
	"F#_major": "2B", "Gb_major": "2B",
	"Db_major": "3B", "C#_major": "3B",
	"Ab_major": "4B", "G#_major": "4B",
	"Eb_major": "5B", "D#_major": "5B",
	"Bb_major": "6B", "A#_major": "6B",
	"F_major": "7B",
	"C_major": "8B",
	"G_major": "9B",
	"D_major": "10B",
	"A_major": "11B",
	"E_major": "12B",

	// --- MINOR KEYS (A) ---
	"Ab_minor": "1A", "G#_minor": "1A",
	"Eb_minor": "2A", "D#_minor": "2A",
	"Bb_minor": "3A", "A#_minor": "3A",
	"F_minor":  "4A",
	"C_minor":  "5A",
	"G_minor":  "6A",
	"D_minor":  "7A",
	"A_minor":  "8A",
	"E_minor":  "9A",
	"B_minor":  "10A",
	"F#_minor": "11A", "Gb_minor": "11A",
	"Db_minor": "12A", "C#_minor": "12A",
}

// CamelotCode translates a key description like "F# minor" or "C Major" into
// its Camelot wheel code ("11A", "8B"). Returns "" for unknown or unparseable
// keys, so a missing key never fabricates a harmonic match.
func CamelotCode(key string) string {
	note, scale, ok := splitKey(key)
	if !ok {
		return ""
	}
	return camelotLookup[note+"_"+scale]
}

// KeysCompatible reports whether two Camelot codes mix smoothly:
// exact match, major/minor swap at the same position, or adjacent positions
// on the same ring (12 wraps around to 1).
func KeysCompatible(c1, c2 string) bool {
	n1, l1, ok1 := parseCamelot(c1)
	n2, l2, ok2 := parseCamelot(c2)
	if !ok1 || !ok2 {
		return false
	}

	// Exact Match (8B -> 8B) or Major/Minor Swap (8B <-> 8A)
	if n1 == n2 {
		return true
	}

	// Energy Shift (Adjacent Numbers: 8 -> 9 or 8 -> 7)
	if l1 == l2 {
		diff := n1 - n2
		if diff < 0 {
			diff = -diff
		}
		if diff == 1 || diff == 11 { // 11 handles the 12->1 wrap
			return true
		}
	}

	return false
}

func parseCamelot(code string) (int, string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return 0, "", false
	}
	letter := code[len(code)-1:]
	if letter != "A" && letter != "B" {
		return 0, "", false
	}
	num, err := strconv.Atoi(code[:len(code)-1])
	if err != nil || num < 1 || num > 12 {
		return 0, "", false
	}
	return num, letter, true
}

// splitKey normalizes "f# Minor" into ("F#", "minor").
func splitKey(key string) (string, string, bool) {
	fields := strings.Fields(strings.TrimSpace(key))
	if len(fields) != 2 {
		return "", "", false
	}

	note := fields[0]
	// Uppercase the note letter, keep the accidental as-is ("ab" -> "Ab")
	note = strings.ToUpper(note[:1]) + strings.ToLower(note[1:])

	scale := strings.ToLower(fields[1])
	if scale != "major" && scale != "minor" {
		return "", "", false
	}
	return note, scale, true
}
