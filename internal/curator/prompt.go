package curator

import (
	"fmt"
	"math/rand"
	"strings"

	"mixbooth/internal/dj"
	"mixbooth/internal/models"
)

const systemPrompt = "You are a professional club DJ planning a full-length set from the host's " +
	"personal music catalog. You receive a candidate table and a constraint brief. " +
	"You sequence tracks the way a working DJ does: tempo-compatible neighbours, " +
	"harmonic mixing where the Camelot codes allow it, an energy arc rather than a " +
	"flat ramp, and no lazy same-artist or same-album runs.\n\n" +
	"Output: return ONLY one valid JSON object, no conversational text, shaped as " +
	`{"setList":[{"trackId":123,"note":"why this track here"}],"djNotes":"overall narrative","totalDurationSec":3600}. ` +
	"Every trackId MUST come from the candidate table and MUST appear at most once."

// serializePool renders the candidate pool as a compact pipe-delimited table.
// The pool is shuffled first so album tracks are not adjacent; otherwise lazy
// models copy the input order wholesale.
func serializePool(pool []models.Track) string {
	shuffled := make([]models.Track, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var b strings.Builder
	b.WriteString("id|title|artist|album|genre|year|duration_sec|plays|rating|bpm|energy|key|camelot\n")

	for _, t := range shuffled {
		rating := ""
		if t.Rating != nil {
			rating = fmt.Sprintf("%d", *t.Rating)
		}

		fmt.Fprintf(&b, "%d|%s|%s|%s|%s|%d|%.0f|%d|%s",
			t.ID, field(t.Title), field(t.Artist), field(t.Album), field(t.Genre),
			t.Year, t.DurationSec, t.PlayCount, rating)

		if f := t.Features; f != nil {
			bpm, energy := "", ""
			if f.BPM != nil {
				bpm = fmt.Sprintf("%.0f", *f.BPM)
			}
			if f.Energy != nil {
				energy = fmt.Sprintf("%.2f", *f.Energy)
			}
			fmt.Fprintf(&b, "|%s|%s|%s|%s", bpm, energy, field(f.MusicalKey), f.Camelot)
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// buildBrief writes the constraint section of the planner request from the
// rule table, keeping business rules out of the string templates themselves.
func buildBrief(params dj.SetupParams, poolSize int) string {
	guidance := dj.GuidanceFor(params.Vibe)
	profile := dj.ResolveProfile(params.Vibe, params.Occasion)

	var b strings.Builder

	fmt.Fprintf(&b, "Plan a DJ set for: vibe=%s", params.Vibe)
	if params.Occasion != "" {
		fmt.Fprintf(&b, ", occasion=%s", params.Occasion)
	}
	if len(params.Audience) > 0 {
		fmt.Fprintf(&b, ", audience=%s", strings.Join(params.Audience, ", "))
	}
	b.WriteString(".\n\n")

	b.WriteString("HARD CONSTRAINTS:\n")
	fmt.Fprintf(&b, "- Total set length: %d minutes, plus or minus 5 minutes. Sum the duration_sec column, do not guess.\n", params.DurationMinutes)
	b.WriteString("- Every trackId must exist in the candidate table below.\n")
	b.WriteString("- No trackId may appear twice.\n\n")

	b.WriteString("MIXING GUIDANCE:\n")
	fmt.Fprintf(&b, "- Target tempo center: %.0f BPM (usable window %.0f-%.0f).\n", profile.BPMIdeal, profile.BPMMin, profile.BPMMax)
	fmt.Fprintf(&b, "- Keep consecutive BPM deltas within %.0f BPM. Deltas up to %.0f are allowed only with a trick transition (half-time blend, echo-out cut) called out in the note.\n",
		guidance.MaxStepBPM, guidance.TrickStepBPM)
	b.WriteString("- Prefer harmonically compatible neighbours: same Camelot code, same number different letter, or adjacent number on the same letter.\n")
	fmt.Fprintf(&b, "- Energy arc: %s.\n", guidance.EnergyShape)
	fmt.Fprintf(&b, "- Genre adjacency: %s.\n", guidance.GenreAdjacent)
	b.WriteString("- Anti-repetition: never two tracks by the same artist back to back, and at most two tracks from one album in the whole set.\n")

	if params.SpecialRequests != "" {
		fmt.Fprintf(&b, "\nSPECIAL REQUESTS from the host (weave these in where they fit): %s\n", params.SpecialRequests)
	}

	fmt.Fprintf(&b, "\nCANDIDATE TABLE (%d tracks, pipe-delimited, header first):\n", poolSize)

	return b.String()
}

// field strips the pipe delimiter out of free-text metadata.
func field(s string) string {
	return strings.ReplaceAll(s, "|", "/")
}
