package curator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"mixbooth/internal/dj"
	"mixbooth/internal/models"
)

// cannedPlanner returns a fixed response, recording what it was asked.
type cannedPlanner struct {
	response string
	err      error
	lastUser string
}

func (p *cannedPlanner) Chat(_ context.Context, _, _, user string) (string, error) {
	p.lastUser = user
	return p.response, p.err
}

func testPool() []models.Track {
	mk := func(id uint, title, artist string) models.Track {
		return models.Track{
			Model:       gorm.Model{ID: id},
			Title:       title,
			Artist:      artist,
			Album:       "Test Album",
			Genre:       "House",
			DurationSec: 300,
		}
	}
	return []models.Track{
		mk(5, "Opener", "A"),
		mk(6, "Builder", "B"),
		mk(7, "Peak", "C"),
	}
}

func params() dj.SetupParams {
	return dj.SetupParams{Vibe: dj.VibeDance, DurationMinutes: 15}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			raw:  `{"a":1}`,
			want: `{"a":1}`,
			ok:   true,
		},
		{
			name: "leading prose",
			raw:  "Here is your set:\n{\"a\":1}",
			want: `{"a":1}`,
			ok:   true,
		},
		{
			name: "trailing commentary with its own braces",
			raw:  `{"a":{"b":2}} and remember {this} is extra`,
			want: `{"a":{"b":2}}`,
			ok:   true,
		},
		{
			name: "braces inside string literals are ignored",
			raw:  `{"note":"drop {hands up} here","x":1} trailing`,
			want: `{"note":"drop {hands up} here","x":1}`,
			ok:   true,
		},
		{
			name: "escaped quotes inside strings",
			raw:  `{"note":"the \"big\" one {"} rest`,
			want: `{"note":"the \"big\" one {"}`,
			ok:   true,
		},
		{
			name: "no object at all",
			raw:  "sorry, I cannot help with that",
			ok:   false,
		},
		{
			name: "unterminated object",
			raw:  `{"a": [1,2,3`,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCurateDeduplicatesTrackIDs(t *testing.T) {
	planner := &cannedPlanner{
		response: `{"setList":[{"trackId":5,"note":"x"},{"trackId":5,"note":"y"}],"djNotes":"n","totalDurationSec":600}`,
	}
	c := New(planner, "test-model")

	result, err := c.Curate(context.Background(), testPool(), params())
	if err != nil {
		t.Fatalf("Curate failed: %v", err)
	}

	if len(result.SetList) != 1 {
		t.Fatalf("expected exactly one entry for ID 5, got %d", len(result.SetList))
	}
	if result.SetList[0].TrackID != 5 || result.SetList[0].Note != "x" {
		t.Fatalf("first occurrence should win, got %+v", result.SetList[0])
	}
}

func TestCurateDropsOutOfPoolIDs(t *testing.T) {
	planner := &cannedPlanner{
		response: `{"setList":[{"trackId":999,"note":"?"},{"trackId":6,"note":"ok"}],"djNotes":"n"}`,
	}
	c := New(planner, "test-model")

	result, err := c.Curate(context.Background(), testPool(), params())
	if err != nil {
		t.Fatalf("Curate failed: %v", err)
	}

	if len(result.SetList) != 1 || result.SetList[0].TrackID != 6 {
		t.Fatalf("expected only in-pool ID 6 to survive, got %+v", result.SetList)
	}
	if result.ActualDurationSec != 300 {
		t.Fatalf("actual duration should be re-summed from the pool, got %.0f", result.ActualDurationSec)
	}
}

func TestCurateFailsWhenNothingSurvives(t *testing.T) {
	planner := &cannedPlanner{
		response: `{"setList":[{"trackId":999,"note":"?"}],"djNotes":"n"}`,
	}
	c := New(planner, "test-model")

	_, err := c.Curate(context.Background(), testPool(), params())
	if !errors.Is(err, ErrEmptySet) {
		t.Fatalf("expected ErrEmptySet, got %v", err)
	}
}

func TestCurateFailsOnUnparseableResponse(t *testing.T) {
	planner := &cannedPlanner{response: "I would suggest starting with something upbeat."}
	c := New(planner, "test-model")

	_, err := c.Curate(context.Background(), testPool(), params())
	if !errors.Is(err, ErrPlannerParse) {
		t.Fatalf("expected ErrPlannerParse, got %v", err)
	}
}

func TestCurateSurvivesTrailingCommentary(t *testing.T) {
	planner := &cannedPlanner{
		response: `{"setList":[{"trackId":7,"note":"peak {loud} moment"}],"djNotes":"arc"} Hope you enjoy {the set}!`,
	}
	c := New(planner, "test-model")

	result, err := c.Curate(context.Background(), testPool(), params())
	if err != nil {
		t.Fatalf("Curate failed: %v", err)
	}
	if len(result.SetList) != 1 || result.SetList[0].TrackID != 7 {
		t.Fatalf("unexpected set list: %+v", result.SetList)
	}
}

func TestPromptContainsConstraintsAndTable(t *testing.T) {
	planner := &cannedPlanner{
		response: `{"setList":[{"trackId":5,"note":"x"}],"djNotes":"n"}`,
	}
	c := New(planner, "test-model")

	p := params()
	p.SpecialRequests = "play lots of disco"
	if _, err := c.Curate(context.Background(), testPool(), p); err != nil {
		t.Fatalf("Curate failed: %v", err)
	}

	for _, want := range []string{
		"15 minutes, plus or minus 5",
		"No trackId may appear twice",
		"play lots of disco",
		"id|title|artist|album|genre|year|duration_sec|plays|rating|bpm|energy|key|camelot",
		"Opener",
	} {
		if !strings.Contains(planner.lastUser, want) {
			t.Errorf("planner prompt is missing %q", want)
		}
	}
}

func TestSerializePoolEscapesPipes(t *testing.T) {
	pool := []models.Track{{
		Model:       gorm.Model{ID: 1},
		Title:       "A|B",
		DurationSec: 100,
	}}
	table := serializePool(pool)
	if strings.Contains(table, "A|B") {
		t.Fatal("pipe characters in metadata must be escaped out of the table")
	}
	if !strings.Contains(table, "A/B") {
		t.Fatal("expected escaped title A/B in table")
	}
}
