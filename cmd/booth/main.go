package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"mixbooth/internal/config"
	"mixbooth/internal/curator"
	database "mixbooth/internal/db"
	"mixbooth/internal/dj"
	"mixbooth/internal/llm"
	"mixbooth/internal/models"
	"mixbooth/internal/player"
	"mixbooth/internal/storage"
)

func main() {
	// 1. Parse Flags
	vibe := flag.String("vibe", "mixed", "Set vibe (chill, mixed, dance, high_energy, workout)")
	occasion := flag.String("occasion", "", "Occasion (house_party, dinner, bbq, workout, late_night, chill_hang)")
	minutes := flag.Int("minutes", 90, "Target set length in minutes")
	requests := flag.String("requests", "", "Free-text special requests")
	audience := flag.String("audience", "", "Comma-separated audience tags")
	simulate := flag.Bool("simulate", false, "Print the curated set list and exit without playback")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 2. Load Config
	cfg := config.Load()
	if *simulate {
		cfg.Player.DryRun = true
	}

	if cfg.Player.DryRun {
		log.Println("🧪 MODE: DRY RUN / SIMULATION")
		log.Println("   - No playback, set list to stdout only")
	} else {
		log.Println("🚀 Starting Mixbooth rehearsal run...")
	}

	// 3. Init Infrastructure
	store := storage.New(cfg)
	db := database.New(cfg)
	db.AutoMigrate()

	if cfg.Player.ProfilesPath != "" {
		if err := dj.LoadProfiles(cfg.Player.ProfilesPath); err != nil {
			log.Printf("⚠️ Profile overrides not loaded: %v", err)
		}
	}

	// 4. Build the set
	params := dj.SetupParams{
		Vibe:            dj.Vibe(*vibe),
		Occasion:        dj.Occasion(*occasion),
		DurationMinutes: *minutes,
		SpecialRequests: *requests,
	}
	if *audience != "" {
		params.Audience = strings.Split(*audience, ",")
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("❌ Invalid setup: %v", err)
	}

	catalog, err := db.LoadCatalog()
	if err != nil {
		log.Fatalf("❌ Catalog load failed: %v", err)
	}
	log.Printf("📀 Catalog: %d tracks", len(catalog))

	pool := dj.Select(catalog, params)
	log.Printf("🎛️ Candidate pool: %d tracks", len(pool))

	cur := curator.New(llm.FromConfig(cfg), cfg.Planner.CuratorModel)
	result, err := cur.Curate(context.Background(), pool, params)
	if err != nil {
		log.Fatalf("❌ Curation failed: %v", err)
	}

	byID := make(map[uint]models.Track, len(pool))
	for _, t := range pool {
		byID[t.ID] = t
	}

	printSetList(cfg.Player.PreviewSeconds, result, byID)

	if cfg.Player.DryRun {
		return
	}

	rehearse(cfg, store, result, byID)
}

// printSetList renders the curated set the way it would run, including
// where each crossfade lands on the clock.
func printSetList(preview float64, result *curator.SetResult, byID map[uint]models.Track) {
	overlap := preview
	if overlap > 8 {
		overlap = 8
	}

	fmt.Printf("\n--- 🎚️ CURATED SET ---\n")
	if result.DJNotes != "" {
		fmt.Printf("Notes: %s\n", result.DJNotes)
	}
	fmt.Println("--------------------------------------------------------------------------------")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TIME\t#\tARTIST\tTITLE\tBPM\tKEY\tNOTE")
	fmt.Fprintln(w, "----\t-\t------\t-----\t---\t---\t----")

	cursor := time.Now()
	for i, entry := range result.SetList {
		track, ok := byID[entry.TrackID]
		if !ok {
			continue
		}

		bpm := "?"
		key := ""
		if track.Features != nil {
			if track.Features.BPM != nil {
				bpm = fmt.Sprintf("%.0f", *track.Features.BPM)
			}
			key = track.Features.Camelot
		}

		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			cursor.Format("15:04:05"),
			i+1,
			truncate(track.Artist, 20),
			truncate(track.Title, 25),
			bpm,
			key,
			truncate(entry.Note, 30),
		)

		// Each transition swallows the crossfade overlap.
		step := track.DurationSec - overlap
		if step < 0 {
			step = track.DurationSec
		}
		cursor = cursor.Add(time.Duration(step * float64(time.Second)))
	}

	fmt.Printf("\n✅ %d tracks, ~%.0f minutes of actual material.\n\n",
		len(result.SetList), float64(result.ActualDurationSec)/60)
}

// rehearse plays the set on simulated decks against an accelerated
// clock: hours of playback collapse into seconds while exercising every
// crossfade the live run would make.
func rehearse(cfg *config.Config, store *storage.Client, result *curator.SetResult, byID map[uint]models.Track) {
	clock := player.NewMockClock(time.Now())
	book := player.NewDurationBook()

	var entries []player.Entry
	for _, item := range result.SetList {
		track, ok := byID[item.TrackID]
		if !ok {
			continue
		}
		url, err := store.ResolveURL(track.Key)
		if err != nil {
			log.Printf("⚠️ No playable source for %q: %v", track.Title, err)
			continue
		}
		book.Set(url, track.DurationSec)
		entries = append(entries, player.Entry{
			TrackID:     track.ID,
			Title:       track.Title,
			Artist:      track.Artist,
			URL:         url,
			DurationSec: track.DurationSec,
		})
	}

	engine := player.NewEngine(
		player.NewSimDeck(clock, book.Resolve),
		player.NewSimDeck(clock, book.Resolve),
		clock,
		player.Options{
			PreviewSeconds: cfg.Player.PreviewSeconds,
			MasterVolume:   cfg.Player.MasterVolume,
			TickInterval:   -1, // stepped against the mock clock
		},
	)

	if err := engine.Start(entries); err != nil {
		log.Fatalf("❌ Rehearsal would not start: %v", err)
	}

	var lastTrack uint
	const maxSteps = 500000
	for i := 0; i < maxSteps; i++ {
		clock.Advance(100 * time.Millisecond)
		engine.Step()

		snap := engine.Status()
		if snap.State == player.StateIdle {
			log.Println("🏁 Rehearsal complete")
			return
		}
		if snap.Track != nil && snap.Track.TrackID != lastTrack {
			lastTrack = snap.Track.TrackID
			log.Printf("🔊 Deck %s | %s — %s", snap.ActiveDeck, snap.Track.Artist, snap.Track.Title)
		}
	}
	log.Println("⚠️ Rehearsal step cap reached, stopping")
	engine.Stop()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
