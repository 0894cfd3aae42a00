package main

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mixbooth/internal/config"
	database "mixbooth/internal/db"
	"mixbooth/internal/dj"
	"mixbooth/internal/estimator"
	"mixbooth/internal/player"
	"mixbooth/internal/storage"

	// Use an alias to prevent naming collisions with the 'server' variable
	apiserver "mixbooth/internal/api/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Mixbooth API Server...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	db := database.New(cfg)

	// 3. Run Database Migrations + Seed
	db.AutoMigrate()
	database.SeedAdminUser(db.DB)

	// 4. Storage
	store := storage.New(cfg)

	// 5. Vibe profile overrides (optional yaml)
	if cfg.Player.ProfilesPath != "" {
		if err := dj.LoadProfiles(cfg.Player.ProfilesPath); err != nil {
			log.Printf("⚠️ Profile overrides not loaded: %v", err)
		}
	}

	// 6. Metrics
	estimator.RegisterMetrics()
	player.RegisterMetrics()
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 7. Playback engine over simulated decks; durations come from the
	// catalog via the book.
	clock := player.RealClock{}
	book := player.NewDurationBook()
	engine := player.NewEngine(
		player.NewSimDeck(clock, book.Resolve),
		player.NewSimDeck(clock, book.Resolve),
		clock,
		player.Options{
			PreviewSeconds: cfg.Player.PreviewSeconds,
			MasterVolume:   cfg.Player.MasterVolume,
			TickInterval:   time.Duration(cfg.Player.TickMillis) * time.Millisecond,
		},
	)

	// 8. Start Server
	srv := apiserver.New(cfg, db, store, engine, book)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
