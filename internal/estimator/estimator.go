// Package estimator fills in missing audio characteristics (BPM, energy,
// key, ...) for catalog tracks by asking a generative model to estimate them
// from metadata alone. Tracks that already have a feature row are skipped,
// so re-running the job is always safe.
package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"mixbooth/internal/audio"
	"mixbooth/internal/jobs"
	"mixbooth/internal/llm"
	"mixbooth/internal/models"
)

// Metrics
var (
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "estimator_batches_total", Help: "Estimation batches by outcome"},
		[]string{"outcome"},
	)
	trackErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "estimator_track_errors_total", Help: "Tracks that failed estimation or persist"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(batchesTotal, trackErrors)
}

const defaultBatchSize = 20

const systemPrompt = "You are a music metadata expert. For each track you receive " +
	"(format: id|title|artist|album|genre|year, one per line) estimate its audio " +
	"characteristics from your knowledge of the song, the artist and the genre.\n\n" +
	"Return ONLY a JSON array with exactly one object per input id:\n" +
	`[{"id":1,"bpm":124,"energy":0.8,"danceability":0.9,"key":"A minor","genre_refined":"deep house","style_tags":["dubby","hypnotic"],"confidence":0.7}]` + "\n\n" +
	"Rules: energy and danceability are 0.0 to 1.0. key is like \"F# minor\" or " +
	"\"C major\". Use null for any field you truly cannot estimate. confidence is " +
	"0.0 to 1.0 for the whole row. No text outside the JSON array."

// Estimator runs one batch pipeline against the catalog.
type Estimator struct {
	db        *gorm.DB
	planner   llm.Chatter
	model     string
	batchSize int
}

func New(db *gorm.DB, planner llm.Chatter, model string, batchSize int) *Estimator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Estimator{db: db, planner: planner, model: model, batchSize: batchSize}
}

// estimateRow mirrors the generative estimator contract. Nullable fields stay
// pointers so "unknown" survives the round trip instead of becoming zero.
type estimateRow struct {
	ID           uint     `json:"id"`
	BPM          *float64 `json:"bpm"`
	Energy       *float64 `json:"energy"`
	Danceability *float64 `json:"danceability"`
	Key          *string  `json:"key"`
	GenreRefined *string  `json:"genre_refined"`
	StyleTags    []string `json:"style_tags"`
	Confidence   *float64 `json:"confidence"`
}

// Run estimates features for every track that lacks them, in fixed-size
// batches (one in-flight request at a time, to respect model rate limits).
// The job is the single observable surface: progress counters while running,
// then complete/cancelled/error. Cancellation is checked between batches
// only, never mid-request, and already-written rows stay put.
func (e *Estimator) Run(ctx context.Context, job *jobs.Job) {
	var tracks []models.Track
	missing := e.db.Model(&models.AudioFeature{}).Select("track_id")
	if err := e.db.Where("id NOT IN (?)", missing).Order("id asc").Find(&tracks).Error; err != nil {
		job.Fail(fmt.Errorf("estimator: load tracks: %w", err))
		return
	}

	job.SetTotal(len(tracks))
	if len(tracks) == 0 {
		log.Println("✨ Estimation: nothing to do, all tracks have features")
		job.Complete()
		return
	}

	log.Printf("🧠 Estimating features for %d tracks in batches of %d", len(tracks), e.batchSize)

	for start := 0; start < len(tracks); start += e.batchSize {
		if job.Cancelled() {
			log.Println("🛑 Estimation cancelled between batches")
			break
		}
		if ctx.Err() != nil {
			job.Fail(fmt.Errorf("estimator: %w", ctx.Err()))
			return
		}

		end := start + e.batchSize
		if end > len(tracks) {
			end = len(tracks)
		}
		batch := tracks[start:end]

		enriched, errs := e.processBatch(ctx, batch)
		job.Advance(len(batch), enriched, errs)
	}

	job.Complete()
}

// processBatch sends one batch to the model and persists what came back.
// A parse failure costs the whole batch (counted as per-track errors) but
// never kills the job.
func (e *Estimator) processBatch(ctx context.Context, batch []models.Track) (enriched, errs int) {
	var b strings.Builder
	for _, t := range batch {
		fmt.Fprintf(&b, "%d|%s|%s|%s|%s|%d\n", t.ID, pipe(t.Title), pipe(t.Artist), pipe(t.Album), pipe(t.Genre), t.Year)
	}

	raw, err := e.planner.Chat(ctx, e.model, systemPrompt, b.String())
	if err != nil {
		log.Printf("❌ Estimation batch failed: %v", err)
		batchesTotal.WithLabelValues("request_error").Inc()
		trackErrors.Add(float64(len(batch)))
		return 0, len(batch)
	}

	rows, err := parseRows(raw)
	if err != nil {
		log.Printf("❌ Estimation batch unparsable: %v", err)
		batchesTotal.WithLabelValues("parse_error").Inc()
		trackErrors.Add(float64(len(batch)))
		return 0, len(batch)
	}

	byID := make(map[uint]estimateRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	for _, t := range batch {
		row, ok := byID[t.ID]
		if !ok {
			// The contract says every input id must appear; missing ones
			// count as errors and stay eligible for the next run.
			trackErrors.Inc()
			errs++
			continue
		}
		if err := e.persist(t.ID, row); err != nil {
			log.Printf("⚠️ Could not save features for track %d: %v", t.ID, err)
			trackErrors.Inc()
			errs++
			continue
		}
		enriched++
	}

	batchesTotal.WithLabelValues("ok").Inc()
	return enriched, errs
}

// persist writes one feature row. The unique index on track_id is the
// write-once guarantee: a violation is counted, never retried or updated.
func (e *Estimator) persist(trackID uint, row estimateRow) error {
	feature := models.AudioFeature{
		TrackID:        trackID,
		BPM:            row.BPM,
		Energy:         clamp01(row.Energy),
		Danceability:   clamp01(row.Danceability),
		AnalysisMethod: "llm_estimate",
	}
	if row.Key != nil {
		feature.MusicalKey = *row.Key
		feature.Camelot = audio.CamelotCode(*row.Key)
	}
	if row.GenreRefined != nil {
		feature.GenreRefined = *row.GenreRefined
	}
	if len(row.StyleTags) > 0 {
		feature.StyleTags = strings.Join(row.StyleTags, ",")
	}
	if row.Confidence != nil {
		feature.Confidence = clampF(*row.Confidence, 0, 1)
	}

	err := e.db.Create(&feature).Error
	if err != nil && isDuplicate(err) {
		return fmt.Errorf("features already exist: %w", err)
	}
	return err
}

// parseRows locates the JSON array in the raw model output and decodes it.
func parseRows(raw string) ([]estimateRow, error) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("no JSON array in response")
	}

	var rows []estimateRow
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

func clamp01(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := clampF(*v, 0, 1)
	return &c
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func pipe(s string) string {
	return strings.ReplaceAll(s, "|", "/")
}
