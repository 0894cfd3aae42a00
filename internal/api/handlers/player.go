package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mixbooth/internal/models"
	"mixbooth/internal/player"
	"mixbooth/internal/storage"
)

// PlayerHandler maps the transport surface onto the crossfade engine.
type PlayerHandler struct {
	db      *gorm.DB
	storage *storage.Client
	engine  *player.Engine
	book    *player.DurationBook
}

// NewPlayerHandler wires the transport routes. book may be nil when the
// decks read durations from the media themselves; simulated decks need
// it filled per resolved URL.
func NewPlayerHandler(db *gorm.DB, st *storage.Client, engine *player.Engine, book *player.DurationBook) *PlayerHandler {
	return &PlayerHandler{db: db, storage: st, engine: engine, book: book}
}

type startRequest struct {
	TrackIDs []uint `json:"track_ids" binding:"required,min=1"`
}

// Start resolves the requested set list to playable URLs and hands it
// to the engine. Tracks without a resolvable source are dropped here;
// the engine handles the ones that fail later.
func (h *PlayerHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track_ids required"})
		return
	}

	var tracks []models.Track
	if err := h.db.Where("id IN ?", req.TrackIDs).Find(&tracks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	byID := make(map[uint]models.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	// Preserve the curated order, not the query order.
	entries := make([]player.Entry, 0, len(req.TrackIDs))
	for _, id := range req.TrackIDs {
		t, ok := byID[id]
		if !ok {
			log.Printf("⚠️ Set entry %d not in catalog, dropping", id)
			continue
		}
		url, err := h.storage.ResolveURL(t.Key)
		if err != nil {
			log.Printf("⚠️ No playable source for %q: %v", t.Title, err)
			continue
		}
		if h.book != nil {
			h.book.Set(url, t.DurationSec)
		}
		entries = append(entries, player.Entry{
			TrackID:     t.ID,
			Title:       t.Title,
			Artist:      t.Artist,
			URL:         url,
			DurationSec: t.DurationSec,
		})
	}

	if err := h.engine.Start(entries); err != nil {
		switch {
		case errors.Is(err, player.ErrEmptySetList):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No playable tracks in set list"})
		case errors.Is(err, player.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": "A session is already running"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, h.engine.Status())
}

func (h *PlayerHandler) Pause(c *gin.Context)  { h.transport(c, h.engine.Pause) }
func (h *PlayerHandler) Resume(c *gin.Context) { h.transport(c, h.engine.Resume) }
func (h *PlayerHandler) Skip(c *gin.Context)   { h.transport(c, h.engine.Skip) }
func (h *PlayerHandler) Previous(c *gin.Context) {
	h.transport(c, h.engine.Previous)
}

func (h *PlayerHandler) Stop(c *gin.Context) {
	h.engine.Stop()
	c.JSON(http.StatusOK, h.engine.Status())
}

func (h *PlayerHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

func (h *PlayerHandler) transport(c *gin.Context, op func() error) {
	if err := op(); err != nil {
		if errors.Is(err, player.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "No session is running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.engine.Status())
}
