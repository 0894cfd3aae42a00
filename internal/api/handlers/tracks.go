package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mixbooth/internal/models"
)

// TrackHandler serves the catalog browse surface.
type TrackHandler struct {
	db *gorm.DB
}

func NewTrackHandler(db *gorm.DB) *TrackHandler {
	return &TrackHandler{db: db}
}

// LibraryTrack keeps the list payload light; the full row (features
// included) is only fetched per track.
type LibraryTrack struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Genre       string  `json:"genre"`
	DurationSec float64 `json:"duration_sec"`
}

// GetTracks returns a paginated, lightweight list of tracks
func (h *TrackHandler) GetTracks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("search")
	sortBy := c.DefaultQuery("sort", "newest")

	if limit > 200 {
		limit = 200 // Hard cap to protect the server
	}

	query := h.db.Model(&models.Track{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("artist ILIKE ? OR title ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	query.Count(&total)

	switch sortBy {
	case "alphabetical":
		query = query.Order("title ASC")
	case "duration":
		query = query.Order("duration_sec DESC")
	default: // "newest"
		query = query.Order("id DESC")
	}

	var tracks []LibraryTrack
	result := query.Select("id, title, artist, genre, duration_sec").
		Limit(limit).
		Offset(offset).
		Find(&tracks)

	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": tracks,
		"meta": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetTrack returns the full row for one track, features included.
func (h *TrackHandler) GetTrack(c *gin.Context) {
	id := c.Param("id")

	var track models.Track
	if err := h.db.Preload("Features").First(&track, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, track)
}
