package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mixbooth/internal/curator"
	database "mixbooth/internal/db"
	"mixbooth/internal/dj"
	"mixbooth/internal/estimator"
	"mixbooth/internal/jobs"
)

// DJHandler fronts the planning pipeline: feature estimation jobs and
// set building.
type DJHandler struct {
	db        *database.Client
	registry  *jobs.Registry
	estimator *estimator.Estimator
	curator   *curator.Curator
}

func NewDJHandler(db *database.Client, registry *jobs.Registry, est *estimator.Estimator, cur *curator.Curator) *DJHandler {
	return &DJHandler{db: db, registry: registry, estimator: est, curator: cur}
}

// StartEstimation kicks off a background feature-estimation job. Only
// one may run at a time.
func (h *DJHandler) StartEstimation(c *gin.Context) {
	job, err := h.registry.Begin(jobs.SlotEstimation)
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "An estimation job is already running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start job"})
		return
	}

	// Detached from the request lifetime; cancellation goes through the
	// registry, not the HTTP context.
	go h.estimator.Run(context.Background(), job)

	snap, _ := h.registry.Current(jobs.SlotEstimation)
	c.JSON(http.StatusAccepted, snap)
}

// EstimationStatus reports the latest estimation job snapshot.
func (h *DJHandler) EstimationStatus(c *gin.Context) {
	snap, ok := h.registry.Current(jobs.SlotEstimation)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No estimation job has run"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// CancelEstimation flags the running job; it stops at the next batch
// boundary and keeps everything written so far.
func (h *DJHandler) CancelEstimation(c *gin.Context) {
	if !h.registry.Cancel(jobs.SlotEstimation) {
		c.JSON(http.StatusConflict, gin.H{"error": "No estimation job is running"})
		return
	}
	snap, _ := h.registry.Current(jobs.SlotEstimation)
	c.JSON(http.StatusOK, snap)
}

// BuildSet runs the whole planning chain for one request: load catalog,
// select candidates, curate the final set.
func (h *DJHandler) BuildSet(c *gin.Context) {
	var params dj.SetupParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := params.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	catalog, err := h.db.LoadCatalog()
	if err != nil {
		log.Printf("❌ Catalog load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load catalog"})
		return
	}
	if len(catalog) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Catalog is empty"})
		return
	}

	pool := dj.Select(catalog, params)

	result, err := h.curator.Curate(c.Request.Context(), pool, params)
	if err != nil {
		switch {
		case errors.Is(err, curator.ErrPlannerParse):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Planner returned an unusable response"})
		case errors.Is(err, curator.ErrEmptySet):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Planner produced no usable set entries"})
		default:
			log.Printf("❌ Curation failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Set curation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"set":       result,
		"pool_size": len(pool),
	})
}
