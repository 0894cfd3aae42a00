package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mixbooth/internal/config"
	"mixbooth/internal/curator"
	database "mixbooth/internal/db"
	"mixbooth/internal/estimator"
	"mixbooth/internal/jobs"
	"mixbooth/internal/llm"
	"mixbooth/internal/player"
	"mixbooth/internal/storage"

	"mixbooth/internal/api/handlers"
	"mixbooth/internal/api/middleware"
)

type Server struct {
	cfg      *config.Config
	db       *database.Client
	storage  *storage.Client
	engine   *player.Engine
	book     *player.DurationBook
	registry *jobs.Registry
	router   *gin.Engine
}

func New(cfg *config.Config, db *database.Client, store *storage.Client, engine *player.Engine, book *player.DurationBook) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.SilentLogger(), gin.Recovery())

	s := &Server{
		cfg:      cfg,
		db:       db,
		storage:  store,
		engine:   engine,
		book:     book,
		registry: jobs.NewRegistry(),
		router:   router,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

	// "Authorization" must be allowed so the booth UI can send the JWT
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	secret := []byte(s.cfg.Server.JWTSecret)
	planner := llm.FromConfig(s.cfg)

	authHandler := handlers.NewAuthHandler(s.db.DB, secret)
	trackHandler := handlers.NewTrackHandler(s.db.DB)
	djHandler := handlers.NewDJHandler(
		s.db,
		s.registry,
		estimator.New(s.db.DB, planner, s.cfg.Planner.EstimatorModel, s.cfg.Planner.BatchSize),
		curator.New(planner, s.cfg.Planner.CuratorModel),
	)
	playerHandler := handlers.NewPlayerHandler(s.db.DB, s.storage, s.engine, s.book)

	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mixbooth"})
	})

	v1 := s.router.Group("/api/v1")
	{
		// Public
		v1.POST("/auth/login", authHandler.Login)

		// JWT required past this point
		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(secret))
		{
			protected.POST("/auth/register", middleware.RequireRole("admin"), authHandler.Register)

			protected.GET("/tracks", middleware.RequireRole("dj"), trackHandler.GetTracks)
			protected.GET("/tracks/:id", middleware.RequireRole("dj"), trackHandler.GetTrack)

			// Planning pipeline
			protected.POST("/dj/estimate", middleware.RequireRole("dj"), djHandler.StartEstimation)
			protected.GET("/dj/estimate/status", middleware.RequireRole("dj"), djHandler.EstimationStatus)
			protected.POST("/dj/estimate/cancel", middleware.RequireRole("dj"), djHandler.CancelEstimation)
			protected.POST("/dj/set", middleware.RequireRole("dj"), djHandler.BuildSet)

			// Transport
			protected.POST("/player/start", middleware.RequireRole("dj"), playerHandler.Start)
			protected.POST("/player/pause", middleware.RequireRole("dj"), playerHandler.Pause)
			protected.POST("/player/resume", middleware.RequireRole("dj"), playerHandler.Resume)
			protected.POST("/player/skip", middleware.RequireRole("dj"), playerHandler.Skip)
			protected.POST("/player/previous", middleware.RequireRole("dj"), playerHandler.Previous)
			protected.POST("/player/stop", middleware.RequireRole("dj"), playerHandler.Stop)
			protected.GET("/player/status", middleware.RequireRole("dj"), playerHandler.Status)
		}
	}
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
