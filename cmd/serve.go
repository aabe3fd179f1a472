package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/FumingPower3925/ttrpg-session-manager/config"
	"github.com/FumingPower3925/ttrpg-session-manager/handlers"
	"github.com/FumingPower3925/ttrpg-session-manager/logger"
	"github.com/FumingPower3925/ttrpg-session-manager/middleware"
	"github.com/FumingPower3925/ttrpg-session-manager/services"
	"github.com/FumingPower3925/ttrpg-session-manager/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session playback server",
	Long:  `Starts the local HTTP and websocket server the play-mode UI talks to.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	rootPath := config.GetSessionRoot()
	store, err := services.NewDirStore(rootPath)
	if err != nil {
		logger.L().Fatalw("cannot open session root", "path", rootPath, "error", err)
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	channel := services.NewBroadcastChannel(hub, store)
	engine := services.NewEngine(channel)
	engine.OnTrackChange(hub.BroadcastTrackChange)
	engine.OnPlayStateChange(hub.BroadcastStateChange)

	index := services.NewSearchIndex()
	manager := services.NewSessionManager(store, engine, index)

	watcher := services.NewFolderWatcher(rootPath, 2*time.Second, func() {
		logger.L().Info("session folder changed, re-scanning")
		if _, err := manager.Scan(); err != nil {
			logger.L().Warnw("re-scan after folder change failed", "error", err)
		}
	})
	if err := watcher.Start(); err != nil {
		logger.L().Warnw("folder watching disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(manager)
	playbackHandler := handlers.NewPlaybackHandler(engine, channel, hub)
	searchHandler := handlers.NewSearchHandler(manager)
	fileHandler := handlers.NewFileHandler(rootPath)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())

	setupRoutes(r, sessionHandler, playbackHandler, searchHandler, fileHandler, healthHandler)

	portStr := strconv.Itoa(config.GetServerPort())
	logger.L().Infow("session manager starting", "port", portStr, "root", rootPath)
	if err := r.Run(":" + portStr); err != nil {
		logger.L().Fatalw("failed to start server", "error", err)
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler, playbackHandler *handlers.PlaybackHandler, searchHandler *handlers.SearchHandler, fileHandler *handlers.FileHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Session configuration endpoints
		sessionGroup := apiGroup.Group("/session")
		{
			sessionGroup.POST("/scan", sessionHandler.Scan)
			sessionGroup.GET("", sessionHandler.GetConfig)
			sessionGroup.GET("/export", sessionHandler.Export)
			sessionGroup.POST("/import", sessionHandler.Import)
		}

		apiGroup.POST("/parts/:partId/activate", sessionHandler.ActivatePart)
		apiGroup.GET("/playlists", sessionHandler.FilterPlaylists)

		// Playback transport endpoints
		playbackGroup := apiGroup.Group("/playback")
		{
			playbackGroup.POST("/ambient", playbackHandler.PlayAmbient)
			playbackGroup.POST("/event/:playlistId", playbackHandler.StartEvent)
			playbackGroup.POST("/stop", playbackHandler.StopEvent)
			playbackGroup.POST("/pause", playbackHandler.Pause)
			playbackGroup.POST("/resume", playbackHandler.Resume)
			playbackGroup.POST("/next", playbackHandler.SkipNext)
			playbackGroup.POST("/previous", playbackHandler.SkipPrevious)
			playbackGroup.POST("/track/:index", playbackHandler.PlayTrackAtIndex)
			playbackGroup.PUT("/volume", playbackHandler.SetVolume)
			playbackGroup.GET("/state", playbackHandler.GetState)
			playbackGroup.POST("/ended", playbackHandler.TrackEnded)
			playbackGroup.POST("/failed", playbackHandler.TrackFailed)
			playbackGroup.POST("/position", playbackHandler.SyncPosition)
		}

		// Document search endpoint
		apiGroup.GET("/search", searchHandler.Search)

		// File streaming endpoint
		apiGroup.GET("/files/stream/*filepath", fileHandler.StreamFile)

		// WebSocket endpoint for playback state and channel commands
		apiGroup.GET("/ws", playbackHandler.HandleWebSocketConnection)
	}
}
