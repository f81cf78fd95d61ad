package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"memnotes/internal/handler"
	"memnotes/internal/logger"
	authmw "memnotes/internal/middleware"
	"memnotes/internal/scheduler"
	"memnotes/internal/storage"
	"memnotes/internal/store"
	"memnotes/internal/version"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func getDataDir() string {
	// Try to get data directory from environment variable
	dataDir := os.Getenv("MEMNOTES_DATA_DIR")
	if dataDir == "" {
		// Default to ./data directory
		dataDir = "data"
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	return dataDir
}

func main() {
	// 1. Initialize data directory
	dataDir := getDataDir()

	// 2. Initialize logger
	if err := logger.InitLogger(dataDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.L().Info("Starting Memory Notes",
		zap.String("data_dir", dataDir),
	)

	// 3. Open storage and the notes store
	st := storage.New(dataDir)
	sched := scheduler.New(zap.L())
	defer sched.Close()

	notes := store.Open(st, sched, zap.L())
	defer notes.Close()

	// Log delivered reminders; the mobile UI navigates on taps
	sched.OnReceived(func(n scheduler.Notification) {
		zap.L().Info("reminder delivered", zap.String("note_id", n.Data.NoteID))
	})

	// 4. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(zapLoggerMiddleware())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.Secure())
	e.Use(middleware.Gzip())

	// 5. Initialize handlers
	h := handler.NewHandler(notes, st, sched)

	// Start automatic backup scheduler
	h.StartAutoBackup()

	// 6. Routes
	api := e.Group("/api")

	// Public routes (no auth required)
	api.GET("/setup/check", h.CheckSetup)
	api.POST("/setup", h.Setup)
	api.POST("/auth/login", h.Login)

	// Version info endpoint (public)
	api.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, version.GetInfo())
	})

	// Protected routes (auth required)
	protected := api.Group("")
	protected.Use(authmw.JWTAuth())

	// Auth endpoints
	protected.POST("/auth/logout", h.Logout)

	// Notes API
	protected.GET("/notes", h.ListNotes)
	protected.POST("/notes", h.CreateNote)
	protected.GET("/notes/:id", h.GetNote)
	protected.PUT("/notes/:id", h.UpdateNote)
	protected.DELETE("/notes/:id", h.DeleteNote)

	// Reminders API
	protected.PUT("/notes/:id/reminder", h.SetReminder)
	protected.DELETE("/notes/:id/reminder", h.ClearReminder)

	// Media API
	protected.POST("/notes/:id/images", h.UploadImage)
	protected.DELETE("/notes/:id/images", h.DeleteImage)
	protected.POST("/notes/:id/audio", h.UploadAudio)

	// Categories API
	protected.GET("/categories", h.ListCategories)
	protected.POST("/categories", h.CreateCategory)
	protected.DELETE("/categories/:id", h.DeleteCategory)

	// Stats & fonts
	protected.GET("/stats", h.GetStats)
	protected.GET("/fonts", h.ListFonts)

	// Backup Config API
	protected.GET("/backup/config", h.GetBackupConfig)
	protected.PUT("/backup/config", h.UpdateBackupConfig)

	// Backup & Restore API
	protected.POST("/backup/webdav", h.BackupWebDAV)
	protected.POST("/backup/s3", h.BackupS3)
	protected.POST("/restore/webdav", h.RestoreWebDAV)
	protected.POST("/restore/s3", h.RestoreS3)

	// Backup List API
	protected.GET("/backup/list/webdav", h.ListWebDAVBackups)
	protected.GET("/backup/list/s3", h.ListS3Backups)

	// Data wipe
	protected.POST("/data/wipe", h.WipeData)

	// Serve stored media files from the data directory
	mediaDir := filepath.Join(dataDir, "media")
	e.Static("/media", mediaDir)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zap.L().Info("Server starting", zap.String("port", port))
	if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
		zap.L().Fatal("Server failed to start", zap.Error(err))
	}
}

// zapLoggerMiddleware returns a middleware that logs HTTP requests using zap
func zapLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			res := c.Response()

			err := next(c)

			// Calculate duration
			duration := time.Since(start)

			// Log request details
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Int64("bytes_out", res.Size),
				zap.Duration("duration", duration),
				zap.String("remote_ip", c.RealIP()),
				zap.String("user_agent", req.UserAgent()),
			}

			// Add request ID if available
			if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}

			// Log errors at error level, success at info level
			if err != nil {
				fields = append(fields, zap.Error(err))
				zap.L().Error("Request failed", fields...)
			} else if res.Status >= 500 {
				zap.L().Error("Server error", fields...)
			} else if res.Status >= 400 {
				zap.L().Warn("Client error", fields...)
			} else {
				zap.L().Info("Request completed", fields...)
			}

			return err
		}
	}
}
