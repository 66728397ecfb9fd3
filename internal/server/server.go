// Package server exposes the persistence gateway over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"github.com/verte-zerg/typerush/internal/config"
	"github.com/verte-zerg/typerush/internal/model"
)

// Gateway is the storage the HTTP handlers delegate to.
type Gateway interface {
	SubmitSession(ctx context.Context, userID string, summary model.SessionSummary) (model.SubmitResult, error)
	GetStats(ctx context.Context, userID string) (model.UserStats, error)
	Leaderboard(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error)
	Ping(ctx context.Context) error
}

// Server serves the typing endpoints.
type Server struct {
	gw      Gateway
	cfg     config.ServerConfig
	now     func() time.Time
	started time.Time

	limiterMu sync.Mutex
	limiters  map[string]*limiterEntry
}

// New creates a Server backed by gw.
func New(gw Gateway, cfg config.ServerConfig) *Server {
	return &Server{
		gw:       gw,
		cfg:      cfg,
		now:      time.Now,
		started:  time.Now(),
		limiters: make(map[string]*limiterEntry),
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLogMiddleware())
	router.Use(tracingMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	if err := router.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	typing := router.Group("/typing")
	typing.POST("/sessions", s.rateLimitMiddleware(), s.submitSessionHandler)
	typing.GET("/stats/:userId", s.statsHandler)
	typing.GET("/leaderboard", s.leaderboardHandler)
	router.GET("/healthz", s.healthzHandler)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.cleanupLoop(cleanupCtx, 30*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		logInfo("Server starting on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logInfo("Shutdown signal received, shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logWarn("HTTP server Shutdown: %v", err)
		return err
	}
	logInfo("Server shutdown complete")
	return nil
}
