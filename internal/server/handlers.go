package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/typerush/internal/model"
	"github.com/verte-zerg/typerush/internal/store"
)

const maxUserIDLength = 64

type submitRequest struct {
	UserID      string     `json:"userId"`
	WPM         *int       `json:"wpm" binding:"required,gte=0,lte=1000"`
	Accuracy    *int       `json:"accuracy" binding:"required,gte=0,lte=100"`
	Score       int        `json:"score" binding:"gte=0"`
	WordsTyped  int        `json:"wordsTyped" binding:"gte=0"`
	TimeTaken   int        `json:"timeTaken" binding:"gte=0,lte=86400"`
	Difficulty  string     `json:"difficulty" binding:"required"`
	RawWPM      int        `json:"rawWpm" binding:"gte=0"`
	Consistency int        `json:"consistency" binding:"gte=0,lte=100"`
	MaxCombo    int        `json:"maxCombo" binding:"gte=0"`
	Errors      int        `json:"errors" binding:"gte=0"`
	StartedAt   *time.Time `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt"`
}

func (r submitRequest) summary() (model.SessionSummary, error) {
	d, err := model.ParseDifficulty(r.Difficulty)
	if err != nil {
		return model.SessionSummary{}, err
	}
	s := model.SessionSummary{
		UserID:           strings.TrimSpace(r.UserID),
		WPM:              *r.WPM,
		Accuracy:         *r.Accuracy,
		Score:            r.Score,
		WordsTyped:       r.WordsTyped,
		TimeTakenSeconds: r.TimeTaken,
		Difficulty:       d,
		DifficultyName:   d.String(),
		RawWPM:           r.RawWPM,
		Consistency:      r.Consistency,
		MaxCombo:         r.MaxCombo,
		Errors:           r.Errors,
	}
	if r.StartedAt != nil {
		s.StartedAt = *r.StartedAt
	}
	if r.EndedAt != nil {
		s.EndedAt = *r.EndedAt
	}
	return s, nil
}

func validUserID(id string) bool {
	return id != "" && len(id) <= maxUserIDLength && !strings.ContainsAny(id, " \t\r\n/")
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}

func (s *Server) submitSessionHandler(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session: " + err.Error()})
		return
	}
	summary, err := req.summary()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if summary.UserID != "" && !validUserID(summary.UserID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	result, err := s.gw.SubmitSession(ctx, summary.UserID, summary)
	if err != nil {
		logWarn("Failed to save session req=%s: %v", RequestID(c.Request.Context()), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) statsHandler(c *gin.Context) {
	userID := c.Param("userId")
	if !validUserID(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	stats, err := s.gw.GetStats(ctx, userID)
	if err != nil {
		logWarn("Failed to load stats req=%s: %v", RequestID(c.Request.Context()), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) leaderboardHandler(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	entries, err := s.gw.Leaderboard(ctx, c.Query("metric"), limit)
	if errors.Is(err, store.ErrInvalidMetric) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metric must be wpm or accuracy"})
		return
	}
	if err != nil {
		logWarn("Failed to load leaderboard req=%s: %v", RequestID(c.Request.Context()), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) healthzHandler(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	uptime := s.now().Sub(s.started).Round(time.Second).String()
	if err := s.gw.Ping(ctx); err != nil {
		logWarn("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "uptime": uptime})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": uptime})
}
