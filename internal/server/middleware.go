package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const (
	maxLimiters       = 10000
	emergencyLimiters = 50000
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		format := "%s %s %d %s req=%s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond), RequestID(c.Request.Context())}
		if status >= http.StatusInternalServerError {
			logWarn(format, args...)
			return
		}
		logInfo(format, args...)
	}
}

func tracingMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("github.com/verte-zerg/typerush/internal/server")
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("typerush.request_id", RequestID(c.Request.Context())),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func (s *Server) getLimiter(key string) *rate.Limiter {
	now := s.now()
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	if entry, ok := s.limiters[key]; ok {
		entry.lastAccess = now
		return entry.limiter
	}
	if key == "" || key == "::1" {
		logWarn("Rate limiter key is empty or loopback: %q", key)
	}
	lim := rate.NewLimiter(rate.Limit(s.cfg.RateLimitRPS), s.cfg.RateLimitBurst)
	s.limiters[key] = &limiterEntry{limiter: lim, lastAccess: now}
	return lim
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please slow down"})
			return
		}
		c.Next()
	}
}

func (s *Server) cleanupLimiters() int {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	cutoff := s.now().Add(-s.cfg.RateLimiterTTL)
	removed := 0
	for key, entry := range s.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(s.limiters, key)
			removed++
		}
	}

	if len(s.limiters) > emergencyLimiters {
		logInfo("Rate limiter map too large (%d entries), dropping the oldest half", len(s.limiters))
		type keyed struct {
			key        string
			lastAccess time.Time
		}
		entries := make([]keyed, 0, len(s.limiters))
		for key, entry := range s.limiters {
			entries = append(entries, keyed{key: key, lastAccess: entry.lastAccess})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].lastAccess.Before(entries[j].lastAccess)
		})
		for _, e := range entries[:len(entries)/2] {
			delete(s.limiters, e.key)
			removed++
		}
	} else if len(s.limiters) > maxLimiters {
		logWarn("Rate limiter map holds %d entries", len(s.limiters))
	}
	return removed
}

func (s *Server) cleanupLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.cleanupLimiters(); removed > 0 {
				logInfo("Cleaned up %d stale rate limiters", removed)
			}
		}
	}
}
