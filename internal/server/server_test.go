package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/typerush/internal/config"
	"github.com/verte-zerg/typerush/internal/model"
	"github.com/verte-zerg/typerush/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Addr:            ":0",
		DBDriver:        "sqlite",
		DBDSN:           "unused",
		RateLimitRPS:    100,
		RateLimitBurst:  100,
		RateLimiterTTL:  time.Hour,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
		TrustedProxies:  []string{"127.0.0.1"},
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "typerush.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st, cfg), st
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:4242"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSubmitSessionReportsRecords(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Router()

	rec := doJSON(t, h, http.MethodPost, "/typing/sessions",
		`{"userId":"alice","wpm":40,"accuracy":90,"score":120,"wordsTyped":20,"timeTaken":30,"difficulty":"medium"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	first := decode[model.SubmitResult](t, rec)
	if !first.IsNewRecord || first.SessionID == 0 {
		t.Fatalf("first session should be a record, got %+v", first)
	}

	rec = doJSON(t, h, http.MethodPost, "/typing/sessions",
		`{"userId":"alice","wpm":30,"accuracy":80,"score":60,"wordsTyped":15,"timeTaken":30,"difficulty":"easy"}`)
	second := decode[model.SubmitResult](t, rec)
	if second.IsNewRecord {
		t.Fatalf("slower session should not be a record")
	}
	if second.SessionID <= first.SessionID {
		t.Fatalf("session ids should increase: %d then %d", first.SessionID, second.SessionID)
	}
}

func TestSubmitSessionValidation(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Router()

	cases := map[string]string{
		"malformed":        `{"userId":`,
		"missing wpm":      `{"userId":"a","accuracy":90,"difficulty":"easy"}`,
		"accuracy range":   `{"userId":"a","wpm":10,"accuracy":101,"difficulty":"easy"}`,
		"negative wpm":     `{"userId":"a","wpm":-1,"accuracy":50,"difficulty":"easy"}`,
		"bad difficulty":   `{"userId":"a","wpm":10,"accuracy":50,"difficulty":"insane"}`,
		"missing difficul": `{"userId":"a","wpm":10,"accuracy":50}`,
		"bad user":         `{"userId":"a/b","wpm":10,"accuracy":50,"difficulty":"hard"}`,
	}
	for name, body := range cases {
		rec := doJSON(t, h, http.MethodPost, "/typing/sessions", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
		}
		resp := decode[map[string]string](t, rec)
		if resp["error"] == "" {
			t.Fatalf("%s: expected error message", name)
		}
	}
}

func TestAnonymousSubmissionIsStored(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	rec := doJSON(t, srv.Router(), http.MethodPost, "/typing/sessions",
		`{"wpm":50,"accuracy":95,"difficulty":"hard"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[model.SubmitResult](t, rec)
	if res.IsNewRecord {
		t.Fatalf("anonymous sessions never set records")
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, st := newTestServer(t, testConfig())
	ctx := context.Background()
	for _, wpm := range []int{40, 60} {
		_, err := st.SubmitSession(ctx, "bob", model.SessionSummary{
			WPM: wpm, Accuracy: 90, WordsTyped: 10, TimeTakenSeconds: 30, Difficulty: model.Medium,
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	h := srv.Router()

	rec := doJSON(t, h, http.MethodGet, "/typing/stats/bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stats := decode[model.UserStats](t, rec)
	if stats.TotalSessions != 2 || stats.BestWPM != 60 || stats.AverageWPM != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalTimePlayed != 60 || stats.TotalWordsTyped != 20 {
		t.Fatalf("unexpected totals: %+v", stats)
	}

	rec = doJSON(t, h, http.MethodGet, "/typing/stats/nobody", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown players should get zero stats, got %d", rec.Code)
	}
	if got := decode[model.UserStats](t, rec); got != (model.UserStats{}) {
		t.Fatalf("expected zero stats, got %+v", got)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv, st := newTestServer(t, testConfig())
	ctx := context.Background()
	submit := func(user string, wpm, acc int) {
		t.Helper()
		if _, err := st.SubmitSession(ctx, user, model.SessionSummary{WPM: wpm, Accuracy: acc, Difficulty: model.Easy}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	submit("a", 50, 80)
	submit("b", 70, 85)
	submit("c", 60, 99)
	h := srv.Router()

	type board struct {
		Entries []model.LeaderboardEntry `json:"entries"`
	}
	rec := doJSON(t, h, http.MethodGet, "/typing/leaderboard", "")
	got := decode[board](t, rec)
	if len(got.Entries) != 3 || got.Entries[0].UserID != "b" || got.Entries[2].UserID != "a" {
		t.Fatalf("unexpected wpm order: %+v", got.Entries)
	}

	rec = doJSON(t, h, http.MethodGet, "/typing/leaderboard?metric=ACCURACY&limit=1", "")
	got = decode[board](t, rec)
	if len(got.Entries) != 1 || got.Entries[0].UserID != "c" {
		t.Fatalf("unexpected accuracy board: %+v", got.Entries)
	}

	for _, q := range []string{"?metric=score", "?limit=abc", "?limit=-2"} {
		rec = doJSON(t, h, http.MethodGet, "/typing/leaderboard"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestLeaderboardEmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	rec := doJSON(t, srv.Router(), http.MethodGet, "/typing/leaderboard", "")
	if !strings.Contains(rec.Body.String(), `"entries":[]`) {
		t.Fatalf("expected empty entries array, got %s", rec.Body.String())
	}
}

type failingGateway struct{}

var errBoom = errors.New("boom")

func (failingGateway) SubmitSession(context.Context, string, model.SessionSummary) (model.SubmitResult, error) {
	return model.SubmitResult{}, errBoom
}

func (failingGateway) GetStats(context.Context, string) (model.UserStats, error) {
	return model.UserStats{}, errBoom
}

func (failingGateway) Leaderboard(context.Context, string, int) ([]model.LeaderboardEntry, error) {
	return nil, errBoom
}

func (failingGateway) Ping(context.Context) error { return errBoom }

func TestStorageFailures(t *testing.T) {
	h := New(failingGateway{}, testConfig()).Router()
	rec := doJSON(t, h, http.MethodPost, "/typing/sessions", `{"userId":"x","wpm":1,"accuracy":1,"difficulty":"easy"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("submit: expected 500, got %d", rec.Code)
	}
	if rec = doJSON(t, h, http.MethodGet, "/typing/stats/x", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("stats: expected 500, got %d", rec.Code)
	}
	if rec = doJSON(t, h, http.MethodGet, "/typing/leaderboard", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("leaderboard: expected 500, got %d", rec.Code)
	}
	if rec = doJSON(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz: expected 503, got %d", rec.Code)
	}
}

func TestHealthzAndNotFound(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Router()
	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", got)
	}
	if rec = doJSON(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRequestIDAndCacheHeaders(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Router()

	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("expected no-store cache control, got %q", cc)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	if got := out.Header().Get("X-Request-Id"); got != "fixed-id" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 2
	srv, _ := newTestServer(t, cfg)
	h := srv.Router()

	body := `{"userId":"r","wpm":10,"accuracy":50,"difficulty":"easy"}`
	for i := 0; i < 2; i++ {
		if rec := doJSON(t, h, http.MethodPost, "/typing/sessions", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := doJSON(t, h, http.MethodPost, "/typing/sessions", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	// reads are not limited
	if rec = doJSON(t, h, http.MethodGet, "/typing/leaderboard", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for leaderboard, got %d", rec.Code)
	}
}

func TestCleanupLimiters(t *testing.T) {
	srv := New(failingGateway{}, testConfig())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	srv.now = func() time.Time { return now }

	srv.getLimiter("old")
	now = now.Add(2 * time.Hour)
	srv.getLimiter("fresh")

	if removed := srv.cleanupLimiters(); removed != 1 {
		t.Fatalf("expected 1 stale limiter removed, got %d", removed)
	}
	if _, ok := srv.limiters["fresh"]; !ok {
		t.Fatalf("fresh limiter should survive cleanup")
	}
	if _, ok := srv.limiters["old"]; ok {
		t.Fatalf("old limiter should be removed")
	}
}

func TestCleanupLimitersEmergency(t *testing.T) {
	srv := New(failingGateway{}, testConfig())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	srv.now = func() time.Time { return now }
	total := emergencyLimiters + 2
	for i := 0; i < total; i++ {
		srv.limiters[strconv.Itoa(i)] = &limiterEntry{lastAccess: now.Add(time.Duration(i) * time.Millisecond)}
	}
	removed := srv.cleanupLimiters()
	if removed != total/2 {
		t.Fatalf("expected %d removed, got %d", total/2, removed)
	}
	if len(srv.limiters) != total-total/2 {
		t.Fatalf("unexpected remaining limiters: %d", len(srv.limiters))
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := New(failingGateway{}, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected run error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
