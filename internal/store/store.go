// Package store persists typing sessions, per-player aggregates and trophies
// in SQLite or MySQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	_ "github.com/go-sql-driver/mysql" // MySQL driver.
	_ "modernc.org/sqlite"             // SQLite driver.
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Leaderboard metrics.
const (
	MetricWPM      = "wpm"
	MetricAccuracy = "accuracy"
)

// DefaultLeaderboardLimit is used when no positive limit is given.
const DefaultLeaderboardLimit = 10

const maxLeaderboardLimit = 100

// ErrInvalidMetric is returned for a leaderboard metric other than wpm or accuracy.
var ErrInvalidMetric = errors.New("invalid leaderboard metric")

var tracer = otel.Tracer("github.com/verte-zerg/typerush/internal/store")

// Store wraps SQL access for session data.
type Store struct {
	db     *sql.DB
	driver string
}

// Open opens or creates the SQLite database at path and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return OpenDSN(DriverSQLite, path)
}

// OpenDSN opens a database for driver and applies migrations.
func OpenDSN(driver, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	switch driver {
	case DriverSQLite:
	case DriverMySQL:
		dsn = ensureParseTime(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db, driver: driver}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// ensureParseTime adds parseTime=true to a MySQL DSN if not already present.
func ensureParseTime(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "parsetime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	stmts := sqliteSchema
	if s.driver == DriverMySQL {
		stmts = mysqlSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS typing_sessions (
		id INTEGER PRIMARY KEY,
		user_id TEXT,
		wpm INTEGER NOT NULL,
		raw_wpm INTEGER NOT NULL,
		accuracy INTEGER NOT NULL,
		consistency INTEGER NOT NULL,
		score INTEGER NOT NULL,
		words_typed INTEGER NOT NULL,
		time_taken INTEGER NOT NULL,
		difficulty TEXT NOT NULL,
		max_combo INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS typing_stats (
		user_id TEXT PRIMARY KEY,
		total_sessions INTEGER NOT NULL,
		best_wpm INTEGER NOT NULL,
		best_accuracy INTEGER NOT NULL,
		total_words_typed INTEGER NOT NULL,
		total_time_played INTEGER NOT NULL,
		average_wpm REAL NOT NULL,
		average_accuracy REAL NOT NULL,
		updated_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS player_profiles (
		user_id TEXT PRIMARY KEY,
		difficulty TEXT NOT NULL,
		max_combo INTEGER NOT NULL,
		max_streak INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS player_achievements (
		user_id TEXT NOT NULL,
		achievement TEXT NOT NULL,
		position INTEGER NOT NULL,
		unlocked_at TEXT NOT NULL,
		PRIMARY KEY (user_id, achievement)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_typing_sessions_user ON typing_sessions(user_id, ended_at);`,
	`CREATE INDEX IF NOT EXISTS idx_typing_sessions_ended_at ON typing_sessions(ended_at);`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS typing_sessions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(191) NULL,
		wpm INT NOT NULL,
		raw_wpm INT NOT NULL,
		accuracy INT NOT NULL,
		consistency INT NOT NULL,
		score INT NOT NULL,
		words_typed INT NOT NULL,
		time_taken INT NOT NULL,
		difficulty VARCHAR(16) NOT NULL,
		max_combo INT NOT NULL,
		errors INT NOT NULL,
		started_at VARCHAR(40) NOT NULL,
		ended_at VARCHAR(40) NOT NULL,
		INDEX idx_typing_sessions_user (user_id, ended_at),
		INDEX idx_typing_sessions_ended_at (ended_at)
	)`,
	`CREATE TABLE IF NOT EXISTS typing_stats (
		user_id VARCHAR(191) PRIMARY KEY,
		total_sessions INT NOT NULL,
		best_wpm INT NOT NULL,
		best_accuracy INT NOT NULL,
		total_words_typed INT NOT NULL,
		total_time_played INT NOT NULL,
		average_wpm DOUBLE NOT NULL,
		average_accuracy DOUBLE NOT NULL,
		updated_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS player_profiles (
		user_id VARCHAR(191) PRIMARY KEY,
		difficulty VARCHAR(16) NOT NULL,
		max_combo INT NOT NULL,
		max_streak INT NOT NULL,
		updated_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS player_achievements (
		user_id VARCHAR(191) NOT NULL,
		achievement VARCHAR(64) NOT NULL,
		position INT NOT NULL,
		unlocked_at VARCHAR(40) NOT NULL,
		PRIMARY KEY (user_id, achievement)
	)`,
}

// timeLayout keeps every fraction digit so stored timestamps compare
// correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func rollback(tx *sql.Tx) {
	if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
		// Best-effort rollback.
		_ = rerr
	}
}
