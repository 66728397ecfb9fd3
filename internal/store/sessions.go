package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/verte-zerg/typerush/internal/model"
)

// SubmitSession stores a finished session and folds it into the player's
// aggregate stats. A session is a personal record when it is the player's
// first or beats the best WPM or best accuracy. Anonymous sessions (empty
// userID) are stored but never set a record.
func (s *Store) SubmitSession(ctx context.Context, userID string, summary model.SessionSummary) (result model.SubmitResult, err error) {
	ctx, span := startSpan(ctx, "store.SubmitSession", attribute.String("typerush.user_id", userID))
	defer func() { endSpan(span, err) }()

	difficulty := summary.DifficultyName
	if difficulty == "" {
		difficulty = summary.Difficulty.String()
	}
	endedAt := summary.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	startedAt := summary.StartedAt
	if startedAt.IsZero() {
		startedAt = endedAt.Add(-time.Duration(summary.TimeTakenSeconds) * time.Second)
	}
	user := sql.NullString{String: userID, Valid: userID != ""}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.SubmitResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO typing_sessions (user_id, wpm, raw_wpm, accuracy, consistency, score, words_typed, time_taken, difficulty, max_combo, errors, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user,
		summary.WPM,
		summary.RawWPM,
		summary.Accuracy,
		summary.Consistency,
		summary.Score,
		summary.WordsTyped,
		summary.TimeTakenSeconds,
		difficulty,
		summary.MaxCombo,
		summary.Errors,
		formatTime(startedAt),
		formatTime(endedAt),
	)
	if err != nil {
		return model.SubmitResult{}, fmt.Errorf("failed to insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.SubmitResult{}, fmt.Errorf("failed to read session id: %w", err)
	}
	result.SessionID = id

	if userID != "" {
		result.IsNewRecord, err = updateStats(ctx, tx, userID, summary)
		if err != nil {
			return model.SubmitResult{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return model.SubmitResult{}, fmt.Errorf("failed to commit session: %w", err)
	}
	return result, nil
}

func updateStats(ctx context.Context, tx *sql.Tx, userID string, summary model.SessionSummary) (bool, error) {
	var prev model.UserStats
	err := tx.QueryRowContext(ctx,
		`SELECT total_sessions, best_wpm, best_accuracy, total_words_typed, total_time_played
		 FROM typing_stats WHERE user_id = ?`, userID).
		Scan(&prev.TotalSessions, &prev.BestWPM, &prev.BestAccuracy, &prev.TotalWordsTyped, &prev.TotalTimePlayed)
	now := formatTime(time.Now())

	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO typing_stats (user_id, total_sessions, best_wpm, best_accuracy, total_words_typed, total_time_played, average_wpm, average_accuracy, updated_at)
			 VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?)`,
			userID, summary.WPM, summary.Accuracy, summary.WordsTyped, summary.TimeTakenSeconds,
			float64(summary.WPM), float64(summary.Accuracy), now)
		if err != nil {
			return false, fmt.Errorf("failed to insert stats: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load stats: %w", err)
	}

	var avgWPM, avgAccuracy sql.NullFloat64
	if err := tx.QueryRowContext(ctx,
		`SELECT AVG(wpm), AVG(accuracy) FROM typing_sessions WHERE user_id = ?`, userID).
		Scan(&avgWPM, &avgAccuracy); err != nil {
		return false, fmt.Errorf("failed to average sessions: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE typing_stats SET
			total_sessions = ?,
			best_wpm = ?,
			best_accuracy = ?,
			total_words_typed = ?,
			total_time_played = ?,
			average_wpm = ?,
			average_accuracy = ?,
			updated_at = ?
		 WHERE user_id = ?`,
		prev.TotalSessions+1,
		max(prev.BestWPM, summary.WPM),
		max(prev.BestAccuracy, summary.Accuracy),
		prev.TotalWordsTyped+summary.WordsTyped,
		prev.TotalTimePlayed+summary.TimeTakenSeconds,
		avgWPM.Float64,
		avgAccuracy.Float64,
		now,
		userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update stats: %w", err)
	}
	return summary.WPM > prev.BestWPM || summary.Accuracy > prev.BestAccuracy, nil
}

// GetStats returns the aggregate stats of a player; zero values when the
// player has no sessions.
func (s *Store) GetStats(ctx context.Context, userID string) (stats model.UserStats, err error) {
	ctx, span := startSpan(ctx, "store.GetStats", attribute.String("typerush.user_id", userID))
	defer func() { endSpan(span, err) }()

	err = s.db.QueryRowContext(ctx,
		`SELECT total_sessions, best_wpm, best_accuracy, total_words_typed, total_time_played, average_wpm, average_accuracy
		 FROM typing_stats WHERE user_id = ?`, userID).
		Scan(&stats.TotalSessions, &stats.BestWPM, &stats.BestAccuracy, &stats.TotalWordsTyped,
			&stats.TotalTimePlayed, &stats.AverageWPM, &stats.AverageAccuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserStats{}, nil
	}
	if err != nil {
		return model.UserStats{}, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}

// NormalizeLeaderboard validates metric and clamps limit, applying defaults.
func NormalizeLeaderboard(metric string, limit int) (string, int, error) {
	metric = strings.ToLower(strings.TrimSpace(metric))
	if metric == "" {
		metric = MetricWPM
	}
	if metric != MetricWPM && metric != MetricAccuracy {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidMetric, metric)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return metric, min(limit, maxLeaderboardLimit), nil
}

// Leaderboard ranks players by their best WPM or best accuracy.
func (s *Store) Leaderboard(ctx context.Context, metric string, limit int) (entries []model.LeaderboardEntry, err error) {
	metric, limit, err = NormalizeLeaderboard(metric, limit)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "store.Leaderboard", attribute.String("typerush.metric", metric))
	defer func() { endSpan(span, err) }()

	order := "best_wpm DESC, best_accuracy DESC"
	if metric == MetricAccuracy {
		order = "best_accuracy DESC, best_wpm DESC"
	}
	query := fmt.Sprintf(`SELECT user_id, best_wpm, best_accuracy, total_sessions
		FROM typing_stats
		WHERE total_sessions > 0
		ORDER BY %s, user_id ASC
		LIMIT ?`, order)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var entry model.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.WPM, &entry.Accuracy, &entry.TotalSessions); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return entries, nil
}

// ListSessions returns stored sessions filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) (sessions []model.SessionRecord, err error) {
	ctx, span := startSpan(ctx, "store.ListSessions", attribute.String("typerush.user_id", cfg.Player))
	defer func() { endSpan(span, err) }()

	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Player != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, cfg.Player)
	}
	if cfg.Difficulty.Valid() {
		clauses = append(clauses, "difficulty = ?")
		args = append(args, cfg.Difficulty.String())
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT id, user_id, ended_at, difficulty, wpm, raw_wpm, accuracy, consistency, score, words_typed, time_taken
		FROM typing_sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var rec model.SessionRecord
		var user sql.NullString
		var endedAt, difficulty string
		if err := rows.Scan(&rec.SessionID, &user, &endedAt, &difficulty, &rec.WPM, &rec.RawWPM,
			&rec.Accuracy, &rec.Consistency, &rec.Score, &rec.WordsTyped, &rec.TimeTaken); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.UserID = user.String
		if rec.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, fmt.Errorf("failed to parse session time: %w", err)
		}
		if d, perr := model.ParseDifficulty(difficulty); perr == nil {
			rec.Difficulty = d
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return sessions, nil
}
