package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/verte-zerg/typerush/internal/model"
)

// LoadProfile returns the saved trophies of a player. A player without a
// saved profile gets an empty one.
func (s *Store) LoadProfile(ctx context.Context, userID string) (profile model.Profile, err error) {
	ctx, span := startSpan(ctx, "store.LoadProfile", attribute.String("typerush.user_id", userID))
	defer func() { endSpan(span, err) }()

	profile.UserID = userID
	var difficulty string
	err = s.db.QueryRowContext(ctx,
		`SELECT difficulty, max_combo, max_streak FROM player_profiles WHERE user_id = ?`, userID).
		Scan(&difficulty, &profile.MaxCombo, &profile.MaxStreak)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return model.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	default:
		if d, perr := model.ParseDifficulty(difficulty); perr == nil {
			profile.Difficulty = d
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT achievement FROM player_achievements WHERE user_id = ? ORDER BY position ASC`, userID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to load achievements: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return model.Profile{}, fmt.Errorf("failed to scan achievement: %w", err)
		}
		profile.Achievements = append(profile.Achievements, id)
	}
	if err := rows.Err(); err != nil {
		return model.Profile{}, fmt.Errorf("failed to read achievements: %w", err)
	}
	return profile, nil
}

// SaveProfile replaces the saved trophies of p.UserID. Achievements already
// stored keep their unlock time.
func (s *Store) SaveProfile(ctx context.Context, p model.Profile) (err error) {
	if p.UserID == "" {
		return fmt.Errorf("profile requires a user id")
	}
	ctx, span := startSpan(ctx, "store.SaveProfile", attribute.String("typerush.user_id", p.UserID))
	defer func() { endSpan(span, err) }()

	difficulty := p.Difficulty
	if !difficulty.Valid() {
		difficulty = model.Medium
	}
	now := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err = tx.ExecContext(ctx, `DELETE FROM player_profiles WHERE user_id = ?`, p.UserID); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO player_profiles (user_id, difficulty, max_combo, max_streak, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.UserID, difficulty.String(), p.MaxCombo, p.MaxStreak, now); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	known := map[string]bool{}
	rows, err := tx.QueryContext(ctx, `SELECT achievement FROM player_achievements WHERE user_id = ?`, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to load achievements: %w", err)
	}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan achievement: %w", err)
		}
		known[id] = true
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("failed to read achievements: %w", err)
	}
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}

	for i, id := range p.Achievements {
		if known[id] {
			if _, err = tx.ExecContext(ctx,
				`UPDATE player_achievements SET position = ? WHERE user_id = ? AND achievement = ?`,
				i, p.UserID, id); err != nil {
				return fmt.Errorf("failed to order achievement: %w", err)
			}
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO player_achievements (user_id, achievement, position, unlocked_at) VALUES (?, ?, ?, ?)`,
			p.UserID, id, i, now); err != nil {
			return fmt.Errorf("failed to save achievement: %w", err)
		}
		known[id] = true
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile: %w", err)
	}
	return nil
}
