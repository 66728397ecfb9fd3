package game

import (
	"slices"

	"github.com/verte-zerg/typerush/internal/metrics"
	"github.com/verte-zerg/typerush/internal/model"
)

// Summarize builds the payload submitted to the gateway for a session.
func Summarize(s State) model.SessionSummary {
	timeTaken := s.TimeLimitSeconds - s.RemainingSeconds
	if !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
		timeTaken = int(s.FinishedAt.Sub(s.StartedAt).Seconds())
	}
	return model.SessionSummary{
		WPM:              s.WPM,
		Accuracy:         s.Accuracy,
		Score:            s.Score,
		WordsTyped:       metrics.WordsTyped(len(s.TypedText)),
		TimeTakenSeconds: max(0, timeTaken),
		Difficulty:       s.Difficulty,
		DifficultyName:   s.Difficulty.String(),
		RawWPM:           s.RawWPM,
		Consistency:      s.Consistency,
		MaxCombo:         s.MaxCombo,
		Errors:           s.ErrorCount,
		StartedAt:        s.StartedAt,
		EndedAt:          s.FinishedAt,
	}
}

// Restore seeds an Idle state from persisted trophies.
func Restore(p model.Profile) State {
	d := p.Difficulty
	if !d.Valid() {
		d = model.Medium
	}
	s := idleState(d)
	s.MaxCombo = max(0, p.MaxCombo)
	s.MaxStreak = max(0, p.MaxStreak)
	s.Achievements = slices.Clone(p.Achievements)
	return s
}

// Trophies extracts the cross-session fields worth persisting.
func Trophies(s State) model.Profile {
	return model.Profile{
		Difficulty:   s.Difficulty,
		MaxCombo:     s.MaxCombo,
		MaxStreak:    s.MaxStreak,
		Achievements: slices.Clone(s.Achievements),
	}
}
