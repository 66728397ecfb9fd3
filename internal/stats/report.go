package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/typerush/internal/model"
)

// Source is the storage a report is built from.
type Source interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error)
	GetStats(ctx context.Context, userID string) (model.UserStats, error)
	Leaderboard(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error)
	LoadProfile(ctx context.Context, userID string) (model.Profile, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions    []model.SessionRecord
	Stats       model.UserStats
	Profile     model.Profile
	Leaderboard []model.LeaderboardEntry
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	sessions, err := src.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	report := Report{Sessions: sessions}

	if cfg.Player != "" {
		if report.Stats, err = src.GetStats(ctx, cfg.Player); err != nil {
			return Report{}, err
		}
		if report.Profile, err = src.LoadProfile(ctx, cfg.Player); err != nil {
			return Report{}, err
		}
	}
	if report.Leaderboard, err = src.Leaderboard(ctx, cfg.Metric, cfg.Limit); err != nil {
		return Report{}, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return report, nil
}

// RenderReport prints a report as plain text: the history summary, the
// player's aggregates when cfg names a player, and the learning curves.
func RenderReport(w io.Writer, r Report, cfg model.StatsConfig) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if cfg.Player != "" {
		if err := RenderUserStats(w, cfg.Player, r.Stats); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if len(r.Sessions) < 2 {
		return nil
	}
	return RenderCurves(w, r.Sessions, max(1, cfg.CurveWindow))
}
