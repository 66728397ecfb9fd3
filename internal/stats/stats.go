// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/typerush/internal/achievement"
	"github.com/verte-zerg/typerush/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a list of stored sessions.
type Summary struct {
	Sessions       int
	AvgWPM         float64
	BestWPM        int
	AvgAccuracy    float64
	BestAccuracy   int
	AvgConsistency float64
	BestScore      int
	TotalWords     int
	TotalSeconds   int
}

// Summarize folds sessions into a Summary.
func Summarize(sessions []model.SessionRecord) Summary {
	if len(sessions) == 0 {
		return Summary{}
	}
	var out Summary
	var wpm, acc, cons int
	for _, s := range sessions {
		wpm += s.WPM
		acc += s.Accuracy
		cons += s.Consistency
		out.BestWPM = max(out.BestWPM, s.WPM)
		out.BestAccuracy = max(out.BestAccuracy, s.Accuracy)
		out.BestScore = max(out.BestScore, s.Score)
		out.TotalWords += s.WordsTyped
		out.TotalSeconds += s.TimeTaken
	}
	n := float64(len(sessions))
	out.Sessions = len(sessions)
	out.AvgWPM = float64(wpm) / n
	out.AvgAccuracy = float64(acc) / n
	out.AvgConsistency = float64(cons) / n
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	low, high := lo.Min(values), lo.Max(values)
	if math.Abs(high-low) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - low) / (high - low) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[min(max(idx, 0), len(sparkChars)-1)])
	}
	return b.String()
}

// Series extracts one metric per session, in session order.
func Series(sessions []model.SessionRecord, metric func(model.SessionRecord) int) []float64 {
	return lo.Map(sessions, func(s model.SessionRecord, _ int) float64 { return float64(metric(s)) })
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	s := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.Sessions),
		fmt.Sprintf("Avg WPM: %.1f", s.AvgWPM),
		fmt.Sprintf("Best WPM: %d", s.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.1f%%", s.AvgAccuracy),
		fmt.Sprintf("Best Accuracy: %d%%", s.BestAccuracy),
		fmt.Sprintf("Avg Consistency: %.1f%%", s.AvgConsistency),
		fmt.Sprintf("Best Score: %d", s.BestScore),
		fmt.Sprintf("Words Typed: %d", s.TotalWords),
		fmt.Sprintf("Time Played: %s", FormatSeconds(s.TotalSeconds)),
		fmt.Sprintf("WPM trend: %s", Sparkline(Series(sessions, func(r model.SessionRecord) int { return r.WPM }))),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderUserStats prints the gateway aggregates of one player.
func RenderUserStats(w io.Writer, player string, st model.UserStats) error {
	if st.TotalSessions == 0 {
		_, err := fmt.Fprintf(w, "No sessions recorded for %s.\n", player)
		return err
	}
	headers := []string{"Player", "Sessions", "Best WPM", "Best Acc", "Avg WPM", "Avg Acc", "Words", "Time"}
	rows := [][]string{{
		player,
		fmt.Sprintf("%d", st.TotalSessions),
		fmt.Sprintf("%d", st.BestWPM),
		fmt.Sprintf("%d%%", st.BestAccuracy),
		fmt.Sprintf("%.1f", st.AverageWPM),
		fmt.Sprintf("%.1f%%", st.AverageAccuracy),
		fmt.Sprintf("%d", st.TotalWordsTyped),
		FormatSeconds(st.TotalTimePlayed),
	}}
	return writeLines(w, formatTable(headers, rows))
}

// RenderCurves prints learning curves for WPM and accuracy.
func RenderCurves(w io.Writer, sessions []model.SessionRecord, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, defaultPlotHeight, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionRecord, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Line{
		{Name: "WPM", Values: MovingAverage(Series(sessions, func(r model.SessionRecord) int { return r.WPM }), window)},
		{Name: "Accuracy", Values: MovingAverage(Series(sessions, func(r model.SessionRecord) int { return r.Accuracy }), window)},
		{Name: "Consistency", Values: MovingAverage(Series(sessions, func(r model.SessionRecord) int { return r.Consistency }), window)},
	}, width, height, useColor)
}

// LeaderboardRows formats entries as table rows, rank first.
func LeaderboardRows(entries []model.LeaderboardEntry) [][]string {
	return lo.Map(entries, func(e model.LeaderboardEntry, i int) []string {
		return []string{
			fmt.Sprintf("%d", i+1),
			e.UserID,
			fmt.Sprintf("%d", e.WPM),
			fmt.Sprintf("%d%%", e.Accuracy),
			fmt.Sprintf("%d", e.TotalSessions),
		}
	})
}

// LeaderboardHeaders are the column titles matching LeaderboardRows.
var LeaderboardHeaders = []string{"#", "Player", "Best WPM", "Best Acc", "Sessions"}

// RenderLeaderboard prints the ranked players.
func RenderLeaderboard(w io.Writer, metric string, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Leaderboard is empty.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Leaderboard (by %s)\n", metric); err != nil {
		return err
	}
	return writeLines(w, formatTable(LeaderboardHeaders, LeaderboardRows(entries)))
}

// AchievementLines lists every achievement with its unlock state.
func AchievementLines(unlocked []string) []string {
	return lo.Map(achievement.All(), func(id string, _ int) string {
		mark := "[ ]"
		if lo.Contains(unlocked, id) {
			mark = "[x]"
		}
		return fmt.Sprintf("%s %-18s %s", mark, id, achievement.Describe(id))
	})
}

// RenderAchievements prints unlocked and locked achievements.
func RenderAchievements(w io.Writer, profile model.Profile) error {
	all := achievement.All()
	got := lo.Filter(all, func(id string, _ int) bool { return lo.Contains(profile.Achievements, id) })
	header := fmt.Sprintf("Achievements %d/%d  (max combo %d, max streak %d)", len(got), len(all), profile.MaxCombo, profile.MaxStreak)
	return writeLines(w, append([]string{header}, AchievementLines(profile.Achievements)...))
}

// FormatSeconds renders a duration as h:mm:ss or m:ss.
func FormatSeconds(total int) string {
	total = max(total, 0)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
