package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerush/internal/model"
	"github.com/verte-zerg/typerush/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "typerush.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, wpm := range []int{30, 45, 70} {
		_, err := st.SubmitSession(ctx, "gus", model.SessionSummary{
			WPM: wpm, Accuracy: 80 + i*5, Consistency: 70, Score: wpm * 10,
			TimeTakenSeconds: 60, Difficulty: model.Easy, EndedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if _, err := st.SubmitSession(ctx, "hal", model.SessionSummary{WPM: 50, Accuracy: 99, Difficulty: model.Hard, EndedAt: base}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return st
}

func TestModelLoadsReport(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{Player: "gus", CurveWindow: 1})
	if m.errMsg != "" {
		t.Fatalf("unexpected error: %s", m.errMsg)
	}
	if len(m.report.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(m.report.Sessions))
	}
	rows := m.sessions.Rows()
	if len(rows) != 3 || rows[0][3] != "70" {
		t.Fatalf("expected newest session first, got %v", rows)
	}
	board := m.board.Rows()
	if len(board) != 2 || board[0][1] != "gus" {
		t.Fatalf("unexpected wpm board: %v", board)
	}
}

func TestToggleMetricReloadsBoard(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 1})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	if m.cfg.Metric != store.MetricAccuracy {
		t.Fatalf("expected accuracy metric, got %q", m.cfg.Metric)
	}
	if board := m.board.Rows(); board[0][1] != "hal" {
		t.Fatalf("expected hal to lead by accuracy, got %v", board)
	}
}

func TestFilterAppliesDifficulty(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 1})
	m.startFilter()
	m.filterInputs[fieldDifficulty].SetValue("hard")
	m.filterInputs[fieldLast].SetValue("5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter mode to close: %s", m.filterError)
	}
	if m.cfg.Difficulty != model.Hard || m.cfg.Last != 5 {
		t.Fatalf("unexpected config: %+v", m.cfg)
	}
	if len(m.report.Sessions) != 1 || m.report.Sessions[0].UserID != "hal" {
		t.Fatalf("expected only hard sessions, got %+v", m.report.Sessions)
	}
}

func TestFilterRejectsBadInput(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 1})
	cases := map[int]string{fieldDifficulty: "brutal", fieldSince: "yesterday", fieldLast: "-1", fieldWindow: "0"}
	for field, value := range cases {
		m.startFilter()
		m.filterInputs[field].SetValue(value)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if !m.filterMode || m.filterError == "" {
			t.Fatalf("field %d: expected validation error for %q", field, value)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	}
}

func TestViewRendersTabs(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{Player: "gus", CurveWindow: 2})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	out := m.View()
	for _, want := range []string{"Overview", "Leaderboard", "player=gus", "Learning Curves"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
	m.moveTab(-1)
	if m.activeTab != tabAchievements {
		t.Fatalf("expected wrap to achievements tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Max combo") {
		t.Fatalf("expected achievements view")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if nextCurveWindow(1) != 5 || nextCurveWindow(5) != 10 || nextCurveWindow(7) != 10 {
		t.Fatalf("unexpected next windows")
	}
	if prevCurveWindow(5) != 1 || prevCurveWindow(10) != 5 || prevCurveWindow(7) != 5 {
		t.Fatalf("unexpected previous windows")
	}
}
