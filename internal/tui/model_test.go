package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerush/internal/achievement"
	"github.com/verte-zerg/typerush/internal/game"
	"github.com/verte-zerg/typerush/internal/model"
)

type fixedSource string

func (f fixedSource) Generate(model.Difficulty) string { return string(f) }

type fakeGateway struct {
	mu      sync.Mutex
	calls   []model.SessionSummary
	players []string
	result  model.SubmitResult
	err     error
}

func (g *fakeGateway) SubmitSession(_ context.Context, userID string, summary model.SessionSummary) (model.SubmitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, summary)
	g.players = append(g.players, userID)
	return g.result, g.err
}

type fakeProfiles struct {
	mu    sync.Mutex
	saved []model.Profile
}

func (p *fakeProfiles) SaveProfile(_ context.Context, profile model.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, profile)
	return nil
}

func newTestModel(text string, gw Gateway, profiles ProfileStore) *Model {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	session := game.NewSession(game.New(), fixedSource(text), now)
	return NewModel(model.Config{Player: "ivy", Timeout: time.Second}, session, gw, profiles)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and any batched children. Callers must not pass
// commands that contain ticks.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func deliver(m *Model, msgs []tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestEnterStartsSession(t *testing.T) {
	m := newTestModel("abc", nil, nil)
	gen := m.gen
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected tick commands after start")
	}
	s := m.State()
	if s.Status != game.Playing || string(s.SourceText) != "abc" {
		t.Fatalf("unexpected state after start: %v %q", s.Status, string(s.SourceText))
	}
	if m.gen == gen {
		t.Fatalf("expected a new tick generation")
	}
}

func TestTypingToEndSubmitsOnce(t *testing.T) {
	gw := &fakeGateway{result: model.SubmitResult{SessionID: 7, IsNewRecord: true}}
	profiles := &fakeProfiles{}
	m := newTestModel("hi", gw, profiles)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(runes("h"))
	_, cmd := m.Update(runes("i"))
	if m.State().Status != game.Finished {
		t.Fatalf("expected finished, got %v", m.State().Status)
	}
	if !m.submitting {
		t.Fatalf("expected submission in flight")
	}
	deliver(m, runCmd(cmd))

	if len(gw.calls) != 1 || gw.players[0] != "ivy" {
		t.Fatalf("expected one submission for ivy, got %d %v", len(gw.calls), gw.players)
	}
	if gw.calls[0].DifficultyName != "medium" || gw.calls[0].Accuracy != 100 {
		t.Fatalf("unexpected summary: %+v", gw.calls[0])
	}
	if m.result == nil || m.result.SessionID != 7 || m.submitting {
		t.Fatalf("expected stored result, got %+v", m.result)
	}
	if !m.State().HasAchievement(achievement.NewRecord) {
		t.Fatalf("expected new record achievement")
	}
	if len(profiles.saved) < 1 || profiles.saved[0].UserID != "ivy" {
		t.Fatalf("expected profile save, got %+v", profiles.saved)
	}
	if !strings.Contains(m.View(), "New personal record!") {
		t.Fatalf("expected record notice in results view")
	}

	// further keys on the results screen never resubmit
	_, cmd = m.Update(runes("x"))
	if cmd != nil || len(gw.calls) != 1 {
		t.Fatalf("unexpected resubmission")
	}
}

func TestSubmissionFailureShownInFooter(t *testing.T) {
	gw := &fakeGateway{err: errors.New("offline")}
	m := newTestModel("a", gw, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := m.Update(runes("a"))
	before := m.State()
	deliver(m, runCmd(cmd))

	if !strings.Contains(m.renderFooter(), "failed to submit session: offline") {
		t.Fatalf("expected failure in footer, got %q", m.renderFooter())
	}
	after := m.State()
	if after.Status != before.Status || len(after.Achievements) != len(before.Achievements) {
		t.Fatalf("failed submission must not change state")
	}
}

func TestPauseStalesTicks(t *testing.T) {
	m := newTestModel("abcdef", nil, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	limit := m.State().RemainingSeconds

	m.Update(clockTickMsg{gen: m.gen})
	if got := m.State().RemainingSeconds; got != limit-1 {
		t.Fatalf("expected %d remaining, got %d", limit-1, got)
	}

	stale := m.gen
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.State().Status != game.Paused {
		t.Fatalf("expected paused")
	}
	m.Update(clockTickMsg{gen: stale})
	if got := m.State().RemainingSeconds; got != limit-1 {
		t.Fatalf("paused clock should not move, got %d", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.State().Status != game.Playing || cmd == nil {
		t.Fatalf("expected resume with fresh ticks")
	}
	m.Update(clockTickMsg{gen: stale})
	if got := m.State().RemainingSeconds; got != limit-1 {
		t.Fatalf("tick from before the pause must be ignored, got %d", got)
	}
	m.Update(clockTickMsg{gen: m.gen})
	if got := m.State().RemainingSeconds; got != limit-2 {
		t.Fatalf("expected %d remaining, got %d", limit-2, got)
	}
}

func TestClockRunOutFinishes(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestModel("abcdef", gw, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m.Update(runes("3"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	var cmd tea.Cmd
	for i := 0; i < game.TimeLimit(model.Hard); i++ {
		_, cmd = m.Update(clockTickMsg{gen: m.gen})
	}
	if m.State().Status != game.Finished {
		t.Fatalf("expected finished when the clock runs out")
	}
	deliver(m, runCmd(cmd))
	if len(gw.calls) != 1 || gw.calls[0].TimeTakenSeconds <= 0 {
		t.Fatalf("expected one submission with elapsed time, got %+v", gw.calls)
	}
}

func TestPowerUpKeys(t *testing.T) {
	m := newTestModel(strings.Repeat("a", 60), nil, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	if m.State().Active(model.TimeFreeze) {
		t.Fatalf("freeze must not activate without score")
	}
	for i := 0; i < 25; i++ {
		m.Update(runes("a"))
	}
	if m.State().Score < game.PowerUpCost(model.TimeFreeze) {
		t.Fatalf("expected enough score, got %d", m.State().Score)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	if !m.State().Active(model.TimeFreeze) {
		t.Fatalf("expected time freeze active")
	}
	remaining := m.State().RemainingSeconds
	m.Update(clockTickMsg{gen: m.gen})
	if m.State().RemainingSeconds != remaining {
		t.Fatalf("frozen clock should not move")
	}
	m.Update(powerTickMsg{gen: m.gen})
	if got := m.State().PowerUps[model.TimeFreeze]; got != 9 {
		t.Fatalf("expected power-up to decay to 9, got %d", got)
	}

	typed := len(m.State().TypedText)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true})
	if len(m.State().TypedText) != typed {
		t.Fatalf("alt chords must not be typed")
	}
}

func TestDifficultyKeysInIdle(t *testing.T) {
	m := newTestModel("abc", nil, nil)
	m.Update(runes("3"))
	if s := m.State(); s.Difficulty != model.Hard || s.RemainingSeconds != game.TimeLimit(model.Hard) {
		t.Fatalf("expected hard difficulty, got %v %d", s.Difficulty, s.RemainingSeconds)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.State().Difficulty != model.Easy {
		t.Fatalf("expected wrap to easy, got %v", m.State().Difficulty)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.State().Difficulty != model.Hard {
		t.Fatalf("expected wrap back to hard, got %v", m.State().Difficulty)
	}
}

func TestBackspaceAndEndKeys(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestModel("abcd", gw, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(runes("ax"))
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := string(m.State().TypedText); got != "a" {
		t.Fatalf("expected backspace to remove last rune, got %q", got)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	if m.State().Status != game.Finished {
		t.Fatalf("expected manual end")
	}
	deliver(m, runCmd(cmd))
	if len(gw.calls) != 1 {
		t.Fatalf("expected submission after manual end")
	}
}

func TestLateSubmissionIgnoredForNewRound(t *testing.T) {
	m := newTestModel("a", nil, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(runes("a"))
	round := m.round
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.round == round {
		t.Fatalf("expected a new round")
	}
	m.Update(submitResultMsg{round: round, result: model.SubmitResult{SessionID: 1}})
	if m.result != nil {
		t.Fatalf("late result must not attach to the new session")
	}
}

func TestViewPerStatus(t *testing.T) {
	m := newTestModel("ab", nil, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "typerush") {
		t.Fatalf("expected title on idle screen")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.View(), "Score 0") {
		t.Fatalf("expected HUD while playing")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !strings.Contains(m.View(), "Paused") {
		t.Fatalf("expected pause banner")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m.Update(runes("ab"))
	if !strings.Contains(m.View(), "WPM") {
		t.Fatalf("expected results screen")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel("abcd", nil, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(runes("ab"))
	out := m.renderFooter()
	if !containsAll(out, []string{"Player ivy", "Progress 50%", "Streak 2", "Best combo 2"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
