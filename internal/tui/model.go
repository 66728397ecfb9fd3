// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typerush/internal/achievement"
	"github.com/verte-zerg/typerush/internal/game"
	"github.com/verte-zerg/typerush/internal/metrics"
	"github.com/verte-zerg/typerush/internal/model"
	"github.com/verte-zerg/typerush/internal/stats"
)

const (
	tickInterval   = time.Second
	defaultTimeout = 5 * time.Second
)

// Gateway persists finished sessions.
type Gateway interface {
	SubmitSession(ctx context.Context, userID string, summary model.SessionSummary) (model.SubmitResult, error)
}

// ProfileStore keeps trophies across runs.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p model.Profile) error
}

type clockTickMsg struct{ gen int }

type powerTickMsg struct{ gen int }

type submitResultMsg struct {
	round  int
	result model.SubmitResult
	err    error
}

type profileSavedMsg struct{ err error }

// Model implements the Bubble Tea typing UI.
type Model struct {
	config   model.Config
	session  *game.Session
	gateway  Gateway
	profiles ProfileStore

	keys    keyMap
	help    help.Model
	timeBar progress.Model

	width  int
	height int

	// gen tags in-flight ticks; bumping it makes them stale.
	gen int

	// round counts started sessions so late submissions are not shown
	// on a newer session's results.
	round      int
	baseline   []string
	submitting bool
	result     *model.SubmitResult
	footerErr  string
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	hudStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	activeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	comboStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14")).Bold(true)
	panelStyle       = lipgloss.NewStyle().
				Padding(1, 3).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
)

// NewModel constructs a typing TUI model around session. gateway and
// profiles may be nil.
func NewModel(cfg model.Config, session *game.Session, gateway Gateway, profiles ProfileStore) *Model {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	bar := progress.New(progress.WithGradient("#C89A3A", "#FF4D4F"), progress.WithoutPercentage())
	return &Model{
		config:   cfg,
		session:  session,
		gateway:  gateway,
		profiles: profiles,
		keys:     defaultKeyMap(),
		help:     help.New(),
		timeBar:  bar,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// State returns the current session state.
func (m *Model) State() game.State {
	return m.session.State()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.timeBar.Width = max(10, min(60, msg.Width-20))
		m.help.Width = msg.Width
		return m, nil
	case clockTickMsg:
		if msg.gen != m.gen || m.State().Status != game.Playing {
			return m, nil
		}
		if m.session.TickSecond() {
			return m, m.onFinished()
		}
		return m, m.tick(func(gen int) tea.Msg { return clockTickMsg{gen: gen} })
	case powerTickMsg:
		if msg.gen != m.gen || m.State().Status != game.Playing {
			return m, nil
		}
		m.session.TickPowerUps()
		return m, m.tick(func(gen int) tea.Msg { return powerTickMsg{gen: gen} })
	case submitResultMsg:
		return m, m.onSubmitted(msg)
	case profileSavedMsg:
		if msg.err != nil {
			m.footerErr = fmt.Sprintf("failed to save profile: %v", msg.err)
			logErrf("failed to save profile: %v\n", msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Sequence(m.saveProfile(), tea.Quit)
		}
		switch m.State().Status {
		case game.Idle:
			return m.updateIdle(msg)
		case game.Playing:
			return m.updatePlaying(msg)
		case game.Paused:
			return m.updatePaused(msg)
		case game.Finished:
			return m.updateFinished(msg)
		}
	}
	return m, nil
}

func (m *Model) updateIdle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Start):
		return m, m.start()
	case key.Matches(msg, m.keys.Difficulty):
		m.selectDifficulty(msg.String())
	case key.Matches(msg, m.keys.Cycle):
		m.cycleDifficulty(msg.String() == "right")
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Sequence(m.saveProfile(), tea.Quit)
	}
	return m, nil
}

func (m *Model) updatePlaying(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	for _, p := range model.PowerUps {
		if key.Matches(msg, m.keys.PowerUps[p]) {
			m.session.Activate(p)
			return m, nil
		}
	}
	switch {
	case key.Matches(msg, m.keys.Pause):
		m.gen++
		m.session.Pause()
		return m, nil
	case key.Matches(msg, m.keys.End):
		if m.session.End() {
			return m, m.onFinished()
		}
		return m, nil
	case key.Matches(msg, m.keys.Restart):
		m.gen++
		m.session.Reset()
		return m, nil
	case key.Matches(msg, m.keys.Backspace):
		m.session.Backspace()
		return m, nil
	}
	switch msg.Type {
	case tea.KeySpace:
		return m, m.typeRunes([]rune{' '})
	case tea.KeyRunes:
		if msg.Alt {
			return m, nil
		}
		return m, m.typeRunes(msg.Runes)
	}
	return m, nil
}

func (m *Model) updatePaused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Resume):
		m.session.Resume()
		if m.State().Status == game.Playing {
			return m, m.armTicks()
		}
	case key.Matches(msg, m.keys.End):
		if m.session.End() {
			return m, m.onFinished()
		}
	case key.Matches(msg, m.keys.Restart):
		m.session.Reset()
	}
	return m, nil
}

func (m *Model) updateFinished(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Start):
		return m, m.start()
	case key.Matches(msg, m.keys.Difficulty):
		m.selectDifficulty(msg.String())
	case key.Matches(msg, m.keys.Restart):
		m.session.Reset()
		m.result = nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Sequence(m.saveProfile(), tea.Quit)
	}
	return m, nil
}

func (m *Model) start() tea.Cmd {
	before := m.State()
	m.session.Start(0)
	if m.State().Status != game.Playing {
		return nil
	}
	m.round++
	m.baseline = slices.Clone(before.Achievements)
	m.result = nil
	m.submitting = false
	m.footerErr = ""
	return m.armTicks()
}

// armTicks starts a fresh generation of both one-second sources.
func (m *Model) armTicks() tea.Cmd {
	m.gen++
	return tea.Batch(
		m.tick(func(gen int) tea.Msg { return clockTickMsg{gen: gen} }),
		m.tick(func(gen int) tea.Msg { return powerTickMsg{gen: gen} }),
	)
}

func (m *Model) tick(build func(gen int) tea.Msg) tea.Cmd {
	gen := m.gen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return build(gen) })
}

func (m *Model) typeRunes(runes []rune) tea.Cmd {
	for _, r := range runes {
		if m.session.Type(r) {
			return m.onFinished()
		}
	}
	return nil
}

func (m *Model) selectDifficulty(k string) {
	switch k {
	case "1":
		m.session.SetDifficulty(model.Easy)
	case "2":
		m.session.SetDifficulty(model.Medium)
	case "3":
		m.session.SetDifficulty(model.Hard)
	}
}

func (m *Model) cycleDifficulty(forward bool) {
	levels := model.Difficulties
	idx := slices.Index(levels, m.State().Difficulty)
	if forward {
		idx = (idx + 1) % len(levels)
	} else {
		idx = (idx - 1 + len(levels)) % len(levels)
	}
	m.session.SetDifficulty(levels[idx])
}

// onFinished stops the tick sources and fires the submission exactly once
// per finished session.
func (m *Model) onFinished() tea.Cmd {
	m.gen++
	cmds := []tea.Cmd{m.saveProfile()}
	if m.gateway != nil {
		m.submitting = true
		cmds = append(cmds, submitCmd(m.gateway, m.round, m.config.Player, game.Summarize(m.State()), m.config.Timeout))
	}
	return tea.Batch(cmds...)
}

func submitCmd(gw Gateway, round int, player string, summary model.SessionSummary, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := gw.SubmitSession(ctx, player, summary)
		return submitResultMsg{round: round, result: res, err: err}
	}
}

func (m *Model) onSubmitted(msg submitResultMsg) tea.Cmd {
	current := msg.round == m.round
	if current {
		m.submitting = false
	}
	if msg.err != nil {
		m.footerErr = fmt.Sprintf("failed to submit session: %v", msg.err)
		logErrf("failed to submit session: %v\n", msg.err)
		return nil
	}
	res := msg.result
	if current {
		m.result = &res
	}
	if res.IsNewRecord && !m.State().HasAchievement(achievement.NewRecord) {
		m.session.NoteRecord()
		return m.saveProfile()
	}
	return nil
}

func (m *Model) saveProfile() tea.Cmd {
	if m.profiles == nil || m.config.Player == "" {
		return nil
	}
	profile := game.Trophies(m.State())
	profile.UserID = m.config.Player
	profiles := m.profiles
	timeout := m.config.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return profileSavedMsg{err: profiles.SaveProfile(ctx, profile)}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	s := m.State()
	var content string
	switch s.Status {
	case game.Idle:
		content = m.renderIdle(s)
	case game.Finished:
		content = m.renderResults(s)
	default:
		content = m.renderPlaying(s)
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(1, int(float64(m.width)*0.70))
}

func (m *Model) renderIdle(s game.State) string {
	levels := make([]string, 0, len(model.Difficulties))
	for i, d := range model.Difficulties {
		label := fmt.Sprintf("%d %s %ds", i+1, d.String(), game.TimeLimit(d))
		if d == s.Difficulty {
			label = activeStyle.Render("[" + label + "]")
		} else {
			label = hudStyle.Render(" " + label + " ")
		}
		levels = append(levels, label)
	}
	lines := []string{
		titleStyle.Render("typerush"),
		"",
		strings.Join(levels, "  "),
		"",
		hudStyle.Render(fmt.Sprintf("Best combo %d  Best streak %d  Achievements %d/%d",
			s.MaxCombo, s.MaxStreak, len(s.Achievements), len(achievement.All()))),
		"",
		m.help.ShortHelpView(m.keys.idleHelp()),
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderPlaying(s game.State) string {
	cursor := s.CursorIndex
	if s.Status != game.Playing || cursor >= len(s.SourceText) {
		cursor = -1
	}
	runes := buildStyledRunes(s.SourceText, s.Marks, cursor)
	text := wrapStyledRunes(runes, m.contentWidth())
	if w := m.contentWidth(); w > 0 {
		text = lipgloss.NewStyle().Width(w).Render(text)
	}

	ratio := 0.0
	if s.TimeLimitSeconds > 0 {
		ratio = float64(s.RemainingSeconds) / float64(s.TimeLimitSeconds)
	}
	lines := []string{
		m.renderHUD(s),
		m.timeBar.ViewAs(ratio),
		"",
		text,
		"",
		m.renderPowerUps(s),
	}
	if s.Status == game.Paused {
		lines = append(lines, "", titleStyle.Render("Paused"), m.help.ShortHelpView(m.keys.pausedHelp()))
	} else {
		lines = append(lines, "", m.help.ShortHelpView(m.keys.playingHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderHUD(s game.State) string {
	combo := fmt.Sprintf("Combo %d", s.Combo)
	if s.Combo >= 10 {
		combo = comboStyle.Render(fmt.Sprintf("Combo %d x%d", s.Combo, s.Combo/10+1))
	} else {
		combo = hudStyle.Render(combo)
	}
	return strings.Join([]string{
		hudStyle.Render(fmt.Sprintf("%s  %s", s.Difficulty.String(), stats.FormatSeconds(s.RemainingSeconds))),
		hudStyle.Render(fmt.Sprintf("WPM %d", s.WPM)),
		hudStyle.Render(fmt.Sprintf("Acc %d%%", s.Accuracy)),
		combo,
		hudStyle.Render(fmt.Sprintf("Score %d", s.Score)),
		hudStyle.Render(fmt.Sprintf("%d%%", s.Progress())),
	}, "  ")
}

func (m *Model) renderPowerUps(s game.State) string {
	parts := make([]string, 0, len(model.PowerUps))
	for _, p := range model.PowerUps {
		keyHelp := m.keys.PowerUps[p].Help().Key
		switch {
		case s.Active(p):
			parts = append(parts, activeStyle.Render(fmt.Sprintf("%s %s %ds", keyHelp, p.Label(), s.PowerUps[p])))
		case s.CanActivate(p):
			parts = append(parts, correctStyle.Render(fmt.Sprintf("%s %s (%d)", keyHelp, p.Label(), game.PowerUpCost(p))))
		default:
			parts = append(parts, pendingStyle.Render(fmt.Sprintf("%s %s (%d)", keyHelp, p.Label(), game.PowerUpCost(p))))
		}
	}
	return strings.Join(parts, "   ")
}

func (m *Model) renderResults(s game.State) string {
	summary := game.Summarize(s)
	rating := metrics.RateSession(s.WPM, s.Accuracy)
	lines := []string{
		titleStyle.Render(string(rating)),
		"",
		fmt.Sprintf("WPM %d   Raw %d   Accuracy %d%%   Consistency %d%%", s.WPM, s.RawWPM, s.Accuracy, s.Consistency),
		fmt.Sprintf("Score %d   Words %d   Errors %d   Max combo %d   Time %s",
			s.Score, summary.WordsTyped, s.ErrorCount, s.MaxCombo, stats.FormatSeconds(summary.TimeTakenSeconds)),
	}
	if len(s.WPMSamples) > 1 {
		samples := make([]float64, len(s.WPMSamples))
		for i, v := range s.WPMSamples {
			samples[i] = float64(v)
		}
		lines = append(lines, hudStyle.Render("WPM "+stats.Sparkline(samples)))
	}
	if badges := metrics.Badges(s.NetWPM, s.Accuracy, s.Consistency); len(badges) > 0 {
		lines = append(lines, "", comboStyle.Render(strings.Join(badges, "  ")))
	}
	if unlocked := m.newAchievements(s); len(unlocked) > 0 {
		lines = append(lines, "", titleStyle.Render("Unlocked"))
		for _, id := range unlocked {
			lines = append(lines, activeStyle.Render(id)+hudStyle.Render("  "+achievement.Describe(id)))
		}
	}
	switch {
	case m.submitting:
		lines = append(lines, "", hudStyle.Render("Saving session..."))
	case m.result != nil && m.result.IsNewRecord:
		lines = append(lines, "", comboStyle.Render("New personal record!"))
	}
	lines = append(lines, "", m.help.ShortHelpView(m.keys.finishedHelp()))
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m *Model) newAchievements(s game.State) []string {
	var out []string
	for _, id := range s.Achievements {
		if !slices.Contains(m.baseline, id) {
			out = append(out, id)
		}
	}
	return out
}

func (m *Model) renderFooter() string {
	if m.footerErr != "" {
		return errorStyle.Render(m.footerErr)
	}
	player := m.config.Player
	if player == "" {
		player = "anonymous"
	}
	s := m.State()
	segments := []string{fmt.Sprintf("Player %s", player)}
	if s.Status == game.Playing || s.Status == game.Paused {
		segments = append(segments, fmt.Sprintf("Progress %d%%", s.Progress()), fmt.Sprintf("Streak %d", s.Streak))
	}
	segments = append(segments, fmt.Sprintf("Best combo %d", s.MaxCombo))
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
