package game

import (
	"time"

	"github.com/verte-zerg/typerush/internal/model"
)

// TextSource supplies the text for a new session.
type TextSource interface {
	Generate(d model.Difficulty) string
}

// Session owns the current State and stamps events with its clock before
// handing them to Reduce.
type Session struct {
	state  State
	source TextSource
	now    func() time.Time
}

// NewSession creates a dispatcher starting from initial. A nil clock uses
// time.Now.
func NewSession(initial State, source TextSource, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{state: initial, source: source, now: now}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Apply reduces ev into the current state and reports whether the session
// entered Finished on this transition.
func (s *Session) Apply(ev Event) bool {
	prev := s.state.Status
	s.state = Reduce(s.state, ev)
	return prev != Finished && s.state.Status == Finished
}

// Start begins a session. A zero difficulty keeps the current one.
func (s *Session) Start(d model.Difficulty) bool {
	if s.state.Status != Idle && s.state.Status != Finished {
		return false
	}
	target := s.state.Difficulty
	if d.Valid() {
		target = d
	}
	text := ""
	if s.source != nil {
		text = s.source.Generate(target)
	}
	return s.Apply(StartGame{Difficulty: d, Text: text, At: s.now()})
}

// Type records one character.
func (s *Session) Type(r rune) bool {
	return s.Apply(TypeCharacter{Char: r, At: s.now()})
}

// Backspace removes the last typed character.
func (s *Session) Backspace() bool {
	return s.Apply(Backspace{At: s.now()})
}

// Pause suspends a playing session.
func (s *Session) Pause() bool {
	return s.Apply(PauseGame{})
}

// Resume continues a paused session.
func (s *Session) Resume() bool {
	return s.Apply(ResumeGame{})
}

// TickSecond advances the countdown.
func (s *Session) TickSecond() bool {
	return s.Apply(TickSecond{At: s.now()})
}

// TickPowerUps decays active power-ups.
func (s *Session) TickPowerUps() bool {
	return s.Apply(TickPowerUps{})
}

// Activate buys a power-up.
func (s *Session) Activate(p model.PowerUp) bool {
	return s.Apply(ActivatePowerUp{Kind: p})
}

// Reset returns to Idle.
func (s *Session) Reset() bool {
	return s.Apply(ResetGame{})
}

// SetDifficulty changes the difficulty.
func (s *Session) SetDifficulty(d model.Difficulty) bool {
	return s.Apply(SetDifficulty{Difficulty: d})
}

// End finishes the session early.
func (s *Session) End() bool {
	return s.Apply(EndGame{At: s.now()})
}

// NoteRecord adds the New Record achievement.
func (s *Session) NoteRecord() bool {
	return s.Apply(RecordSet{})
}
