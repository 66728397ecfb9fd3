package game

import (
	"time"

	"github.com/verte-zerg/typerush/internal/model"
)

// Event is a closed set of inputs to Reduce. Only types in this package
// implement it.
type Event interface {
	event()
}

// StartGame begins a session. A zero Difficulty keeps the current one. Text
// must already be generated for the resulting difficulty.
type StartGame struct {
	Difficulty model.Difficulty
	Text       string
	At         time.Time
}

// TypeCharacter records one typed character.
type TypeCharacter struct {
	Char rune
	At   time.Time
}

// Backspace removes the last typed character.
type Backspace struct {
	At time.Time
}

// PauseGame suspends a playing session.
type PauseGame struct{}

// ResumeGame continues a paused session.
type ResumeGame struct{}

// EndGame finishes a playing or paused session early.
type EndGame struct {
	At time.Time
}

// ResetGame returns to Idle, keeping trophies.
type ResetGame struct{}

// SetDifficulty changes the difficulty and its time limit.
type SetDifficulty struct {
	Difficulty model.Difficulty
}

// TickSecond advances the countdown by one second.
type TickSecond struct {
	At time.Time
}

// TickPowerUps burns one second off every active power-up.
type TickPowerUps struct{}

// ActivatePowerUp buys a power-up with score.
type ActivatePowerUp struct {
	Kind model.PowerUp
}

// RecordSet notes that the last session set a personal record.
type RecordSet struct{}

func (StartGame) event()       {}
func (TypeCharacter) event()   {}
func (Backspace) event()       {}
func (PauseGame) event()       {}
func (ResumeGame) event()      {}
func (EndGame) event()         {}
func (ResetGame) event()       {}
func (SetDifficulty) event()   {}
func (TickSecond) event()      {}
func (TickPowerUps) event()    {}
func (ActivatePowerUp) event() {}
func (RecordSet) event()       {}
