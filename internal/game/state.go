// Package game implements the typing session state machine.
//
// State is a value: Reduce never modifies its input and every transition
// returns a fresh State, so a caller holding an older State keeps a stable
// snapshot.
package game

import (
	"slices"
	"time"

	"github.com/verte-zerg/typerush/internal/model"
)

// Status is the lifecycle phase of a session.
type Status int

// Session phases.
const (
	Idle Status = iota
	Playing
	Paused
	Finished
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Mark classifies the character typed at one offset.
type Mark uint8

// Mark values.
const (
	MarkCorrect Mark = iota + 1
	MarkIncorrect
)

const (
	wpmSampleEvery    = 10
	wpmSampleCapacity = 20
	powerUpSeconds    = 10
)

// State is the complete state of one typing session plus cross-session trophies.
type State struct {
	Status Status

	SourceText  []rune
	TypedText   []rune
	CursorIndex int
	// Marks[i] classifies TypedText[i]; len(Marks) == len(TypedText).
	Marks []Mark

	StartedAt  time.Time
	FinishedAt time.Time

	ErrorCount int
	Combo      int
	MaxCombo   int
	Streak     int
	MaxStreak  int
	Score      int

	Difficulty       model.Difficulty
	TimeLimitSeconds int
	RemainingSeconds int

	// PowerUps holds remaining seconds per kind; 0 means inactive.
	PowerUps [model.PowerUpCount]int

	Achievements []string

	KeystrokeCount       int
	WPMSamples           []int
	LastKeystrokeCorrect bool

	WPM         int
	RawWPM      int
	NetWPM      int
	Accuracy    int
	Consistency int
}

// New returns the initial Idle state.
func New() State {
	return idleState(model.Medium)
}

func idleState(d model.Difficulty) State {
	limit := TimeLimit(d)
	return State{
		Status:               Idle,
		Difficulty:           d,
		TimeLimitSeconds:     limit,
		RemainingSeconds:     limit,
		Accuracy:             100,
		Consistency:          100,
		LastKeystrokeCorrect: true,
	}
}

// TimeLimit is the session length in seconds for a difficulty.
func TimeLimit(d model.Difficulty) int {
	switch d {
	case model.Easy:
		return 90
	case model.Hard:
		return 45
	default:
		return 60
	}
}

// BasePoints is the per-keystroke score before multipliers.
func BasePoints(d model.Difficulty) int {
	switch d {
	case model.Easy:
		return 1
	case model.Hard:
		return 3
	default:
		return 2
	}
}

// PowerUpCost is the score price of a power-up.
func PowerUpCost(p model.PowerUp) int {
	switch p {
	case model.TimeFreeze:
		return 100
	case model.DoubleScore:
		return 200
	case model.ErrorImmunity:
		return 300
	default:
		return 0
	}
}

// Active reports whether a power-up has time left.
func (s State) Active(p model.PowerUp) bool {
	return validPowerUp(p) && s.PowerUps[p] > 0
}

// CanActivate reports whether ActivatePowerUp would be accepted.
func (s State) CanActivate(p model.PowerUp) bool {
	return s.Status == Playing && validPowerUp(p) && s.PowerUps[p] == 0 && s.Score >= PowerUpCost(p)
}

// CorrectPositions returns the offsets whose typed character matched.
func (s State) CorrectPositions() []int {
	return s.positions(MarkCorrect)
}

// IncorrectPositions returns the offsets whose typed character did not match.
func (s State) IncorrectPositions() []int {
	return s.positions(MarkIncorrect)
}

func (s State) positions(m Mark) []int {
	var out []int
	for i, mark := range s.Marks {
		if mark == m {
			out = append(out, i)
		}
	}
	return out
}

// CorrectCount is the number of offsets classified correct.
func (s State) CorrectCount() int {
	n := 0
	for _, m := range s.Marks {
		if m == MarkCorrect {
			n++
		}
	}
	return n
}

// HasAchievement reports whether id has been unlocked.
func (s State) HasAchievement(id string) bool {
	return slices.Contains(s.Achievements, id)
}

// Progress is the share of the source text already typed, 0-100.
func (s State) Progress() int {
	if len(s.SourceText) == 0 {
		return 0
	}
	return s.CursorIndex * 100 / len(s.SourceText)
}

func validPowerUp(p model.PowerUp) bool {
	return p >= 0 && int(p) < model.PowerUpCount
}
