// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects the time limit, scoring base and text pool of a session.
// The zero value means "not specified".
type Difficulty int

// Difficulty levels.
const (
	Easy Difficulty = iota + 1
	Medium
	Hard
)

// Difficulties lists every selectable difficulty in display order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return ""
	}
}

// Valid reports whether d is one of the defined levels.
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

// ParseDifficulty parses a difficulty name, case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
	}
}

// PowerUp identifies a purchasable, timed modifier.
type PowerUp int

// Power-up kinds.
const (
	TimeFreeze PowerUp = iota
	DoubleScore
	ErrorImmunity
)

// PowerUpCount is the number of power-up kinds.
const PowerUpCount = 3

// PowerUps lists every power-up kind.
var PowerUps = []PowerUp{TimeFreeze, DoubleScore, ErrorImmunity}

func (p PowerUp) String() string {
	switch p {
	case TimeFreeze:
		return "timeFreeze"
	case DoubleScore:
		return "doubleScore"
	case ErrorImmunity:
		return "errorImmunity"
	default:
		return ""
	}
}

// Label returns the display name of the power-up.
func (p PowerUp) Label() string {
	switch p {
	case TimeFreeze:
		return "Time Freeze"
	case DoubleScore:
		return "Double Score"
	case ErrorImmunity:
		return "Error Shield"
	default:
		return ""
	}
}

// ParsePowerUp parses a power-up identifier such as "timeFreeze".
func ParsePowerUp(s string) (PowerUp, error) {
	for _, p := range PowerUps {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown power-up %q", s)
}

// Config defines play settings.
type Config struct {
	Player     string
	Difficulty Difficulty
	Corpus     string
	WordList   string
	GatewayURL string
	Timeout    time.Duration
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Player      string
	Difficulty  Difficulty
	Since       *time.Time
	Last        int
	CurveWindow int
	Metric      string
	Limit       int
}

// SessionSummary is the payload submitted when a session finishes.
type SessionSummary struct {
	UserID           string     `json:"userId,omitempty"`
	WPM              int        `json:"wpm"`
	Accuracy         int        `json:"accuracy"`
	Score            int        `json:"score"`
	WordsTyped       int        `json:"wordsTyped"`
	TimeTakenSeconds int        `json:"timeTaken"`
	Difficulty       Difficulty `json:"-"`
	DifficultyName   string     `json:"difficulty"`
	RawWPM           int        `json:"rawWpm"`
	Consistency      int        `json:"consistency"`
	MaxCombo         int        `json:"maxCombo"`
	Errors           int        `json:"errors"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          time.Time  `json:"endedAt"`
}

// SubmitResult is the gateway response to a submitted session.
type SubmitResult struct {
	SessionID   int64 `json:"sessionId"`
	IsNewRecord bool  `json:"isNewRecord"`
}

// UserStats aggregates every session of one player.
type UserStats struct {
	TotalSessions   int     `json:"totalSessions"`
	BestWPM         int     `json:"bestWpm"`
	BestAccuracy    int     `json:"bestAccuracy"`
	TotalWordsTyped int     `json:"totalWordsTyped"`
	TotalTimePlayed int     `json:"totalTimePlayed"`
	AverageWPM      float64 `json:"averageWpm"`
	AverageAccuracy float64 `json:"averageAccuracy"`
}

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	UserID        string `json:"userId"`
	WPM           int    `json:"wpm"`
	Accuracy      int    `json:"accuracy"`
	TotalSessions int    `json:"totalSessions"`
}

// SessionRecord is a stored session used for learning curves.
type SessionRecord struct {
	SessionID   int64
	UserID      string
	EndedAt     time.Time
	Difficulty  Difficulty
	WPM         int
	RawWPM      int
	Accuracy    int
	Consistency int
	Score       int
	WordsTyped  int
	TimeTaken   int
}

// Profile holds the trophies that outlive a single session.
type Profile struct {
	UserID       string
	Difficulty   Difficulty
	MaxCombo     int
	MaxStreak    int
	Achievements []string
}
