package game

import (
	"time"

	"github.com/verte-zerg/typerush/internal/achievement"
	"github.com/verte-zerg/typerush/internal/metrics"
	"github.com/verte-zerg/typerush/internal/model"
)

// Reduce applies ev to s and returns the next state. Events that are not
// legal in the current state return s unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case StartGame:
		return startGame(s, e)
	case TypeCharacter:
		return typeCharacter(s, e)
	case Backspace:
		return backspace(s, e)
	case PauseGame:
		if s.Status != Playing {
			return s
		}
		s.Status = Paused
		return s
	case ResumeGame:
		if s.Status != Paused {
			return s
		}
		s.Status = Playing
		return s
	case EndGame:
		if s.Status != Playing && s.Status != Paused {
			return s
		}
		return finish(s, e.At)
	case ResetGame:
		return keepTrophies(idleState(s.Difficulty), s)
	case SetDifficulty:
		return setDifficulty(s, e)
	case TickSecond:
		return tickSecond(s, e)
	case TickPowerUps:
		return tickPowerUps(s)
	case ActivatePowerUp:
		return activatePowerUp(s, e)
	case RecordSet:
		if s.HasAchievement(achievement.NewRecord) {
			return s
		}
		s.Achievements = appendClipped(s.Achievements, achievement.NewRecord)
		return s
	default:
		return s
	}
}

func startGame(s State, e StartGame) State {
	if s.Status != Idle && s.Status != Finished {
		return s
	}
	d := s.Difficulty
	if e.Difficulty.Valid() {
		d = e.Difficulty
	}
	next := keepTrophies(idleState(d), s)
	next.Status = Playing
	next.SourceText = []rune(e.Text)
	next.StartedAt = e.At
	return next
}

func keepTrophies(next, prev State) State {
	next.MaxCombo = prev.MaxCombo
	next.MaxStreak = prev.MaxStreak
	next.Achievements = prev.Achievements
	return next
}

func typeCharacter(s State, e TypeCharacter) State {
	if s.Status != Playing || s.CursorIndex >= len(s.SourceText) {
		return s
	}
	correct := e.Char == s.SourceText[s.CursorIndex]
	accepted := correct || s.Active(model.ErrorImmunity)

	next := s
	next.KeystrokeCount++
	next.TypedText = appendClipped(s.TypedText, e.Char)
	next.CursorIndex = len(next.TypedText)
	if correct {
		next.Marks = appendClipped(s.Marks, MarkCorrect)
	} else {
		next.Marks = appendClipped(s.Marks, MarkIncorrect)
		next.ErrorCount++
	}

	if accepted {
		next.Combo++
		next.Streak++
		next.Score += keystrokePoints(next)
	} else {
		next.Combo = 0
		next.Streak = 0
	}
	next.MaxCombo = max(next.MaxCombo, next.Combo)
	next.MaxStreak = max(next.MaxStreak, next.Streak)
	next.LastKeystrokeCorrect = accepted

	minutes := elapsedMinutes(s.StartedAt, e.At)
	correctCount := next.CorrectCount()
	next.RawWPM = metrics.RawWPM(next.KeystrokeCount, minutes)
	next.NetWPM = metrics.NetWPM(correctCount, minutes)
	next.WPM = next.NetWPM
	next.Accuracy = metrics.Accuracy(correctCount, len(next.TypedText))

	if next.CursorIndex%wpmSampleEvery == 0 {
		next.WPMSamples = appendSample(s.WPMSamples, next.WPM)
	}
	next.Consistency = metrics.Consistency(next.WPMSamples)

	if unlocked := achievement.Evaluate(snapshot(next), s.Achievements); len(unlocked) > 0 {
		next.Achievements = appendClipped(s.Achievements, unlocked...)
	}

	if next.CursorIndex >= len(next.SourceText) {
		return finish(next, e.At)
	}
	return next
}

// keystrokePoints scores an accepted keystroke using the already-advanced
// combo and streak of next.
func keystrokePoints(next State) int {
	comboMultiplier := next.Combo/10 + 1
	streakBonus := next.Streak / 20
	powerUpMultiplier := 1
	if next.Active(model.DoubleScore) {
		powerUpMultiplier = 2
	}
	return (BasePoints(next.Difficulty) + streakBonus) * comboMultiplier * powerUpMultiplier
}

func backspace(s State, e Backspace) State {
	if s.Status != Playing || len(s.TypedText) == 0 {
		return s
	}
	next := s
	next.TypedText = s.TypedText[:len(s.TypedText)-1]
	next.CursorIndex = len(next.TypedText)
	next.Marks, next.ErrorCount = classify(next.TypedText, next.SourceText)
	next.KeystrokeCount++

	correctCount := next.CorrectCount()
	next.Accuracy = metrics.Accuracy(correctCount, len(next.TypedText))
	next.NetWPM = metrics.NetWPM(correctCount, elapsedMinutes(s.StartedAt, e.At))
	next.WPM = next.NetWPM

	next.Combo = max(0, s.Combo-1)
	next.Streak = max(0, s.Streak-1)
	return next
}

// classify compares typed against source from scratch.
func classify(typed, source []rune) ([]Mark, int) {
	marks := make([]Mark, len(typed))
	errors := 0
	for i, r := range typed {
		if i < len(source) && r == source[i] {
			marks[i] = MarkCorrect
			continue
		}
		marks[i] = MarkIncorrect
		errors++
	}
	return marks, errors
}

func setDifficulty(s State, e SetDifficulty) State {
	if !e.Difficulty.Valid() {
		return s
	}
	s.Difficulty = e.Difficulty
	s.TimeLimitSeconds = TimeLimit(e.Difficulty)
	if s.Status == Idle {
		s.RemainingSeconds = s.TimeLimitSeconds
	}
	return s
}

func tickSecond(s State, e TickSecond) State {
	if s.Status != Playing || s.Active(model.TimeFreeze) {
		return s
	}
	s.RemainingSeconds = max(0, s.RemainingSeconds-1)
	if s.RemainingSeconds == 0 {
		return finish(s, e.At)
	}
	return s
}

func tickPowerUps(s State) State {
	if s.Status != Playing {
		return s
	}
	for i, left := range s.PowerUps {
		if left > 0 {
			s.PowerUps[i] = left - 1
		}
	}
	return s
}

func activatePowerUp(s State, e ActivatePowerUp) State {
	if !s.CanActivate(e.Kind) {
		return s
	}
	s.Score -= PowerUpCost(e.Kind)
	s.PowerUps[e.Kind] = powerUpSeconds
	return s
}

func finish(s State, at time.Time) State {
	s.Status = Finished
	s.FinishedAt = at
	return s
}

func snapshot(s State) achievement.Snapshot {
	return achievement.Snapshot{
		WPM:         s.WPM,
		Accuracy:    s.Accuracy,
		Combo:       s.Combo,
		Score:       s.Score,
		Errors:      s.ErrorCount,
		Typed:       s.CursorIndex,
		Consistency: s.Consistency,
		Samples:     len(s.WPMSamples),
	}
}

func appendSample(samples []int, v int) []int {
	out := appendClipped(samples, v)
	if len(out) > wpmSampleCapacity {
		out = out[len(out)-wpmSampleCapacity:]
	}
	return out
}

// appendClipped appends without writing into a backing array that an
// earlier State may still reference.
func appendClipped[T any](s []T, v ...T) []T {
	return append(s[:len(s):len(s)], v...)
}

func elapsedMinutes(start, at time.Time) float64 {
	if start.IsZero() || !at.After(start) {
		return 0
	}
	return at.Sub(start).Minutes()
}
