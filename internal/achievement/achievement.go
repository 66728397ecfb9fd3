// Package achievement evaluates one-time unlocks from session snapshots.
package achievement

import "github.com/samber/lo"

// Achievement identifiers.
const (
	CenturyClub     = "Century Club"
	SpeedDemon      = "Speed Demon"
	FastFingers     = "Fast Fingers"
	Perfectionist   = "Perfectionist"
	PrecisionMaster = "Precision Master"
	ComboMaster     = "Combo Master"
	ComboKing       = "Combo King"
	OnFire          = "On Fire"
	HighScorer      = "High Scorer"
	PointCollector  = "Point Collector"
	FlawlessVictory = "Flawless Victory"
	SteadyHands     = "Steady Hands"

	// NewRecord is added when the gateway reports a personal best.
	NewRecord = "New Record"
)

// Snapshot is the read-only view of a session the evaluator needs.
type Snapshot struct {
	WPM         int
	Accuracy    int
	Combo       int
	Score       int
	Errors      int
	Typed       int
	Consistency int
	Samples     int
}

type rule struct {
	id          string
	description string
	met         func(Snapshot) bool
}

var rules = []rule{
	{CenturyClub, "Reach 100 WPM", func(s Snapshot) bool { return s.WPM >= 100 }},
	{SpeedDemon, "Reach 80 WPM", func(s Snapshot) bool { return s.WPM >= 80 }},
	{FastFingers, "Reach 60 WPM", func(s Snapshot) bool { return s.WPM >= 60 }},
	{Perfectionist, "100% accuracy over at least 50 characters", func(s Snapshot) bool {
		return s.Accuracy == 100 && s.Typed >= 50
	}},
	{PrecisionMaster, "Hold 95% accuracy", func(s Snapshot) bool { return s.Accuracy >= 95 }},
	{ComboMaster, "Build a 100 combo", func(s Snapshot) bool { return s.Combo >= 100 }},
	{ComboKing, "Build a 50 combo", func(s Snapshot) bool { return s.Combo >= 50 }},
	{OnFire, "Build a 25 combo", func(s Snapshot) bool { return s.Combo >= 25 }},
	{HighScorer, "Score 5000 points", func(s Snapshot) bool { return s.Score >= 5000 }},
	{PointCollector, "Score 2000 points", func(s Snapshot) bool { return s.Score >= 2000 }},
	{FlawlessVictory, "Type 100 characters without an error", func(s Snapshot) bool {
		return s.Errors == 0 && s.Typed >= 100
	}},
	{SteadyHands, "Consistency of 95 over 10 samples", func(s Snapshot) bool {
		return s.Consistency >= 95 && s.Samples >= 10
	}},
}

// Evaluate returns the achievements s qualifies for that are not in prior.
// Results follow table order so repeated evaluation is deterministic.
func Evaluate(s Snapshot, prior []string) []string {
	met := lo.Filter(rules, func(r rule, _ int) bool {
		return r.met(s) && !lo.Contains(prior, r.id)
	})
	return lo.Map(met, func(r rule, _ int) string { return r.id })
}

// Describe returns the unlock condition of an achievement.
func Describe(id string) string {
	if id == NewRecord {
		return "Beat your best WPM or accuracy"
	}
	r, ok := lo.Find(rules, func(r rule) bool { return r.id == id })
	if !ok {
		return ""
	}
	return r.description
}

// All lists every achievement that can be earned, in table order.
func All() []string {
	ids := lo.Map(rules, func(r rule, _ int) string { return r.id })
	return append(ids, NewRecord)
}
