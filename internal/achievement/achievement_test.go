package achievement

import (
	"slices"
	"testing"
)

func TestEvaluateThresholds(t *testing.T) {
	got := Evaluate(Snapshot{WPM: 85, Accuracy: 90, Typed: 10}, nil)
	want := []string{SpeedDemon, FastFingers}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEvaluateSkipsPrior(t *testing.T) {
	s := Snapshot{WPM: 120, Accuracy: 100, Typed: 120, Combo: 120, Score: 6000, Consistency: 100, Samples: 12}
	first := Evaluate(s, nil)
	if len(first) != len(rules) {
		t.Fatalf("expected every rule to unlock, got %v", first)
	}
	if again := Evaluate(s, first); len(again) != 0 {
		t.Fatalf("expected no repeats, got %v", again)
	}
}

func TestEvaluateGatesNeedVolume(t *testing.T) {
	got := Evaluate(Snapshot{Accuracy: 100, Typed: 49, Consistency: 100, Samples: 9}, nil)
	for _, id := range got {
		if id == Perfectionist || id == FlawlessVictory || id == SteadyHands {
			t.Fatalf("unexpected volume-gated unlock %q", id)
		}
	}
	if !slices.Contains(got, PrecisionMaster) {
		t.Fatalf("expected precision master, got %v", got)
	}
}

func TestDescribe(t *testing.T) {
	if Describe(OnFire) == "" {
		t.Fatalf("expected description for %q", OnFire)
	}
	if Describe(NewRecord) == "" {
		t.Fatalf("expected description for %q", NewRecord)
	}
	if Describe("nope") != "" {
		t.Fatalf("expected empty description for unknown id")
	}
	if all := All(); all[len(all)-1] != NewRecord {
		t.Fatalf("expected new record last, got %v", all)
	}
}
