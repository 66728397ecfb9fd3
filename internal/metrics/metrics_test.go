package metrics

import "testing"

func TestWPM(t *testing.T) {
	tests := []struct {
		name    string
		chars   int
		minutes float64
		want    int
	}{
		{"one minute", 250, 1, 50},
		{"half minute", 100, 0.5, 40},
		{"rounds", 12, 1, 2},
		{"zero elapsed", 100, 0, 0},
		{"negative elapsed", 100, -1, 0},
	}
	for _, tt := range tests {
		if got := RawWPM(tt.chars, tt.minutes); got != tt.want {
			t.Fatalf("%s: RawWPM = %d, want %d", tt.name, got, tt.want)
		}
		if got := NetWPM(tt.chars, tt.minutes); got != tt.want {
			t.Fatalf("%s: NetWPM = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestAccuracy(t *testing.T) {
	if got := Accuracy(0, 0); got != 100 {
		t.Fatalf("expected 100 with no attempts, got %d", got)
	}
	if got := Accuracy(9, 10); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	if got := Accuracy(2, 3); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
	if got := Accuracy(0, 5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	for correct := 0; correct <= 20; correct++ {
		for attempted := 0; attempted <= 20; attempted++ {
			acc := Accuracy(correct, attempted)
			if acc < 0 || acc > 100 {
				t.Fatalf("accuracy out of range for %d/%d: %d", correct, attempted, acc)
			}
		}
	}
}

func TestConsistency(t *testing.T) {
	if got := Consistency(nil); got != 100 {
		t.Fatalf("expected 100 for no samples, got %d", got)
	}
	if got := Consistency([]int{42}); got != 100 {
		t.Fatalf("expected 100 for one sample, got %d", got)
	}
	if got := Consistency([]int{50, 50, 50}); got != 100 {
		t.Fatalf("expected 100 for flat samples, got %d", got)
	}
	// stddev of {40, 60} is 10.
	if got := Consistency([]int{40, 60}); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := Consistency([]int{0, 200}); got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
}

func TestWordsTyped(t *testing.T) {
	if got := WordsTyped(12); got != 2 {
		t.Fatalf("expected 2 words, got %d", got)
	}
	if got := WordsTyped(13); got != 3 {
		t.Fatalf("expected 3 words, got %d", got)
	}
}

func TestRateSession(t *testing.T) {
	tests := []struct {
		wpm, acc int
		want     Rating
	}{
		{85, 97, RatingLegendary},
		{85, 92, RatingExcellent},
		{45, 99, RatingGreat},
		{30, 80, RatingGood},
		{30, 70, RatingPracticing},
	}
	for _, tt := range tests {
		if got := RateSession(tt.wpm, tt.acc); got != tt.want {
			t.Fatalf("RateSession(%d, %d) = %q, want %q", tt.wpm, tt.acc, got, tt.want)
		}
	}
}

func TestBadges(t *testing.T) {
	if got := Badges(10, 50, 50); len(got) != 0 {
		t.Fatalf("expected no badges, got %v", got)
	}
	got := Badges(60, 95, 90)
	if len(got) != 3 {
		t.Fatalf("expected 3 badges, got %v", got)
	}
}
