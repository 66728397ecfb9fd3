package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/typerush/internal/game"
)

func marksFor(target, input string) []game.Mark {
	tr := []rune(target)
	marks := make([]game.Mark, 0, len(input))
	for i, r := range []rune(input) {
		if i < len(tr) && tr[i] == r {
			marks = append(marks, game.MarkCorrect)
		} else {
			marks = append(marks, game.MarkIncorrect)
		}
	}
	return marks
}

func TestBuildStyledRunesCursor(t *testing.T) {
	runes := buildStyledRunes([]rune("a b"), marksFor("a b", "a "), 2)
	if len(runes) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[2].s != currentWordStyle.Underline(true).Render("b") {
		t.Fatalf("expected underlined current word at the cursor")
	}
}

func TestBuildStyledRunesNoCursorWhenComplete(t *testing.T) {
	runes := buildStyledRunes([]rune("a"), marksFor("a", "a"), -1)
	if len(runes) != 1 {
		t.Fatalf("expected 1 rune, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for completed rune")
	}
}

func TestBuildStyledRunesKeepsTargetOnMistype(t *testing.T) {
	runes := buildStyledRunes([]rune("ab"), marksFor("ab", "ax"), -1)
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected the target rune in incorrect style")
	}
}

func TestBuildStyledRunesWordHighlighting(t *testing.T) {
	runes := buildStyledRunes([]rune("one two"), marksFor("one two", "o"), 1)
	if runes[0].s != correctStyle.Render("o") {
		t.Fatalf("expected correct style for typed rune")
	}
	if runes[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped rune in current word")
	}
	if runes[3].s != pendingStyle.Render(" ") {
		t.Fatalf("expected pending style for separator")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestBuildStyledRunesWrongSpaceDot(t *testing.T) {
	runes := buildStyledRunes([]rune("a b"), marksFor("a b", "ax"), 2)
	if runes[1].s != incorrectStyle.Render(string(wrongSpace)) {
		t.Fatalf("expected dot for wrong space")
	}
	if !runes[1].isSpace {
		t.Fatalf("wrong space must still break lines")
	}
}

func TestWordAt(t *testing.T) {
	source := []rune("ab  cd")
	cases := []struct {
		cursor int
		want   wordRange
		ok     bool
	}{
		{cursor: 0, want: wordRange{0, 2}, ok: true},
		{cursor: 1, want: wordRange{0, 2}, ok: true},
		{cursor: 2, want: wordRange{4, 6}, ok: true},
		{cursor: 5, want: wordRange{4, 6}, ok: true},
		{cursor: 6, ok: false},
		{cursor: -1, ok: false},
	}
	for _, tc := range cases {
		got, ok := wordAt(source, tc.cursor)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("cursor %d: got %+v %v, want %+v %v", tc.cursor, got, ok, tc.want, tc.ok)
		}
	}
	if _, ok := wordAt([]rune("ab  "), 2); ok {
		t.Fatalf("expected no word after trailing spaces")
	}
}

func plainRunes(s string) []styledRune {
	out := make([]styledRune, 0, len(s))
	for _, r := range s {
		out = append(out, styledRune{s: string(r), width: 1, isSpace: r == ' '})
	}
	return out
}

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	got := wrapStyledRunes(plainRunes("one two three"), 8)
	want := "one two \nthree"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWrapStyledRunesSplitsLongWords(t *testing.T) {
	got := wrapStyledRunes(plainRunes("abcdefgh"), 3)
	if got != "abc\ndef\ngh" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	if wrapStyledRunes(plainRunes("a b"), 0) != "a b" {
		t.Fatalf("zero width should not wrap")
	}
	for _, line := range strings.Split(wrapStyledRunes(plainRunes("aa bb cc dd"), 6), "\n") {
		if len(line) > 6 {
			t.Fatalf("line %q exceeds width", line)
		}
	}
}
