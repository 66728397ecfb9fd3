package stats

import "testing"

func TestFormatTableAlignsNumericColumns(t *testing.T) {
	lines := formatTable([]string{"Player", "Best WPM", "Acc"}, [][]string{
		{"ann", "97", "99%"},
		{"bartholomew", "8", "5%"},
	})
	want := []string{
		"Player      Best WPM Acc",
		"----------- -------- ---",
		"ann               97 99%",
		"bartholomew        8  5%",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"日本", "1"}})
	if lines[2] != "日本 1" {
		t.Fatalf("expected wide runes to count double, got %q", lines[2])
	}
}

func TestIsNumericCell(t *testing.T) {
	cases := map[string]bool{
		"12": true, "99%": true, "50.5": true, "1:45": true,
		"": false, "%": false, "zoe": false, "12a": false, ":": false,
	}
	for cell, want := range cases {
		if got := isNumericCell(cell); got != want {
			t.Fatalf("isNumericCell(%q) = %v, want %v", cell, got, want)
		}
	}
}
