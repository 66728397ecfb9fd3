package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typerush/internal/game"
)

const wrongSpace = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes colours source by the marks of the typed prefix and
// underlines the rune at cursor. A cursor of -1 hides it.
func buildStyledRunes(source []rune, marks []game.Mark, cursor int) []styledRune {
	word, hasWord := wordAt(source, cursor)

	out := make([]styledRune, 0, len(source))
	for i, target := range source {
		displayed := target
		style := pendingStyle
		switch {
		case i < len(marks) && marks[i] == game.MarkCorrect:
			style = correctStyle
		case i < len(marks):
			style = incorrectStyle
			if target == ' ' {
				displayed = wrongSpace
			}
		case hasWord && target != ' ' && i >= word.start && i < word.end:
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: target == ' ',
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

// wordAt finds the word containing cursor, or the next word when the cursor
// sits on a space.
func wordAt(source []rune, cursor int) (wordRange, bool) {
	if cursor < 0 || cursor >= len(source) {
		return wordRange{}, false
	}
	start := cursor
	for start < len(source) && source[start] == ' ' {
		start++
	}
	if start == len(source) {
		return wordRange{}, false
	}
	for start > 0 && source[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(source) && source[end] != ' ' {
		end++
	}
	return wordRange{start: start, end: end}, true
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits width, or mid-word
// when a single word is wider than the line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, width)
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpace+1]))
				line = append([]styledRune{}, line[lastSpace+1:]...)
			} else {
				out.WriteString(renderStyledRunes(line))
				line = line[:0]
			}
			out.WriteByte('\n')
			lineWidth, lastSpace = measure(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func measure(line []styledRune) (width, lastSpace int) {
	lastSpace = -1
	for i, item := range line {
		width += item.width
		if item.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}
