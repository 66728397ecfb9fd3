package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Line is a named data series for plotting.
type Line struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 5
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// dash patterns per series: a dot is drawn when x%period < on.
var dashes = []struct {
	name       string
	period, on int
}{
	{"solid", 1, 1},
	{"dashed", 6, 3},
	{"dotted", 4, 1},
}

var palette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// canvas is a braille grid; each cell holds 2x4 dots.
type canvas struct {
	width, height int
	cells         [][]uint8
	owner         [][]int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height}
	c.cells = make([][]uint8, height)
	c.owner = make([][]int, height)
	for y := range c.cells {
		c.cells[y] = make([]uint8, width)
		c.owner[y] = make([]int, width)
		for x := range c.owner[y] {
			c.owner[y][x] = -1
		}
	}
	return c
}

func (c *canvas) set(px, py, series int) {
	cx, cy := px/2, py/4
	if px < 0 || py < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy][cx] |= dotBit(px%2, py%4)
	if c.owner[cy][cx] < 0 {
		c.owner[cy][cx] = series
	}
}

func dotBit(col, row int) uint8 {
	if row == 3 {
		return 0x40 << col
	}
	return 1 << (row + 3*col)
}

// PlotSeries renders a braille line chart where every series shares one
// vertical scale.
func PlotSeries(w io.Writer, title string, lines []Line, width, height int) error {
	return PlotSeriesWithColor(w, title, lines, width, height, false)
}

// PlotSeriesWithColor renders the chart, forcing ANSI colours when asked.
func PlotSeriesWithColor(w io.Writer, title string, lines []Line, width, height int, forceColor bool) error {
	var kept []Line
	for _, l := range lines {
		if len(l.Values) > 0 {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	low, high := valueRange(kept)
	c := newCanvas(width, height)
	dotRows := height * 4
	for si, l := range kept {
		pattern := dashes[si%len(dashes)]
		points := resample(l.Values, width)
		prevX, prevY := -1, -1
		for x, v := range points {
			px, py := x*2, scaleRow(v, low, high, dotRows)
			plot := func(dx, dy int) {
				if dx%pattern.period < pattern.on {
					c.set(dx, dy, si)
				}
			}
			if prevX < 0 {
				plot(px, py)
			} else {
				bresenham(prevX, prevY, px, py, plot)
			}
			prevX, prevY = px, py
		}
	}

	color := useColor(w, forceColor)
	out := make([]string, 0, height+3)
	if title != "" {
		out = append(out, title)
	}
	labels := axisLabels(low, high, height)
	for y := 0; y < height; y++ {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, labels[y], axisSeparator))
		for x := 0; x < width; x++ {
			r := rune(0x2800 + int(c.cells[y][x]))
			if color && c.owner[y][x] >= 0 {
				b.WriteString(palette[c.owner[y][x]%len(palette)])
				b.WriteRune(r)
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(r)
		}
		out = append(out, b.String())
	}
	out = append(out, legend(kept, color), "")
	return writeLines(w, out)
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisLabelWidth-runewidth.StringWidth(axisSeparator), minPlotWidth)
}

func valueRange(lines []Line) (float64, float64) {
	low, high := math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		for _, v := range l.Values {
			low = math.Min(low, v)
			high = math.Max(high, v)
		}
	}
	low = math.Min(low, 0)
	if high-low < 1e-9 {
		high = low + 1
	}
	return low, high
}

func axisLabels(low, high float64, height int) []string {
	labels := make([]string, height)
	labels[0] = fmt.Sprintf("%.0f", high)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.0f", (low+high)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.0f", low)
	}
	return labels
}

func scaleRow(v, low, high float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - low) / (high - low)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return min(max(row, 0), rows-1)
}

// resample stretches or averages values onto exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func legend(lines []Line, color bool) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		label := fmt.Sprintf("%s (%s)", l.Name, dashes[i%len(dashes)].name)
		if color {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts[i] = label
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func useColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
