// Package metrics computes typing speed, accuracy and consistency figures.
package metrics

import "math"

// charsPerWord is the conventional word length used for WPM.
const charsPerWord = 5.0

// RawWPM counts every keystroke, correct or not.
func RawWPM(totalKeystrokes int, elapsedMinutes float64) int {
	return wpm(totalKeystrokes, elapsedMinutes)
}

// NetWPM counts only characters classified correct.
func NetWPM(correctChars int, elapsedMinutes float64) int {
	return wpm(correctChars, elapsedMinutes)
}

func wpm(chars int, minutes float64) int {
	if minutes <= 0 {
		return 0
	}
	return int(math.Round((float64(chars) / charsPerWord) / minutes))
}

// Accuracy returns the percentage of attempted characters that were correct.
// No attempts yet counts as perfect.
func Accuracy(correct, attempted int) int {
	if attempted <= 0 {
		return 100
	}
	acc := int(math.Round(100 * float64(correct) / float64(attempted)))
	return clamp(acc, 0, 100)
}

// Consistency maps the population standard deviation of WPM samples to 0-100.
func Consistency(samples []int) int {
	if len(samples) < 2 {
		return 100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))
	var variance float64
	for _, s := range samples {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	score := int(math.Round(100 - 2*math.Sqrt(variance)))
	return clamp(score, 0, 100)
}

// WordsTyped converts a character count into standard words.
func WordsTyped(chars int) int {
	return int(math.Round(float64(chars) / charsPerWord))
}

// ElapsedMinutes converts milliseconds into fractional minutes.
func ElapsedMinutes(ms int64) float64 {
	return float64(ms) / 60000.0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
