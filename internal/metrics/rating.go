package metrics

// Rating is the performance tier shown on the results screen.
type Rating string

// Rating tiers, best first.
const (
	RatingLegendary  Rating = "LEGENDARY!"
	RatingExcellent  Rating = "EXCELLENT!"
	RatingGreat      Rating = "GREAT!"
	RatingGood       Rating = "GOOD"
	RatingPracticing Rating = "KEEP PRACTICING"
)

var ratingGates = []struct {
	wpm      int
	accuracy int
	rating   Rating
}{
	{80, 95, RatingLegendary},
	{60, 90, RatingExcellent},
	{40, 85, RatingGreat},
	{25, 80, RatingGood},
}

// RateSession picks the first tier whose WPM and accuracy gates are both met.
func RateSession(wpm, accuracy int) Rating {
	for _, g := range ratingGates {
		if wpm >= g.wpm && accuracy >= g.accuracy {
			return g.rating
		}
	}
	return RatingPracticing
}

// Badges returns the results badges earned by a finished session.
func Badges(netWPM, accuracy, consistency int) []string {
	var out []string
	if netWPM >= 60 {
		out = append(out, "SPEED DEMON")
	}
	if accuracy >= 95 {
		out = append(out, "PRECISION MASTER")
	}
	if consistency >= 90 {
		out = append(out, "CONSISTENCY KING")
	}
	return out
}
