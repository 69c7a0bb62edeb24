package alignment

import "math"

// Ratings by overall score.
const (
	RatingExcellent    = "Excellent"
	RatingGood         = "Good"
	RatingSatisfactory = "Satisfactory"
	RatingNeedsWork    = "Needs Work"
	RatingPoor         = "Poor"
)

// Score summarizes a report: per-level pass percentage and a weighted overall.
type Score struct {
	Levels  map[string]float64 `json:"levels"`
	Overall float64            `json:"overall"`
	Rating  string             `json:"rating"`
}

// ScoreSteps scores step reports. A level's score is the percentage of
// step types that passed it without being skipped; a level every step
// skipped scores 100.
func ScoreSteps(steps []StepReport) Score {
	s := Score{Levels: make(map[string]float64, len(Levels))}
	var weighted, weights float64

	for _, level := range Levels {
		checked, passed := 0, 0
		for _, step := range steps {
			r, ok := step.Level(level)
			if !ok || r.Skipped {
				continue
			}
			checked++
			if r.Passed {
				passed++
			}
		}
		pct := 100.0
		if checked > 0 {
			pct = 100 * float64(passed) / float64(checked)
		}
		pct = math.Round(pct*10) / 10
		s.Levels[level.String()] = pct
		weighted += pct * level.Weight()
		weights += level.Weight()
	}

	s.Overall = math.Round(weighted/weights*10) / 10
	s.Rating = Rating(s.Overall)
	return s
}

// Rating maps an overall score to a rating label.
func Rating(score float64) string {
	switch {
	case score >= 90:
		return RatingExcellent
	case score >= 80:
		return RatingGood
	case score >= 70:
		return RatingSatisfactory
	case score >= 60:
		return RatingNeedsWork
	default:
		return RatingPoor
	}
}
