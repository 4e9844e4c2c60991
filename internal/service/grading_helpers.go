package service

import (
	"math"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
)

const (
	feedbackCorrect    = "Correct."
	feedbackIncorrect  = "Incorrect."
	feedbackNoResponse = "No model response."
)

// resolveSlide returns the first slide answering the given item, or nil when
// the item was left unanswered.
func resolveSlide(slides []dto.SlidePayload, itemID string) *dto.SlidePayload {
	for i := range slides {
		if slides[i].ItemID == itemID {
			return &slides[i]
		}
	}
	return nil
}

// evaluateNumericItem compares a submitted numeric answer against the
// expected one within an inclusive absolute tolerance. Any malformed or
// missing input resolves to a definite incorrect score; no arithmetic runs
// against an absent value.
func evaluateNumericItem(item dto.ItemPayload, slide *dto.SlidePayload) dto.ItemScore {
	tolerance := item.Tolerance
	if tolerance < 0 {
		tolerance = 0
	}

	correct := false
	if item.Answer != nil && !item.Answer.IsZero() && slide != nil && slide.Answer != nil {
		correct = numericMatch(*item.Answer, *slide.Answer, tolerance)
	}

	score := dto.ItemScore{ItemID: item.ID, Max: 1, Feedback: feedbackIncorrect}
	if correct {
		score.Score = 1
		score.Feedback = feedbackCorrect
	}

	return score
}

func numericMatch(expected, submitted dto.NumericValue, tolerance float64) bool {
	if expected.IsList {
		if !submitted.IsList || len(expected.Values) != len(submitted.Values) {
			return false
		}
		for i := range expected.Values {
			if math.Abs(expected.Values[i]-submitted.Values[i]) > tolerance {
				return false
			}
		}
		return true
	}

	if submitted.IsList || len(submitted.Values) != 1 || len(expected.Values) != 1 {
		return false
	}

	return math.Abs(expected.Values[0]-submitted.Values[0]) <= tolerance
}

// aggregateScores folds per-item results into the final totals and the 1..7
// grade. maxTotal is floored at 1 so an exam with no gradable items still
// yields a defined percentage.
func aggregateScores(scores []dto.ItemScore) (total, maxTotal, grade float64) {
	for _, score := range scores {
		total += score.Score
		maxTotal += score.Max
	}

	if maxTotal == 0 {
		maxTotal = 1
	}

	grade = roundGrade(mapGrade(total / maxTotal))

	return total, maxTotal, grade
}

// mapGrade is the contractual piecewise grade mapping: 0 -> 1.0, the 60%
// breakpoint -> 4.0, 100% -> 7.0, continuous at the breakpoint.
func mapGrade(pct float64) float64 {
	if pct < 0.6 {
		return 1 + pct*5
	}
	return 4 + (pct-0.6)*7.5
}

// roundGrade rounds half-up on the tenths digit.
func roundGrade(grade float64) float64 {
	return math.Round(grade*10) / 10
}
