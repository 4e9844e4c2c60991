package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
)

func scalar(value float64) *dto.NumericValue {
	return &dto.NumericValue{Values: []float64{value}}
}

func list(values ...float64) *dto.NumericValue {
	return &dto.NumericValue{Values: values, IsList: true}
}

func TestEvaluateNumericItemWithinTolerance(t *testing.T) {
	item := dto.ItemPayload{ID: "q1", Type: dto.ItemTypeNumeric, Answer: scalar(10), Tolerance: 1}

	score := evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: scalar(10.5)})
	require.Equal(t, 1.0, score.Score)
	require.Equal(t, 1.0, score.Max)
	require.Equal(t, feedbackCorrect, score.Feedback)
}

func TestEvaluateNumericItemBoundaryIsInclusive(t *testing.T) {
	item := dto.ItemPayload{ID: "q1", Type: dto.ItemTypeNumeric, Answer: scalar(10), Tolerance: 1}

	score := evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: scalar(11)})
	require.Equal(t, 1.0, score.Score)

	score = evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: scalar(11.0001)})
	require.Equal(t, 0.0, score.Score)
	require.Equal(t, feedbackIncorrect, score.Feedback)
}

func TestEvaluateNumericItemZeroToleranceRequiresExact(t *testing.T) {
	item := dto.ItemPayload{ID: "q1", Type: dto.ItemTypeNumeric, Answer: scalar(3.5)}

	require.Equal(t, 1.0, evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: scalar(3.5)}).Score)
	require.Equal(t, 0.0, evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: scalar(3.51)}).Score)
}

func TestEvaluateNumericItemNegativeToleranceTreatedAsZero(t *testing.T) {
	item := dto.ItemPayload{ID: "q1", Type: dto.ItemTypeNumeric, Answer: scalar(5), Tolerance: -2}

	require.Equal(t, 1.0, evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: scalar(5)}).Score)
	require.Equal(t, 0.0, evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: scalar(5.5)}).Score)
}

func TestEvaluateNumericItemListAnswers(t *testing.T) {
	item := dto.ItemPayload{ID: "q1", Type: dto.ItemTypeNumeric, Answer: list(1, 2, 3), Tolerance: 0.1}

	require.Equal(t, 1.0, evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: list(1.05, 2, 2.95)}).Score)
	require.Equal(t, 0.0, evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1", Answer: list(1.05, 2, 3.2)}).Score)
}

func TestEvaluateNumericItemRejectsShapeMismatch(t *testing.T) {
	listItem := dto.ItemPayload{ID: "q1", Type: dto.ItemTypeNumeric, Answer: list(1, 2), Tolerance: 5}

	// Scalar against a list, and a list of the wrong length, both fail
	// regardless of how forgiving the tolerance is.
	require.Equal(t, 0.0, evaluateNumericItem(listItem, &dto.SlidePayload{ItemID: "q1", Answer: scalar(1)}).Score)
	require.Equal(t, 0.0, evaluateNumericItem(listItem, &dto.SlidePayload{ItemID: "q1", Answer: list(1, 2, 3)}).Score)

	scalarItem := dto.ItemPayload{ID: "q2", Type: dto.ItemTypeNumeric, Answer: scalar(1), Tolerance: 5}
	require.Equal(t, 0.0, evaluateNumericItem(scalarItem, &dto.SlidePayload{ItemID: "q2", Answer: list(1)}).Score)
}

func TestEvaluateNumericItemMissingInputs(t *testing.T) {
	item := dto.ItemPayload{ID: "q1", Type: dto.ItemTypeNumeric, Answer: scalar(4), Tolerance: 1}

	require.Equal(t, 0.0, evaluateNumericItem(item, nil).Score)
	require.Equal(t, 0.0, evaluateNumericItem(item, &dto.SlidePayload{ItemID: "q1"}).Score)

	noKey := dto.ItemPayload{ID: "q2", Type: dto.ItemTypeNumeric, Tolerance: 1}
	require.Equal(t, 0.0, evaluateNumericItem(noKey, &dto.SlidePayload{ItemID: "q2", Answer: scalar(4)}).Score)
}

func TestResolveSlideReturnsFirstMatch(t *testing.T) {
	slides := []dto.SlidePayload{
		{ItemID: "q1", Answer: scalar(1)},
		{ItemID: "q2", Answer: scalar(2)},
		{ItemID: "q2", Answer: scalar(99)},
	}

	slide := resolveSlide(slides, "q2")
	require.NotNil(t, slide)
	require.Equal(t, 2.0, slide.Answer.Values[0])

	require.Nil(t, resolveSlide(slides, "q3"))
}

func TestAggregateScoresTotalsAndGrade(t *testing.T) {
	scores := []dto.ItemScore{
		{ItemID: "q1", Score: 1, Max: 1},
		{ItemID: "q2", Score: 0.5, Max: 1},
	}

	total, maxTotal, grade := aggregateScores(scores)
	require.Equal(t, 1.5, total)
	require.Equal(t, 2.0, maxTotal)
	require.Equal(t, 5.1, grade)
}

func TestAggregateScoresEmptyExam(t *testing.T) {
	total, maxTotal, grade := aggregateScores(nil)
	require.Equal(t, 0.0, total)
	require.Equal(t, 1.0, maxTotal)
	require.Equal(t, 1.0, grade)
}

func TestMapGradeAnchors(t *testing.T) {
	require.Equal(t, 1.0, roundGrade(mapGrade(0)))
	require.Equal(t, 4.0, roundGrade(mapGrade(0.6)))
	require.Equal(t, 7.0, roundGrade(mapGrade(1)))

	// Just below the breakpoint stays on the failing segment.
	require.Equal(t, 3.8, roundGrade(mapGrade(0.55)))
	require.Equal(t, 2.5, roundGrade(mapGrade(0.3)))
	require.Equal(t, 5.5, roundGrade(mapGrade(0.8)))
}

func TestMapGradeMonotonic(t *testing.T) {
	previous := mapGrade(0)
	for pct := 0.01; pct <= 1.0; pct += 0.01 {
		current := mapGrade(pct)
		require.GreaterOrEqual(t, current, previous, "grade must not decrease at pct %.2f", pct)
		previous = current
	}
}

func TestRoundGradeTenths(t *testing.T) {
	require.Equal(t, 5.1, roundGrade(5.125))
	require.Equal(t, 5.2, roundGrade(5.15))
	require.Equal(t, 7.0, roundGrade(6.999))
}
