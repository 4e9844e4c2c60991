package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumericValueScalar(t *testing.T) {
	var value NumericValue
	require.NoError(t, json.Unmarshal([]byte(`4.5`), &value))
	require.False(t, value.IsList)
	require.Equal(t, []float64{4.5}, value.Values)
	require.False(t, value.IsZero())

	out, err := json.Marshal(value)
	require.NoError(t, err)
	require.Equal(t, `4.5`, string(out))
}

func TestNumericValueList(t *testing.T) {
	var value NumericValue
	require.NoError(t, json.Unmarshal([]byte(`[1, 2.5, -3]`), &value))
	require.True(t, value.IsList)
	require.Equal(t, []float64{1, 2.5, -3}, value.Values)
	require.False(t, value.IsZero())

	out, err := json.Marshal(value)
	require.NoError(t, err)
	require.JSONEq(t, `[1,2.5,-3]`, string(out))
}

func TestNumericValueEmptyList(t *testing.T) {
	var value NumericValue
	require.NoError(t, json.Unmarshal([]byte(`[]`), &value))
	require.True(t, value.IsList)
	require.False(t, value.IsZero())

	out, err := json.Marshal(value)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(out))
}

func TestNumericValueNull(t *testing.T) {
	var value NumericValue
	require.NoError(t, json.Unmarshal([]byte(`null`), &value))
	require.True(t, value.IsZero())

	out, err := json.Marshal(value)
	require.NoError(t, err)
	require.Equal(t, `null`, string(out))
}

func TestNumericValueRejectsStrings(t *testing.T) {
	var value NumericValue
	require.Error(t, json.Unmarshal([]byte(`"4"`), &value))
	require.Error(t, json.Unmarshal([]byte(`["a"]`), &value))
}

func TestSlidePayloadRoundTrip(t *testing.T) {
	raw := `{"itemId":"q1","answer":[2,4],"canvasJSON":{"objects":[]},"canvasPNG":"data:image/png;base64,aGk="}`

	var slide SlidePayload
	require.NoError(t, json.Unmarshal([]byte(raw), &slide))
	require.Equal(t, "q1", slide.ItemID)
	require.NotNil(t, slide.Answer)
	require.True(t, slide.Answer.IsList)
	require.JSONEq(t, `{"objects":[]}`, string(slide.CanvasJSON))

	out, err := json.Marshal(slide)
	require.NoError(t, err)
	require.JSONEq(t, raw, string(out))
}

func TestGradeReportWireShape(t *testing.T) {
	report := GradeReport{
		ExamID:   "exam-1",
		Student:  json.RawMessage(`{"name":"Ana"}`),
		Scores:   []ItemScore{{ItemID: "q1", Score: 1, Max: 1, Feedback: "Correct."}},
		Total:    1,
		MaxTotal: 1,
		Grade:    7,
	}

	out, err := json.Marshal(report)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"examId": "exam-1",
		"student": {"name": "Ana"},
		"scores": [{"itemId": "q1", "score": 1, "max": 1, "feedback": "Correct."}],
		"total": 1,
		"maxTotal": 1,
		"grade": 7
	}`, string(out))
}
