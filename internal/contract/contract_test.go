package contract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedback_Valid(t *testing.T) {
	out, err := FeedbackContract.Decode([]byte(`{
		"strengths": ["clear intro", "good pacing", "checked understanding"],
		"improvements": ["more wait time", "summarise at end", "fewer closed questions"]
	}`))
	require.NoError(t, err)
	require.Len(t, out.Strengths, 3)
	require.Equal(t, "more wait time", out.Improvements[0])
}

func TestFeedback_TooFewStrengthsFails(t *testing.T) {
	_, err := FeedbackContract.Decode([]byte(`{
		"strengths": ["only one"],
		"improvements": ["a", "b", "c"]
	}`))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrViolation))
	require.Contains(t, err.Error(), "/strengths")
	require.Contains(t, err.Error(), "minItems")
}

func TestFeedback_TooManyImprovementsFails(t *testing.T) {
	items := make([]string, 11)
	for i := range items {
		items[i] = `"x"`
	}
	raw := `{"strengths": ["a","b","c"], "improvements": [` + strings.Join(items, ",") + `]}`
	_, err := FeedbackContract.Decode([]byte(raw))
	require.ErrorIs(t, err, ErrViolation)
}

func TestFeedback_EmptyPointFails(t *testing.T) {
	_, err := FeedbackContract.Decode([]byte(`{"strengths": ["a","","c"], "improvements": ["a","b","c"]}`))
	require.ErrorIs(t, err, ErrViolation)
}

func TestSummary_MissingFieldFails(t *testing.T) {
	_, err := SummaryContract.Decode([]byte(`{"key_points": "kp", "short_summary": "s", "long_summary": "l"}`))
	require.ErrorIs(t, err, ErrViolation)
	require.Contains(t, err.Error(), "recommended_focus")
}

func TestSummary_WrongTypeFails(t *testing.T) {
	_, err := SummaryContract.Decode([]byte(`{"key_points": ["kp"], "short_summary": "s", "long_summary": "l", "recommended_focus": "f"}`))
	require.ErrorIs(t, err, ErrViolation)
	require.Contains(t, err.Error(), "/key_points")
	require.Contains(t, err.Error(), "want string")
}

func TestSummary_UnexpectedFieldFails(t *testing.T) {
	_, err := SummaryContract.Decode([]byte(`{"key_points": "kp", "short_summary": "s", "long_summary": "l", "recommended_focus": "f", "mood": "happy"}`))
	require.ErrorIs(t, err, ErrViolation)
}

func TestMalformedOutputFails(t *testing.T) {
	for _, raw := range []string{``, `not json`, `{"key_points": "kp"`, `[]`, `null`} {
		_, err := SummaryContract.Decode([]byte(raw))
		require.ErrorIs(t, err, ErrViolation, "input %q", raw)
	}
}

func TestChapters(t *testing.T) {
	out, err := ChaptersContract.Decode([]byte(`{"chapters": [
		{"start_time": 0, "end_time": 60.5, "description": "intro"},
		{"start_time": 60.5, "end_time": 300, "description": "fractions"}
	]}`))
	require.NoError(t, err)
	require.Len(t, out.Chapters, 2)
	require.Equal(t, 60.5, out.Chapters[1].StartTime)

	_, err = ChaptersContract.Decode([]byte(`{"chapters": []}`))
	require.ErrorIs(t, err, ErrViolation)

	_, err = ChaptersContract.Decode([]byte(`{"chapters": [{"start_time": 10, "end_time": 5, "description": "backwards"}]}`))
	require.ErrorIs(t, err, ErrViolation)

	_, err = ChaptersContract.Decode([]byte(`{"chapters": [{"start_time": "0", "end_time": 5, "description": "string time"}]}`))
	require.ErrorIs(t, err, ErrViolation)

	_, err = ChaptersContract.Decode([]byte(`{"chapters": [{"start_time": 0, "end_time": 5}]}`))
	require.ErrorIs(t, err, ErrViolation)
}

func TestLessonPlanLengthBounds(t *testing.T) {
	ok := `{"lesson_plan": "` + strings.Repeat("a", MinLessonPlanChars) + `"}`
	out, err := LessonPlanContract.Decode([]byte(ok))
	require.NoError(t, err)
	require.Len(t, out.LessonPlan, MinLessonPlanChars)

	short := `{"lesson_plan": "too short"}`
	_, err = LessonPlanContract.Decode([]byte(short))
	require.ErrorIs(t, err, ErrViolation)

	long := `{"lesson_plan": "` + strings.Repeat("a", MaxLessonPlanChars+1) + `"}`
	_, err = LessonPlanContract.Decode([]byte(long))
	require.ErrorIs(t, err, ErrViolation)
}

func TestLessonSequence(t *testing.T) {
	plan := strings.Repeat("p", MinLessonPlanChars)
	out, err := LessonSequenceContract.Decode([]byte(`{"lesson_sequence": [{"lesson_plan": "` + plan + `"}, {"lesson_plan": "` + plan + `"}]}`))
	require.NoError(t, err)
	require.Len(t, out.LessonSequence, 2)

	_, err = LessonSequenceContract.Decode([]byte(`{"lesson_sequence": [{"lesson_plan": "short"}]}`))
	require.ErrorIs(t, err, ErrViolation)
}

func TestSchemasAreStrictObjects(t *testing.T) {
	for _, c := range []Contract{SummaryContract, FeedbackContract, ChaptersContract, LessonPlanContract, LessonSequenceContract} {
		s := c.Schema()
		require.Equal(t, "object", s["type"], c.Name())
		require.Equal(t, false, s["additionalProperties"], c.Name())
		props := s["properties"].(map[string]any)
		require.Len(t, s["required"], len(props), c.Name())
	}
	fb := FeedbackContract.Schema()["properties"].(map[string]any)["strengths"].(map[string]any)
	require.Equal(t, MinFeedbackPoints, fb["minItems"])
	require.Equal(t, MaxFeedbackPoints, fb["maxItems"])
}

func TestBoundsLiveInSchemaOnly(t *testing.T) {
	// tags alone accept out-of-range counts and lengths
	require.NoError(t, validate.Struct(Feedback{Strengths: []string{"a"}, Improvements: []string{"b"}}))
	require.NoError(t, validate.Struct(LessonPlan{LessonPlan: "short"}))
	require.NoError(t, validate.Struct(Chapters{Chapters: []Chapter{}}))

	_, err := FeedbackContract.Decode([]byte(`{"strengths": ["a"], "improvements": ["a","b","c"]}`))
	require.ErrorIs(t, err, ErrViolation)
	_, err = LessonPlanContract.Decode([]byte(`{"lesson_plan": "short"}`))
	require.ErrorIs(t, err, ErrViolation)
	_, err = ChaptersContract.Decode([]byte(`{"chapters": []}`))
	require.ErrorIs(t, err, ErrViolation)
}
