package contract

import "sort"

const (
	MinFeedbackPoints = 3
	MaxFeedbackPoints = 10

	MinLessonPlanChars = 1000
	MaxLessonPlanChars = 10000
)

// ---------- outputs ----------

type Summary struct {
	KeyPoints        string `json:"key_points"`
	ShortSummary     string `json:"short_summary"`
	LongSummary      string `json:"long_summary"`
	RecommendedFocus string `json:"recommended_focus"`
}

type Feedback struct {
	Strengths    []string `json:"strengths" validate:"dive,required"`
	Improvements []string `json:"improvements" validate:"dive,required"`
}

type Chapter struct {
	StartTime   float64 `json:"start_time" validate:"gte=0"`
	EndTime     float64 `json:"end_time" validate:"gtefield=StartTime"`
	Description string  `json:"description" validate:"required"`
}

type Chapters struct {
	Chapters []Chapter `json:"chapters" validate:"dive"`
}

type LessonPlan struct {
	LessonPlan string `json:"lesson_plan"`
}

type LessonSequence struct {
	LessonSequence []LessonPlan `json:"lesson_sequence"`
}

// ---------- contracts ----------

var (
	SummaryContract = New[Summary]("lesson_summary", objectSchema(map[string]any{
		"key_points":        markdownString("The key points of the lesson in unformatted markdown"),
		"short_summary":     markdownString("The short summary of the lesson in unformatted markdown"),
		"long_summary":      markdownString("The long summary of the lesson in unformatted markdown"),
		"recommended_focus": markdownString("The recommended focus of the lesson in unformatted markdown"),
	}))

	FeedbackContract = New[Feedback]("lesson_feedback", objectSchema(map[string]any{
		"strengths":    boundedStringArray("The strengths of the user's lesson", MinFeedbackPoints, MaxFeedbackPoints),
		"improvements": boundedStringArray("The improvements to the user's lesson", MinFeedbackPoints, MaxFeedbackPoints),
	}))

	ChaptersContract = New[Chapters]("lesson_chapters", objectSchema(map[string]any{
		"chapters": map[string]any{
			"type":        "array",
			"description": "The chapters of the lesson in chronological order",
			"minItems":    1,
			"items": objectSchema(map[string]any{
				"start_time":  map[string]any{"type": "number", "description": "Chapter start, seconds from lesson start"},
				"end_time":    map[string]any{"type": "number", "description": "Chapter end, seconds from lesson start"},
				"description": map[string]any{"type": "string", "description": "The description of the chapter"},
			}),
		},
	}))

	LessonPlanContract = New[LessonPlan]("lesson_plan", lessonPlanSchema())

	LessonSequenceContract = New[LessonSequence]("lesson_sequence", objectSchema(map[string]any{
		"lesson_sequence": map[string]any{
			"type":        "array",
			"description": "The collection of lesson plans for the lesson sequence",
			"minItems":    1,
			"items":       lessonPlanSchema(),
		},
	}))
)

// ---------- shared fragments ----------

// objectSchema requires every property and forbids extras, which is what
// strict json_schema mode expects.
func objectSchema(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func markdownString(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func boundedStringArray(desc string, lo, hi int) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": desc,
		"items":       map[string]any{"type": "string"},
		"minItems":    lo,
		"maxItems":    hi,
	}
}

func lessonPlanSchema() map[string]any {
	return objectSchema(map[string]any{
		"lesson_plan": map[string]any{
			"type":        "string",
			"description": "The lesson plan for the lesson, in markdown",
			"minLength":   MinLessonPlanChars,
			"maxLength":   MaxLessonPlanChars,
		},
	})
}
