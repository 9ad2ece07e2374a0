package transcription

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/suPer8Hu/tutor-platform/internal/contract"
	"github.com/suPer8Hu/tutor-platform/internal/lesson"
)

type FeedbackView struct {
	UserID       int64       `json:"user_id"`
	Role         lesson.Role `json:"role"`
	Strengths    []string    `json:"strengths"`
	Improvements []string    `json:"improvements"`
}

// LessonSummary is the post-lesson read model. The summary fields are
// flattened into the top-level object.
type LessonSummary struct {
	Transcription []lesson.Segment `json:"transcription"`
	contract.Summary
	Feedback []FeedbackView    `json:"feedback"`
	Chapters []contract.Chapter `json:"chapters"`
}

// GetLessonSummary loads the stored artifacts and runs the chapter agent
// fresh over the transcript. It costs one generation call per request.
func (s *Service) GetLessonSummary(ctx context.Context, lessonID string) (*LessonSummary, error) {
	t, err := s.GetTranscript(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	var (
		sum      *lesson.Summary
		feedback []lesson.Feedback
		chapters []contract.Chapter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sum, err = s.store.GetSummary(gctx, lessonID)
		return err
	})
	g.Go(func() error {
		var err error
		feedback, err = s.store.ListFeedback(gctx, lessonID)
		return err
	})
	g.Go(func() error {
		var err error
		chapters, err = s.agents.BreakDown(gctx, t.SortedByStart())
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("lesson summary failed", "lesson_id", lessonID, "error", err.Error())
		if errors.Is(err, lesson.ErrNotFound) {
			return nil, wrap("lesson summary not found", err)
		}
		return nil, wrap("failed to get lesson summary", err)
	}

	out := &LessonSummary{
		Transcription: t.Transcription,
		Summary: contract.Summary{
			KeyPoints:        sum.KeyPoints,
			ShortSummary:     sum.ShortSummary,
			LongSummary:      sum.LongSummary,
			RecommendedFocus: sum.RecommendedFocus,
		},
		Feedback: make([]FeedbackView, 0, len(feedback)),
		Chapters: chapters,
	}
	for _, f := range feedback {
		out.Feedback = append(out.Feedback, FeedbackView{
			UserID:       f.UserID,
			Role:         f.Role,
			Strengths:    f.Strengths,
			Improvements: f.Improvements,
		})
	}
	return out, nil
}
