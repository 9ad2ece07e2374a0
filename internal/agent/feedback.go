package agent

import (
	"context"

	"github.com/suPer8Hu/tutor-platform/internal/lesson"
)

// FeedbackGenerator produces strengths and improvements for one participant's text.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, text string) (strengths, improvements []string, err error)
}

// FeedbackFactory binds a generator to the participant it addresses.
type FeedbackFactory func(name string) FeedbackGenerator

type feedbackFunc func(ctx context.Context, text string) ([]string, []string, error)

func (f feedbackFunc) GenerateFeedback(ctx context.Context, text string) ([]string, []string, error) {
	return f(ctx, text)
}

// FeedbackByRole is the role-keyed lookup the orchestrator dispatches through.
func (a *Agents) FeedbackByRole() map[lesson.Role]FeedbackFactory {
	return map[lesson.Role]FeedbackFactory{
		lesson.RoleTutor: func(name string) FeedbackGenerator {
			return feedbackFunc(func(ctx context.Context, text string) ([]string, []string, error) {
				return a.TutorFeedback(ctx, name, text)
			})
		},
		lesson.RoleStudent: func(name string) FeedbackGenerator {
			return feedbackFunc(func(ctx context.Context, text string) ([]string, []string, error) {
				return a.StudentFeedback(ctx, name, text)
			})
		},
	}
}
