// Package agent exposes one typed operation per AI task. Each operation pairs
// a fixed prompt with an output contract, makes exactly one generation call
// and returns the validated result. There is no caching and no retry here.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/suPer8Hu/tutor-platform/internal/ai"
	"github.com/suPer8Hu/tutor-platform/internal/contract"
	"github.com/suPer8Hu/tutor-platform/internal/lesson"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
	"github.com/suPer8Hu/tutor-platform/internal/metrics"
	"github.com/suPer8Hu/tutor-platform/internal/prompts"
)

type Task string

const (
	TaskSummary         Task = "summary"
	TaskChapters        Task = "chapters"
	TaskTutorFeedback   Task = "tutor_feedback"
	TaskStudentFeedback Task = "student_feedback"
	TaskLessonPlan      Task = "lesson_plan"
	TaskLessonSequence  Task = "lesson_sequence"
)

// Runner is the generation engine; *ai.Engine implements it.
type Runner interface {
	Generate(ctx context.Context, req ai.Request) ([]byte, error)
}

type Agents struct {
	runner  Runner
	model   string
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New wires the agents. model may be empty to use the engine default; m may be nil.
func New(runner Runner, model string, m *metrics.Metrics, log *logger.Logger) *Agents {
	return &Agents{runner: runner, model: model, metrics: m, log: log.With("service", "Agents")}
}

func run[T any](ctx context.Context, a *Agents, task Task, instructions, input string, c contract.Spec[T]) (T, error) {
	start := time.Now()
	out, err := func() (T, error) {
		var zero T
		raw, err := a.runner.Generate(ctx, ai.Request{
			Instructions: instructions,
			Input:        input,
			Schema:       ai.Schema{Name: c.Name(), Definition: c.Schema()},
			Model:        a.model,
		})
		if err != nil {
			return zero, err
		}
		return c.Decode(raw)
	}()
	took := time.Since(start)
	a.metrics.ObserveAgentCall(string(task), took, err)
	if err != nil {
		a.log.Warn("agent call failed", "task", task, "prompt_version", prompts.Version, "took", took.String(), "error", err.Error())
		return out, fmt.Errorf("%s agent: %w", task, err)
	}
	a.log.Debug("agent call done", "task", task, "took", took.String())
	return out, nil
}

// Summarize runs over the newline-joined transcript of the whole lesson.
func (a *Agents) Summarize(ctx context.Context, transcript string) (contract.Summary, error) {
	return run(ctx, a, TaskSummary, prompts.Summary, transcript, contract.SummaryContract)
}

// BreakDown sends the segment list as JSON and returns the chapters.
func (a *Agents) BreakDown(ctx context.Context, segs []lesson.Segment) ([]contract.Chapter, error) {
	if segs == nil {
		segs = []lesson.Segment{}
	}
	input, err := json.Marshal(segs)
	if err != nil {
		return nil, fmt.Errorf("%s agent: encode segments: %w", TaskChapters, err)
	}
	out, err := run(ctx, a, TaskChapters, prompts.Chapters, string(input), contract.ChaptersContract)
	if err != nil {
		return nil, err
	}
	return out.Chapters, nil
}

func (a *Agents) TutorFeedback(ctx context.Context, name, text string) (strengths, improvements []string, err error) {
	return a.feedback(ctx, TaskTutorFeedback, prompts.TutorFeedback(name), text)
}

func (a *Agents) StudentFeedback(ctx context.Context, name, text string) (strengths, improvements []string, err error) {
	return a.feedback(ctx, TaskStudentFeedback, prompts.StudentFeedback(name), text)
}

func (a *Agents) feedback(ctx context.Context, task Task, instructions, text string) ([]string, []string, error) {
	out, err := run(ctx, a, task, instructions, text, contract.FeedbackContract)
	if err != nil {
		return nil, nil, err
	}
	return out.Strengths, out.Improvements, nil
}

func (a *Agents) LessonPlan(ctx context.Context, brief string) (contract.LessonPlan, error) {
	return run(ctx, a, TaskLessonPlan, prompts.LessonPlan, brief, contract.LessonPlanContract)
}

func (a *Agents) LessonSequence(ctx context.Context, brief string) (contract.LessonSequence, error) {
	return run(ctx, a, TaskLessonSequence, prompts.LessonSequence, brief, contract.LessonSequenceContract)
}
