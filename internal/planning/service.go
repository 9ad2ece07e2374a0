package planning

import (
	"context"
	"errors"
	"strings"

	"github.com/suPer8Hu/tutor-platform/internal/contract"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
)

var ErrEmptyBrief = errors.New("planning brief is empty")

// Agents is implemented by *agent.Agents.
type Agents interface {
	LessonPlan(ctx context.Context, brief string) (contract.LessonPlan, error)
	LessonSequence(ctx context.Context, brief string) (contract.LessonSequence, error)
}

type Service struct {
	agents Agents
	log    *logger.Logger
}

func NewService(agents Agents, log *logger.Logger) *Service {
	return &Service{agents: agents, log: log.With("service", "PlanningService")}
}

type LessonPlan struct {
	LessonPlan string `json:"lesson_plan"`
}

type LessonSequence struct {
	LessonPlans []LessonPlan `json:"lesson_plans"`
}

func (s *Service) CreateLessonPlan(ctx context.Context, brief string) (*LessonPlan, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, ErrEmptyBrief
	}
	out, err := s.agents.LessonPlan(ctx, brief)
	if err != nil {
		s.log.Error("create lesson plan failed", "error", err.Error())
		return nil, err
	}
	return &LessonPlan{LessonPlan: out.LessonPlan}, nil
}

// CreateLessonSequence keeps the order the agent returned.
func (s *Service) CreateLessonSequence(ctx context.Context, brief string) (*LessonSequence, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, ErrEmptyBrief
	}
	out, err := s.agents.LessonSequence(ctx, brief)
	if err != nil {
		s.log.Error("create lesson sequence failed", "error", err.Error())
		return nil, err
	}
	seq := &LessonSequence{LessonPlans: make([]LessonPlan, 0, len(out.LessonSequence))}
	for _, p := range out.LessonSequence {
		seq.LessonPlans = append(seq.LessonPlans, LessonPlan{LessonPlan: p.LessonPlan})
	}
	return seq, nil
}
