package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/tutor-platform/internal/common"
	"github.com/suPer8Hu/tutor-platform/internal/lesson"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
	"github.com/suPer8Hu/tutor-platform/internal/planning"
	"github.com/suPer8Hu/tutor-platform/internal/space"
	"github.com/suPer8Hu/tutor-platform/internal/transcription"
)

type TranscriptionService interface {
	HandleWebhook(ctx context.Context, payload transcription.WebhookPayload, lessonID string) error
	GetTranscript(ctx context.Context, lessonID string) (*lesson.Transcript, error)
	GetLessonSummary(ctx context.Context, lessonID string) (*transcription.LessonSummary, error)
	LessonState(ctx context.Context, lessonID string) (lesson.State, error)
}

type PlanningService interface {
	CreateLessonPlan(ctx context.Context, brief string) (*planning.LessonPlan, error)
	CreateLessonSequence(ctx context.Context, brief string) (*planning.LessonSequence, error)
}

type SpaceProvisioner interface {
	Provision(ctx context.Context, req space.Request) (*space.Response, error)
}

type Handler struct {
	Transcription TranscriptionService
	Planning      PlanningService
	Spaces        SpaceProvisioner
	Log           *logger.Logger
}

func NewHandler(ts TranscriptionService, ps PlanningService, sp SpaceProvisioner, log *logger.Logger) *Handler {
	return &Handler{Transcription: ts, Planning: ps, Spaces: sp, Log: log}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// writeError maps service errors onto status codes; the envelope message
// carries the cause.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, lesson.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40400, err.Error())
	case errors.Is(err, transcription.ErrPipelineBusy):
		common.Fail(c, http.StatusConflict, 40900, err.Error())
	case errors.Is(err, planning.ErrEmptyBrief), errors.Is(err, space.ErrNoParticipants):
		common.Fail(c, http.StatusUnprocessableEntity, 42200, err.Error())
	default:
		common.Fail(c, http.StatusInternalServerError, 50000, "Internal server error: "+err.Error())
	}
}

func invalidBody(c *gin.Context, err error) {
	common.Fail(c, http.StatusUnprocessableEntity, 42200, "invalid request body: "+err.Error())
}
