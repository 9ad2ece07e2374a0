// Package transcription runs the post-lesson pipeline: it takes a finished
// transcript from the webhook, stores it, and fans out the summary and
// per-participant feedback agents. It also assembles the read-side views.
package transcription

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suPer8Hu/tutor-platform/internal/agent"
	"github.com/suPer8Hu/tutor-platform/internal/common"
	"github.com/suPer8Hu/tutor-platform/internal/contract"
	"github.com/suPer8Hu/tutor-platform/internal/lesson"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
	"github.com/suPer8Hu/tutor-platform/internal/metrics"
	"github.com/suPer8Hu/tutor-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/tutor-platform/internal/store/redisstore"
)

// Store is the persistence boundary; *lesson.Repo implements it.
type Store interface {
	UpsertTranscript(ctx context.Context, lessonID string, segs []lesson.Segment) (*lesson.Transcript, error)
	GetTranscript(ctx context.Context, lessonID string) (*lesson.Transcript, error)
	UpsertSummary(ctx context.Context, s *lesson.Summary) (*lesson.Summary, error)
	GetSummary(ctx context.Context, lessonID string) (*lesson.Summary, error)
	UpsertFeedback(ctx context.Context, f *lesson.Feedback) (*lesson.Feedback, error)
	ListFeedback(ctx context.Context, lessonID string) ([]lesson.Feedback, error)
	DeleteFeedbackExcept(ctx context.Context, lessonID string, keep []int64) error
	ListParticipants(ctx context.Context, lessonID string) ([]lesson.Participant, error)
	LessonState(ctx context.Context, lessonID string) (lesson.State, error)
}

// Agents is the slice of the agent layer the pipeline needs; *agent.Agents implements it.
type Agents interface {
	Summarize(ctx context.Context, transcript string) (contract.Summary, error)
	BreakDown(ctx context.Context, segs []lesson.Segment) ([]contract.Chapter, error)
	FeedbackByRole() map[lesson.Role]agent.FeedbackFactory
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type EventPublisher interface {
	PublishLessonEvent(ctx context.Context, ev rabbitmq.LessonEvent) error
}

type Options struct {
	Locker          Locker
	LockTTL         time.Duration
	Events          EventPublisher
	Metrics         *metrics.Metrics
	HTTPClient      *http.Client
	DownloadTimeout time.Duration
}

type Service struct {
	store           Store
	agents          Agents
	log             *logger.Logger
	locker          Locker
	lockTTL         time.Duration
	events          EventPublisher
	metrics         *metrics.Metrics
	client          *http.Client
	downloadTimeout time.Duration
}

func NewService(store Store, agents Agents, log *logger.Logger, opts Options) *Service {
	s := &Service{
		store:           store,
		agents:          agents,
		log:             log.With("service", "TranscriptionService"),
		locker:          opts.Locker,
		lockTTL:         opts.LockTTL,
		events:          opts.Events,
		metrics:         opts.Metrics,
		client:          opts.HTTPClient,
		downloadTimeout: opts.DownloadTimeout,
	}
	if s.locker == nil {
		s.locker = redisstore.NewLocalLocker()
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 15 * time.Minute
	}
	if s.events == nil {
		s.events = rabbitmq.Noop{}
	}
	if s.client == nil {
		s.client = &http.Client{}
	}
	if s.downloadTimeout <= 0 {
		s.downloadTimeout = 60 * time.Second
	}
	return s
}

type WebhookPayload struct {
	TranscriptionURL string `json:"transcriptionUrl" binding:"required"`
}

// HandleWebhook runs one pipeline for lessonID. Download and transcript
// persistence abort the run. Summary and every participant's feedback then
// run concurrently; each is its own unit of work and all failures come back
// joined in one *Error.
func (s *Service) HandleWebhook(ctx context.Context, payload WebhookPayload, lessonID string) error {
	runID, err := common.NewULID()
	if err != nil {
		return wrap("failed to process transcription", err)
	}
	log := s.log.With("lesson_id", lessonID, "run_id", runID)

	key := redisstore.PipelineKey(lessonID)
	token, ok, err := s.locker.Acquire(ctx, key, s.lockTTL)
	switch {
	case err != nil:
		// upserts keep a duplicate run harmless, so a lock outage doesn't block the webhook
		log.Warn("pipeline lock unavailable", "error", err.Error())
	case !ok:
		s.metrics.ObservePipelineRun("busy")
		log.Info("pipeline already running, rejecting duplicate delivery")
		return ErrPipelineBusy
	default:
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn("pipeline lock release failed", "error", err.Error())
			}
		}()
	}

	start := time.Now()
	log.Info("transcription pipeline started")

	segs, err := s.Download(ctx, payload.TranscriptionURL)
	if err != nil {
		s.metrics.ObservePipelineRun("download_failed")
		log.Error("transcript download failed", "error", err.Error())
		return wrap("failed to download transcription", err)
	}

	t, err := s.store.UpsertTranscript(ctx, lessonID, segs)
	if err != nil {
		s.metrics.ObservePipelineRun("persist_failed")
		log.Error("transcript persist failed", "error", err.Error())
		return wrap("failed to process transcription", err)
	}
	// feedback of speakers absent from the new transcript is superseded with it
	if err := s.store.DeleteFeedbackExcept(ctx, lessonID, t.Speakers()); err != nil {
		s.metrics.ObservePipelineRun("persist_failed")
		log.Error("stale feedback cleanup failed", "error", err.Error())
		return wrap("failed to process transcription", err)
	}
	s.publish(ctx, log, lessonID, runID, lesson.TranscriptStored)

	errs := s.generateArtifacts(ctx, log, t, runID)
	if len(errs) > 0 {
		s.metrics.ObservePipelineRun("partial")
		joined := errors.Join(errs...)
		log.Error("transcription pipeline finished with failures", "failures", len(errs), "error", joined.Error(), "took", time.Since(start).String())
		return wrap("failed to process transcription", joined)
	}

	s.publish(ctx, log, lessonID, runID, lesson.FeedbackComplete)
	s.metrics.ObservePipelineRun("success")
	log.Info("transcription pipeline finished", "segments", len(segs), "took", time.Since(start).String())
	return nil
}

func (s *Service) generateArtifacts(ctx context.Context, log *logger.Logger, t *lesson.Transcript, runID string) []error {
	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	users, err := s.userTranscripts(ctx, t)
	if err != nil {
		// unresolved speakers are skipped; the summary and everyone else still run
		log.Error("participant role resolution failed", "error", err.Error())
		fail(err)
	}

	// tasks return nil so one failure never cancels the others
	var g errgroup.Group

	g.Go(func() error {
		sum, err := s.agents.Summarize(ctx, t.Concatenated())
		if err != nil {
			fail(err)
			return nil
		}
		if _, err := s.store.UpsertSummary(ctx, &lesson.Summary{
			LessonID:         t.LessonID,
			KeyPoints:        sum.KeyPoints,
			ShortSummary:     sum.ShortSummary,
			LongSummary:      sum.LongSummary,
			RecommendedFocus: sum.RecommendedFocus,
		}); err != nil {
			fail(err)
			return nil
		}
		s.publish(ctx, log, t.LessonID, runID, lesson.Summarized)
		return nil
	})

	feedbackByRole := s.agents.FeedbackByRole()
	for _, ut := range users {
		factory, ok := feedbackByRole[ut.Role]
		if !ok {
			fail(&lesson.UnresolvedRoleError{LessonID: t.LessonID, UserIDs: []int64{ut.UserID}})
			continue
		}
		g.Go(func() error {
			strengths, improvements, err := factory(ut.Name).GenerateFeedback(ctx, ut.Text)
			if err != nil {
				fail(err)
				return nil
			}
			if _, err := s.store.UpsertFeedback(ctx, &lesson.Feedback{
				LessonID:     t.LessonID,
				UserID:       ut.UserID,
				Role:         ut.Role,
				Strengths:    strengths,
				Improvements: improvements,
			}); err != nil {
				fail(err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return errs
}

// userTranscripts resolves each speaker's role through the participant
// records and returns the aggregation in user id order.
func (s *Service) userTranscripts(ctx context.Context, t *lesson.Transcript) ([]lesson.UserTranscript, error) {
	parts, err := s.store.ListParticipants(ctx, t.LessonID)
	if err != nil {
		return nil, err
	}
	roles := make(map[int64]lesson.Role, len(parts))
	for _, p := range parts {
		roles[p.UserID] = p.Role
	}

	byUser, gatherErr := t.GatherUserTranscripts(roles)
	out := make([]lesson.UserTranscript, 0, len(byUser))
	for _, ut := range byUser {
		out = append(out, ut)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, gatherErr
}

func (s *Service) publish(ctx context.Context, log *logger.Logger, lessonID, runID string, st lesson.State) {
	err := s.events.PublishLessonEvent(ctx, rabbitmq.LessonEvent{
		LessonID: lessonID,
		RunID:    runID,
		State:    st.String(),
		At:       time.Now().UTC(),
	})
	if err != nil {
		log.Warn("lesson event publish failed", "state", st.String(), "error", err.Error())
	}
}

func (s *Service) GetTranscript(ctx context.Context, lessonID string) (*lesson.Transcript, error) {
	t, err := s.store.GetTranscript(ctx, lessonID)
	if err != nil {
		if errors.Is(err, lesson.ErrNotFound) {
			return nil, wrap("transcription not found", err)
		}
		s.log.Error("get transcript failed", "lesson_id", lessonID, "error", err.Error())
		return nil, wrap("failed to get transcription", err)
	}
	return t, nil
}

func (s *Service) LessonState(ctx context.Context, lessonID string) (lesson.State, error) {
	st, err := s.store.LessonState(ctx, lessonID)
	if err != nil {
		return lesson.NoTranscript, wrap("failed to get lesson state", err)
	}
	return st, nil
}
