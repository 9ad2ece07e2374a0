package lesson

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func notFound(err error, what, lessonID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s for lesson %s: %w", what, lessonID, ErrNotFound)
	}
	return err
}

// UpsertTranscript stores segs under lessonID, replacing any earlier delivery,
// and returns the persisted row.
func (r *Repo) UpsertTranscript(ctx context.Context, lessonID string, segs []Segment) (*Transcript, error) {
	t := &Transcript{LessonID: lessonID, Transcription: segs}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"transcription", "updated_at"}),
	}).Create(t).Error
	if err != nil {
		return nil, err
	}
	return r.GetTranscript(ctx, lessonID)
}

func (r *Repo) GetTranscript(ctx context.Context, lessonID string) (*Transcript, error) {
	var t Transcript
	if err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		First(&t).Error; err != nil {
		return nil, notFound(err, "transcript", lessonID)
	}
	return &t, nil
}

func (r *Repo) UpsertSummary(ctx context.Context, s *Summary) (*Summary, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"key_points", "short_summary", "long_summary", "recommended_focus", "updated_at",
		}),
	}).Create(s).Error
	if err != nil {
		return nil, err
	}
	return r.GetSummary(ctx, s.LessonID)
}

func (r *Repo) GetSummary(ctx context.Context, lessonID string) (*Summary, error) {
	var s Summary
	if err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		First(&s).Error; err != nil {
		return nil, notFound(err, "summary", lessonID)
	}
	return &s, nil
}

func (r *Repo) UpsertFeedback(ctx context.Context, f *Feedback) (*Feedback, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lesson_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "strengths", "improvements", "updated_at"}),
	}).Create(f).Error
	if err != nil {
		return nil, err
	}
	return r.GetFeedback(ctx, f.LessonID, f.UserID)
}

func (r *Repo) GetFeedback(ctx context.Context, lessonID string, userID int64) (*Feedback, error) {
	var f Feedback
	if err := r.db.WithContext(ctx).
		Where("lesson_id = ? AND user_id = ?", lessonID, userID).
		First(&f).Error; err != nil {
		return nil, notFound(err, "feedback", lessonID)
	}
	return &f, nil
}

// DeleteFeedbackExcept removes a lesson's feedback rows for users not in keep.
// An empty keep clears the lesson's feedback.
func (r *Repo) DeleteFeedbackExcept(ctx context.Context, lessonID string, keep []int64) error {
	q := r.db.WithContext(ctx).Where("lesson_id = ?", lessonID)
	if len(keep) > 0 {
		q = q.Where("user_id NOT IN ?", keep)
	}
	return q.Delete(&Feedback{}).Error
}

// ListFeedback returns every feedback row of a lesson in user_id order.
func (r *Repo) ListFeedback(ctx context.Context, lessonID string) ([]Feedback, error) {
	var out []Feedback
	if err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("user_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) UpsertParticipant(ctx context.Context, p *Participant) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lesson_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "leader", "updated_at"}),
	}).Create(p).Error
}

func (r *Repo) ListParticipants(ctx context.Context, lessonID string) ([]Participant, error) {
	var out []Participant
	if err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("user_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrCreateSpace is idempotent on (lesson_id, space_id). Concurrent callers
// race on the unique index, not on a read-then-insert.
func (r *Repo) GetOrCreateSpace(ctx context.Context, lessonID, spaceID string) (*Space, error) {
	s := &Space{LessonID: lessonID, SpaceID: spaceID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_id"}, {Name: "space_id"}},
			DoNothing: true,
		}).
		Create(s).Error; err != nil {
		return nil, err
	}

	var out Space
	if err := r.db.WithContext(ctx).
		Where("lesson_id = ? AND space_id = ?", lessonID, spaceID).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// LessonState derives pipeline progress from which artifacts exist.
func (r *Repo) LessonState(ctx context.Context, lessonID string) (State, error) {
	t, err := r.GetTranscript(ctx, lessonID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NoTranscript, nil
		}
		return NoTranscript, err
	}
	_, err = r.GetSummary(ctx, lessonID)
	hasSummary := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return NoTranscript, err
	}
	fb, err := r.ListFeedback(ctx, lessonID)
	if err != nil {
		return NoTranscript, err
	}
	return DeriveState(t, hasSummary, fb), nil
}
