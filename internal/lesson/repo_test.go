package lesson

import (
	"context"
	"fmt"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(gormsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTranscript_RoundTrip(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	segs := sampleTranscript().Transcription
	saved, err := repo.UpsertTranscript(ctx, "L1", segs)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	require.False(t, saved.CreatedAt.IsZero())

	got, err := repo.GetTranscript(ctx, "L1")
	require.NoError(t, err)
	require.Equal(t, []Segment(segs), []Segment(got.Transcription))
}

func TestTranscript_UpsertSupersedes(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	first, err := repo.UpsertTranscript(ctx, "L1", sampleTranscript().Transcription[:1])
	require.NoError(t, err)
	second, err := repo.UpsertTranscript(ctx, "L1", sampleTranscript().Transcription)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, second.Transcription, 3)

	var n int64
	require.NoError(t, db.Model(&Transcript{}).Where("lesson_id = ?", "L1").Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestGetTranscript_NotFound(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	_, err := repo.GetTranscript(context.Background(), "no-such-lesson")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSummary_Upsert(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	_, err := repo.UpsertSummary(ctx, &Summary{LessonID: "L1", KeyPoints: "a"})
	require.NoError(t, err)
	s, err := repo.UpsertSummary(ctx, &Summary{LessonID: "L1", KeyPoints: "kp", ShortSummary: "s", LongSummary: "l", RecommendedFocus: "f"})
	require.NoError(t, err)
	require.Equal(t, "kp", s.KeyPoints)
	require.Equal(t, "f", s.RecommendedFocus)

	_, err = repo.GetSummary(ctx, "L2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFeedback_UpsertAndList(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	_, err := repo.UpsertFeedback(ctx, &Feedback{LessonID: "L1", UserID: 2, Role: RoleStudent, Strengths: []string{"a"}, Improvements: []string{"b"}})
	require.NoError(t, err)
	_, err = repo.UpsertFeedback(ctx, &Feedback{LessonID: "L1", UserID: 1, Role: RoleTutor, Strengths: []string{"x"}, Improvements: []string{"y"}})
	require.NoError(t, err)
	updated, err := repo.UpsertFeedback(ctx, &Feedback{LessonID: "L1", UserID: 2, Role: RoleStudent, Strengths: []string{"c", "d"}, Improvements: []string{"e"}})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "d"}, []string(updated.Strengths))

	all, err := repo.ListFeedback(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(1), all[0].UserID)
	require.Equal(t, int64(2), all[1].UserID)

	one, err := repo.GetFeedback(ctx, "L1", 1)
	require.NoError(t, err)
	require.Equal(t, RoleTutor, one.Role)
}

func TestDeleteFeedbackExcept(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	for _, uid := range []int64{1, 2, 3} {
		_, err := repo.UpsertFeedback(ctx, &Feedback{LessonID: "L1", UserID: uid, Role: RoleStudent, Strengths: []string{"a"}, Improvements: []string{"b"}})
		require.NoError(t, err)
	}
	_, err := repo.UpsertFeedback(ctx, &Feedback{LessonID: "L2", UserID: 2, Role: RoleStudent, Strengths: []string{"a"}, Improvements: []string{"b"}})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteFeedbackExcept(ctx, "L1", []int64{1, 3}))
	all, err := repo.ListFeedback(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(1), all[0].UserID)
	require.Equal(t, int64(3), all[1].UserID)

	require.NoError(t, repo.DeleteFeedbackExcept(ctx, "L1", nil))
	all, err = repo.ListFeedback(ctx, "L1")
	require.NoError(t, err)
	require.Empty(t, all)

	other, err := repo.ListFeedback(ctx, "L2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestParticipant_UpsertChangesRole(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertParticipant(ctx, &Participant{LessonID: "L1", UserID: 1, Role: RoleStudent}))
	require.NoError(t, repo.UpsertParticipant(ctx, &Participant{LessonID: "L1", UserID: 1, Role: RoleTutor, Leader: true}))
	require.NoError(t, repo.UpsertParticipant(ctx, &Participant{LessonID: "L2", UserID: 1, Role: RoleStudent}))

	ps, err := repo.ListParticipants(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.Equal(t, RoleTutor, ps[0].Role)
	require.True(t, ps[0].Leader)
}

func TestGetOrCreateSpace_Idempotent(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	a, err := repo.GetOrCreateSpace(ctx, "L1", "room-1")
	require.NoError(t, err)
	b, err := repo.GetOrCreateSpace(ctx, "L1", "room-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)
	require.NotZero(t, b.ID)

	var count int64
	require.NoError(t, repo.db.Model(&Space{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestLessonState_Progression(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	st, err := repo.LessonState(ctx, "L1")
	require.NoError(t, err)
	require.Equal(t, NoTranscript, st)

	_, err = repo.UpsertTranscript(ctx, "L1", sampleTranscript().Transcription)
	require.NoError(t, err)
	st, _ = repo.LessonState(ctx, "L1")
	require.Equal(t, TranscriptStored, st)

	_, err = repo.UpsertSummary(ctx, &Summary{LessonID: "L1"})
	require.NoError(t, err)
	st, _ = repo.LessonState(ctx, "L1")
	require.Equal(t, Summarized, st)

	_, err = repo.UpsertFeedback(ctx, &Feedback{LessonID: "L1", UserID: 1, Role: RoleTutor, Strengths: []string{}, Improvements: []string{}})
	require.NoError(t, err)
	st, _ = repo.LessonState(ctx, "L1")
	require.Equal(t, Summarized, st)

	_, err = repo.UpsertFeedback(ctx, &Feedback{LessonID: "L1", UserID: 2, Role: RoleStudent, Strengths: []string{}, Improvements: []string{}})
	require.NoError(t, err)
	st, _ = repo.LessonState(ctx, "L1")
	require.Equal(t, FeedbackComplete, st)
	require.Equal(t, "feedback_complete", st.String())
}
