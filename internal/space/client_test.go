package space

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/suPer8Hu/tutor-platform/internal/lesson"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
)

type memRepo struct {
	mu           sync.Mutex
	participants map[int64]lesson.Participant
	spaces       map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{participants: map[int64]lesson.Participant{}, spaces: map[string]bool{}}
}

func (r *memRepo) UpsertParticipant(_ context.Context, p *lesson.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.UserID] = *p
	return nil
}

func (r *memRepo) GetOrCreateSpace(_ context.Context, lessonID, spaceID string) (*lesson.Space, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spaces[lessonID+"/"+spaceID] = true
	return &lesson.Space{LessonID: lessonID, SpaceID: spaceID}, nil
}

type launchServer struct {
	mu     sync.Mutex
	bodies []map[string]any
	status int
}

func (s *launchServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/spaces/launch/", r.URL.Path)
		require.Equal(t, "Organisation secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s.mu.Lock()
		s.bodies = append(s.bodies, body)
		s.mu.Unlock()

		if s.status != 0 {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte("nope"))
			return
		}
		user := body["user"].(map[string]any)
		_, _ = fmt.Fprintf(w, `{"room_id":"room-1","client_url":"https://go.example/%v"}`, user["id"])
	}
}

func TestProvision(t *testing.T) {
	ls := &launchServer{}
	srv := httptest.NewServer(ls.handler(t))
	defer srv.Close()

	repo := newMemRepo()
	c := NewClient(srv.URL, "secret", "https://api.example/", repo, logger.Nop())

	resp, err := c.Provision(context.Background(), Request{
		LessonID: "L1",
		Tutors:   []Participant{{UserID: 1, Name: "Ann", IsLeader: true}},
		Students: []Participant{{UserID: 2, Name: "Bo", IsLeader: true}},
	})
	require.NoError(t, err)
	require.Equal(t, "room-1", resp.SpaceID)
	require.Equal(t, []UserSpace{{UserID: 1, Name: "Ann", Role: lesson.RoleTutor, SpaceURL: "https://go.example/1", Leader: true}}, resp.TutorSpaces)
	require.Equal(t, []UserSpace{{UserID: 2, Name: "Bo", Role: lesson.RoleStudent, SpaceURL: "https://go.example/2", Leader: false}}, resp.StudentSpaces)

	require.Equal(t, lesson.RoleTutor, repo.participants[1].Role)
	require.True(t, repo.participants[1].Leader)
	require.Equal(t, lesson.RoleStudent, repo.participants[2].Role)
	require.False(t, repo.participants[2].Leader, "students are never leaders")
	require.True(t, repo.spaces["L1/room-1"])

	require.Len(t, ls.bodies, 2)
	for _, b := range ls.bodies {
		require.Equal(t, "L1", b["id"])
		require.Equal(t, true, b["transcribe"])
		require.Equal(t, true, b["record_av"])
		require.NotContains(t, b, "timeouts")
		hook := b["webhooks"].(map[string]any)["transcription"].(map[string]any)
		require.Equal(t, "https://api.example/api/space/webhook/transcription/L1", hook["finish"])
	}
}

func TestProvision_NotBefore(t *testing.T) {
	ls := &launchServer{}
	srv := httptest.NewServer(ls.handler(t))
	defer srv.Close()

	at := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	c := NewClient(srv.URL, "secret", "https://api.example", newMemRepo(), logger.Nop())
	_, err := c.Provision(context.Background(), Request{
		LessonID:  "L1",
		Tutors:    []Participant{{UserID: 1, Name: "Ann"}},
		NotBefore: &at,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"not_before": "2025-06-02T15:00:00Z"}, ls.bodies[0]["timeouts"])
}

func TestProvision_UpstreamFailure(t *testing.T) {
	ls := &launchServer{status: http.StatusUnauthorized}
	srv := httptest.NewServer(ls.handler(t))
	defer srv.Close()

	repo := newMemRepo()
	c := NewClient(srv.URL, "secret", "https://api.example", repo, logger.Nop())
	_, err := c.Provision(context.Background(), Request{LessonID: "L1", Tutors: []Participant{{UserID: 1, Name: "Ann"}}})
	require.ErrorContains(t, err, "status 401")
	require.Empty(t, repo.participants)
}

func TestProvision_NoParticipants(t *testing.T) {
	c := NewClient("http://unused", "secret", "", newMemRepo(), logger.Nop())
	_, err := c.Provision(context.Background(), Request{LessonID: "L1"})
	require.ErrorIs(t, err, ErrNoParticipants)
}

func openLessonDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(gormsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(lesson.Models()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// Every seat gets the same room back at the same moment, so all of them
// record the shared space row concurrently.
func TestProvision_ConcurrentSeatsShareOneSpace(t *testing.T) {
	const seats = 6
	var arrived sync.WaitGroup
	arrived.Add(seats)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body launchRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		arrived.Done()
		arrived.Wait()
		_, _ = fmt.Fprintf(w, `{"room_id":"room-1","client_url":"https://go.example/%d"}`, body.User.ID)
	}))
	defer srv.Close()

	gdb := openLessonDB(t)
	repo := lesson.NewRepo(gdb)
	c := NewClient(srv.URL, "secret", "https://api.example", repo, logger.Nop())

	req := Request{LessonID: "L1"}
	for i := int64(1); i <= 2; i++ {
		req.Tutors = append(req.Tutors, Participant{UserID: i, Name: fmt.Sprintf("tutor-%d", i)})
	}
	for i := int64(3); i <= seats; i++ {
		req.Students = append(req.Students, Participant{UserID: i, Name: fmt.Sprintf("student-%d", i)})
	}

	resp, err := c.Provision(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "room-1", resp.SpaceID)
	require.Len(t, resp.TutorSpaces, 2)
	require.Len(t, resp.StudentSpaces, seats-2)

	ps, err := repo.ListParticipants(context.Background(), "L1")
	require.NoError(t, err)
	require.Len(t, ps, seats)

	var count int64
	require.NoError(t, gdb.Model(&lesson.Space{}).Where("lesson_id = ?", "L1").Count(&count).Error)
	require.EqualValues(t, 1, count)
}
