// Package space provisions per-participant Lessonspace rooms for a lesson and
// records each participant's role, which the transcription pipeline later
// uses to pick the feedback agent.
package space

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suPer8Hu/tutor-platform/internal/lesson"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
)

var ErrNoParticipants = errors.New("lesson has no tutors or students")

// Repo is implemented by *lesson.Repo.
type Repo interface {
	UpsertParticipant(ctx context.Context, p *lesson.Participant) error
	GetOrCreateSpace(ctx context.Context, lessonID, spaceID string) (*lesson.Space, error)
}

type Participant struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	IsLeader bool   `json:"is_leader"`
}

type Request struct {
	LessonID  string        `json:"lesson_id" binding:"required"`
	Tutors    []Participant `json:"tutors" binding:"dive"`
	Students  []Participant `json:"students" binding:"dive"`
	NotBefore *time.Time    `json:"not_before,omitempty"`
}

type UserSpace struct {
	UserID   int64       `json:"user_id"`
	Name     string      `json:"name"`
	Role     lesson.Role `json:"role"`
	SpaceURL string      `json:"space_url"`
	Leader   bool        `json:"leader"`
}

type Response struct {
	SpaceID       string      `json:"space_id"`
	LessonID      string      `json:"lesson_id"`
	TutorSpaces   []UserSpace `json:"tutor_spaces"`
	StudentSpaces []UserSpace `json:"student_spaces"`
}

// launch request; nil fields are dropped from the payload
type launchUser struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Role   lesson.Role `json:"role"`
	Leader bool        `json:"leader"`
}

type launchHook struct {
	Finish string `json:"finish"`
}

type launchWebhooks struct {
	Transcription *launchHook `json:"transcription,omitempty"`
}

type launchTimeouts struct {
	NotBefore string `json:"not_before,omitempty"`
}

type launchRequest struct {
	ID         string          `json:"id"`
	User       launchUser      `json:"user"`
	Transcribe bool            `json:"transcribe"`
	RecordAV   bool            `json:"record_av"`
	Webhooks   *launchWebhooks `json:"webhooks,omitempty"`
	Timeouts   *launchTimeouts `json:"timeouts,omitempty"`
}

type launchResponse struct {
	RoomID    string `json:"room_id"`
	ClientURL string `json:"client_url"`
}

type Client struct {
	BaseURL string
	APIKey  string
	// public base of this service, used for the transcription webhook
	CallbackBaseURL string
	HTTP            *http.Client

	repo Repo
	log  *logger.Logger
}

func NewClient(baseURL, apiKey, callbackBaseURL string, repo Repo, log *logger.Logger) *Client {
	return &Client{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		CallbackBaseURL: callbackBaseURL,
		HTTP:            &http.Client{Timeout: 30 * time.Second},
		repo:            repo,
		log:             log.With("service", "LessonspaceService"),
	}
}

type seat struct {
	p      Participant
	role   lesson.Role
	leader bool
}

// Provision launches one space per participant concurrently and upserts the
// space and participant-role rows. Students are never leaders. Any failure
// fails the whole request.
func (c *Client) Provision(ctx context.Context, req Request) (*Response, error) {
	seats := make([]seat, 0, len(req.Tutors)+len(req.Students))
	for _, t := range req.Tutors {
		seats = append(seats, seat{p: t, role: lesson.RoleTutor, leader: t.IsLeader})
	}
	for _, s := range req.Students {
		seats = append(seats, seat{p: s, role: lesson.RoleStudent})
	}
	if len(seats) == 0 {
		return nil, ErrNoParticipants
	}

	spaces := make([]UserSpace, len(seats))
	roomIDs := make([]string, len(seats))

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range seats {
		g.Go(func() error {
			us, roomID, err := c.launch(gctx, req.LessonID, st, req.NotBefore)
			if err != nil {
				return fmt.Errorf("user %d: %w", st.p.UserID, err)
			}
			spaces[i] = us
			roomIDs[i] = roomID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Error("provision spaces failed", "lesson_id", req.LessonID, "error", err.Error())
		return nil, err
	}

	resp := &Response{
		SpaceID:       roomIDs[0],
		LessonID:      req.LessonID,
		TutorSpaces:   []UserSpace{},
		StudentSpaces: []UserSpace{},
	}
	for _, us := range spaces {
		if us.Role == lesson.RoleTutor {
			resp.TutorSpaces = append(resp.TutorSpaces, us)
		} else {
			resp.StudentSpaces = append(resp.StudentSpaces, us)
		}
	}

	kv := []any{
		"lesson_id", req.LessonID,
		"space_id", resp.SpaceID,
		"tutor_count", len(resp.TutorSpaces),
		"student_count", len(resp.StudentSpaces),
	}
	if req.NotBefore != nil {
		kv = append(kv, "not_before", req.NotBefore.Format(time.RFC3339))
	}
	c.log.Info("created new space", kv...)
	return resp, nil
}

func (c *Client) launch(ctx context.Context, lessonID string, st seat, notBefore *time.Time) (UserSpace, string, error) {
	body := launchRequest{
		ID: lessonID,
		User: launchUser{
			ID:     st.p.UserID,
			Name:   st.p.Name,
			Role:   st.role,
			Leader: st.leader,
		},
		Transcribe: true,
		RecordAV:   true,
		Webhooks: &launchWebhooks{Transcription: &launchHook{
			Finish: fmt.Sprintf("%s/api/space/webhook/transcription/%s", strings.TrimRight(c.CallbackBaseURL, "/"), lessonID),
		}},
	}
	if notBefore != nil {
		body.Timeouts = &launchTimeouts{NotBefore: notBefore.Format(time.RFC3339)}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return UserSpace{}, "", err
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/spaces/launch/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return UserSpace{}, "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Organisation "+c.APIKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return UserSpace{}, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return UserSpace{}, "", fmt.Errorf("lessonspace: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out launchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return UserSpace{}, "", fmt.Errorf("lessonspace: decode response: %w", err)
	}
	if out.RoomID == "" {
		return UserSpace{}, "", errors.New("lessonspace: response missing room_id")
	}

	if _, err := c.repo.GetOrCreateSpace(ctx, lessonID, out.RoomID); err != nil {
		return UserSpace{}, "", err
	}
	if err := c.repo.UpsertParticipant(ctx, &lesson.Participant{
		LessonID: lessonID,
		UserID:   st.p.UserID,
		Role:     st.role,
		Leader:   st.leader,
	}); err != nil {
		return UserSpace{}, "", err
	}

	return UserSpace{
		UserID:   st.p.UserID,
		Name:     st.p.Name,
		Role:     st.role,
		SpaceURL: out.ClientURL,
		Leader:   st.leader,
	}, out.RoomID, nil
}
