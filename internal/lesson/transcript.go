package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleTutor || r == RoleStudent
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Segment is one timestamped utterance as delivered by the transcription provider.
type Segment struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	User       User    `json:"user"`
	BreakoutID string  `json:"breakout_id"`
	Text       string  `json:"text"`
}

var ErrInvalidSegment = errors.New("invalid transcript segment")

// ParseSegments decodes the provider payload (a JSON array of segments) and
// checks end_time >= start_time for every entry. Order is preserved as delivered.
func ParseSegments(data []byte) ([]Segment, error) {
	var segs []Segment
	if err := json.Unmarshal(data, &segs); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	for i, s := range segs {
		if s.EndTime < s.StartTime {
			return nil, fmt.Errorf("%w: index %d ends (%.3f) before it starts (%.3f)", ErrInvalidSegment, i, s.EndTime, s.StartTime)
		}
	}
	if segs == nil {
		segs = []Segment{}
	}
	return segs, nil
}

// Concatenated joins all segment texts with newlines, in stored order.
func (t *Transcript) Concatenated() string {
	texts := make([]string, 0, len(t.Transcription))
	for _, s := range t.Transcription {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, "\n")
}

// UserText joins, with newlines, the texts of the segments spoken by userID.
func (t *Transcript) UserText(userID int64) string {
	var texts []string
	for _, s := range t.Transcription {
		if s.User.ID == userID {
			texts = append(texts, s.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// SortedByStart returns a copy of the segments ordered by start_time.
// Providers deliver a small fraction of segments out of order.
func (t *Transcript) SortedByStart() []Segment {
	out := make([]Segment, len(t.Transcription))
	copy(out, t.Transcription)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// Speakers lists distinct user ids in order of first appearance.
func (t *Transcript) Speakers() []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, s := range t.Transcription {
		if _, ok := seen[s.User.ID]; ok {
			continue
		}
		seen[s.User.ID] = struct{}{}
		ids = append(ids, s.User.ID)
	}
	return ids
}

type UserTranscript struct {
	UserID int64
	Name   string
	Role   Role
	Text   string
}

var ErrRoleUnresolved = errors.New("participant role unresolved")

// UnresolvedRoleError lists speakers that have no participant-role record.
type UnresolvedRoleError struct {
	LessonID string
	UserIDs  []int64
}

func (e *UnresolvedRoleError) Error() string {
	return fmt.Sprintf("lesson %s: no participant role for user ids %v", e.LessonID, e.UserIDs)
}

func (e *UnresolvedRoleError) Unwrap() error { return ErrRoleUnresolved }

// GatherUserTranscripts builds one entry per speaker with their texts joined by
// a single space and the role taken from roles. Speakers missing from roles are
// left out of the map and reported through an *UnresolvedRoleError.
func (t *Transcript) GatherUserTranscripts(roles map[int64]Role) (map[int64]UserTranscript, error) {
	out := make(map[int64]UserTranscript)
	var unresolved []int64
	missing := make(map[int64]bool)

	for _, s := range t.Transcription {
		uid := s.User.ID
		if missing[uid] {
			continue
		}
		ut, ok := out[uid]
		if !ok {
			role, found := roles[uid]
			if !found || !role.Valid() {
				missing[uid] = true
				unresolved = append(unresolved, uid)
				continue
			}
			out[uid] = UserTranscript{UserID: uid, Name: s.User.Name, Role: role, Text: s.Text}
			continue
		}
		ut.Text += " " + s.Text
		out[uid] = ut
	}

	if len(unresolved) > 0 {
		return out, &UnresolvedRoleError{LessonID: t.LessonID, UserIDs: unresolved}
	}
	return out, nil
}
