package lesson

import (
	"time"

	"gorm.io/datatypes"
)

// Transcript is the stored segment list of a lesson, one row per lesson_id.
type Transcript struct {
	ID            uint64                      `gorm:"primaryKey;autoIncrement" json:"id"`
	LessonID      string                      `gorm:"type:varchar(64);uniqueIndex;not null" json:"lesson_id"`
	Transcription datatypes.JSONSlice[Segment] `gorm:"not null" json:"transcription"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (Transcript) TableName() string { return "transcripts" }

type Summary struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	LessonID         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"lesson_id"`
	KeyPoints        string    `gorm:"type:text;not null" json:"key_points"`
	ShortSummary     string    `gorm:"type:text;not null" json:"short_summary"`
	LongSummary      string    `gorm:"type:text;not null" json:"long_summary"`
	RecommendedFocus string    `gorm:"type:text;not null" json:"recommended_focus"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Summary) TableName() string { return "summaries" }

type Feedback struct {
	ID           uint64                     `gorm:"primaryKey;autoIncrement" json:"id"`
	LessonID     string                     `gorm:"type:varchar(64);not null;index:uniq_feedback_lesson_user,unique,priority:1" json:"lesson_id"`
	UserID       int64                      `gorm:"not null;index:uniq_feedback_lesson_user,unique,priority:2" json:"user_id"`
	Role         Role                       `gorm:"type:varchar(16);not null" json:"role"`
	Strengths    datatypes.JSONSlice[string] `gorm:"not null" json:"strengths"`
	Improvements datatypes.JSONSlice[string] `gorm:"not null" json:"improvements"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

func (Feedback) TableName() string { return "feedback" }

// Participant records a user's role in a lesson. (lesson_id, user_id) is the
// identity; role and leader may change on re-provisioning.
type Participant struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	LessonID  string    `gorm:"type:varchar(64);not null;index:uniq_participant_lesson_user,unique,priority:1" json:"lesson_id"`
	UserID    int64     `gorm:"not null;index:uniq_participant_lesson_user,unique,priority:2" json:"user_id"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
	Leader    bool      `gorm:"not null;default:false" json:"leader"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Participant) TableName() string { return "participants" }

type Space struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	LessonID  string    `gorm:"type:varchar(64);not null;index:uniq_space_lesson_space,unique,priority:1" json:"lesson_id"`
	SpaceID   string    `gorm:"type:varchar(128);not null;index:uniq_space_lesson_space,unique,priority:2" json:"space_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Space) TableName() string { return "spaces" }

// Models lists every table owned by this package, for AutoMigrate.
func Models() []any {
	return []any{&Transcript{}, &Summary{}, &Feedback{}, &Participant{}, &Space{}}
}
