package interview

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SpeakerAgent = "agent"
	SpeakerUser  = "user"
)

// Turn is an immutable speech act. Rows are only ever inserted.
type Turn struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_turn_session_ts,priority:1" json:"session_id"`

	Speaker    string    `gorm:"type:text;not null" json:"speaker"` // agent|user
	Transcript string    `gorm:"type:text;not null" json:"transcript"`
	Timestamp  time.Time `gorm:"column:spoken_at;not null;index:idx_turn_session_ts,priority:2" json:"timestamp"`

	AudioURL string         `gorm:"type:text" json:"audio_url,omitempty"`
	Meta     datatypes.JSON `json:"meta,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Turn) TableName() string { return "interview_turn" }
