package interview

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Summary is the extraction checkpoint for a session. Turns with a timestamp
// after the latest WatermarkAt are pending extraction.
type Summary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	Module        string         `gorm:"type:text;not null" json:"module"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	ExtractedJSON datatypes.JSON `json:"extracted_json,omitempty"`
	TurnCount     int            `gorm:"not null;default:0" json:"turn_count"`

	// WatermarkAt never moves backwards across a session's summaries.
	WatermarkAt time.Time `gorm:"not null;index" json:"watermark_at"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Summary) TableName() string { return "interview_summary" }
