package interview

import (
	"time"

	"github.com/google/uuid"
)

// CostRecord is one metered provider call.
type CostRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionTag string    `gorm:"type:text;index" json:"session_tag,omitempty"`

	Service  string  `gorm:"type:text;not null;index" json:"service"` // chat|tts|transcription
	Model    string  `gorm:"type:text" json:"model,omitempty"`
	Units    float64 `gorm:"not null" json:"units"`
	UnitKind string  `gorm:"type:text;not null" json:"unit_kind"` // tokens|characters|minutes
	CostUSD  float64 `gorm:"not null" json:"cost_usd"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (CostRecord) TableName() string { return "provider_cost" }
