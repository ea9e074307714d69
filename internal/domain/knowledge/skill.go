package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Skill names are matched case-insensitively per person.
type Skill struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index" json:"person_id"`
	Name     string    `gorm:"column:skill;type:text;not null" json:"skill"`

	Level    int            `gorm:"not null" json:"level"` // 1..5
	Evidence *string        `gorm:"type:text" json:"evidence,omitempty"`
	Tags     datatypes.JSON `gorm:"not null" json:"tags"`

	Confidence    float64        `gorm:"not null" json:"confidence"`
	SourceTurnIDs datatypes.JSON `gorm:"not null" json:"source_turn_ids"`
	Version       int            `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Skill) TableName() string { return "kb_skill" }
