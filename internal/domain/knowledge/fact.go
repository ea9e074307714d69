package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Fact is a typed, free-form observation about a person. At most one fact per
// (person, fact type) is currently valid (ValidTo IS NULL).
type Fact struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index:idx_fact_person_type,priority:1" json:"person_id"`
	FactType string    `gorm:"type:text;not null;index:idx_fact_person_type,priority:2" json:"fact_type"`

	Value         datatypes.JSON `gorm:"not null" json:"value"`
	Confidence    float64        `gorm:"not null" json:"confidence"`
	SourceTurnIDs datatypes.JSON `gorm:"not null" json:"source_turn_ids"`
	Version       int            `gorm:"not null;default:1" json:"version"`

	ValidFrom time.Time  `gorm:"not null" json:"valid_from"`
	ValidTo   *time.Time `gorm:"index" json:"valid_to,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Fact) TableName() string { return "kb_fact" }
