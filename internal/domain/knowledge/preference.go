package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Preference struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index:idx_pref_person_category,priority:1" json:"person_id"`
	Category string    `gorm:"type:text;not null;index:idx_pref_person_category,priority:2" json:"category"`

	Value         datatypes.JSON `gorm:"not null" json:"value"`
	Confidence    float64        `gorm:"not null" json:"confidence"`
	SourceTurnIDs datatypes.JSON `gorm:"not null" json:"source_turn_ids"`
	Version       int            `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Preference) TableName() string { return "kb_preference" }
