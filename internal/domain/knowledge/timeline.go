package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type KPI struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TimelineEntry is one stint at an organization. Identity is (person, org) plus
// a matching start or end date.
type TimelineEntry struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index:idx_timeline_person_org,priority:1" json:"person_id"`
	Org      string    `gorm:"type:text;not null;index:idx_timeline_person_org,priority:2" json:"org"`
	Role     string    `gorm:"type:text;not null" json:"role"`

	StartDate string  `gorm:"type:text;not null;index" json:"start_date"`
	EndDate   *string `gorm:"type:text" json:"end_date,omitempty"`

	Responsibilities datatypes.JSON `gorm:"not null" json:"responsibilities"`
	Achievements     datatypes.JSON `gorm:"not null" json:"achievements"`
	KPIs             datatypes.JSON `gorm:"column:kpis" json:"kpis,omitempty"`
	ReasonForChange  *string        `gorm:"type:text" json:"reason_for_change,omitempty"`

	Confidence    float64        `gorm:"not null" json:"confidence"`
	SourceTurnIDs datatypes.JSON `gorm:"not null" json:"source_turn_ids"`
	Version       int            `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TimelineEntry) TableName() string { return "kb_timeline_entry" }
