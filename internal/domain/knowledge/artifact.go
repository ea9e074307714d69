package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ArtifactTemplate  = "template"
	ArtifactProcess   = "process"
	ArtifactChecklist = "checklist"
	ArtifactPlaybook  = "playbook"
	ArtifactLink      = "link"
	ArtifactFile      = "file"
)

var ArtifactTypes = []string{
	ArtifactTemplate, ArtifactProcess, ArtifactChecklist, ArtifactPlaybook, ArtifactLink, ArtifactFile,
}

// Artifact rows are append-only.
type Artifact struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID     uuid.UUID `gorm:"type:uuid;not null;index" json:"person_id"`
	ArtifactType string    `gorm:"type:text;not null" json:"artifact_type"`

	Title      string         `gorm:"type:text;not null" json:"title"`
	Summary    *string        `gorm:"type:text" json:"summary,omitempty"`
	ContentRef *string        `gorm:"type:text" json:"content_ref,omitempty"`
	Tags       datatypes.JSON `gorm:"not null" json:"tags"`

	SourceTurnIDs datatypes.JSON `gorm:"not null" json:"source_turn_ids"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Artifact) TableName() string { return "kb_artifact" }
