package knowledge

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityHigh   = "H"
	PriorityMedium = "M"
	PriorityLow    = "L"

	QuestionOpen      = "open"
	QuestionAnswered  = "answered"
	QuestionDismissed = "dismissed"
)

type OpenQuestion struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index" json:"person_id"`

	Module   string  `gorm:"type:text;not null" json:"module"`
	Question string  `gorm:"type:text;not null" json:"question"`
	Priority string  `gorm:"type:text;not null" json:"priority"` // H|M|L
	Reason   *string `gorm:"type:text" json:"reason,omitempty"`
	Status   string  `gorm:"type:text;not null;index" json:"status"` // open|answered|dismissed

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (OpenQuestion) TableName() string { return "kb_open_question" }

func ValidQuestionStatus(s string) bool {
	switch s {
	case QuestionOpen, QuestionAnswered, QuestionDismissed:
		return true
	}
	return false
}
