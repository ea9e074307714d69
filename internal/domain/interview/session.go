package interview

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

type Session struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index" json:"person_id"`

	Module string `gorm:"type:text;not null" json:"module"`
	Status string `gorm:"type:text;not null;index" json:"status"` // active|completed

	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Turns []*Turn `gorm:"-" json:"turns,omitempty"`
}

func (Session) TableName() string { return "interview_session" }

func (s *Session) Completed() bool {
	return s != nil && s.Status == SessionStatusCompleted
}
