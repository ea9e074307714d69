package interview

import (
	"time"

	"github.com/google/uuid"
)

// Person owns every session and knowledge-base entry.
type Person struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"type:text;index" json:"email,omitempty"`
	DisplayName string    `gorm:"type:text" json:"display_name,omitempty"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Person) TableName() string { return "person" }
