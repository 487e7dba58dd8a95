package models

import "time"

// Student status values.
const (
	StudentStatusActive    = "active"
	StudentStatusInactive  = "inactive"
	StudentStatusGraduated = "graduated"
	StudentStatusSuspended = "suspended"
)

// Student represents a learner that can enroll in courses.
type Student struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Status    string    `gorm:"size:32;not null;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
