package models

import "time"

// Instructor owns courses and manages their rosters.
type Instructor struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Department     string    `gorm:"size:128;not null" json:"department"`
	Title          string    `gorm:"size:128" json:"title"`
	Specialization string    `gorm:"size:255" json:"specialization"`
	OfficeHours    string    `gorm:"size:255" json:"office_hours"`
	ContactEmail   string    `gorm:"size:255" json:"contact_email"`
	Phone          string    `gorm:"size:64" json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
