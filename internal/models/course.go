package models

import "time"

// Course is a catalogue entry students can enroll in.
//
// CurrentEnrollment caches the number of enrollments in the enrolled state and
// is only changed in the same store transaction as the enrollment rows.
type Course struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	Code              string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Department        string    `gorm:"size:128;not null" json:"department"`
	Description       string    `gorm:"type:text" json:"description"`
	InstructorID      string    `gorm:"size:36;index;not null" json:"instructor_id"`
	InstructorName    string    `gorm:"size:255" json:"instructor_name"`
	MaxCapacity       int       `gorm:"not null" json:"max_capacity"`
	CurrentEnrollment int       `gorm:"not null;default:0" json:"current_enrollment"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AvailableSeats returns the remaining capacity, never negative.
func (c Course) AvailableSeats() int {
	seats := c.MaxCapacity - c.CurrentEnrollment
	if seats < 0 {
		return 0
	}
	return seats
}

// IsFull reports whether the cached counter has reached capacity.
func (c Course) IsFull() bool {
	return c.CurrentEnrollment >= c.MaxCapacity
}
