package models

import "time"

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

// Enrollment lifecycle states.
const (
	EnrollmentStatusPending    EnrollmentStatus = "pending"
	EnrollmentStatusEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentStatusWaitlisted EnrollmentStatus = "waitlisted"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
	EnrollmentStatusDropped    EnrollmentStatus = "dropped"
)

var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentStatusPending:    {EnrollmentStatusEnrolled, EnrollmentStatusWaitlisted, EnrollmentStatusDropped},
	EnrollmentStatusWaitlisted: {EnrollmentStatusEnrolled, EnrollmentStatusDropped},
	EnrollmentStatusEnrolled:   {EnrollmentStatusCompleted, EnrollmentStatusDropped},
}

// Valid reports whether the status is a known lifecycle state.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusEnrolled, EnrollmentStatusWaitlisted, EnrollmentStatusCompleted, EnrollmentStatusDropped:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	for _, allowed := range enrollmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CountsTowardCapacity reports whether enrollments in this state occupy a seat.
func (s EnrollmentStatus) CountsTowardCapacity() bool {
	return s == EnrollmentStatusEnrolled
}

// Enrollment links a student to a course. At most one row exists per pair.
type Enrollment struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	CourseID       uint             `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"course_id"`
	StudentID      string           `gorm:"size:36;not null;uniqueIndex:idx_enrollment_course_student;index" json:"student_id"`
	Status         EnrollmentStatus `gorm:"size:16;not null" json:"status"`
	EnrolledAt     time.Time        `json:"enrolled_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
