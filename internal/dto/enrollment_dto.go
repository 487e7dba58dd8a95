package dto

import (
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// EnrollStudentRequest names the student an instructor or admin enrolls.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required,max=36"`
}

// UpdateEnrollmentStatusRequest moves an enrollment through its lifecycle.
type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending enrolled waitlisted completed dropped"`
}

// ReconcileRequest controls whether drifted counters are rewritten.
type ReconcileRequest struct {
	Fix bool `json:"fix"`
}

// EnrollmentResponse serializes an enrollment.
type EnrollmentResponse struct {
	ID             uint      `json:"id"`
	CourseID       uint      `json:"course_id"`
	CourseCode     string    `json:"course_code,omitempty"`
	CourseName     string    `json:"course_name,omitempty"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name,omitempty"`
	Status         string    `json:"status"`
	EnrolledAt     time.Time `json:"enrolled_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// NewEnrollmentResponse converts an enrollment model into a DTO.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:             enrollment.ID,
		CourseID:       enrollment.CourseID,
		StudentID:      enrollment.StudentID,
		Status:         string(enrollment.Status),
		EnrolledAt:     enrollment.EnrolledAt,
		LastAccessedAt: enrollment.LastAccessedAt,
	}
}

// CounterDrift reports a course whose cached counter disagrees with its rows.
type CounterDrift struct {
	CourseID uint   `json:"course_id"`
	Code     string `json:"code"`
	Cached   int    `json:"cached"`
	Actual   int    `json:"actual"`
}

// ReconcileResponse summarises a counter reconciliation pass.
type ReconcileResponse struct {
	CoursesChecked int            `json:"courses_checked"`
	Drift          []CounterDrift `json:"drift"`
	Fixed          bool           `json:"fixed"`
}
