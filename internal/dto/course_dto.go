package dto

import (
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// CourseListRequest defines filters for listing courses.
type CourseListRequest struct {
	InstructorID string
	Department   string
	Limit        int
}

// CreateCourseRequest captures the payload for creating a course. Instructors
// may omit InstructorID; it defaults to the caller.
type CreateCourseRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=255"`
	Code         string `json:"code" validate:"required,min=2,max=32"`
	Department   string `json:"department" validate:"required,min=1,max=128"`
	Description  string `json:"description" validate:"omitempty,max=4000"`
	MaxCapacity  int    `json:"max_capacity" validate:"required,gt=0,lte=10000"`
	InstructorID string `json:"instructor_id" validate:"omitempty,max=36"`
}

// UpdateCourseRequest captures partial course updates.
type UpdateCourseRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	Code         *string `json:"code" validate:"omitempty,min=2,max=32"`
	Department   *string `json:"department" validate:"omitempty,min=1,max=128"`
	Description  *string `json:"description" validate:"omitempty,max=4000"`
	MaxCapacity  *int    `json:"max_capacity" validate:"omitempty,gt=0,lte=10000"`
	InstructorID *string `json:"instructor_id" validate:"omitempty,min=1,max=36"`
}

// CourseResponse serializes a course with its seat availability.
type CourseResponse struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Code              string    `json:"code"`
	Department        string    `json:"department"`
	Description       string    `json:"description,omitempty"`
	InstructorID      string    `json:"instructor_id"`
	InstructorName    string    `json:"instructor_name"`
	MaxCapacity       int       `json:"max_capacity"`
	CurrentEnrollment int       `json:"current_enrollment"`
	AvailableSeats    int       `json:"available_seats"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:                course.ID,
		Name:              course.Name,
		Code:              course.Code,
		Department:        course.Department,
		Description:       course.Description,
		InstructorID:      course.InstructorID,
		InstructorName:    course.InstructorName,
		MaxCapacity:       course.MaxCapacity,
		CurrentEnrollment: course.CurrentEnrollment,
		AvailableSeats:    course.AvailableSeats(),
		CreatedAt:         course.CreatedAt,
		UpdatedAt:         course.UpdatedAt,
	}
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	items := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		items = append(items, NewCourseResponse(course))
	}
	return items
}
