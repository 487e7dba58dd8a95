package dto

import (
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// ProfileResponse serializes a profile.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateProfileRequest patches the caller's own profile.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

// NewProfileResponse converts a profile model into a DTO.
func NewProfileResponse(profile models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Role:      string(profile.Role),
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}
}

// StudentResponse serializes a student record.
type StudentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateStudentRequest creates or patches the caller's own student record.
type UpdateStudentRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email  *string `json:"email" validate:"omitempty,email,max=255"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive graduated suspended"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:        student.ID,
		Name:      student.Name,
		Email:     student.Email,
		Status:    student.Status,
		CreatedAt: student.CreatedAt,
		UpdatedAt: student.UpdatedAt,
	}
}

// InstructorResponse serializes an instructor record.
type InstructorResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Department     string    `json:"department"`
	Title          string    `json:"title,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	OfficeHours    string    `json:"office_hours,omitempty"`
	ContactEmail   string    `json:"contact_email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateInstructorRequest patches the caller's own instructor record.
type UpdateInstructorRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=255"`
	Department     *string `json:"department" validate:"omitempty,min=1,max=128"`
	Title          *string `json:"title" validate:"omitempty,max=128"`
	Specialization *string `json:"specialization" validate:"omitempty,max=255"`
	OfficeHours    *string `json:"office_hours" validate:"omitempty,max=255"`
	ContactEmail   *string `json:"contact_email" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone" validate:"omitempty,max=64"`
}

// NewInstructorResponse converts an instructor model into a DTO.
func NewInstructorResponse(instructor models.Instructor) InstructorResponse {
	return InstructorResponse{
		ID:             instructor.ID,
		Name:           instructor.Name,
		Department:     instructor.Department,
		Title:          instructor.Title,
		Specialization: instructor.Specialization,
		OfficeHours:    instructor.OfficeHours,
		ContactEmail:   instructor.ContactEmail,
		Phone:          instructor.Phone,
		CreatedAt:      instructor.CreatedAt,
		UpdatedAt:      instructor.UpdatedAt,
	}
}

// NewInstructorResponseSlice converts instructor models into DTOs.
func NewInstructorResponseSlice(instructors []models.Instructor) []InstructorResponse {
	items := make([]InstructorResponse, 0, len(instructors))
	for _, instructor := range instructors {
		items = append(items, NewInstructorResponse(instructor))
	}
	return items
}
