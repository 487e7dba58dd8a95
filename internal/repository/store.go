package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/enrollment-api/internal/models"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
)

// Store kinds reported by Store.Kind.
const (
	StoreKindDurable = "durable"
	StoreKindDemo    = "demo"
)

// Store is the entity repository capability. The durable implementation is
// backed by gorm, the demo implementation by a per-session key/value store.
type Store interface {
	Kind() string
	Profiles() ProfileRepository
	Students() StudentRepository
	Instructors() InstructorRepository
	Courses() CourseRepository
	Enrollments() EnrollmentRepository
	ActionLogs() ActionLogRepository
	// Transaction runs fn against a store whose writes commit together or
	// not at all.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// ProfileLookup is the reduced profile returned by the direct lookup.
type ProfileLookup struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

// ProfileRepository persists profiles.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, id string, update ProfileUpdate) (models.Profile, error)
	// LookupDirect reads the identity columns of a profile without any row
	// policy applied by the caller.
	LookupDirect(ctx context.Context, id string) (ProfileLookup, error)
}

// StudentRepository persists students.
type StudentRepository interface {
	Get(ctx context.Context, id string) (models.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, id string, update StudentUpdate) (models.Student, error)
}

// InstructorRepository persists instructors.
type InstructorRepository interface {
	Get(ctx context.Context, id string) (models.Instructor, error)
	List(ctx context.Context) ([]models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, id string, update InstructorUpdate) (models.Instructor, error)
}

// CourseFilter narrows course queries.
type CourseFilter struct {
	InstructorID string
	Department   string
	Limit        int
}

// CourseRepository persists courses and their cached enrollment counter.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	Get(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id uint, update CourseUpdate) (models.Course, error)
	// Delete removes the course together with all of its enrollments.
	Delete(ctx context.Context, id uint) error
	// IncrementIfAvailable bumps the counter only while it is below
	// capacity. It reports false when the course is full.
	IncrementIfAvailable(ctx context.Context, id uint) (bool, error)
	// Decrement lowers the counter by one, never below zero.
	Decrement(ctx context.Context, id uint) error
	SetEnrollmentCount(ctx context.Context, id uint, count int) error
}

// EnrollmentFilter narrows enrollment queries.
type EnrollmentFilter struct {
	CourseIDs []uint
	StudentID string
	Status    models.EnrollmentStatus
}

// EnrollmentRepository persists enrollments.
type EnrollmentRepository interface {
	List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error)
	Get(ctx context.Context, id uint) (models.Enrollment, error)
	Find(ctx context.Context, courseID uint, studentID string) (models.Enrollment, error)
	// Create inserts the row and returns ErrDuplicate when the (course,
	// student) pair already exists.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id uint) error
	UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) (models.Enrollment, error)
	// CountEnrolled returns the number of enrolled rows per course.
	CountEnrolled(ctx context.Context) (map[uint]int, error)
}

// ActionLogFilter narrows action log queries.
type ActionLogFilter struct {
	Action      string
	PerformedBy string
	Limit       int
}

// ActionLogRepository persists the append-only action log.
type ActionLogRepository interface {
	Append(ctx context.Context, entry *models.ActionLog) error
	List(ctx context.Context, filter ActionLogFilter) ([]models.ActionLog, error)
}
