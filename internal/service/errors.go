package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

var (
	// ErrForbidden indicates a policy denial.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is the parent of every not-found error below.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a missing or invalid field.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness conflict other than a duplicate enrollment.
	ErrConflict = errors.New("conflict")
	// ErrDuplicateEnrollment indicates the student already holds a row for the course.
	ErrDuplicateEnrollment = errors.New("student is already enrolled in this course")
	// ErrCapacityExceeded indicates the course has no seats left.
	ErrCapacityExceeded = errors.New("course capacity exceeded")
	// ErrInvalidTransition indicates an enrollment status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid enrollment status transition")
	// ErrStore indicates a backend failure.
	ErrStore = errors.New("store error")
	// ErrProfile indicates a dependent record is missing and cannot be created.
	ErrProfile = errors.New("profile unavailable")
	// ErrUnauthenticated indicates the request carries no identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDemoDisabled indicates demo mode is switched off.
	ErrDemoDisabled = errors.New("demo mode is disabled")

	ErrProfileNotFound    = fmt.Errorf("profile %w", ErrNotFound)
	ErrStudentNotFound    = fmt.Errorf("student %w", ErrNotFound)
	ErrInstructorNotFound = fmt.Errorf("instructor %w", ErrNotFound)
	ErrCourseNotFound     = fmt.Errorf("course %w", ErrNotFound)
	ErrEnrollmentNotFound = fmt.Errorf("enrollment %w", ErrNotFound)

	ErrEmailTaken      = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrCourseCodeTaken = fmt.Errorf("course code already exists: %w", ErrConflict)
)

// authorize converts a policy denial into ErrForbidden.
func authorize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, policy.ErrDenied) {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	return err
}

// storeError maps a repository error onto the service taxonomy. notFound is
// returned for missing rows.
func storeError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case isServiceError(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
}

func isServiceError(err error) bool {
	for _, target := range []error{
		ErrForbidden,
		ErrNotFound,
		ErrValidation,
		ErrConflict,
		ErrDuplicateEnrollment,
		ErrCapacityExceeded,
		ErrInvalidTransition,
		ErrStore,
		ErrProfile,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
