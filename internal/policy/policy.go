// Package policy evaluates row-level access rules for every read and write
// against the entity store.
//
// Decisions depend only on the caller's identity and the role claim carried by
// its token. The evaluator never consults the profile table, so no rule can
// recurse into the data it protects.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// ErrDenied is returned when a rule rejects the caller.
var ErrDenied = errors.New("access denied")

// Caller is the trusted (identity, role claim) pair for the active request.
type Caller struct {
	ID            string
	Role          models.Role
	SessionID     string
	Authenticated bool
}

// Anonymous returns a caller without a session, used during signup.
func Anonymous() Caller {
	return Caller{}
}

// IsAdmin reports whether the caller holds the admin role claim.
func (c Caller) IsAdmin() bool {
	return c.Authenticated && c.Role == models.RoleAdmin
}

// IsInstructor reports whether the caller holds the instructor role claim.
func (c Caller) IsInstructor() bool {
	return c.Authenticated && c.Role == models.RoleInstructor
}

// IsStudent reports whether the caller holds the student role claim.
func (c Caller) IsStudent() bool {
	return c.Authenticated && c.Role == models.RoleStudent
}

// Owns reports whether the caller is the identity with the given id.
func (c Caller) Owns(id string) bool {
	return c.Authenticated && c.ID != "" && c.ID == strings.TrimSpace(id)
}

func deny(action string) error {
	return fmt.Errorf("%w: %s", ErrDenied, action)
}

func check(allowed bool, action string) error {
	if allowed {
		return nil
	}
	return deny(action)
}

// ReadProfile allows the owner or an admin.
func ReadProfile(c Caller, profileID string) error {
	return check(c.Owns(profileID) || c.IsAdmin(), "read profile")
}

// UpdateProfile allows the owner only.
func UpdateProfile(c Caller, profileID string) error {
	return check(c.Owns(profileID), "update profile")
}

// CreateProfile allows signup by an anonymous caller, or by the identity the
// row belongs to.
func CreateProfile(c Caller, profileID string) error {
	if strings.TrimSpace(profileID) == "" {
		return deny("create profile")
	}
	return check(!c.Authenticated || c.Owns(profileID), "create profile")
}

// ReadStudent allows the owner, admins and instructors.
func ReadStudent(c Caller, studentID string) error {
	return check(c.Owns(studentID) || c.IsAdmin() || c.IsInstructor(), "read student")
}

// WriteStudent allows the owner only.
func WriteStudent(c Caller, studentID string) error {
	return check(c.Owns(studentID), "write student")
}

// ReadInstructor allows any authenticated caller.
func ReadInstructor(c Caller) error {
	return check(c.Authenticated, "read instructor")
}

// WriteInstructor allows the owner only.
func WriteInstructor(c Caller, instructorID string) error {
	return check(c.Owns(instructorID), "write instructor")
}

// ReadCourse allows any authenticated caller.
func ReadCourse(c Caller) error {
	return check(c.Authenticated, "read course")
}

// CreateCourse allows admins, and instructors creating a course they own.
func CreateCourse(c Caller, instructorID string) error {
	return check(c.IsAdmin() || (c.IsInstructor() && c.Owns(instructorID)), "create course")
}

// WriteCourse allows admins and the owning instructor.
func WriteCourse(c Caller, course models.Course) error {
	return check(c.IsAdmin() || (c.IsInstructor() && c.Owns(course.InstructorID)), "write course")
}

// ReadEnrollment allows admins, the owning instructor of the course and the
// enrolled student.
func ReadEnrollment(c Caller, course models.Course, studentID string) error {
	return check(c.IsAdmin() ||
		(c.IsInstructor() && c.Owns(course.InstructorID)) ||
		(c.IsStudent() && c.Owns(studentID)), "read enrollment")
}

// WriteEnrollment applies the same rule as ReadEnrollment: students may only
// write their own rows.
func WriteEnrollment(c Caller, course models.Course, studentID string) error {
	return check(c.IsAdmin() ||
		(c.IsInstructor() && c.Owns(course.InstructorID)) ||
		(c.IsStudent() && c.Owns(studentID)), "write enrollment")
}

// ManageRoster allows admins and the owning instructor to act on every
// enrollment of a course.
func ManageRoster(c Caller, course models.Course) error {
	return check(c.IsAdmin() || (c.IsInstructor() && c.Owns(course.InstructorID)), "manage roster")
}

// ReadActionLog allows admins only.
func ReadActionLog(c Caller) error {
	return check(c.IsAdmin(), "read action log")
}

// DirectLookup allows any authenticated caller.
func DirectLookup(c Caller) error {
	return check(c.Authenticated, "direct profile lookup")
}

// ReconcileCounters allows admins only.
func ReconcileCounters(c Caller) error {
	return check(c.IsAdmin(), "reconcile enrollment counters")
}
