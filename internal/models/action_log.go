package models

import (
	"time"

	"gorm.io/datatypes"
)

// Action kinds recorded in the action log.
const (
	ActionCourseCreated      = "course_created"
	ActionCourseUpdated      = "course_updated"
	ActionCourseDeleted      = "course_deleted"
	ActionStudentEnrolled    = "student_enrolled"
	ActionStudentDropped     = "student_dropped"
	ActionEnrollmentStatus   = "enrollment_status_changed"
	ActionCountersReconciled = "enrollment_counts_reconciled"
	ActionProfileUpdated     = "profile_updated"
	ActionUserSignedUp       = "user_signed_up"
)

// ActionLog is an append-only audit entry.
type ActionLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Action      string            `gorm:"size:64;not null;index" json:"action"`
	PerformedBy string            `gorm:"size:36;index" json:"performed_by"`
	ActorRole   string            `gorm:"size:16" json:"actor_role"`
	EntityType  string            `gorm:"size:64" json:"entity_type"`
	EntityID    string            `gorm:"size:64" json:"entity_id"`
	Details     datatypes.JSONMap `gorm:"type:json" json:"details"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}
