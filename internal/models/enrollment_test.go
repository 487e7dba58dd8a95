package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnrollmentStatusTransitions(t *testing.T) {
	cases := []struct {
		from    EnrollmentStatus
		to      EnrollmentStatus
		allowed bool
	}{
		{EnrollmentStatusPending, EnrollmentStatusEnrolled, true},
		{EnrollmentStatusPending, EnrollmentStatusWaitlisted, true},
		{EnrollmentStatusWaitlisted, EnrollmentStatusEnrolled, true},
		{EnrollmentStatusEnrolled, EnrollmentStatusCompleted, true},
		{EnrollmentStatusEnrolled, EnrollmentStatusDropped, true},
		{EnrollmentStatusEnrolled, EnrollmentStatusPending, false},
		{EnrollmentStatusCompleted, EnrollmentStatusEnrolled, false},
		{EnrollmentStatusDropped, EnrollmentStatusEnrolled, false},
		{EnrollmentStatusWaitlisted, EnrollmentStatusCompleted, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOnlyEnrolledCountsTowardCapacity(t *testing.T) {
	require.True(t, EnrollmentStatusEnrolled.CountsTowardCapacity())
	require.False(t, EnrollmentStatusWaitlisted.CountsTowardCapacity())
	require.False(t, EnrollmentStatusPending.CountsTowardCapacity())
	require.False(t, EnrollmentStatus("bogus").Valid())
}

func TestCourseAvailableSeatsFloorsAtZero(t *testing.T) {
	require.Equal(t, 3, Course{MaxCapacity: 5, CurrentEnrollment: 2}.AvailableSeats())
	require.Equal(t, 0, Course{MaxCapacity: 1, CurrentEnrollment: 4}.AvailableSeats())
	require.True(t, Course{MaxCapacity: 1, CurrentEnrollment: 1}.IsFull())
}

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleAdmin, ParseRole(" Admin "))
	require.Equal(t, RoleInstructor, ParseRole("instructor"))
	require.Equal(t, Role(""), ParseRole("teacher"))
}
