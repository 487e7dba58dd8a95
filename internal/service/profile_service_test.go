package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

func strPtr(value string) *string {
	return &value
}

func TestProfileReadPolicy(t *testing.T) {
	forEachStore(t, func(t *testing.T, env *storeEnv) {
		ctx := context.Background()

		own, err := env.svc.profiles.Get(ctx, env.studentA, env.studentA.ID)
		require.NoError(t, err)
		require.Equal(t, env.studentA.ID, own.ID)

		_, err = env.svc.profiles.Get(ctx, env.studentA, env.studentB)
		require.ErrorIs(t, err, ErrForbidden)

		other, err := env.svc.profiles.Get(ctx, env.admin, env.studentB)
		require.NoError(t, err)
		require.Equal(t, "student", other.Role)

		_, err = env.svc.profiles.Get(ctx, env.admin, "missing")
		require.ErrorIs(t, err, ErrProfileNotFound)
	})
}

func TestProfileUpdateMe(t *testing.T) {
	forEachStore(t, func(t *testing.T, env *storeEnv) {
		ctx := context.Background()

		updated, err := env.svc.profiles.UpdateMe(ctx, env.studentA, dto.UpdateProfileRequest{
			Name:  strPtr("  <i>Renamed</i> Student "),
			Email: strPtr("Renamed@Example.com"),
		})
		require.NoError(t, err)
		require.Equal(t, "Renamed Student", updated.Name)
		require.Equal(t, "renamed@example.com", updated.Email)

		_, err = env.svc.profiles.UpdateMe(ctx, env.studentA, dto.UpdateProfileRequest{Email: strPtr("not-an-email")})
		var validationErrors validator.ValidationErrors
		require.ErrorAs(t, err, &validationErrors)

		logs, err := env.store.ActionLogs().List(ctx, repository.ActionLogFilter{Action: models.ActionProfileUpdated})
		require.NoError(t, err)
		require.Len(t, logs, 1)
	})
}

func TestProfileUpdateMeCopiesIdentityToStudent(t *testing.T) {
	forEachStore(t, func(t *testing.T, env *storeEnv) {
		ctx := context.Background()

		_, err := env.svc.students.UpsertMe(ctx, env.studentA, dto.UpdateStudentRequest{Status: strPtr("active")})
		require.NoError(t, err)

		_, err = env.svc.profiles.UpdateMe(ctx, env.studentA, dto.UpdateProfileRequest{
			Name:  strPtr("Moved Student"),
			Email: strPtr("Moved@Example.com"),
		})
		require.NoError(t, err)

		student, err := env.store.Students().Get(ctx, env.studentA.ID)
		require.NoError(t, err)
		require.Equal(t, "Moved Student", student.Name)
		require.Equal(t, "moved@example.com", student.Email)
		require.Equal(t, "active", student.Status)

		// Instructors have no student row to touch.
		_, err = env.svc.profiles.UpdateMe(ctx, env.instructor, dto.UpdateProfileRequest{Name: strPtr("Prof Renamed")})
		require.NoError(t, err)
		_, err = env.store.Students().Get(ctx, env.instructor.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestProfileLookupDirectUsesCache(t *testing.T) {
	env := durableEnv(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	profiles := NewProfileService(env.svc.stores, env.svc.activity, validator.New(), client, time.Minute, nopLogger())

	lookup, err := profiles.LookupDirect(ctx, env.studentA, env.studentB)
	require.NoError(t, err)
	require.Equal(t, "Student B", lookup.Name)
	require.True(t, mr.Exists("profile:direct:durable:"+env.studentB))

	// A cached lookup is served even after the row changes underneath.
	_, err = env.store.Profiles().Update(ctx, env.studentB, repository.ProfileUpdate{Name: strPtr("Changed")})
	require.NoError(t, err)
	lookup, err = profiles.LookupDirect(ctx, env.studentA, env.studentB)
	require.NoError(t, err)
	require.Equal(t, "Student B", lookup.Name)

	mr.FastForward(2 * time.Minute)
	lookup, err = profiles.LookupDirect(ctx, env.studentA, env.studentB)
	require.NoError(t, err)
	require.Equal(t, "Changed", lookup.Name)

	_, err = profiles.LookupDirect(ctx, env.studentA, "missing")
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestStudentUpsertMe(t *testing.T) {
	forEachStore(t, func(t *testing.T, env *storeEnv) {
		ctx := context.Background()

		student, err := env.svc.students.UpsertMe(ctx, env.studentA, dto.UpdateStudentRequest{Status: strPtr("inactive")})
		require.NoError(t, err)
		require.Equal(t, env.studentA.ID, student.ID)
		require.Equal(t, "inactive", student.Status)

		fetched, err := env.svc.students.Get(ctx, env.instructor, env.studentA.ID)
		require.NoError(t, err)
		require.Equal(t, "inactive", fetched.Status)

		_, err = env.svc.students.Get(ctx, env.studentA, env.studentB)
		require.ErrorIs(t, err, ErrForbidden)

		_, err = env.svc.students.UpsertMe(ctx, env.instructor, dto.UpdateStudentRequest{Name: strPtr("Nope")})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestInstructorUpdateRenamesCourses(t *testing.T) {
	forEachStore(t, func(t *testing.T, env *storeEnv) {
		ctx := context.Background()
		course := env.createCourse(t, "INS001", 5)

		updated, err := env.svc.instructors.UpdateMe(ctx, env.instructor, dto.UpdateInstructorRequest{
			Name:        strPtr("Dr. Renamed"),
			OfficeHours: strPtr("Tue 10-12"),
		})
		require.NoError(t, err)
		require.Equal(t, "Dr. Renamed", updated.Name)
		require.Equal(t, "Tue 10-12", updated.OfficeHours)
		require.Equal(t, "Dr. Renamed", env.reload(t, course.ID).InstructorName)

		_, err = env.svc.instructors.UpdateMe(ctx, env.studentA, dto.UpdateInstructorRequest{Name: strPtr("x")})
		require.Error(t, err)

		listed, err := env.svc.instructors.List(ctx, env.studentA)
		require.NoError(t, err)
		require.NotEmpty(t, listed)

		_, err = env.svc.instructors.Get(ctx, env.studentA, "missing")
		require.ErrorIs(t, err, ErrInstructorNotFound)
	})
}
