package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
)

func TestDemoStoreSeedsSessionOnFirstUse(t *testing.T) {
	stores, err := NewDemoStores(NewMemoryKeyValueStore(time.Hour), testIdentities)
	require.NoError(t, err)

	ctx := context.Background()
	store := stores.ForSession("session-a")
	require.Equal(t, StoreKindDemo, store.Kind())

	courses, err := store.Courses().List(ctx, CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 3)

	profile, err := store.Profiles().Get(ctx, testIdentities.Student)
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, profile.Role)

	instructor, err := store.Instructors().Get(ctx, testIdentities.Instructor)
	require.NoError(t, err)
	require.NotEmpty(t, instructor.Name)
}

func TestDemoStoreSessionsAreIsolated(t *testing.T) {
	stores, err := NewDemoStores(NewMemoryKeyValueStore(time.Hour), testIdentities)
	require.NoError(t, err)

	ctx := context.Background()
	first := stores.ForSession("session-a")
	second := stores.ForSession("session-b")

	course := models.Course{Name: "Sandbox", Code: "SBX1", Department: "CS", InstructorID: testIdentities.Instructor, MaxCapacity: 4}
	require.NoError(t, first.Courses().Create(ctx, &course))
	require.Equal(t, uint(4), course.ID)

	_, err = second.Courses().Get(ctx, course.ID)
	require.ErrorIs(t, err, ErrNotFound)

	again := stores.ForSession("session-a")
	found, err := again.Courses().Get(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, "SBX1", found.Code)
}

func TestDemoStoreConcurrentIncrementsRespectCapacity(t *testing.T) {
	stores, err := NewDemoStores(NewMemoryKeyValueStore(time.Hour), testIdentities)
	require.NoError(t, err)

	ctx := context.Background()
	store := stores.ForSession("session-race")
	course := models.Course{Name: "Tight", Code: "TIGHT", Department: "CS", InstructorID: testIdentities.Instructor, MaxCapacity: 3}
	require.NoError(t, store.Courses().Create(ctx, &course))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := stores.ForSession("session-race").Courses().IncrementIfAvailable(ctx, course.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 3, granted)
	reloaded, err := store.Courses().Get(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.CurrentEnrollment)
}

func TestDemoIdentitiesRoleOf(t *testing.T) {
	role, ok := testIdentities.RoleOf(testIdentities.Admin)
	require.True(t, ok)
	require.Equal(t, models.RoleAdmin, role)

	_, ok = testIdentities.RoleOf("someone-else")
	require.False(t, ok)

	id, ok := testIdentities.IDFor(models.RoleInstructor)
	require.True(t, ok)
	require.Equal(t, testIdentities.Instructor, id)
}

func TestMemoryKeyValueStoreExpires(t *testing.T) {
	kv := NewMemoryKeyValueStore(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	time.Sleep(5 * time.Millisecond)

	_, err := kv.Get(ctx, "k")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryKeyValueStoreSweepsUnreadExpiredKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := newMemoryKeyValueStore(time.Minute, func() time.Time { return clock })
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, kv.Set(ctx, fmt.Sprintf("demo:session-%d", i), []byte("[]")))
	}
	require.Equal(t, 1000, kv.size())

	clock = clock.Add(2 * time.Minute)
	require.NoError(t, kv.Set(ctx, "demo:fresh", []byte("[]")))

	require.Equal(t, 1, kv.size())
	value, err := kv.Get(ctx, "demo:fresh")
	require.NoError(t, err)
	require.Equal(t, []byte("[]"), value)
}

func TestMemoryKeyValueStoreSweepKeepsLiveKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := newMemoryKeyValueStore(time.Minute, func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "old", []byte("a")))
	clock = clock.Add(45 * time.Second)
	require.NoError(t, kv.Set(ctx, "recent", []byte("b")))
	clock = clock.Add(30 * time.Second)
	require.NoError(t, kv.Set(ctx, "newest", []byte("c")))

	require.Equal(t, 2, kv.size())
	_, err := kv.Get(ctx, "old")
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = kv.Get(ctx, "recent")
	require.NoError(t, err)
}

func TestDemoCourseMutateSkipsWrappedNoChange(t *testing.T) {
	stores, err := NewDemoStores(NewMemoryKeyValueStore(time.Hour), testIdentities)
	require.NoError(t, err)

	ctx := context.Background()
	store := stores.ForSession("session-full")
	course := models.Course{Name: "Full", Code: "FULL1", Department: "CS", InstructorID: testIdentities.Instructor, MaxCapacity: 1}
	require.NoError(t, store.Courses().Create(ctx, &course))

	ok, err := store.Courses().IncrementIfAvailable(ctx, course.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Courses().IncrementIfAvailable(ctx, course.ID)
	require.NoError(t, err)
	require.False(t, ok)

	repo := store.Courses().(*demoCourseRepository)
	err = repo.mutate(ctx, course.ID, func(_ []models.Course, c *models.Course) error {
		c.CurrentEnrollment = 99
		return fmt.Errorf("course %d already full: %w", c.ID, errNoChange)
	})
	require.NoError(t, err)

	reloaded, err := store.Courses().Get(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.CurrentEnrollment)
}
