package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/auth"
	"github.com/noah-isme/enrollment-api/internal/database"
	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

var testDemoIdentities = repository.DemoIdentities{
	Admin:      "00000000-0000-4000-8000-00000000d001",
	Instructor: "00000000-0000-4000-8000-00000000d002",
	Student:    "00000000-0000-4000-8000-00000000d003",
}

// demoSeedStudentID is a non-sentinel student present in the demo fixture.
const demoSeedStudentID = "5c1d7e1a-2b8f-4c0e-9a51-3f0a7d1e0b11"

type testServices struct {
	db          *gorm.DB
	stores      *StoreSelector
	activity    ActivityService
	auth        AuthService
	profiles    ProfileService
	students    StudentService
	instructors InstructorService
	courses     CourseService
	enrollments EnrollmentService
	dashboards  DashboardService
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	db := setupServiceTestDB(t)

	demo, err := repository.NewDemoStores(repository.NewMemoryKeyValueStore(time.Hour), testDemoIdentities)
	require.NoError(t, err)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	stores := NewStoreSelector(repository.NewGormStore(db), demo)
	activity := NewActivityService(stores, nil, "", nil, logger)
	profiles := NewProfileService(stores, activity, validate, nil, time.Minute, logger)

	authSvc := NewAuthService(db, stores, auth.NewTokenManager("test-secret", time.Hour, "enrollment-api"), activity, validate, logger)
	authSvc.(*authService).hash = func(password string) (string, error) {
		if len(password) < auth.MinPasswordLength {
			return "", auth.ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		return string(hashed), err
	}

	return &testServices{
		db:          db,
		stores:      stores,
		activity:    activity,
		auth:        authSvc,
		profiles:    profiles,
		students:    NewStudentService(stores, validate, logger),
		instructors: NewInstructorService(stores, validate, logger),
		courses:     NewCourseService(stores, activity, validate, logger),
		enrollments: NewEnrollmentService(stores, activity, validate, logger),
		dashboards:  NewDashboardService(stores, profiles, 10, logger),
	}
}

// storeEnv is one backend with an admin, an instructor owning courses and two
// students. studentA acts for itself; studentB is only ever written through
// admin or instructor callers.
type storeEnv struct {
	svc        *testServices
	store      repository.Store
	admin      policy.Caller
	instructor policy.Caller
	studentA   policy.Caller
	studentB   string
}

func (e *storeEnv) createCourse(t *testing.T, code string, capacity int) models.Course {
	t.Helper()
	created, err := e.svc.courses.Create(context.Background(), e.instructor, dto.CreateCourseRequest{
		Name:        "Course " + code,
		Code:        code,
		Department:  "Computer Science",
		MaxCapacity: capacity,
	})
	require.NoError(t, err)

	course, err := e.store.Courses().Get(context.Background(), created.ID)
	require.NoError(t, err)
	return course
}

func (e *storeEnv) reload(t *testing.T, courseID uint) models.Course {
	t.Helper()
	course, err := e.store.Courses().Get(context.Background(), courseID)
	require.NoError(t, err)
	return course
}

// addStudent creates a student profile in the backend and returns its id.
func (e *storeEnv) addStudent(t *testing.T, name string) string {
	t.Helper()
	profile := models.Profile{
		ID:    uuid.NewString(),
		Email: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Name:  name,
		Role:  models.RoleStudent,
	}
	require.NoError(t, e.store.Profiles().Create(context.Background(), &profile))
	return profile.ID
}

func durableEnv(t *testing.T) *storeEnv {
	t.Helper()
	svc := newTestServices(t)
	ctx := context.Background()
	store := svc.stores.Durable()

	seedProfile := func(name string, role models.Role) policy.Caller {
		id := uuid.NewString()
		account := models.Account{ID: id, Email: id + "@example.com", PasswordHash: "x", Role: role}
		require.NoError(t, svc.db.Create(&account).Error)
		profile := models.Profile{ID: id, Email: account.Email, Name: name, Role: role}
		require.NoError(t, store.Profiles().Create(ctx, &profile))
		return policy.Caller{ID: id, Role: role, Authenticated: true}
	}

	admin := seedProfile("Admin", models.RoleAdmin)
	instructor := seedProfile("Instructor", models.RoleInstructor)
	require.NoError(t, store.Instructors().Create(ctx, &models.Instructor{ID: instructor.ID, Name: "Instructor", Department: "Computer Science"}))
	studentA := seedProfile("Student A", models.RoleStudent)
	studentB := seedProfile("Student B", models.RoleStudent)

	return &storeEnv{
		svc:        svc,
		store:      store,
		admin:      admin,
		instructor: instructor,
		studentA:   studentA,
		studentB:   studentB.ID,
	}
}

func demoEnv(t *testing.T) *storeEnv {
	t.Helper()
	svc := newTestServices(t)
	session := uuid.NewString()

	caller := func(id string, role models.Role) policy.Caller {
		return policy.Caller{ID: id, Role: role, SessionID: session, Authenticated: true}
	}

	env := &storeEnv{
		svc:        svc,
		admin:      caller(testDemoIdentities.Admin, models.RoleAdmin),
		instructor: caller(testDemoIdentities.Instructor, models.RoleInstructor),
		studentA:   caller(testDemoIdentities.Student, models.RoleStudent),
		studentB:   demoSeedStudentID,
	}
	env.store = svc.stores.For(env.admin)
	require.Equal(t, repository.StoreKindDemo, env.store.Kind())
	return env
}

// forEachStore runs fn against the durable store and a demo session.
func forEachStore(t *testing.T, fn func(t *testing.T, env *storeEnv)) {
	t.Run("durable", func(t *testing.T) { fn(t, durableEnv(t)) })
	t.Run("demo", func(t *testing.T) { fn(t, demoEnv(t)) })
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
