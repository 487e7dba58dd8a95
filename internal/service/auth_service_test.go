package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/auth"
	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour, "enrollment-api")
}

func TestSignupCreatesIdentity(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	resp, err := svc.auth.Signup(ctx, dto.SignupRequest{
		Email:      " Grace@Example.com ",
		Password:   "correct-horse",
		Name:       "Grace Hopper",
		Role:       "instructor",
		Department: "Computer Science",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.False(t, resp.Demo)
	require.Equal(t, "grace@example.com", resp.User.Email)
	require.Equal(t, "instructor", resp.User.Role)

	claims, err := testTokens().Parse(resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.Subject)
	require.Equal(t, "instructor", claims.Role)
	require.Empty(t, claims.SessionID)

	durable := svc.stores.Durable()
	instructor, err := durable.Instructors().Get(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Equal(t, "Computer Science", instructor.Department)

	logs, err := durable.ActionLogs().List(ctx, repository.ActionLogFilter{Action: models.ActionUserSignedUp})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	_, err = svc.auth.Signup(ctx, dto.SignupRequest{
		Email: "grace@example.com", Password: "another-pass", Name: "Impostor", Role: "student",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	var validationErrors validator.ValidationErrors

	_, err := svc.auth.Signup(ctx, dto.SignupRequest{Email: "a@example.com", Password: "longenough", Name: "A", Role: "admin"})
	require.ErrorAs(t, err, &validationErrors, "admins cannot self-register")

	_, err = svc.auth.Signup(ctx, dto.SignupRequest{Email: "b@example.com", Password: "longenough", Name: "B", Role: "instructor"})
	require.ErrorAs(t, err, &validationErrors, "instructors need a department")

	_, err = svc.auth.Signup(ctx, dto.SignupRequest{Email: "c@example.com", Password: "short", Name: "C", Role: "student"})
	require.ErrorAs(t, err, &validationErrors)

	_, err = svc.auth.Signup(ctx, dto.SignupRequest{Email: "d@example.com", Password: "longenough", Name: "<script></script>", Role: "student"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	signup, err := svc.auth.Signup(ctx, dto.SignupRequest{Email: "ada@example.com", Password: "analytical", Name: "Ada", Role: "student"})
	require.NoError(t, err)

	resp, err := svc.auth.Login(ctx, dto.LoginRequest{Email: "ADA@example.com", Password: "analytical"})
	require.NoError(t, err)
	require.Equal(t, signup.User.ID, resp.User.ID)
	require.Equal(t, "student", resp.User.Role)

	_, err = svc.auth.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.auth.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "analytical"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDemoLoginIssuesSessionToken(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	first, err := svc.auth.DemoLogin(ctx, dto.DemoLoginRequest{Role: "student"})
	require.NoError(t, err)
	require.True(t, first.Demo)
	require.Equal(t, testDemoIdentities.Student, first.User.ID)

	claims, err := testTokens().Parse(first.Token)
	require.NoError(t, err)
	require.NotEmpty(t, claims.SessionID)

	second, err := svc.auth.DemoLogin(ctx, dto.DemoLoginRequest{Role: "student"})
	require.NoError(t, err)
	secondClaims, err := testTokens().Parse(second.Token)
	require.NoError(t, err)
	require.NotEqual(t, claims.SessionID, secondClaims.SessionID)

	caller := policy.Caller{ID: claims.Subject, Role: models.Role(claims.Role), SessionID: claims.SessionID, Authenticated: true}
	require.True(t, svc.stores.IsDemo(caller))

	_, err = svc.auth.DemoLogin(ctx, dto.DemoLoginRequest{Role: "superuser"})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestDemoLoginDisabled(t *testing.T) {
	db := setupServiceTestDB(t)
	stores := NewStoreSelector(repository.NewGormStore(db), nil)
	svc := NewAuthService(db, stores, testTokens(), NewActivityService(stores, nil, "", nil, nopLogger()), validator.New(), nopLogger())

	_, err := svc.DemoLogin(context.Background(), dto.DemoLoginRequest{Role: "admin"})
	require.ErrorIs(t, err, ErrDemoDisabled)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	require.NoError(t, svc.auth.EnsureAdmin(ctx, "root@example.com", "bootstrap-pass"))
	require.NoError(t, svc.auth.EnsureAdmin(ctx, "root@example.com", "bootstrap-pass"))
	require.NoError(t, svc.auth.EnsureAdmin(ctx, "", ""))

	var count int64
	require.NoError(t, svc.db.Model(&models.Account{}).Where("email = ?", "root@example.com").Count(&count).Error)
	require.EqualValues(t, 1, count)

	resp, err := svc.auth.Login(ctx, dto.LoginRequest{Email: "root@example.com", Password: "bootstrap-pass"})
	require.NoError(t, err)
	require.Equal(t, "admin", resp.User.Role)
}
