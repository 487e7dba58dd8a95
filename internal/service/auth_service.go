package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/auth"
	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

// AuthService registers identities and issues access tokens.
type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	DemoLogin(ctx context.Context, req dto.DemoLoginRequest) (dto.AuthResponse, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	db        *gorm.DB
	stores    *StoreSelector
	tokens    *auth.TokenManager
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	hash      func(string) (string, error)
	logger    zerolog.Logger
}

// NewAuthService constructs the auth service. Accounts live only in the
// durable database, so the service holds the gorm handle directly.
func NewAuthService(db *gorm.DB, stores *StoreSelector, tokens *auth.TokenManager, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		db:        db,
		stores:    stores,
		tokens:    tokens,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		hash:      auth.HashPassword,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	role := models.ParseRole(req.Role)
	if role != models.RoleInstructor && role != models.RoleStudent {
		return dto.AuthResponse{}, validationError("role must be instructor or student")
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(req.Name))
	if name == "" {
		return dto.AuthResponse{}, validationError("name is empty after sanitization")
	}

	profile, err := s.createIdentity(ctx, req.Email, req.Password, name, role, func(store repository.Store, id string) error {
		if role != models.RoleInstructor {
			return nil
		}
		instructor := models.Instructor{
			ID:           id,
			Name:         name,
			Department:   strings.TrimSpace(req.Department),
			Title:        strings.TrimSpace(req.Title),
			ContactEmail: normalizeEmail(req.Email),
		}
		return store.Instructors().Create(ctx, &instructor)
	})
	if err != nil {
		return dto.AuthResponse{}, err
	}

	caller := policy.Caller{ID: profile.ID, Role: profile.Role, Authenticated: true}
	_, _ = s.activity.Record(ctx, caller, ActionEntry{
		Action:     models.ActionUserSignedUp,
		EntityType: "profile",
		EntityID:   profile.ID,
		Details:    map[string]interface{}{"role": string(role)},
	})

	s.logger.Info().Str("identity_id", profile.ID).Str("role", string(role)).Msg("identity registered")
	return s.issue(profile, "")
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	accounts := repository.NewAccountRepository(s.db)
	account, err := accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, storeError(err, ErrInvalidCredentials)
	}

	if err := auth.VerifyPassword(account.PasswordHash, req.Password); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	profile, err := s.stores.Durable().Profiles().Get(ctx, account.ID)
	if err != nil {
		return dto.AuthResponse{}, storeError(err, ErrProfileNotFound)
	}
	// The role claim always comes from the account row.
	profile.Role = account.Role

	return s.issue(profile, "")
}

func (s *authService) DemoLogin(ctx context.Context, req dto.DemoLoginRequest) (dto.AuthResponse, error) {
	demo := s.stores.Demo()
	if demo == nil {
		return dto.AuthResponse{}, ErrDemoDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	role := models.ParseRole(req.Role)
	id, ok := demo.Identities().IDFor(role)
	if !ok {
		return dto.AuthResponse{}, validationError("unknown demo role %q", req.Role)
	}

	sessionID := uuid.NewString()
	profile, err := demo.ForSession(sessionID).Profiles().Get(ctx, id)
	if err != nil {
		return dto.AuthResponse{}, storeError(err, ErrProfile)
	}

	s.logger.Info().Str("role", string(role)).Str("session_id", sessionID).Msg("demo session started")
	return s.issue(profile, sessionID)
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	accounts := repository.NewAccountRepository(s.db)
	if _, err := accounts.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup admin account: %w", err)
	}

	if _, err := s.createIdentity(ctx, email, password, "Administrator", models.RoleAdmin, nil); err != nil {
		return fmt.Errorf("bootstrap admin account: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("admin account bootstrapped")
	return nil
}

// createIdentity writes the account, the profile and any role-specific row in
// one transaction.
func (s *authService) createIdentity(ctx context.Context, email, password, name string, role models.Role, extra func(store repository.Store, id string) error) (models.Profile, error) {
	hash, err := s.hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return models.Profile{}, validationError("%v", err)
		}
		return models.Profile{}, fmt.Errorf("%w: hash password: %v", ErrStore, err)
	}

	id := uuid.NewString()
	if err := authorize(policy.CreateProfile(policy.Anonymous(), id)); err != nil {
		return models.Profile{}, err
	}

	email = normalizeEmail(email)
	profile := models.Profile{ID: id, Email: email, Name: name, Role: role}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account := models.Account{ID: id, Email: email, PasswordHash: hash, Role: role}
		if err := repository.NewAccountRepository(tx).Create(ctx, &account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}

		store := repository.NewGormStore(tx)
		if err := store.Profiles().Create(ctx, &profile); err != nil {
			return err
		}
		if extra != nil {
			return extra(store, id)
		}
		return nil
	})
	if err != nil {
		return models.Profile{}, storeError(err, ErrStore)
	}
	return profile, nil
}

func (s *authService) issue(profile models.Profile, sessionID string) (dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(profile.ID, string(profile.Role), sessionID)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("%w: issue token: %v", ErrStore, err)
	}

	return dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Demo:      sessionID != "",
		User:      dto.NewProfileResponse(profile),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
