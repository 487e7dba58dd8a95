package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

// StudentService reads and maintains student records.
type StudentService interface {
	Get(ctx context.Context, caller policy.Caller, id string) (dto.StudentResponse, error)
	// UpsertMe creates the caller's student record from its profile when
	// missing, then applies the patch.
	UpsertMe(ctx context.Context, caller policy.Caller, req dto.UpdateStudentRequest) (dto.StudentResponse, error)
}

type studentService struct {
	stores    *StoreSelector
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(stores *StoreSelector, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		stores:    stores,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Get(ctx context.Context, caller policy.Caller, id string) (dto.StudentResponse, error) {
	id = strings.TrimSpace(id)
	if err := authorize(policy.ReadStudent(caller, id)); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.stores.For(caller).Students().Get(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, storeError(err, ErrStudentNotFound)
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) UpsertMe(ctx context.Context, caller policy.Caller, req dto.UpdateStudentRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}
	if err := authorize(policy.WriteStudent(caller, caller.ID)); err != nil {
		return dto.StudentResponse{}, err
	}
	if !caller.IsStudent() {
		return dto.StudentResponse{}, validationError("only students have a student record")
	}

	update := repository.StudentUpdate{Status: req.Status}
	if req.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*req.Name))
		if name == "" {
			return dto.StudentResponse{}, validationError("name is empty after sanitization")
		}
		update.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		update.Email = &email
	}

	store := s.stores.For(caller)
	var student models.Student
	err := store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ensureStudent(ctx, tx, caller.ID); err != nil {
			return err
		}
		updated, err := tx.Students().Update(ctx, caller.ID, update)
		if err != nil {
			return err
		}
		student = updated
		return nil
	})
	if err != nil {
		return dto.StudentResponse{}, storeError(err, ErrStudentNotFound)
	}

	return dto.NewStudentResponse(student), nil
}

// ensureStudent returns the student row for id, creating it from the profile
// when absent. A missing or non-student profile yields ErrProfile.
func ensureStudent(ctx context.Context, store repository.Store, id string) (models.Student, error) {
	student, err := store.Students().Get(ctx, id)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.Student{}, storeError(err, ErrStudentNotFound)
	}

	profile, err := store.Profiles().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Student{}, ErrProfile
		}
		return models.Student{}, storeError(err, ErrProfile)
	}
	if profile.Role != models.RoleStudent {
		return models.Student{}, ErrProfile
	}

	student = models.Student{
		ID:     profile.ID,
		Name:   profile.Name,
		Email:  profile.Email,
		Status: models.StudentStatusActive,
	}
	if err := store.Students().Create(ctx, &student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return store.Students().Get(ctx, id)
		}
		return models.Student{}, storeError(err, ErrProfile)
	}
	return student, nil
}
