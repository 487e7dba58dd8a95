package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

// InstructorService reads and updates instructor records.
type InstructorService interface {
	List(ctx context.Context, caller policy.Caller) ([]dto.InstructorResponse, error)
	Get(ctx context.Context, caller policy.Caller, id string) (dto.InstructorResponse, error)
	UpdateMe(ctx context.Context, caller policy.Caller, req dto.UpdateInstructorRequest) (dto.InstructorResponse, error)
}

type instructorService struct {
	stores    *StoreSelector
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewInstructorService constructs the instructor service.
func NewInstructorService(stores *StoreSelector, validate *validator.Validate, logger zerolog.Logger) InstructorService {
	return &instructorService{
		stores:    stores,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "instructor_service").Logger(),
	}
}

func (s *instructorService) List(ctx context.Context, caller policy.Caller) ([]dto.InstructorResponse, error) {
	if err := authorize(policy.ReadInstructor(caller)); err != nil {
		return nil, err
	}

	instructors, err := s.stores.For(caller).Instructors().List(ctx)
	if err != nil {
		return nil, storeError(err, ErrStore)
	}
	return dto.NewInstructorResponseSlice(instructors), nil
}

func (s *instructorService) Get(ctx context.Context, caller policy.Caller, id string) (dto.InstructorResponse, error) {
	if err := authorize(policy.ReadInstructor(caller)); err != nil {
		return dto.InstructorResponse{}, err
	}

	instructor, err := s.stores.For(caller).Instructors().Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return dto.InstructorResponse{}, storeError(err, ErrInstructorNotFound)
	}
	return dto.NewInstructorResponse(instructor), nil
}

func (s *instructorService) UpdateMe(ctx context.Context, caller policy.Caller, req dto.UpdateInstructorRequest) (dto.InstructorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.InstructorResponse{}, err
	}
	if err := authorize(policy.WriteInstructor(caller, caller.ID)); err != nil {
		return dto.InstructorResponse{}, err
	}

	update := repository.InstructorUpdate{
		Department:     trimmed(req.Department),
		Title:          trimmed(req.Title),
		Specialization: s.clean(req.Specialization),
		OfficeHours:    s.clean(req.OfficeHours),
		Phone:          trimmed(req.Phone),
	}
	if req.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*req.Name))
		if name == "" {
			return dto.InstructorResponse{}, validationError("name is empty after sanitization")
		}
		update.Name = &name
	}
	if req.ContactEmail != nil {
		email := normalizeEmail(*req.ContactEmail)
		update.ContactEmail = &email
	}

	var instructor models.Instructor
	err := s.stores.For(caller).Transaction(ctx, func(tx repository.Store) error {
		updated, err := tx.Instructors().Update(ctx, caller.ID, update)
		if err != nil {
			return err
		}
		instructor = updated
		if update.Name == nil {
			return nil
		}

		// Courses carry a denormalized copy of the instructor name.
		courses, err := tx.Courses().List(ctx, repository.CourseFilter{InstructorID: caller.ID})
		if err != nil {
			return err
		}
		for _, course := range courses {
			if _, err := tx.Courses().Update(ctx, course.ID, repository.CourseUpdate{InstructorName: update.Name}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dto.InstructorResponse{}, storeError(err, ErrInstructorNotFound)
	}
	return dto.NewInstructorResponse(instructor), nil
}

func (s *instructorService) clean(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(*value))
	return &cleaned
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}
