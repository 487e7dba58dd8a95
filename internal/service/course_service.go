package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

const maxCourseListLimit = 500

// CourseService manages the course catalogue.
type CourseService interface {
	List(ctx context.Context, caller policy.Caller, req dto.CourseListRequest) ([]dto.CourseResponse, error)
	Get(ctx context.Context, caller policy.Caller, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, caller policy.Caller, req dto.CreateCourseRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, caller policy.Caller, id uint, req dto.UpdateCourseRequest) (dto.CourseResponse, error)
	// Delete removes the course and every enrollment in it.
	Delete(ctx context.Context, caller policy.Caller, id uint) error
}

type courseService struct {
	stores     *StoreSelector
	activity   ActivityRecorder
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	descPolicy *bluemonday.Policy
	logger     zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(stores *StoreSelector, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		stores:     stores,
		activity:   activity,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		descPolicy: bluemonday.UGCPolicy(),
		logger:     logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, caller policy.Caller, req dto.CourseListRequest) ([]dto.CourseResponse, error) {
	if err := authorize(policy.ReadCourse(caller)); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > maxCourseListLimit {
		limit = maxCourseListLimit
	}

	courses, err := s.stores.For(caller).Courses().List(ctx, repository.CourseFilter{
		InstructorID: strings.TrimSpace(req.InstructorID),
		Department:   strings.TrimSpace(req.Department),
		Limit:        limit,
	})
	if err != nil {
		return nil, storeError(err, ErrStore)
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, caller policy.Caller, id uint) (dto.CourseResponse, error) {
	if err := authorize(policy.ReadCourse(caller)); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.stores.For(caller).Courses().Get(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, storeError(err, ErrCourseNotFound)
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, caller policy.Caller, req dto.CreateCourseRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	instructorID := strings.TrimSpace(req.InstructorID)
	if instructorID == "" && caller.IsInstructor() {
		instructorID = caller.ID
	}
	if err := authorize(policy.CreateCourse(caller, instructorID)); err != nil {
		return dto.CourseResponse{}, err
	}
	if instructorID == "" {
		return dto.CourseResponse{}, validationError("instructor_id is required")
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(req.Name))
	if name == "" {
		return dto.CourseResponse{}, validationError("name is empty after sanitization")
	}

	store := s.stores.For(caller)
	instructor, err := store.Instructors().Get(ctx, instructorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.CourseResponse{}, validationError("instructor %s does not exist", instructorID)
		}
		return dto.CourseResponse{}, storeError(err, ErrInstructorNotFound)
	}

	course := models.Course{
		Name:           name,
		Code:           normalizeCourseCode(req.Code),
		Department:     strings.TrimSpace(req.Department),
		Description:    strings.TrimSpace(s.descPolicy.Sanitize(req.Description)),
		InstructorID:   instructor.ID,
		InstructorName: instructor.Name,
		MaxCapacity:    req.MaxCapacity,
	}
	if err := store.Courses().Create(ctx, &course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, storeError(err, ErrStore)
	}

	_, _ = s.activity.Record(ctx, caller, ActionEntry{
		Action:     models.ActionCourseCreated,
		EntityType: "course",
		EntityID:   strconv.FormatUint(uint64(course.ID), 10),
		Details: map[string]interface{}{
			"code":         course.Code,
			"name":         course.Name,
			"max_capacity": course.MaxCapacity,
		},
	})

	s.logger.Info().Uint("course_id", course.ID).Str("code", course.Code).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, caller policy.Caller, id uint, req dto.UpdateCourseRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	store := s.stores.For(caller)
	course, err := store.Courses().Get(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, storeError(err, ErrCourseNotFound)
	}
	if err := authorize(policy.WriteCourse(caller, course)); err != nil {
		return dto.CourseResponse{}, err
	}

	update := repository.CourseUpdate{
		Department:  trimmed(req.Department),
		MaxCapacity: req.MaxCapacity,
	}
	if req.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*req.Name))
		if name == "" {
			return dto.CourseResponse{}, validationError("name is empty after sanitization")
		}
		update.Name = &name
	}
	if req.Code != nil {
		code := normalizeCourseCode(*req.Code)
		update.Code = &code
	}
	if req.Description != nil {
		description := strings.TrimSpace(s.descPolicy.Sanitize(*req.Description))
		update.Description = &description
	}

	if req.InstructorID != nil && strings.TrimSpace(*req.InstructorID) != course.InstructorID {
		// Reassignment hands ownership away, so only admins may do it.
		if !caller.IsAdmin() {
			return dto.CourseResponse{}, authorize(policy.ErrDenied)
		}
		instructor, err := store.Instructors().Get(ctx, strings.TrimSpace(*req.InstructorID))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return dto.CourseResponse{}, validationError("instructor %s does not exist", *req.InstructorID)
			}
			return dto.CourseResponse{}, storeError(err, ErrInstructorNotFound)
		}
		update.InstructorID = &instructor.ID
		update.InstructorName = &instructor.Name
	}

	var updated models.Course
	err = store.Transaction(ctx, func(tx repository.Store) error {
		current, err := tx.Courses().Get(ctx, id)
		if err != nil {
			return err
		}
		if update.MaxCapacity != nil && *update.MaxCapacity < current.CurrentEnrollment {
			return validationError("max_capacity %d is below current enrollment %d", *update.MaxCapacity, current.CurrentEnrollment)
		}
		result, err := tx.Courses().Update(ctx, id, update)
		if err != nil {
			return err
		}
		updated = result
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, storeError(err, ErrCourseNotFound)
	}

	if !update.Empty() {
		_, _ = s.activity.Record(ctx, caller, ActionEntry{
			Action:     models.ActionCourseUpdated,
			EntityType: "course",
			EntityID:   strconv.FormatUint(uint64(id), 10),
			Details:    map[string]interface{}{"code": updated.Code},
		})
	}

	return dto.NewCourseResponse(updated), nil
}

func (s *courseService) Delete(ctx context.Context, caller policy.Caller, id uint) error {
	store := s.stores.For(caller)
	course, err := store.Courses().Get(ctx, id)
	if err != nil {
		return storeError(err, ErrCourseNotFound)
	}
	if err := authorize(policy.WriteCourse(caller, course)); err != nil {
		return err
	}

	removed := 0
	err = store.Transaction(ctx, func(tx repository.Store) error {
		enrollments, err := tx.Enrollments().List(ctx, repository.EnrollmentFilter{CourseIDs: []uint{id}})
		if err != nil {
			return err
		}
		removed = len(enrollments)
		return tx.Courses().Delete(ctx, id)
	})
	if err != nil {
		return storeError(err, ErrCourseNotFound)
	}

	_, _ = s.activity.Record(ctx, caller, ActionEntry{
		Action:     models.ActionCourseDeleted,
		EntityType: "course",
		EntityID:   strconv.FormatUint(uint64(id), 10),
		Details: map[string]interface{}{
			"code":                course.Code,
			"name":                course.Name,
			"enrollments_removed": removed,
		},
	})

	s.logger.Info().Uint("course_id", id).Int("enrollments_removed", removed).Msg("course deleted")
	return nil
}

func normalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
