package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/observability"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

// EnrollmentService coordinates enrollment writes so the per-pair uniqueness
// and the course capacity hold together with the cached counter.
type EnrollmentService interface {
	Enroll(ctx context.Context, caller policy.Caller, courseID uint, studentID string) (dto.EnrollmentResponse, error)
	Drop(ctx context.Context, caller policy.Caller, courseID uint, studentID string) error
	UpdateStatus(ctx context.Context, caller policy.Caller, enrollmentID uint, req dto.UpdateEnrollmentStatusRequest) (dto.EnrollmentResponse, error)
	ListForCourse(ctx context.Context, caller policy.Caller, courseID uint) ([]dto.EnrollmentResponse, error)
	ListMine(ctx context.Context, caller policy.Caller) ([]dto.EnrollmentResponse, error)
	Reconcile(ctx context.Context, caller policy.Caller, req dto.ReconcileRequest) (dto.ReconcileResponse, error)
}

type enrollmentService struct {
	stores    *StoreSelector
	activity  ActivityRecorder
	validator *validator.Validate
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewEnrollmentService constructs the enrollment coordinator.
func NewEnrollmentService(stores *StoreSelector, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		stores:    stores,
		activity:  activity,
		validator: validate,
		tracer:    otel.Tracer("github.com/noah-isme/enrollment-api/internal/service/enrollment"),
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, caller policy.Caller, courseID uint, studentID string) (response dto.EnrollmentResponse, err error) {
	studentID = strings.TrimSpace(studentID)
	store := s.stores.For(caller)

	spanCtx, span := s.tracer.Start(ctx, "enrollments.enroll", trace.WithAttributes(
		attribute.Int64("enrollment.course_id", int64(courseID)),
		attribute.String("enrollment.student_id", studentID),
		attribute.String("enrollment.store", store.Kind()),
	))
	defer func() { s.finish(span, "enroll", store.Kind(), err) }()

	if studentID == "" {
		return dto.EnrollmentResponse{}, validationError("student id is required")
	}

	course, err := store.Courses().Get(spanCtx, courseID)
	if err != nil {
		return dto.EnrollmentResponse{}, storeError(err, ErrCourseNotFound)
	}
	if err := authorize(policy.WriteEnrollment(caller, course, studentID)); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	student, err := ensureStudent(spanCtx, store, studentID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	// An existing row wins over a full course so a repeat attempt reports the
	// duplicate. Both checks run again inside the transaction.
	if _, err := store.Enrollments().Find(spanCtx, courseID, studentID); err == nil {
		return dto.EnrollmentResponse{}, ErrDuplicateEnrollment
	} else if !errors.Is(err, repository.ErrNotFound) {
		return dto.EnrollmentResponse{}, storeError(err, ErrEnrollmentNotFound)
	}

	// Fail fast on the loaded snapshot; the conditional increment below is
	// what actually guards capacity.
	if course.IsFull() {
		return dto.EnrollmentResponse{}, ErrCapacityExceeded
	}

	var created models.Enrollment
	err = store.Transaction(spanCtx, func(tx repository.Store) error {
		if _, err := tx.Enrollments().Find(spanCtx, courseID, studentID); err == nil {
			return ErrDuplicateEnrollment
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		incremented, err := tx.Courses().IncrementIfAvailable(spanCtx, courseID)
		if err != nil {
			return err
		}
		if !incremented {
			return ErrCapacityExceeded
		}

		created = models.Enrollment{
			CourseID:  courseID,
			StudentID: studentID,
			Status:    models.EnrollmentStatusEnrolled,
		}
		if err := tx.Enrollments().Create(spanCtx, &created); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateEnrollment
			}
			return err
		}
		return nil
	})
	if err != nil {
		return dto.EnrollmentResponse{}, storeError(err, ErrCourseNotFound)
	}

	_, _ = s.activity.Record(spanCtx, caller, ActionEntry{
		Action:     models.ActionStudentEnrolled,
		EntityType: "enrollment",
		EntityID:   strconv.FormatUint(uint64(created.ID), 10),
		Details: map[string]interface{}{
			"course_id":   courseID,
			"course_code": course.Code,
			"student_id":  studentID,
		},
	})

	s.logger.Info().
		Uint("course_id", courseID).
		Str("student_id", studentID).
		Str("store", store.Kind()).
		Msg("student enrolled")

	response = dto.NewEnrollmentResponse(created)
	response.CourseCode = course.Code
	response.CourseName = course.Name
	response.StudentName = student.Name
	return response, nil
}

func (s *enrollmentService) Drop(ctx context.Context, caller policy.Caller, courseID uint, studentID string) (err error) {
	studentID = strings.TrimSpace(studentID)
	store := s.stores.For(caller)

	spanCtx, span := s.tracer.Start(ctx, "enrollments.drop", trace.WithAttributes(
		attribute.Int64("enrollment.course_id", int64(courseID)),
		attribute.String("enrollment.student_id", studentID),
		attribute.String("enrollment.store", store.Kind()),
	))
	defer func() { s.finish(span, "drop", store.Kind(), err) }()

	course, err := store.Courses().Get(spanCtx, courseID)
	if err != nil {
		return storeError(err, ErrCourseNotFound)
	}
	if err := authorize(policy.WriteEnrollment(caller, course, studentID)); err != nil {
		return err
	}

	var removed models.Enrollment
	err = store.Transaction(spanCtx, func(tx repository.Store) error {
		enrollment, err := tx.Enrollments().Find(spanCtx, courseID, studentID)
		if err != nil {
			return err
		}
		if err := tx.Enrollments().Delete(spanCtx, enrollment.ID); err != nil {
			return err
		}
		removed = enrollment
		if enrollment.Status.CountsTowardCapacity() {
			return tx.Courses().Decrement(spanCtx, courseID)
		}
		return nil
	})
	if err != nil {
		return storeError(err, ErrEnrollmentNotFound)
	}

	_, _ = s.activity.Record(spanCtx, caller, ActionEntry{
		Action:     models.ActionStudentDropped,
		EntityType: "enrollment",
		EntityID:   strconv.FormatUint(uint64(removed.ID), 10),
		Details: map[string]interface{}{
			"course_id":   courseID,
			"course_code": course.Code,
			"student_id":  studentID,
			"status":      string(removed.Status),
		},
	})

	s.logger.Info().
		Uint("course_id", courseID).
		Str("student_id", studentID).
		Str("store", store.Kind()).
		Msg("student dropped")
	return nil
}

func (s *enrollmentService) UpdateStatus(ctx context.Context, caller policy.Caller, enrollmentID uint, req dto.UpdateEnrollmentStatusRequest) (response dto.EnrollmentResponse, err error) {
	store := s.stores.For(caller)

	spanCtx, span := s.tracer.Start(ctx, "enrollments.update_status", trace.WithAttributes(
		attribute.Int64("enrollment.id", int64(enrollmentID)),
		attribute.String("enrollment.status", req.Status),
		attribute.String("enrollment.store", store.Kind()),
	))
	defer func() { s.finish(span, "update_status", store.Kind(), err) }()

	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentResponse{}, err
	}
	next := models.EnrollmentStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !next.Valid() {
		return dto.EnrollmentResponse{}, validationError("unknown status %q", req.Status)
	}

	enrollment, err := store.Enrollments().Get(spanCtx, enrollmentID)
	if err != nil {
		return dto.EnrollmentResponse{}, storeError(err, ErrEnrollmentNotFound)
	}
	course, err := store.Courses().Get(spanCtx, enrollment.CourseID)
	if err != nil {
		return dto.EnrollmentResponse{}, storeError(err, ErrCourseNotFound)
	}
	if err := authorize(policy.ManageRoster(caller, course)); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	var previous models.EnrollmentStatus
	var updated models.Enrollment
	err = store.Transaction(spanCtx, func(tx repository.Store) error {
		current, err := tx.Enrollments().Get(spanCtx, enrollmentID)
		if err != nil {
			return err
		}
		previous = current.Status
		if !current.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}

		switch {
		case !current.Status.CountsTowardCapacity() && next.CountsTowardCapacity():
			incremented, err := tx.Courses().IncrementIfAvailable(spanCtx, current.CourseID)
			if err != nil {
				return err
			}
			if !incremented {
				return ErrCapacityExceeded
			}
		case current.Status.CountsTowardCapacity() && !next.CountsTowardCapacity():
			if err := tx.Courses().Decrement(spanCtx, current.CourseID); err != nil {
				return err
			}
		}

		result, err := tx.Enrollments().UpdateStatus(spanCtx, enrollmentID, next)
		if err != nil {
			return err
		}
		updated = result
		return nil
	})
	if err != nil {
		return dto.EnrollmentResponse{}, storeError(err, ErrEnrollmentNotFound)
	}

	_, _ = s.activity.Record(spanCtx, caller, ActionEntry{
		Action:     models.ActionEnrollmentStatus,
		EntityType: "enrollment",
		EntityID:   strconv.FormatUint(uint64(enrollmentID), 10),
		Details: map[string]interface{}{
			"course_id":  updated.CourseID,
			"student_id": updated.StudentID,
			"from":       string(previous),
			"to":         string(next),
		},
	})

	response = dto.NewEnrollmentResponse(updated)
	response.CourseCode = course.Code
	response.CourseName = course.Name
	return response, nil
}

func (s *enrollmentService) ListForCourse(ctx context.Context, caller policy.Caller, courseID uint) ([]dto.EnrollmentResponse, error) {
	store := s.stores.For(caller)
	course, err := store.Courses().Get(ctx, courseID)
	if err != nil {
		return nil, storeError(err, ErrCourseNotFound)
	}
	if err := authorize(policy.ManageRoster(caller, course)); err != nil {
		return nil, err
	}

	enrollments, err := store.Enrollments().List(ctx, repository.EnrollmentFilter{CourseIDs: []uint{courseID}})
	if err != nil {
		return nil, storeError(err, ErrStore)
	}
	return s.describe(ctx, store, enrollments, map[uint]models.Course{course.ID: course})
}

func (s *enrollmentService) ListMine(ctx context.Context, caller policy.Caller) ([]dto.EnrollmentResponse, error) {
	if !caller.IsStudent() {
		return nil, authorize(policy.ErrDenied)
	}

	store := s.stores.For(caller)
	enrollments, err := store.Enrollments().List(ctx, repository.EnrollmentFilter{StudentID: caller.ID})
	if err != nil {
		return nil, storeError(err, ErrStore)
	}

	courses, err := store.Courses().List(ctx, repository.CourseFilter{})
	if err != nil {
		return nil, storeError(err, ErrStore)
	}
	byID := make(map[uint]models.Course, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
	}
	return s.describe(ctx, store, enrollments, byID)
}

func (s *enrollmentService) Reconcile(ctx context.Context, caller policy.Caller, req dto.ReconcileRequest) (response dto.ReconcileResponse, err error) {
	if err := authorize(policy.ReconcileCounters(caller)); err != nil {
		return dto.ReconcileResponse{}, err
	}

	store := s.stores.For(caller)
	spanCtx, span := s.tracer.Start(ctx, "enrollments.reconcile", trace.WithAttributes(
		attribute.Bool("reconcile.fix", req.Fix),
		attribute.String("enrollment.store", store.Kind()),
	))
	defer func() { s.finish(span, "reconcile", store.Kind(), err) }()

	response = dto.ReconcileResponse{Drift: []dto.CounterDrift{}}
	err = store.Transaction(spanCtx, func(tx repository.Store) error {
		counts, err := tx.Enrollments().CountEnrolled(spanCtx)
		if err != nil {
			return err
		}
		courses, err := tx.Courses().List(spanCtx, repository.CourseFilter{})
		if err != nil {
			return err
		}

		response.CoursesChecked = len(courses)
		for _, course := range courses {
			actual := counts[course.ID]
			if actual == course.CurrentEnrollment {
				continue
			}
			response.Drift = append(response.Drift, dto.CounterDrift{
				CourseID: course.ID,
				Code:     course.Code,
				Cached:   course.CurrentEnrollment,
				Actual:   actual,
			})
			if req.Fix {
				if err := tx.Courses().SetEnrollmentCount(spanCtx, course.ID, actual); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return dto.ReconcileResponse{}, storeError(err, ErrStore)
	}

	response.Fixed = req.Fix && len(response.Drift) > 0
	if req.Fix {
		observability.EnrollmentDrift().Set(0)
	} else {
		observability.EnrollmentDrift().Set(float64(len(response.Drift)))
	}

	if response.Fixed {
		_, _ = s.activity.Record(spanCtx, caller, ActionEntry{
			Action:     models.ActionCountersReconciled,
			EntityType: "course",
			Details: map[string]interface{}{
				"courses_checked": response.CoursesChecked,
				"courses_fixed":   len(response.Drift),
			},
		})
	}

	if len(response.Drift) > 0 {
		s.logger.Warn().Int("drifted_courses", len(response.Drift)).Bool("fixed", response.Fixed).Msg("enrollment counter drift detected")
	}
	return response, nil
}

// describe joins enrollments with their course and student names.
func (s *enrollmentService) describe(ctx context.Context, store repository.Store, enrollments []models.Enrollment, courses map[uint]models.Course) ([]dto.EnrollmentResponse, error) {
	names, err := studentNames(ctx, store, enrollments)
	if err != nil {
		return nil, err
	}

	items := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		item := dto.NewEnrollmentResponse(enrollment)
		if course, ok := courses[enrollment.CourseID]; ok {
			item.CourseCode = course.Code
			item.CourseName = course.Name
		}
		item.StudentName = names[enrollment.StudentID]
		items = append(items, item)
	}
	return items, nil
}

func (s *enrollmentService) finish(span trace.Span, operation, store string, err error) {
	result := enrollmentResult(err)
	observability.Enrollments().WithLabelValues(operation, store, result).Inc()
	if err != nil && result == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("enrollment.result", result))
	span.End()
}

func enrollmentResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrDuplicateEnrollment):
		return "duplicate"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrProfile):
		return "rejected"
	default:
		return "error"
	}
}
