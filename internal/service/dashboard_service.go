package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

const unknownPerformer = "Unknown user"

// DashboardService builds the role-specific dashboard projections.
type DashboardService interface {
	Admin(ctx context.Context, caller policy.Caller) (dto.AdminDashboardResponse, error)
	Instructor(ctx context.Context, caller policy.Caller) (dto.InstructorDashboardResponse, error)
	Student(ctx context.Context, caller policy.Caller) (dto.StudentDashboardResponse, error)
}

type dashboardService struct {
	stores   *StoreSelector
	profiles ProfileService
	logLimit int
	logger   zerolog.Logger
}

// NewDashboardService constructs the dashboard service. logLimit bounds the
// number of log entries on the admin dashboard.
func NewDashboardService(stores *StoreSelector, profiles ProfileService, logLimit int, logger zerolog.Logger) DashboardService {
	if logLimit <= 0 {
		logLimit = 20
	}
	return &dashboardService{
		stores:   stores,
		profiles: profiles,
		logLimit: logLimit,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) Admin(ctx context.Context, caller policy.Caller) (dto.AdminDashboardResponse, error) {
	if err := authorize(policy.ReadActionLog(caller)); err != nil {
		return dto.AdminDashboardResponse{}, err
	}

	store := s.stores.For(caller)
	courses, err := store.Courses().List(ctx, repository.CourseFilter{})
	if err != nil {
		return dto.AdminDashboardResponse{}, storeError(err, ErrStore)
	}

	entries, err := store.ActionLogs().List(ctx, repository.ActionLogFilter{Limit: s.logLimit})
	if err != nil {
		return dto.AdminDashboardResponse{}, storeError(err, ErrStore)
	}

	names := make(map[string]string)
	logs := make([]dto.ActionLogResponse, 0, len(entries))
	for _, entry := range entries {
		item := dto.NewActionLogResponse(entry)
		item.PerformerName = s.performerName(ctx, caller, entry.PerformedBy, names)
		logs = append(logs, item)
	}

	return dto.AdminDashboardResponse{
		Courses:    dto.NewCourseResponseSlice(courses),
		RecentLogs: logs,
	}, nil
}

func (s *dashboardService) Instructor(ctx context.Context, caller policy.Caller) (dto.InstructorDashboardResponse, error) {
	if !caller.IsInstructor() {
		return dto.InstructorDashboardResponse{}, authorize(policy.ErrDenied)
	}

	store := s.stores.For(caller)
	instructor, err := store.Instructors().Get(ctx, caller.ID)
	if err != nil {
		return dto.InstructorDashboardResponse{}, storeError(err, ErrInstructorNotFound)
	}

	courses, err := store.Courses().List(ctx, repository.CourseFilter{InstructorID: caller.ID})
	if err != nil {
		return dto.InstructorDashboardResponse{}, storeError(err, ErrStore)
	}

	rosters := make([]dto.CourseRoster, 0, len(courses))
	if len(courses) == 0 {
		return dto.InstructorDashboardResponse{Instructor: dto.NewInstructorResponse(instructor), Courses: rosters}, nil
	}

	ids := make([]uint, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}
	enrollments, err := store.Enrollments().List(ctx, repository.EnrollmentFilter{CourseIDs: ids})
	if err != nil {
		return dto.InstructorDashboardResponse{}, storeError(err, ErrStore)
	}

	names, err := studentNames(ctx, store, enrollments)
	if err != nil {
		return dto.InstructorDashboardResponse{}, err
	}

	grouped := make(map[uint][]dto.EnrollmentResponse, len(courses))
	for _, enrollment := range enrollments {
		item := dto.NewEnrollmentResponse(enrollment)
		item.StudentName = names[enrollment.StudentID]
		grouped[enrollment.CourseID] = append(grouped[enrollment.CourseID], item)
	}

	for _, course := range courses {
		items := grouped[course.ID]
		if items == nil {
			items = []dto.EnrollmentResponse{}
		}
		for i := range items {
			items[i].CourseCode = course.Code
			items[i].CourseName = course.Name
		}
		rosters = append(rosters, dto.CourseRoster{
			Course:      dto.NewCourseResponse(course),
			Enrollments: items,
		})
	}

	return dto.InstructorDashboardResponse{
		Instructor: dto.NewInstructorResponse(instructor),
		Courses:    rosters,
	}, nil
}

func (s *dashboardService) Student(ctx context.Context, caller policy.Caller) (dto.StudentDashboardResponse, error) {
	if !caller.IsStudent() {
		return dto.StudentDashboardResponse{}, authorize(policy.ErrDenied)
	}

	store := s.stores.For(caller)
	courses, err := store.Courses().List(ctx, repository.CourseFilter{})
	if err != nil {
		return dto.StudentDashboardResponse{}, storeError(err, ErrStore)
	}

	enrollments, err := store.Enrollments().List(ctx, repository.EnrollmentFilter{StudentID: caller.ID})
	if err != nil {
		return dto.StudentDashboardResponse{}, storeError(err, ErrStore)
	}

	held := make(map[uint]models.Enrollment, len(enrollments))
	for _, enrollment := range enrollments {
		held[enrollment.CourseID] = enrollment
	}

	views := make([]dto.StudentCourseView, 0, len(courses))
	byID := make(map[uint]models.Course, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
		enrollment, hasRow := held[course.ID]
		views = append(views, dto.StudentCourseView{
			CourseResponse: dto.NewCourseResponse(course),
			Enrolled:       hasRow && enrollment.Status.CountsTowardCapacity(),
			CanEnroll:      !hasRow && !course.IsFull(),
		})
	}

	mine := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		item := dto.NewEnrollmentResponse(enrollment)
		if course, ok := byID[enrollment.CourseID]; ok {
			item.CourseCode = course.Code
			item.CourseName = course.Name
		}
		mine = append(mine, item)
	}

	return dto.StudentDashboardResponse{Courses: views, Enrollments: mine}, nil
}

func (s *dashboardService) performerName(ctx context.Context, caller policy.Caller, id string, names map[string]string) string {
	if id == "" {
		return unknownPerformer
	}
	if name, ok := names[id]; ok {
		return name
	}

	name := unknownPerformer
	lookup, err := s.profiles.LookupDirect(ctx, caller, id)
	switch {
	case err == nil:
		name = lookup.Name
	case errors.Is(err, ErrNotFound):
	default:
		s.logger.Warn().Err(err).Str("performed_by", id).Msg("failed to resolve performer name")
	}
	names[id] = name
	return name
}

// studentNames resolves the display name of every student in enrollments.
func studentNames(ctx context.Context, store repository.Store, enrollments []models.Enrollment) (map[string]string, error) {
	ids := make([]string, 0, len(enrollments))
	seen := make(map[string]struct{}, len(enrollments))
	for _, enrollment := range enrollments {
		if _, ok := seen[enrollment.StudentID]; ok {
			continue
		}
		seen[enrollment.StudentID] = struct{}{}
		ids = append(ids, enrollment.StudentID)
	}

	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	students, err := store.Students().ListByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err, ErrStore)
	}
	for _, student := range students {
		names[student.ID] = student.Name
	}
	return names, nil
}
