package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type demoProfileRepository struct {
	store *demoStore
}

func (r *demoProfileRepository) Get(ctx context.Context, id string) (models.Profile, error) {
	var found models.Profile
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Profile](ctx, r.store, tableProfiles)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID == id {
				found = row
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *demoProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Profile](ctx, r.store, tableProfiles)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID == profile.ID {
				return fmt.Errorf("%w: profile %s", ErrDuplicate, profile.ID)
			}
		}
		now := r.store.stores.now().UTC()
		profile.CreatedAt, profile.UpdatedAt = now, now
		return saveRows(ctx, r.store, tableProfiles, append(rows, *profile))
	})
}

func (r *demoProfileRepository) Update(ctx context.Context, id string, update ProfileUpdate) (models.Profile, error) {
	var updated models.Profile
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Profile](ctx, r.store, tableProfiles)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID != id {
				continue
			}
			if !update.Empty() {
				update.Apply(&rows[i])
				rows[i].UpdatedAt = r.store.stores.now().UTC()
				if err := saveRows(ctx, r.store, tableProfiles, rows); err != nil {
					return err
				}
			}
			updated = rows[i]
			return nil
		}
		return ErrNotFound
	})
	return updated, err
}

func (r *demoProfileRepository) LookupDirect(ctx context.Context, id string) (ProfileLookup, error) {
	profile, err := r.Get(ctx, id)
	if err != nil {
		return ProfileLookup{}, err
	}
	return ProfileLookup{ID: profile.ID, Email: profile.Email, Name: profile.Name, Role: profile.Role}, nil
}

type demoStudentRepository struct {
	store *demoStore
}

func (r *demoStudentRepository) Get(ctx context.Context, id string) (models.Student, error) {
	var found models.Student
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Student](ctx, r.store, tableStudents)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID == id {
				found = row
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *demoStudentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	result := make([]models.Student, 0, len(ids))
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Student](ctx, r.store, tableStudents)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if _, ok := wanted[row.ID]; ok {
				result = append(result, row)
			}
		}
		return nil
	})
	sort.SliceStable(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, err
}

func (r *demoStudentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Student](ctx, r.store, tableStudents)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID == student.ID {
				return fmt.Errorf("%w: student %s", ErrDuplicate, student.ID)
			}
		}
		if student.Status == "" {
			student.Status = models.StudentStatusActive
		}
		now := r.store.stores.now().UTC()
		student.CreatedAt, student.UpdatedAt = now, now
		return saveRows(ctx, r.store, tableStudents, append(rows, *student))
	})
}

func (r *demoStudentRepository) Update(ctx context.Context, id string, update StudentUpdate) (models.Student, error) {
	var updated models.Student
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Student](ctx, r.store, tableStudents)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID != id {
				continue
			}
			if !update.Empty() {
				update.Apply(&rows[i])
				rows[i].UpdatedAt = r.store.stores.now().UTC()
				if err := saveRows(ctx, r.store, tableStudents, rows); err != nil {
					return err
				}
			}
			updated = rows[i]
			return nil
		}
		return ErrNotFound
	})
	return updated, err
}

type demoInstructorRepository struct {
	store *demoStore
}

func (r *demoInstructorRepository) Get(ctx context.Context, id string) (models.Instructor, error) {
	var found models.Instructor
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Instructor](ctx, r.store, tableInstructors)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID == id {
				found = row
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *demoInstructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	var rows []models.Instructor
	err := r.store.run(ctx, func() error {
		var err error
		rows, err = loadRows[models.Instructor](ctx, r.store, tableInstructors)
		return err
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, err
}

func (r *demoInstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Instructor](ctx, r.store, tableInstructors)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID == instructor.ID {
				return fmt.Errorf("%w: instructor %s", ErrDuplicate, instructor.ID)
			}
		}
		now := r.store.stores.now().UTC()
		instructor.CreatedAt, instructor.UpdatedAt = now, now
		return saveRows(ctx, r.store, tableInstructors, append(rows, *instructor))
	})
}

func (r *demoInstructorRepository) Update(ctx context.Context, id string, update InstructorUpdate) (models.Instructor, error) {
	var updated models.Instructor
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Instructor](ctx, r.store, tableInstructors)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID != id {
				continue
			}
			if !update.Empty() {
				update.Apply(&rows[i])
				rows[i].UpdatedAt = r.store.stores.now().UTC()
				if err := saveRows(ctx, r.store, tableInstructors, rows); err != nil {
					return err
				}
			}
			updated = rows[i]
			return nil
		}
		return ErrNotFound
	})
	return updated, err
}

type demoCourseRepository struct {
	store *demoStore
}

func (r *demoCourseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	result := make([]models.Course, 0)
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Course](ctx, r.store, tableCourses)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if filter.InstructorID != "" && row.InstructorID != filter.InstructorID {
				continue
			}
			if filter.Department != "" && row.Department != filter.Department {
				continue
			}
			result = append(result, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *demoCourseRepository) Get(ctx context.Context, id uint) (models.Course, error) {
	var found models.Course
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Course](ctx, r.store, tableCourses)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID == id {
				found = row
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *demoCourseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Course](ctx, r.store, tableCourses)
		if err != nil {
			return err
		}
		var maxID uint
		for _, row := range rows {
			if strings.EqualFold(row.Code, course.Code) {
				return fmt.Errorf("%w: course code %s", ErrDuplicate, course.Code)
			}
			if row.ID > maxID {
				maxID = row.ID
			}
		}
		now := r.store.stores.now().UTC()
		course.ID = maxID + 1
		course.CreatedAt, course.UpdatedAt = now, now
		return saveRows(ctx, r.store, tableCourses, append(rows, *course))
	})
}

func (r *demoCourseRepository) Update(ctx context.Context, id uint, update CourseUpdate) (models.Course, error) {
	var updated models.Course
	err := r.mutate(ctx, id, func(rows []models.Course, course *models.Course) error {
		if update.Code != nil {
			for _, row := range rows {
				if row.ID != id && strings.EqualFold(row.Code, *update.Code) {
					return fmt.Errorf("%w: course code %s", ErrDuplicate, *update.Code)
				}
			}
		}
		update.Apply(course)
		updated = *course
		return nil
	})
	return updated, err
}

func (r *demoCourseRepository) Delete(ctx context.Context, id uint) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Course](ctx, r.store, tableCourses)
		if err != nil {
			return err
		}
		kept := make([]models.Course, 0, len(rows))
		for _, row := range rows {
			if row.ID != id {
				kept = append(kept, row)
			}
		}
		if len(kept) == len(rows) {
			return ErrNotFound
		}

		enrollments, err := loadRows[models.Enrollment](ctx, r.store, tableEnrollments)
		if err != nil {
			return err
		}
		remaining := make([]models.Enrollment, 0, len(enrollments))
		for _, enrollment := range enrollments {
			if enrollment.CourseID != id {
				remaining = append(remaining, enrollment)
			}
		}

		if err := saveRows(ctx, r.store, tableEnrollments, remaining); err != nil {
			return err
		}
		return saveRows(ctx, r.store, tableCourses, kept)
	})
}

func (r *demoCourseRepository) IncrementIfAvailable(ctx context.Context, id uint) (bool, error) {
	incremented := false
	err := r.mutate(ctx, id, func(_ []models.Course, course *models.Course) error {
		if course.CurrentEnrollment >= course.MaxCapacity {
			return errNoChange
		}
		course.CurrentEnrollment++
		incremented = true
		return nil
	})
	return incremented, err
}

func (r *demoCourseRepository) Decrement(ctx context.Context, id uint) error {
	return r.mutate(ctx, id, func(_ []models.Course, course *models.Course) error {
		if course.CurrentEnrollment > 0 {
			course.CurrentEnrollment--
		}
		return nil
	})
}

func (r *demoCourseRepository) SetEnrollmentCount(ctx context.Context, id uint, count int) error {
	if count < 0 {
		count = 0
	}
	return r.mutate(ctx, id, func(_ []models.Course, course *models.Course) error {
		course.CurrentEnrollment = count
		return nil
	})
}

// mutate loads the course table, applies fn to the course with id and saves
// the table. fn may return errNoChange to skip the write.
func (r *demoCourseRepository) mutate(ctx context.Context, id uint, fn func(rows []models.Course, course *models.Course) error) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Course](ctx, r.store, tableCourses)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID != id {
				continue
			}
			if err := fn(rows, &rows[i]); err != nil {
				if errors.Is(err, errNoChange) {
					return nil
				}
				return err
			}
			rows[i].UpdatedAt = r.store.stores.now().UTC()
			return saveRows(ctx, r.store, tableCourses, rows)
		}
		return ErrNotFound
	})
}

type demoEnrollmentRepository struct {
	store *demoStore
}

func (r *demoEnrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error) {
	courses := make(map[uint]struct{}, len(filter.CourseIDs))
	for _, id := range filter.CourseIDs {
		courses[id] = struct{}{}
	}

	result := make([]models.Enrollment, 0)
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Enrollment](ctx, r.store, tableEnrollments)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if len(courses) > 0 {
				if _, ok := courses[row.CourseID]; !ok {
					continue
				}
			}
			if filter.StudentID != "" && row.StudentID != filter.StudentID {
				continue
			}
			if filter.Status != "" && row.Status != filter.Status {
				continue
			}
			result = append(result, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].EnrolledAt.Equal(result[j].EnrolledAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].EnrolledAt.After(result[j].EnrolledAt)
	})
	return result, nil
}

func (r *demoEnrollmentRepository) Get(ctx context.Context, id uint) (models.Enrollment, error) {
	return r.find(ctx, func(row models.Enrollment) bool { return row.ID == id })
}

func (r *demoEnrollmentRepository) Find(ctx context.Context, courseID uint, studentID string) (models.Enrollment, error) {
	return r.find(ctx, func(row models.Enrollment) bool {
		return row.CourseID == courseID && row.StudentID == studentID
	})
}

func (r *demoEnrollmentRepository) find(ctx context.Context, match func(models.Enrollment) bool) (models.Enrollment, error) {
	var found models.Enrollment
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Enrollment](ctx, r.store, tableEnrollments)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if match(row) {
				found = row
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *demoEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Enrollment](ctx, r.store, tableEnrollments)
		if err != nil {
			return err
		}
		var maxID uint
		for _, row := range rows {
			if row.CourseID == enrollment.CourseID && row.StudentID == enrollment.StudentID {
				return fmt.Errorf("%w: enrollment course=%d student=%s", ErrDuplicate, enrollment.CourseID, enrollment.StudentID)
			}
			if row.ID > maxID {
				maxID = row.ID
			}
		}

		now := r.store.stores.now().UTC()
		enrollment.ID = maxID + 1
		if enrollment.EnrolledAt.IsZero() {
			enrollment.EnrolledAt = now
		}
		if enrollment.LastAccessedAt.IsZero() {
			enrollment.LastAccessedAt = now
		}
		enrollment.UpdatedAt = now
		return saveRows(ctx, r.store, tableEnrollments, append(rows, *enrollment))
	})
}

func (r *demoEnrollmentRepository) Delete(ctx context.Context, id uint) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.Enrollment](ctx, r.store, tableEnrollments)
		if err != nil {
			return err
		}
		kept := make([]models.Enrollment, 0, len(rows))
		for _, row := range rows {
			if row.ID != id {
				kept = append(kept, row)
			}
		}
		if len(kept) == len(rows) {
			return ErrNotFound
		}
		return saveRows(ctx, r.store, tableEnrollments, kept)
	})
}

func (r *demoEnrollmentRepository) UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) (models.Enrollment, error) {
	var updated models.Enrollment
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Enrollment](ctx, r.store, tableEnrollments)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID != id {
				continue
			}
			now := r.store.stores.now().UTC()
			rows[i].Status = status
			rows[i].LastAccessedAt = now
			rows[i].UpdatedAt = now
			updated = rows[i]
			return saveRows(ctx, r.store, tableEnrollments, rows)
		}
		return ErrNotFound
	})
	return updated, err
}

func (r *demoEnrollmentRepository) CountEnrolled(ctx context.Context) (map[uint]int, error) {
	counts := make(map[uint]int)
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.Enrollment](ctx, r.store, tableEnrollments)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.Status.CountsTowardCapacity() {
				counts[row.CourseID]++
			}
		}
		return nil
	})
	return counts, err
}

type demoActionLogRepository struct {
	store *demoStore
}

func (r *demoActionLogRepository) Append(ctx context.Context, entry *models.ActionLog) error {
	return r.store.run(ctx, func() error {
		rows, err := loadRows[models.ActionLog](ctx, r.store, tableActionLogs)
		if err != nil {
			return err
		}
		var maxID uint
		for _, row := range rows {
			if row.ID > maxID {
				maxID = row.ID
			}
		}
		entry.ID = maxID + 1
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = r.store.stores.now().UTC()
		}
		return saveRows(ctx, r.store, tableActionLogs, append(rows, *entry))
	})
}

func (r *demoActionLogRepository) List(ctx context.Context, filter ActionLogFilter) ([]models.ActionLog, error) {
	result := make([]models.ActionLog, 0)
	err := r.store.run(ctx, func() error {
		rows, err := loadRows[models.ActionLog](ctx, r.store, tableActionLogs)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if filter.Action != "" && row.Action != filter.Action {
				continue
			}
			if filter.PerformedBy != "" && row.PerformedBy != filter.PerformedBy {
				continue
			}
			result = append(result, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}
