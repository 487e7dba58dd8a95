package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error) {
	query := r.db.WithContext(ctx).Model(&models.Enrollment{})

	if len(filter.CourseIDs) > 0 {
		query = query.Where("course_id IN ?", filter.CourseIDs)
	}

	if filter.StudentID != "" {
		query = query.Where("student_id = ?", filter.StudentID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var enrollments []models.Enrollment
	if err := query.Order("enrolled_at DESC").Order("id DESC").Find(&enrollments).Error; err != nil {
		return nil, translateError(err)
	}
	return enrollments, nil
}

func (r *enrollmentRepository) Get(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, translateError(err)
	}
	return enrollment, nil
}

func (r *enrollmentRepository) Find(ctx context.Context, courseID uint, studentID string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, translateError(err)
	}
	return enrollment, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	if enrollment.LastAccessedAt.IsZero() {
		enrollment.LastAccessedAt = now
	}
	return translateError(r.db.WithContext(ctx).Create(enrollment).Error)
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Enrollment{}, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) (models.Enrollment, error) {
	result := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           status,
			"last_accessed_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return models.Enrollment{}, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.Enrollment{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *enrollmentRepository) CountEnrolled(ctx context.Context) (map[uint]int, error) {
	var rows []struct {
		CourseID uint
		Total    int
	}
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS total").
		Where("status = ?", models.EnrollmentStatusEnrolled).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	return counts, nil
}
