package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if filter.InstructorID != "" {
		query = query.Where("instructor_id = ?", filter.InstructorID)
	}

	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Order("id DESC").Find(&courses).Error; err != nil {
		return nil, translateError(err)
	}
	return courses, nil
}

func (r *courseRepository) Get(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, translateError(err)
	}
	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return translateError(r.db.WithContext(ctx).Create(course).Error)
}

func (r *courseRepository) Update(ctx context.Context, id uint, update CourseUpdate) (models.Course, error) {
	if !update.Empty() {
		result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(update.columns())
		if result.Error != nil {
			return models.Course{}, translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.Course{}, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return translateError(err)
		}

		result := tx.Delete(&models.Course{}, id)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *courseRepository) IncrementIfAvailable(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", id).
		Where("current_enrollment < max_capacity").
		Update("current_enrollment", gorm.Expr("current_enrollment + ?", 1))
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *courseRepository) Decrement(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", id).
		Update("current_enrollment", gorm.Expr("CASE WHEN current_enrollment > 0 THEN current_enrollment - 1 ELSE 0 END"))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *courseRepository) SetEnrollmentCount(ctx context.Context, id uint, count int) error {
	if count < 0 {
		count = 0
	}
	result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Update("current_enrollment", count)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
