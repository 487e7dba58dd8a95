package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type instructorRepository struct {
	db *gorm.DB
}

// NewInstructorRepository constructs an instructor repository.
func NewInstructorRepository(db *gorm.DB) InstructorRepository {
	return &instructorRepository{db: db}
}

func (r *instructorRepository) Get(ctx context.Context, id string) (models.Instructor, error) {
	var instructor models.Instructor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&instructor).Error; err != nil {
		return models.Instructor{}, translateError(err)
	}
	return instructor, nil
}

func (r *instructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	var instructors []models.Instructor
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&instructors).Error; err != nil {
		return nil, translateError(err)
	}
	return instructors, nil
}

func (r *instructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	return translateError(r.db.WithContext(ctx).Create(instructor).Error)
}

func (r *instructorRepository) Update(ctx context.Context, id string, update InstructorUpdate) (models.Instructor, error) {
	if !update.Empty() {
		result := r.db.WithContext(ctx).Model(&models.Instructor{}).Where("id = ?", id).Updates(update.columns())
		if result.Error != nil {
			return models.Instructor{}, translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.Instructor{}, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}
