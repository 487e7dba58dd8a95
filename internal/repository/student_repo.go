package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Get(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return models.Student{}, translateError(err)
	}

	return student, nil
}

func (r *studentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}

	var students []models.Student
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&students).Error; err != nil {
		return nil, translateError(err)
	}
	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	return translateError(r.db.WithContext(ctx).Create(student).Error)
}

func (r *studentRepository) Update(ctx context.Context, id string, update StudentUpdate) (models.Student, error) {
	if !update.Empty() {
		result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(update.columns())
		if result.Error != nil {
			return models.Student{}, translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.Student{}, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}
