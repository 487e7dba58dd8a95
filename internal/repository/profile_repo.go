package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs a profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return models.Profile{}, translateError(err)
	}
	return profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return translateError(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *profileRepository) Update(ctx context.Context, id string, update ProfileUpdate) (models.Profile, error) {
	if !update.Empty() {
		result := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(update.columns())
		if result.Error != nil {
			return models.Profile{}, translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.Profile{}, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *profileRepository) LookupDirect(ctx context.Context, id string) (ProfileLookup, error) {
	var lookup ProfileLookup
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Select("id", "email", "name", "role").
		Where("id = ?", id).
		Limit(1).
		Scan(&lookup)
	if result.Error != nil {
		return ProfileLookup{}, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ProfileLookup{}, ErrNotFound
	}
	return lookup, nil
}
