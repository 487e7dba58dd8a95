package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// AccountRepository persists the trusted identity records. It is only
// available on the durable store.
type AccountRepository interface {
	Get(ctx context.Context, id string) (models.Account, error)
	GetByEmail(ctx context.Context, email string) (models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository constructs an account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, id string) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return models.Account{}, translateError(err)
	}
	return account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error
	if err != nil {
		return models.Account{}, translateError(err)
	}
	return account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return translateError(r.db.WithContext(ctx).Create(account).Error)
}
