package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolationCode is the Postgres SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

type gormStore struct {
	db *gorm.DB
}

// NewGormStore constructs the durable store over a gorm connection.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Kind() string { return StoreKindDurable }

func (s *gormStore) Profiles() ProfileRepository { return NewProfileRepository(s.db) }

func (s *gormStore) Students() StudentRepository { return NewStudentRepository(s.db) }

func (s *gormStore) Instructors() InstructorRepository { return NewInstructorRepository(s.db) }

func (s *gormStore) Courses() CourseRepository { return NewCourseRepository(s.db) }

func (s *gormStore) Enrollments() EnrollmentRepository { return NewEnrollmentRepository(s.db) }

func (s *gormStore) ActionLogs() ActionLogRepository { return NewActionLogRepository(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// translateError maps driver errors onto the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	// sqlite reports constraint failures only through the message when error
	// translation is disabled on the gorm config.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
