package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/pkg/apperrors"
	"github.com/oguzk/tutorhub/internal/pkg/dberrors"
)

// EnrollmentRepository handles enrollment database operations
type EnrollmentRepository struct {
	db *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
	}
}

// Create creates a new pending enrollment request. A user can hold at most
// one request per course, enforced by a unique constraint.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO course_enrollments (course_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		enrollment.CourseID, enrollment.UserID, enrollment.Status).Scan(
		&enrollment.ID, &enrollment.CreatedAt)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrEnrollmentAlreadyExists
		}
		return fmt.Errorf("error creating enrollment: %w", err)
	}

	return nil
}

// GetByID retrieves an enrollment request
func (r *EnrollmentRepository) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}
	err := r.db.QueryRow(ctx, `
		SELECT id, course_id, user_id, status, created_at, decided_at
		FROM course_enrollments
		WHERE id = $1`,
		id).Scan(
		&enrollment.ID, &enrollment.CourseID, &enrollment.UserID,
		&enrollment.Status, &enrollment.CreatedAt, &enrollment.DecidedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error retrieving enrollment: %w", err)
	}

	return enrollment, nil
}

// GetByCourseAndUser retrieves a user's enrollment request for a course
func (r *EnrollmentRepository) GetByCourseAndUser(ctx context.Context, courseID, userID int64) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}
	err := r.db.QueryRow(ctx, `
		SELECT id, course_id, user_id, status, created_at, decided_at
		FROM course_enrollments
		WHERE course_id = $1 AND user_id = $2`,
		courseID, userID).Scan(
		&enrollment.ID, &enrollment.CourseID, &enrollment.UserID,
		&enrollment.Status, &enrollment.CreatedAt, &enrollment.DecidedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error retrieving enrollment: %w", err)
	}

	return enrollment, nil
}

// GetByCourseID retrieves all enrollment requests for a course with the
// requesting user attached
func (r *EnrollmentRepository) GetByCourseID(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.course_id, e.user_id, e.status, e.created_at, e.decided_at,
		       u.id, u.email, u.first_name, u.last_name
		FROM course_enrollments e
		JOIN users u ON u.id = e.user_id
		WHERE e.course_id = $1
		ORDER BY e.created_at, e.id`,
		courseID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving course enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		enrollment := &models.Enrollment{User: &models.User{}}
		err := rows.Scan(
			&enrollment.ID, &enrollment.CourseID, &enrollment.UserID,
			&enrollment.Status, &enrollment.CreatedAt, &enrollment.DecidedAt,
			&enrollment.User.ID, &enrollment.User.Email,
			&enrollment.User.FirstName, &enrollment.User.LastName)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}

	return enrollments, nil
}

// GetByUserID retrieves all of a user's enrollment requests with the course
// attached
func (r *EnrollmentRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Enrollment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.course_id, e.user_id, e.status, e.created_at, e.decided_at,
		       c.id, c.title, c.description, c.owner_id, c.is_completed
		FROM course_enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.created_at, e.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving user enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		enrollment := &models.Enrollment{Course: &models.Course{}}
		err := rows.Scan(
			&enrollment.ID, &enrollment.CourseID, &enrollment.UserID,
			&enrollment.Status, &enrollment.CreatedAt, &enrollment.DecidedAt,
			&enrollment.Course.ID, &enrollment.Course.Title, &enrollment.Course.Description,
			&enrollment.Course.OwnerID, &enrollment.Course.IsCompleted)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}

	return enrollments, nil
}

// GetByStatus retrieves every enrollment in the given state
func (r *EnrollmentRepository) GetByStatus(ctx context.Context, status models.EnrollmentStatus) ([]*models.Enrollment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, course_id, user_id, status, created_at, decided_at
		FROM course_enrollments
		WHERE status = $1
		ORDER BY id`,
		status)
	if err != nil {
		return nil, fmt.Errorf("error retrieving enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		enrollment := &models.Enrollment{}
		err := rows.Scan(
			&enrollment.ID, &enrollment.CourseID, &enrollment.UserID,
			&enrollment.Status, &enrollment.CreatedAt, &enrollment.DecidedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}

	return enrollments, nil
}

// Decide records the outcome of a pending enrollment request. Only pending
// requests can be decided; a decided request reports a conflict.
func (r *EnrollmentRepository) Decide(ctx context.Context, id int64, status models.EnrollmentStatus) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE course_enrollments
		SET status = $1, decided_at = $2
		WHERE id = $3 AND status = $4`,
		status, time.Now(), id, models.EnrollmentPending)

	if err != nil {
		return fmt.Errorf("error deciding enrollment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Either the request does not exist or it was already decided
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperrors.ErrEnrollmentDecided
	}

	return nil
}
