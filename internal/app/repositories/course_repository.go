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
)

// CourseRepository handles course and class database operations
type CourseRepository struct {
	db *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
	}
}

// Create creates a new course and assigns the generated id
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO courses (title, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		course.Title, course.Description, course.OwnerID).Scan(
		&course.ID, &course.CreatedAt, &course.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error creating course: %w", err)
	}

	return nil
}

// GetByID retrieves a course with its classes
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	course := &models.Course{}
	err := r.db.QueryRow(ctx, `
		SELECT id, title, description, owner_id, is_completed, created_at, updated_at
		FROM courses
		WHERE id = $1`,
		id).Scan(
		&course.ID, &course.Title, &course.Description, &course.OwnerID,
		&course.IsCompleted, &course.CreatedAt, &course.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	classes, err := r.getClassesByCourseIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	course.Classes = classes[id]

	return course, nil
}

// GetAllWithClasses retrieves every course with its classes attached
func (r *CourseRepository) GetAllWithClasses(ctx context.Context) ([]*models.Course, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, owner_id, is_completed, created_at, updated_at
		FROM courses
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	var ids []int64
	for rows.Next() {
		course := &models.Course{}
		err := rows.Scan(
			&course.ID, &course.Title, &course.Description, &course.OwnerID,
			&course.IsCompleted, &course.CreatedAt, &course.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
		ids = append(ids, course.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	if len(ids) == 0 {
		return courses, nil
	}

	classes, err := r.getClassesByCourseIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, course := range courses {
		course.Classes = classes[course.ID]
	}

	return courses, nil
}

// GetByOwnerID retrieves all courses owned by a tutor, classes included
func (r *CourseRepository) GetByOwnerID(ctx context.Context, ownerID int64) ([]*models.Course, error) {
	courses, err := r.GetAllWithClasses(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]*models.Course, 0, len(courses))
	for _, course := range courses {
		if course.OwnerID == ownerID {
			owned = append(owned, course)
		}
	}
	return owned, nil
}

// getClassesByCourseIDs loads classes for a set of courses in one query,
// grouped by course id and ordered by start time.
func (r *CourseRepository) getClassesByCourseIDs(ctx context.Context, courseIDs []int64) (map[int64][]models.Class, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, course_id, topic, starts_at, duration_hours
		FROM classes
		WHERE course_id = ANY($1)
		ORDER BY starts_at, id`,
		courseIDs)
	if err != nil {
		return nil, fmt.Errorf("error retrieving classes: %w", err)
	}
	defer rows.Close()

	classes := make(map[int64][]models.Class)
	for rows.Next() {
		var class models.Class
		err := rows.Scan(&class.ID, &class.CourseID, &class.Topic, &class.StartsAt, &class.DurationHours)
		if err != nil {
			return nil, fmt.Errorf("error scanning class row: %w", err)
		}
		classes[class.CourseID] = append(classes[class.CourseID], class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class rows: %w", err)
	}

	return classes, nil
}

// Update updates a course's title and description
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE courses
		SET title = $1, description = $2, updated_at = $3
		WHERE id = $4`,
		course.Title, course.Description, time.Now(), course.ID)

	if err != nil {
		return fmt.Errorf("error updating course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// MarkCompleted flags a course as finished
func (r *CourseRepository) MarkCompleted(ctx context.Context, courseID int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE courses
		SET is_completed = TRUE, updated_at = $1
		WHERE id = $2`,
		time.Now(), courseID)

	if err != nil {
		return fmt.Errorf("error completing course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// Delete removes a course; classes and enrollments cascade
func (r *CourseRepository) Delete(ctx context.Context, courseID int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		DELETE FROM courses
		WHERE id = $1`,
		courseID)

	if err != nil {
		return fmt.Errorf("error deleting course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// AddClass schedules a new class session for a course
func (r *CourseRepository) AddClass(ctx context.Context, class *models.Class) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO classes (course_id, topic, starts_at, duration_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		class.CourseID, class.Topic, class.StartsAt, class.DurationHours).Scan(&class.ID)

	if err != nil {
		return fmt.Errorf("error creating class: %w", err)
	}

	return nil
}

// GetClassByID retrieves a single class session
func (r *CourseRepository) GetClassByID(ctx context.Context, classID int64) (*models.Class, error) {
	class := &models.Class{}
	err := r.db.QueryRow(ctx, `
		SELECT id, course_id, topic, starts_at, duration_hours
		FROM classes
		WHERE id = $1`,
		classID).Scan(&class.ID, &class.CourseID, &class.Topic, &class.StartsAt, &class.DurationHours)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, fmt.Errorf("error retrieving class: %w", err)
	}

	return class, nil
}

// UpdateClass updates a class session's topic and schedule
func (r *CourseRepository) UpdateClass(ctx context.Context, class *models.Class) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE classes
		SET topic = $1, starts_at = $2, duration_hours = $3
		WHERE id = $4`,
		class.Topic, class.StartsAt, class.DurationHours, class.ID)

	if err != nil {
		return fmt.Errorf("error updating class: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrClassNotFound
	}

	return nil
}

// DeleteClass removes a class session
func (r *CourseRepository) DeleteClass(ctx context.Context, classID int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		DELETE FROM classes
		WHERE id = $1`,
		classID)

	if err != nil {
		return fmt.Errorf("error deleting class: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrClassNotFound
	}

	return nil
}

// GetClassesStartingBetween retrieves class sessions whose start time falls in
// the window, with course and owner attached. Used by reminder delivery.
func (r *CourseRepository) GetClassesStartingBetween(ctx context.Context, from, to time.Time) ([]*models.Class, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, course_id, topic, starts_at, duration_hours
		FROM classes
		WHERE starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at, id`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("error retrieving upcoming classes: %w", err)
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		class := &models.Class{}
		err := rows.Scan(&class.ID, &class.CourseID, &class.Topic, &class.StartsAt, &class.DurationHours)
		if err != nil {
			return nil, fmt.Errorf("error scanning class row: %w", err)
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class rows: %w", err)
	}

	return classes, nil
}
