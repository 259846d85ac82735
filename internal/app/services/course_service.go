package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/app/models/dto"
	"github.com/oguzk/tutorhub/internal/app/repositories"
	"github.com/oguzk/tutorhub/internal/pkg/apperrors"
)

// CourseService handles course and class operations
type CourseService struct {
	courseRepo *repositories.CourseRepository
	userRepo   *repositories.UserRepository
	logger     zerolog.Logger
	clock      func() time.Time
}

// NewCourseService creates a new CourseService
func NewCourseService(courseRepo *repositories.CourseRepository, userRepo *repositories.UserRepository, logger zerolog.Logger) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		userRepo:   userRepo,
		logger:     logger,
		clock:      time.Now,
	}
}

// requireOwnedCourse loads a course and checks the caller owns it
func (s *CourseService) requireOwnedCourse(ctx context.Context, courseID, ownerID int64) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != ownerID {
		return nil, apperrors.ErrNotCourseOwner
	}
	return course, nil
}

// CreateCourse creates a new course owned by the caller
func (s *CourseService) CreateCourse(ctx context.Context, ownerID int64, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", course.ID).Int64("ownerID", ownerID).Msg("Course created")

	resp := dto.NewCourseResponse(course, s.clock())
	return &resp, nil
}

// ListCourses retrieves every course with its schedule
func (s *CourseService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courseRepo.GetAllWithClasses(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course, now))
	}
	return responses, nil
}

// ListOwnedCourses retrieves the caller's own courses
func (s *CourseService) ListOwnedCourses(ctx context.Context, ownerID int64) ([]dto.CourseResponse, error) {
	courses, err := s.courseRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course, now))
	}
	return responses, nil
}

// GetCourse retrieves a single course with its schedule
func (s *CourseService) GetCourse(ctx context.Context, courseID int64) (*dto.CourseResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if owner, err := s.userRepo.GetByID(ctx, course.OwnerID); err == nil {
		course.Owner = owner
	}

	resp := dto.NewCourseResponse(course, s.clock())
	return &resp, nil
}

// UpdateCourse updates a course's title and description. A title change is
// propagated to the guild by the next reconciliation run.
func (s *CourseService) UpdateCourse(ctx context.Context, courseID, ownerID int64, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.requireOwnedCourse(ctx, courseID, ownerID)
	if err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	return s.GetCourse(ctx, courseID)
}

// CompleteCourse marks a course as finished
func (s *CourseService) CompleteCourse(ctx context.Context, courseID, ownerID int64) (*dto.CourseResponse, error) {
	course, err := s.requireOwnedCourse(ctx, courseID, ownerID)
	if err != nil {
		return nil, err
	}
	if course.IsCompleted {
		return nil, apperrors.ErrCourseCompleted
	}

	if err := s.courseRepo.MarkCompleted(ctx, courseID); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", courseID).Msg("Course completed")
	return s.GetCourse(ctx, courseID)
}

// DeleteCourse removes a course and its schedule
func (s *CourseService) DeleteCourse(ctx context.Context, courseID, ownerID int64) error {
	if _, err := s.requireOwnedCourse(ctx, courseID, ownerID); err != nil {
		return err
	}

	if err := s.courseRepo.Delete(ctx, courseID); err != nil {
		return err
	}

	s.logger.Info().Int64("courseID", courseID).Msg("Course deleted")
	return nil
}

// AddClass schedules a new class session on a course
func (s *CourseService) AddClass(ctx context.Context, courseID, ownerID int64, req *dto.ClassRequest) (*dto.ClassResponse, error) {
	course, err := s.requireOwnedCourse(ctx, courseID, ownerID)
	if err != nil {
		return nil, err
	}
	if course.IsCompleted {
		return nil, apperrors.ErrCourseCompleted
	}

	class := &models.Class{
		CourseID:      courseID,
		Topic:         req.Topic,
		StartsAt:      req.StartsAt,
		DurationHours: req.DurationHours,
	}
	if err := s.courseRepo.AddClass(ctx, class); err != nil {
		return nil, err
	}

	resp := dto.NewClassResponse(class)
	return &resp, nil
}

// UpdateClass updates a class session's topic and schedule
func (s *CourseService) UpdateClass(ctx context.Context, courseID, classID, ownerID int64, req *dto.ClassRequest) (*dto.ClassResponse, error) {
	if _, err := s.requireOwnedCourse(ctx, courseID, ownerID); err != nil {
		return nil, err
	}

	class, err := s.courseRepo.GetClassByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.CourseID != courseID {
		return nil, apperrors.ErrClassNotFound
	}

	class.Topic = req.Topic
	class.StartsAt = req.StartsAt
	class.DurationHours = req.DurationHours
	if err := s.courseRepo.UpdateClass(ctx, class); err != nil {
		return nil, err
	}

	resp := dto.NewClassResponse(class)
	return &resp, nil
}

// DeleteClass removes a class session
func (s *CourseService) DeleteClass(ctx context.Context, courseID, classID, ownerID int64) error {
	if _, err := s.requireOwnedCourse(ctx, courseID, ownerID); err != nil {
		return err
	}

	class, err := s.courseRepo.GetClassByID(ctx, classID)
	if err != nil {
		return err
	}
	if class.CourseID != courseID {
		return apperrors.ErrClassNotFound
	}

	return s.courseRepo.DeleteClass(ctx, classID)
}
