package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/app/models/dto"
	"github.com/oguzk/tutorhub/internal/app/repositories"
	"github.com/oguzk/tutorhub/internal/pkg/apperrors"
)

// EnrollmentService handles enrollment request operations
type EnrollmentService struct {
	enrollmentRepo *repositories.EnrollmentRepository
	courseRepo     *repositories.CourseRepository
	logger         zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	enrollmentRepo *repositories.EnrollmentRepository,
	courseRepo *repositories.CourseRepository,
	logger zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		logger:         logger,
	}
}

// RequestEnrollment files a pending enrollment request for the caller
func (s *EnrollmentService) RequestEnrollment(ctx context.Context, courseID, userID int64) (*dto.EnrollmentResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID == userID {
		return nil, apperrors.ErrOwnCourseEnrollment
	}
	if course.IsCompleted {
		return nil, apperrors.ErrCourseCompleted
	}

	// A rejected request blocks re-application; only a missing request may proceed
	existing, err := s.enrollmentRepo.GetByCourseAndUser(ctx, courseID, userID)
	if err != nil && !errors.Is(err, apperrors.ErrEnrollmentNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrEnrollmentAlreadyExists
	}

	enrollment := &models.Enrollment{
		CourseID: courseID,
		UserID:   userID,
		Status:   models.EnrollmentPending,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", courseID).Int64("userID", userID).Msg("Enrollment requested")

	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// ListCourseEnrollments retrieves the enrollment requests for a course. Only
// the course owner may see them.
func (s *EnrollmentService) ListCourseEnrollments(ctx context.Context, courseID, callerID int64) ([]dto.EnrollmentResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != callerID {
		return nil, apperrors.ErrNotCourseOwner
	}

	enrollments, err := s.enrollmentRepo.GetByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}
	return responses, nil
}

// ListUserEnrollments retrieves the caller's enrollment requests
func (s *EnrollmentService) ListUserEnrollments(ctx context.Context, userID int64) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}
	return responses, nil
}

// Decide approves or rejects a pending enrollment request. Only the owner of
// the course the request targets may decide it.
func (s *EnrollmentService) Decide(ctx context.Context, enrollmentID, callerID int64, approve bool) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != callerID {
		return nil, apperrors.ErrNotCourseOwner
	}

	status := models.EnrollmentRejected
	if approve {
		status = models.EnrollmentApproved
	}

	if err := s.enrollmentRepo.Decide(ctx, enrollmentID, status); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("enrollmentID", enrollmentID).
		Str("status", string(status)).
		Msg("Enrollment decided")

	decided, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	resp := dto.NewEnrollmentResponse(decided)
	return &resp, nil
}
