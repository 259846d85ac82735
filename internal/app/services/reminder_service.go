package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/app/repositories"
	"github.com/oguzk/tutorhub/internal/pkg/email"
)

// ReminderSummary is the aggregate result of one reminder delivery run
type ReminderSummary struct {
	UpcomingClassCount int      `json:"upcomingClassCount"`
	SentEmailCount     int      `json:"sentEmailCount"`
	Errors             []string `json:"errors"`
}

// ReminderService delivers upcoming-class reminder emails to enrolled
// students and course owners
type ReminderService struct {
	courseRepo     *repositories.CourseRepository
	enrollmentRepo *repositories.EnrollmentRepository
	userRepo       *repositories.UserRepository
	emailService   email.Service
	leadTime       time.Duration
	logger         zerolog.Logger
	clock          func() time.Time
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	courseRepo *repositories.CourseRepository,
	enrollmentRepo *repositories.EnrollmentRepository,
	userRepo *repositories.UserRepository,
	emailService email.Service,
	leadTime time.Duration,
	logger zerolog.Logger,
) *ReminderService {
	if leadTime <= 0 {
		leadTime = 24 * time.Hour
	}
	return &ReminderService{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		leadTime:       leadTime,
		logger:         logger,
		clock:          time.Now,
	}
}

// Run sends reminders for every class starting within the lead-time window.
// Each email is independent; a failed send is recorded and the run continues.
func (s *ReminderService) Run(ctx context.Context) *ReminderSummary {
	summary := &ReminderSummary{Errors: []string{}}
	now := s.clock()

	classes, err := s.courseRepo.GetClassesStartingBetween(ctx, now, now.Add(s.leadTime))
	if err != nil {
		s.logger.Error().Err(err).Msg("Reminder run aborted: failed to load upcoming classes")
		summary.Errors = append(summary.Errors, err.Error())
		return summary
	}
	summary.UpcomingClassCount = len(classes)

	for _, class := range classes {
		course, err := s.courseRepo.GetByID(ctx, class.CourseID)
		if err != nil {
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}

		for _, recipient := range s.recipients(ctx, course, summary) {
			if err := s.emailService.SendClassReminderEmail(recipient.Email, recipient.FullName(), course.Title, class.StartsAt); err != nil {
				s.logger.Error().
					Err(err).
					Int64("classID", class.ID).
					Str("toEmail", recipient.Email).
					Msg("Failed to send class reminder")
				summary.Errors = append(summary.Errors, err.Error())
				continue
			}
			summary.SentEmailCount++
		}
	}

	s.logger.Info().
		Int("upcomingClasses", summary.UpcomingClassCount).
		Int("sentEmails", summary.SentEmailCount).
		Int("errors", len(summary.Errors)).
		Msg("Class reminder run completed")

	return summary
}

// recipients collects the course owner and every approved student
func (s *ReminderService) recipients(ctx context.Context, course *models.Course, summary *ReminderSummary) []*models.User {
	var users []*models.User

	owner, err := s.userRepo.GetByID(ctx, course.OwnerID)
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
	} else {
		users = append(users, owner)
	}

	enrollments, err := s.enrollmentRepo.GetByCourseID(ctx, course.ID)
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
		return users
	}

	for _, enrollment := range enrollments {
		if enrollment.Status != models.EnrollmentApproved {
			continue
		}
		student, err := s.userRepo.GetByID(ctx, enrollment.UserID)
		if err != nil {
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}
		users = append(users, student)
	}

	return users
}
