package dto

import (
	"time"

	"github.com/oguzk/tutorhub/internal/app/models"
)

// EnrollmentResponse represents an enrollment request
type EnrollmentResponse struct {
	ID          int64      `json:"id"`
	CourseID    int64      `json:"courseId"`
	CourseTitle string     `json:"courseTitle,omitempty"`
	UserID      int64      `json:"userId"`
	UserName    string     `json:"userName,omitempty"`
	UserEmail   string     `json:"userEmail,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

// NewEnrollmentResponse maps an enrollment to its response form, including
// whichever relations were loaded
func NewEnrollmentResponse(enrollment *models.Enrollment) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:        enrollment.ID,
		CourseID:  enrollment.CourseID,
		UserID:    enrollment.UserID,
		Status:    string(enrollment.Status),
		CreatedAt: enrollment.CreatedAt,
		DecidedAt: enrollment.DecidedAt,
	}
	if enrollment.Course != nil {
		resp.CourseTitle = enrollment.Course.Title
	}
	if enrollment.User != nil {
		resp.UserName = enrollment.User.FullName()
		resp.UserEmail = enrollment.User.Email
	}
	return resp
}
