package dto

import (
	"time"

	"github.com/oguzk/tutorhub/internal/app/models"
)

// CreateCourseRequest represents course creation data
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=150"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateCourseRequest represents course update data
type UpdateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=150"`
	Description string `json:"description" binding:"max=2000"`
}

// ClassRequest represents class session creation or update data
type ClassRequest struct {
	Topic         string    `json:"topic" binding:"required,max=200"`
	StartsAt      time.Time `json:"startsAt" binding:"required"`
	DurationHours float64   `json:"durationHours" binding:"required,gt=0,lte=12"`
}

// ClassResponse represents a scheduled class session
type ClassResponse struct {
	ID            int64     `json:"id"`
	CourseID      int64     `json:"courseId"`
	Topic         string    `json:"topic"`
	StartsAt      time.Time `json:"startsAt"`
	EndsAt        time.Time `json:"endsAt"`
	DurationHours float64   `json:"durationHours"`
}

// NewClassResponse maps a class session to its response form
func NewClassResponse(class *models.Class) ClassResponse {
	return ClassResponse{
		ID:            class.ID,
		CourseID:      class.CourseID,
		Topic:         class.Topic,
		StartsAt:      class.StartsAt,
		EndsAt:        class.EndsAt(),
		DurationHours: class.DurationHours,
	}
}

// CourseResponse represents a course with its schedule
type CourseResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OwnerID     int64           `json:"ownerId"`
	OwnerName   string          `json:"ownerName,omitempty"`
	IsCompleted bool            `json:"isCompleted"`
	IsArchived  bool            `json:"isArchived"`
	Classes     []ClassResponse `json:"classes"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewCourseResponse maps a course to its response form
func NewCourseResponse(course *models.Course, now time.Time) CourseResponse {
	resp := CourseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		OwnerID:     course.OwnerID,
		IsCompleted: course.IsCompleted,
		IsArchived:  course.IsArchived(now),
		Classes:     make([]ClassResponse, 0, len(course.Classes)),
		CreatedAt:   course.CreatedAt,
	}
	if course.Owner != nil {
		resp.OwnerName = course.Owner.FullName()
	}
	for i := range course.Classes {
		resp.Classes = append(resp.Classes, NewClassResponse(&course.Classes[i]))
	}
	return resp
}
