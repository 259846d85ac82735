package models

import (
	"time"
)

// Course defines the course model based on the 'courses' table
type Course struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	OwnerID     int64     `json:"ownerId" db:"owner_id"`
	IsCompleted bool      `json:"isCompleted" db:"is_completed"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Classes     []Class   `json:"classes,omitempty"` // Relation, no db tag
	Owner       *User     `json:"owner,omitempty"`   // Relation, no db tag
}

// Class defines a scheduled session within a course, based on the 'classes' table
type Class struct {
	ID            int64     `json:"id" db:"id"`
	CourseID      int64     `json:"courseId" db:"course_id"`
	Topic         string    `json:"topic" db:"topic"`
	StartsAt      time.Time `json:"startsAt" db:"starts_at"`
	DurationHours float64   `json:"durationHours" db:"duration_hours"`
}

// EndsAt returns the end time of the class session
func (c *Class) EndsAt() time.Time {
	return c.StartsAt.Add(time.Duration(c.DurationHours * float64(time.Hour)))
}

// IsArchived reports whether a course should be treated as finished: either
// explicitly marked completed, or every one of its classes has already ended.
// A course with no classes and no completion flag is still running.
func (c *Course) IsArchived(now time.Time) bool {
	if c.IsCompleted {
		return true
	}
	if len(c.Classes) == 0 {
		return false
	}
	for i := range c.Classes {
		if !c.Classes[i].EndsAt().Before(now) {
			return false
		}
	}
	return true
}
