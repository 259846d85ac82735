package models

import (
	"time"
)

// Enrollment defines an enrollment request linking a student to a course,
// based on the 'course_enrollments' table
type Enrollment struct {
	ID        int64            `json:"id" db:"id"`
	CourseID  int64            `json:"courseId" db:"course_id"`
	UserID    int64            `json:"userId" db:"user_id"`
	Status    EnrollmentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	DecidedAt *time.Time       `json:"decidedAt,omitempty" db:"decided_at"`
	User      *User            `json:"user,omitempty"`   // Relation, no db tag
	Course    *Course          `json:"course,omitempty"` // Relation, no db tag
}
