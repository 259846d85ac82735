package models

// Role represents a user's role on the platform
type Role string

const (
	// RoleStudent is the default role for registered users
	RoleStudent Role = "STUDENT"
	// RoleTutor marks users who can create and run courses
	RoleTutor Role = "TUTOR"
	// RoleFounder is never stored; it is derived from the configured founder email
	RoleFounder Role = "FOUNDER"
)

// EnrollmentStatus represents the state of an enrollment request
type EnrollmentStatus string

const (
	// EnrollmentPending means the request awaits a decision
	EnrollmentPending EnrollmentStatus = "PENDING"
	// EnrollmentApproved means the student was accepted into the course
	EnrollmentApproved EnrollmentStatus = "APPROVED"
	// EnrollmentRejected means the request was declined
	EnrollmentRejected EnrollmentStatus = "REJECTED"
)
