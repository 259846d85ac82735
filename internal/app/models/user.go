package models

import (
	"strings"
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID            int64      `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	Password      string     `json:"-" db:"password"` // Hashed password, excluded from JSON
	FirstName     string     `json:"firstName" db:"first_name"`
	LastName      string     `json:"lastName" db:"last_name"`
	RoleType      Role       `json:"roleType" db:"role_type"` // Stored role: STUDENT or TUTOR
	DiscordUserID *string    `json:"discordUserId,omitempty" db:"discord_user_id"`
	EmailVerified bool       `json:"emailVerified" db:"email_verified"`
	IsActive      bool       `json:"isActive" db:"is_active"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// EffectiveRole resolves the role a user actually holds. A match against the
// configured founder email always wins; otherwise the stored role applies,
// defaulting to student.
func (u *User) EffectiveRole(founderEmail string) Role {
	if founderEmail != "" && strings.EqualFold(u.Email, founderEmail) {
		return RoleFounder
	}
	if u.RoleType == RoleTutor {
		return RoleTutor
	}
	return RoleStudent
}
