package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassEndsAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	class := Class{StartsAt: start, DurationHours: 1.5}
	assert.Equal(t, start.Add(90*time.Minute), class.EndsAt())
}

func TestCourseIsArchived(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name   string
		course Course
		want   bool
	}{
		{
			name:   "completed flag wins regardless of classes",
			course: Course{IsCompleted: true, Classes: []Class{{StartsAt: future, DurationHours: 1}}},
			want:   true,
		},
		{
			name:   "no classes and not completed",
			course: Course{},
			want:   false,
		},
		{
			name:   "all classes ended",
			course: Course{Classes: []Class{{StartsAt: past, DurationHours: 1}, {StartsAt: past.Add(-time.Hour), DurationHours: 2}}},
			want:   true,
		},
		{
			name:   "one class still upcoming",
			course: Course{Classes: []Class{{StartsAt: past, DurationHours: 1}, {StartsAt: future, DurationHours: 1}}},
			want:   false,
		},
		{
			name: "class running right now",
			course: Course{Classes: []Class{
				{StartsAt: now.Add(-30 * time.Minute), DurationHours: 1},
			}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.course.IsArchived(now))
		})
	}
}

func TestUserEffectiveRole(t *testing.T) {
	tests := []struct {
		name         string
		user         User
		founderEmail string
		want         Role
	}{
		{"founder email match", User{Email: "boss@example.com", RoleType: RoleStudent}, "boss@example.com", RoleFounder},
		{"founder match is case insensitive", User{Email: "Boss@Example.com", RoleType: RoleTutor}, "boss@example.com", RoleFounder},
		{"stored tutor", User{Email: "t@example.com", RoleType: RoleTutor}, "boss@example.com", RoleTutor},
		{"stored student", User{Email: "s@example.com", RoleType: RoleStudent}, "boss@example.com", RoleStudent},
		{"unknown stored role defaults to student", User{Email: "x@example.com", RoleType: "ADMIN"}, "", RoleStudent},
		{"empty founder email never elevates", User{Email: "", RoleType: RoleStudent}, "", RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.EffectiveRole(tt.founderEmail))
		})
	}
}

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())

	u = User{FirstName: "Ada"}
	assert.Equal(t, "Ada", u.FullName())
}
