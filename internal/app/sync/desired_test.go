package sync

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/pkg/discord"
)

func strPtr(s string) *string { return &s }

func TestParseTopicMarker(t *testing.T) {
	tests := []struct {
		name   string
		topic  string
		wantID int64
		wantOK bool
	}{
		{"valid marker", "[course:42]", 42, true},
		{"marker with trailing text", "[course:7] algebra study group", 7, true},
		{"no marker", "algebra study group", 0, false},
		{"empty topic", "", 0, false},
		{"unclosed marker", "[course:42", 0, false},
		{"empty id", "[course:]", 0, false},
		{"non-numeric id", "[course:abc]", 0, false},
		{"zero id", "[course:0]", 0, false},
		{"negative id", "[course:-3]", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseTopicMarker(tt.topic)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCourseTopicMarkerRoundTrip(t *testing.T) {
	marker := CourseTopicMarker(123)
	id, ok := ParseTopicMarker(marker)
	require.True(t, ok)
	assert.Equal(t, int64(123), id)
}

func TestBuildPlanIdentities(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Users: []models.User{
			{ID: 1, Email: "founder@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-founder")},
			{ID: 2, Email: "tutor@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-tutor")},
			{ID: 3, Email: "student@example.com", RoleType: models.RoleStudent, DiscordUserID: strPtr("d-student")},
			{ID: 4, Email: "unlinked@example.com", RoleType: models.RoleStudent},
		},
	}

	plan := BuildPlan(snap, "founder@example.com", now, zerolog.Nop())

	require.Len(t, plan.Identities, 3)
	assert.Equal(t, BaseRoleFounder, plan.BaseRoles["d-founder"])
	assert.Equal(t, BaseRoleTutor, plan.BaseRoles["d-tutor"])
	assert.Equal(t, BaseRoleStudent, plan.BaseRoles["d-student"])
}

func TestBuildPlanDuplicateIdentityKeepsFirst(t *testing.T) {
	now := time.Now()
	snap := Snapshot{
		Users: []models.User{
			{ID: 9, Email: "second@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-shared")},
			{ID: 3, Email: "first@example.com", RoleType: models.RoleStudent, DiscordUserID: strPtr("d-shared")},
		},
	}

	plan := BuildPlan(snap, "", now, zerolog.Nop())

	require.Len(t, plan.Identities, 1)
	// The lowest user id wins regardless of slice order
	assert.Equal(t, int64(3), plan.Identities["d-shared"].ID)
	assert.Equal(t, BaseRoleStudent, plan.BaseRoles["d-shared"])
}

func TestBuildPlanCourseMembers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Users: []models.User{
			{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")},
			{ID: 2, Email: "linked@example.com", RoleType: models.RoleStudent, DiscordUserID: strPtr("d-linked")},
			{ID: 3, Email: "unlinked@example.com", RoleType: models.RoleStudent},
		},
		Courses: []models.Course{
			{ID: 10, Title: "Algebra", OwnerID: 1},
		},
		Enrollments: []models.Enrollment{
			{ID: 100, CourseID: 10, UserID: 2, Status: models.EnrollmentApproved},
			{ID: 101, CourseID: 10, UserID: 3, Status: models.EnrollmentApproved},
		},
	}

	plan := BuildPlan(snap, "", now, zerolog.Nop())

	require.Len(t, plan.Courses, 1)
	cp := plan.Courses[0]
	assert.False(t, cp.Archived)
	// Owner and linked student only; the unlinked student has no external id
	assert.Equal(t, map[string]bool{"d-owner": true, "d-linked": true}, cp.Members)
}

func TestBuildPlanIgnoresPendingEnrollments(t *testing.T) {
	snap := Snapshot{
		Users: []models.User{
			{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")},
			{ID: 2, Email: "pending@example.com", RoleType: models.RoleStudent, DiscordUserID: strPtr("d-pending")},
		},
		Courses: []models.Course{{ID: 10, Title: "Algebra", OwnerID: 1}},
		Enrollments: []models.Enrollment{
			{ID: 100, CourseID: 10, UserID: 2, Status: models.EnrollmentPending},
		},
	}

	plan := BuildPlan(snap, "", time.Now(), zerolog.Nop())

	require.Len(t, plan.Courses, 1)
	assert.Equal(t, map[string]bool{"d-owner": true}, plan.Courses[0].Members)
}

func TestBuildPlanArchivedCourses(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	snap := Snapshot{
		Courses: []models.Course{
			{ID: 1, Title: "Completed", IsCompleted: true},
			{ID: 2, Title: "All classes over", Classes: []models.Class{
				{CourseID: 2, StartsAt: past, DurationHours: 1},
			}},
			{ID: 3, Title: "Still running", Classes: []models.Class{
				{CourseID: 3, StartsAt: past, DurationHours: 1},
				{CourseID: 3, StartsAt: future, DurationHours: 1},
			}},
			{ID: 4, Title: "No classes yet"},
		},
	}

	plan := BuildPlan(snap, "", now, zerolog.Nop())

	require.Len(t, plan.Courses, 4)
	assert.True(t, plan.Courses[0].Archived)
	assert.True(t, plan.Courses[1].Archived)
	assert.False(t, plan.Courses[2].Archived)
	assert.False(t, plan.Courses[3].Archived)
}

func TestCourseRoleName(t *testing.T) {
	noneTaken := func(string) bool { return false }

	t.Run("clean title", func(t *testing.T) {
		assert.Equal(t, "Linear Algebra", courseRoleName("  Linear   Algebra ", 5, noneTaken))
	})

	t.Run("collision gets id suffix", func(t *testing.T) {
		taken := func(name string) bool { return name == "Algebra" }
		assert.Equal(t, "Algebra-z", courseRoleName("Algebra", 35, taken))
	})

	t.Run("repeated collisions get attempt counter", func(t *testing.T) {
		taken := func(name string) bool {
			return name == "Algebra" || name == "Algebra-z"
		}
		assert.Equal(t, "Algebra-z-2", courseRoleName("Algebra", 35, taken))
	})

	t.Run("exhausted attempts fall back to truncated name", func(t *testing.T) {
		everythingButFallback := func(name string) bool {
			return name != "Algebra-course-z"
		}
		assert.Equal(t, "Algebra-course-z", courseRoleName("Algebra", 35, everythingButFallback))
	})

	t.Run("empty title", func(t *testing.T) {
		assert.Equal(t, "Course", courseRoleName("   ", 1, noneTaken))
	})
}

func TestChannelNameForCourse(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Linear Algebra", "linear-algebra"},
		{"  Intro to Go!  ", "intro-to-go"},
		{"C++ / Rust (2026)", "c-rust-2026"},
		{"---", "course"},
		{"", "course"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, channelNameForCourse(tt.title), "title %q", tt.title)
	}
}

func TestMergeOverwrites(t *testing.T) {
	everyone := discord.Overwrite{
		ID:    "guild",
		Type:  discord.OverwriteTypeRole,
		Allow: discord.Permissions(),
		Deny:  discord.Permissions(discord.PermViewChannel),
	}
	courseRole := discord.Overwrite{
		ID:    "role-1",
		Type:  discord.OverwriteTypeRole,
		Allow: discord.Permissions(discord.PermViewChannel, discord.PermSendMessages),
		Deny:  discord.Permissions(),
	}

	t.Run("identical lists need no patch", func(t *testing.T) {
		_, differs := mergeOverwrites([]discord.Overwrite{everyone, courseRole}, []discord.Overwrite{everyone, courseRole})
		assert.False(t, differs)
	})

	t.Run("missing entry triggers a patch", func(t *testing.T) {
		merged, differs := mergeOverwrites([]discord.Overwrite{everyone}, []discord.Overwrite{everyone, courseRole})
		require.True(t, differs)
		assert.Len(t, merged, 2)
	})

	t.Run("drifted mask triggers a patch", func(t *testing.T) {
		drifted := courseRole
		drifted.Allow = discord.Permissions(discord.PermViewChannel)
		merged, differs := mergeOverwrites([]discord.Overwrite{everyone, drifted}, []discord.Overwrite{everyone, courseRole})
		require.True(t, differs)
		assert.Contains(t, merged, courseRole)
		assert.NotContains(t, merged, drifted)
	})

	t.Run("hand-added extras survive the patch", func(t *testing.T) {
		extra := discord.Overwrite{
			ID:    "moderator",
			Type:  discord.OverwriteTypeRole,
			Allow: discord.Permissions(discord.PermViewChannel),
			Deny:  discord.Permissions(),
		}
		merged, differs := mergeOverwrites([]discord.Overwrite{everyone, extra}, []discord.Overwrite{everyone, courseRole})
		require.True(t, differs)
		assert.Contains(t, merged, extra)
		assert.Contains(t, merged, courseRole)
	})
}
