package sync

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/pkg/discord"
)

// Base role names that always exist in the guild. They are created on first
// run if missing and never deleted.
const (
	BaseRoleStudent = "Student"
	BaseRoleTutor   = "Tutor"
	BaseRoleFounder = "Founder"
)

// topicMarkerPrefix tags a course channel with its owning course id. The
// marker is the primary key for matching channels across runs, since a course
// title (and therefore the channel name) can change.
const topicMarkerPrefix = "[course:"

// maxRoleNameAttempts bounds collision-resolution retries before falling back
// to a truncated-title name.
const maxRoleNameAttempts = 5

// CourseTopicMarker returns the topic tag for a course channel
func CourseTopicMarker(courseID int64) string {
	return fmt.Sprintf("%s%d]", topicMarkerPrefix, courseID)
}

// ParseTopicMarker extracts the course id from a channel topic, if tagged
func ParseTopicMarker(topic string) (int64, bool) {
	if !strings.HasPrefix(topic, topicMarkerPrefix) {
		return 0, false
	}
	rest := topic[len(topicMarkerPrefix):]
	end := strings.IndexByte(rest, ']')
	if end <= 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(rest[:end], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Snapshot is the application-side input to a reconciliation run: a full
// read-only copy of users, courses (with classes) and approved enrollments.
type Snapshot struct {
	Users       []models.User
	Courses     []models.Course
	Enrollments []models.Enrollment
}

// CoursePlan is the desired guild footprint of a single course
type CoursePlan struct {
	Course   models.Course
	Archived bool
	// Members holds the external user ids expected to carry the course role:
	// the owner plus every approved student with a linked identity.
	Members map[string]bool
}

// Plan is the desired guild state computed from a Snapshot
type Plan struct {
	// Identities maps external user ids to application users. Each external id
	// maps to at most one user; duplicates are dropped, first discovered wins.
	Identities map[string]models.User
	// BaseRoles maps external user ids to the single base role each should hold
	BaseRoles map[string]string
	// Courses lists per-course plans in ascending course id order
	Courses []*CoursePlan
}

// BuildPlan computes the desired guild state from application data
func BuildPlan(snap Snapshot, founderEmail string, now time.Time, logger zerolog.Logger) *Plan {
	plan := &Plan{
		Identities: make(map[string]models.User),
		BaseRoles:  make(map[string]string),
	}

	// Deterministic identity correlation: walk users in id order so the first
	// discovered mapping always wins when data contains duplicates.
	users := make([]models.User, len(snap.Users))
	copy(users, snap.Users)
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	usersByID := make(map[int64]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
		if u.DiscordUserID == nil || *u.DiscordUserID == "" {
			continue
		}
		externalID := *u.DiscordUserID
		if prev, ok := plan.Identities[externalID]; ok {
			logger.Error().
				Str("discordUserId", externalID).
				Int64("keptUserId", prev.ID).
				Int64("skippedUserId", u.ID).
				Msg("Duplicate external identity mapping, keeping first discovered user")
			continue
		}
		plan.Identities[externalID] = u
		plan.BaseRoles[externalID] = expectedBaseRole(u, founderEmail)
	}

	courses := make([]models.Course, len(snap.Courses))
	copy(courses, snap.Courses)
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })

	enrolledByCourse := make(map[int64][]int64)
	for _, e := range snap.Enrollments {
		if e.Status != models.EnrollmentApproved {
			continue
		}
		enrolledByCourse[e.CourseID] = append(enrolledByCourse[e.CourseID], e.UserID)
	}

	for _, course := range courses {
		cp := &CoursePlan{
			Course:   course,
			Archived: course.IsArchived(now),
			Members:  make(map[string]bool),
		}

		memberIDs := append([]int64{course.OwnerID}, enrolledByCourse[course.ID]...)
		for _, userID := range memberIDs {
			u, ok := usersByID[userID]
			if !ok || u.DiscordUserID == nil || *u.DiscordUserID == "" {
				continue
			}
			// Only the canonical mapping for the external id counts
			if canonical, ok := plan.Identities[*u.DiscordUserID]; ok && canonical.ID == u.ID {
				cp.Members[*u.DiscordUserID] = true
			}
		}

		plan.Courses = append(plan.Courses, cp)
	}

	return plan
}

// expectedBaseRole resolves the single base role a user should hold in the
// guild. A founder-email match overrides a stored tutor role.
func expectedBaseRole(u models.User, founderEmail string) string {
	switch u.EffectiveRole(founderEmail) {
	case models.RoleFounder:
		return BaseRoleFounder
	case models.RoleTutor:
		return BaseRoleTutor
	default:
		return BaseRoleStudent
	}
}

// normalizeRoleName derives a guild role name from a course title
func normalizeRoleName(title string) string {
	name := strings.Join(strings.Fields(title), " ")
	if len(name) > 90 {
		name = strings.TrimSpace(name[:90])
	}
	if name == "" {
		name = "Course"
	}
	return name
}

// courseRoleName computes a deterministic, collision-free role name for a
// course. When the normalized title collides with another existing role name,
// a short suffix derived from the course id is appended, retried with an
// attempt counter, before falling back to a truncated-title-plus-id name.
func courseRoleName(title string, courseID int64, taken func(name string) bool) string {
	base := normalizeRoleName(title)
	if !taken(base) {
		return base
	}

	idSuffix := strconv.FormatInt(courseID, 36)
	for attempt := 1; attempt <= maxRoleNameAttempts; attempt++ {
		candidate := base + "-" + idSuffix
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%s-%d", base, idSuffix, attempt)
		}
		if !taken(candidate) {
			return candidate
		}
	}

	truncated := base
	if len(truncated) > 20 {
		truncated = strings.TrimSpace(truncated[:20])
	}
	return truncated + "-course-" + idSuffix
}

// channelNameForCourse derives the text channel name for a course. Channel
// names are lowercase with dashes, following the platform's conventions.
func channelNameForCourse(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "course"
	}
	if len(name) > 80 {
		name = strings.Trim(name[:80], "-")
	}
	return name
}

// courseChannelOverwrites computes the permission overwrites for a course
// channel. Active and archived channels differ only in whether the course
// role may send messages; the bot identity always keeps full access so future
// runs can still mutate the channel.
func courseChannelOverwrites(everyoneID, courseRoleID, botID string, archived bool) []discord.Overwrite {
	courseAllow := []int64{discord.PermViewChannel, discord.PermReadMessageHistory}
	courseDeny := []int64{}
	if archived {
		courseDeny = append(courseDeny, discord.PermSendMessages)
	} else {
		courseAllow = append(courseAllow, discord.PermSendMessages)
	}

	return []discord.Overwrite{
		{
			ID:    everyoneID,
			Type:  discord.OverwriteTypeRole,
			Allow: discord.Permissions(),
			Deny:  discord.Permissions(discord.PermViewChannel),
		},
		{
			ID:    courseRoleID,
			Type:  discord.OverwriteTypeRole,
			Allow: discord.Permissions(courseAllow...),
			Deny:  discord.Permissions(courseDeny...),
		},
		{
			ID:    botID,
			Type:  discord.OverwriteTypeMember,
			Allow: discord.Permissions(discord.PermViewChannel, discord.PermSendMessages, discord.PermReadMessageHistory),
			Deny:  discord.Permissions(),
		},
	}
}

// readOnlyOverwrites computes overwrites for announcement-style channels and
// the archived category: everyone may read, nobody but the bot may write.
func readOnlyOverwrites(everyoneID, botID string) []discord.Overwrite {
	return []discord.Overwrite{
		{
			ID:    everyoneID,
			Type:  discord.OverwriteTypeRole,
			Allow: discord.Permissions(discord.PermViewChannel, discord.PermReadMessageHistory),
			Deny:  discord.Permissions(discord.PermSendMessages),
		},
		{
			ID:    botID,
			Type:  discord.OverwriteTypeMember,
			Allow: discord.Permissions(discord.PermViewChannel, discord.PermSendMessages, discord.PermReadMessageHistory),
			Deny:  discord.Permissions(),
		},
	}
}

// openTextOverwrites computes overwrites for community text channels
func openTextOverwrites(everyoneID string) []discord.Overwrite {
	return []discord.Overwrite{
		{
			ID:    everyoneID,
			Type:  discord.OverwriteTypeRole,
			Allow: discord.Permissions(discord.PermViewChannel, discord.PermSendMessages, discord.PermReadMessageHistory),
			Deny:  discord.Permissions(),
		},
	}
}

// voiceOverwrites computes overwrites for community voice channels
func voiceOverwrites(everyoneID string) []discord.Overwrite {
	return []discord.Overwrite{
		{
			ID:    everyoneID,
			Type:  discord.OverwriteTypeRole,
			Allow: discord.Permissions(discord.PermViewChannel, discord.PermConnect),
			Deny:  discord.Permissions(),
		},
	}
}
