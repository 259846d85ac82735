package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/pkg/discord"
)

// fakeGuild is an in-memory guild that records every mutation the reconciler
// applies. It behaves like the live API: role grants update member state,
// channel patches only touch non-nil fields.
type fakeGuild struct {
	nextID   int
	botID    string
	members  map[string]*discord.Member
	roles    map[string]discord.Role
	channels map[string]discord.Channel
	kicked   []string

	// failCreateRole makes CreateRole fail for specific role names
	failCreateRole map[string]bool
}

func newFakeGuild(guildID string) *fakeGuild {
	g := &fakeGuild{
		botID:          "bot-1",
		members:        make(map[string]*discord.Member),
		roles:          make(map[string]discord.Role),
		channels:       make(map[string]discord.Channel),
		failCreateRole: make(map[string]bool),
	}
	// The @everyone role always exists and shares the guild id
	g.roles[guildID] = discord.Role{ID: guildID, Name: "@everyone"}
	g.members[g.botID] = &discord.Member{User: discord.User{ID: g.botID, Username: "syncbot", Bot: true}}
	return g
}

func (g *fakeGuild) addMember(userID, username string, roleIDs ...string) {
	g.members[userID] = &discord.Member{User: discord.User{ID: userID, Username: username}, Roles: roleIDs}
}

func (g *fakeGuild) addRole(id, name string) {
	g.roles[id] = discord.Role{ID: id, Name: name}
}

func (g *fakeGuild) addChannel(ch discord.Channel) {
	g.channels[ch.ID] = ch
}

func (g *fakeGuild) memberList() []discord.Member {
	ids := make([]string, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]discord.Member, 0, len(ids))
	for _, id := range ids {
		out = append(out, *g.members[id])
	}
	return out
}

func (g *fakeGuild) roleList() []discord.Role {
	out := make([]discord.Role, 0, len(g.roles))
	for _, id := range sortedKeys(g.roles) {
		out = append(out, g.roles[id])
	}
	return out
}

func (g *fakeGuild) channelList() []discord.Channel {
	out := make([]discord.Channel, 0, len(g.channels))
	for _, id := range sortedKeys(g.channels) {
		out = append(out, g.channels[id])
	}
	return out
}

func (g *fakeGuild) roleByName(name string) (discord.Role, bool) {
	for _, id := range sortedKeys(g.roles) {
		if g.roles[id].Name == name {
			return g.roles[id], true
		}
	}
	return discord.Role{}, false
}

func (g *fakeGuild) channelByName(name string) (discord.Channel, bool) {
	for _, id := range sortedKeys(g.channels) {
		if g.channels[id].Name == name {
			return g.channels[id], true
		}
	}
	return discord.Channel{}, false
}

func (g *fakeGuild) memberRoles(userID string) []string {
	m, ok := g.members[userID]
	if !ok {
		return nil
	}
	roles := append([]string(nil), m.Roles...)
	sort.Strings(roles)
	return roles
}

func (g *fakeGuild) genID(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s-%d", prefix, g.nextID)
}

func (g *fakeGuild) CurrentUser(ctx context.Context) (*discord.User, error) {
	return &discord.User{ID: g.botID, Username: "syncbot", Bot: true}, nil
}

func (g *fakeGuild) GuildMembers(ctx context.Context, guildID string) ([]discord.Member, error) {
	return g.memberList(), nil
}

func (g *fakeGuild) GuildRoles(ctx context.Context, guildID string) ([]discord.Role, error) {
	return g.roleList(), nil
}

func (g *fakeGuild) CreateRole(ctx context.Context, guildID string, params discord.RoleParams) (*discord.Role, error) {
	if g.failCreateRole[params.Name] {
		return nil, errors.New("injected role failure")
	}
	role := discord.Role{ID: g.genID("role"), Name: params.Name}
	g.roles[role.ID] = role
	return &role, nil
}

func (g *fakeGuild) DeleteRole(ctx context.Context, guildID, roleID string) error {
	delete(g.roles, roleID)
	for _, m := range g.members {
		for i, id := range m.Roles {
			if id == roleID {
				m.Roles = append(m.Roles[:i], m.Roles[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (g *fakeGuild) GuildChannels(ctx context.Context, guildID string) ([]discord.Channel, error) {
	return g.channelList(), nil
}

func (g *fakeGuild) CreateChannel(ctx context.Context, guildID string, params discord.ChannelParams) (*discord.Channel, error) {
	ch := discord.Channel{
		ID:                   g.genID("chan"),
		Name:                 params.Name,
		Type:                 params.Type,
		Topic:                params.Topic,
		ParentID:             params.ParentID,
		PermissionOverwrites: params.PermissionOverwrites,
	}
	g.channels[ch.ID] = ch
	return &ch, nil
}

func (g *fakeGuild) ModifyChannel(ctx context.Context, channelID string, patch discord.ChannelPatch) (*discord.Channel, error) {
	ch, ok := g.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	if patch.Name != nil {
		ch.Name = *patch.Name
	}
	if patch.Topic != nil {
		ch.Topic = *patch.Topic
	}
	if patch.ParentID != nil {
		ch.ParentID = patch.ParentID
	}
	if patch.PermissionOverwrites != nil {
		ch.PermissionOverwrites = *patch.PermissionOverwrites
	}
	g.channels[channelID] = ch
	return &ch, nil
}

func (g *fakeGuild) DeleteChannel(ctx context.Context, channelID string) error {
	delete(g.channels, channelID)
	return nil
}

func (g *fakeGuild) UpdateChannelPositions(ctx context.Context, guildID string, positions []discord.ChannelPosition) error {
	for _, p := range positions {
		ch, ok := g.channels[p.ID]
		if !ok {
			continue
		}
		ch.Position = p.Position
		g.channels[p.ID] = ch
	}
	return nil
}

func (g *fakeGuild) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	m, ok := g.members[userID]
	if !ok {
		return fmt.Errorf("unknown member %s", userID)
	}
	for _, id := range m.Roles {
		if id == roleID {
			return nil
		}
	}
	m.Roles = append(m.Roles, roleID)
	return nil
}

func (g *fakeGuild) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	m, ok := g.members[userID]
	if !ok {
		return fmt.Errorf("unknown member %s", userID)
	}
	for i, id := range m.Roles {
		if id == roleID {
			m.Roles = append(m.Roles[:i], m.Roles[i+1:]...)
			return nil
		}
	}
	return nil
}

func (g *fakeGuild) RemoveMember(ctx context.Context, guildID, userID string) error {
	delete(g.members, userID)
	g.kicked = append(g.kicked, userID)
	return nil
}

const testGuildID = "guild-1"

func testSyncConfig() Config {
	return Config{
		BotToken:             "token",
		GuildID:              testGuildID,
		CoursesCategory:      "Courses",
		ArchivedCategory:     "Archive",
		InfoCategory:         "Information",
		CommunityCategory:    "Community",
		WelcomeChannel:       "welcome",
		AnnouncementsChannel: "announcements",
		GeneralChannel:       "general",
		VoiceChannel:         "Study Hall",
	}
}

// runSync snapshots the fake guild and drives one full reconciliation
func runSync(t *testing.T, g *fakeGuild, cfg Config, plan *Plan) *Summary {
	t.Helper()
	summary := NewSummary()
	r := newReconciler(g, cfg, plan, g.botID, g.memberList(), g.roleList(), g.channelList(), summary, zerolog.Nop())
	r.run(context.Background())
	return summary
}

func singleCoursePlan(t *testing.T) *Plan {
	t.Helper()
	snap := Snapshot{
		Users: []models.User{
			{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")},
			{ID: 2, Email: "student@example.com", RoleType: models.RoleStudent, DiscordUserID: strPtr("d-student")},
		},
		Courses: []models.Course{{ID: 10, Title: "Linear Algebra", OwnerID: 1}},
		Enrollments: []models.Enrollment{
			{ID: 100, CourseID: 10, UserID: 2, Status: models.EnrollmentApproved},
		},
	}
	return BuildPlan(snap, "", time.Now(), zerolog.Nop())
}

func TestReconcileFreshGuild(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	g.addMember("d-student", "student")
	g.addMember("d-stranger", "stranger")

	summary := runSync(t, g, testSyncConfig(), singleCoursePlan(t))

	assert.Empty(t, summary.Errors)
	assert.Equal(t, []string{"d-stranger"}, g.kicked)
	assert.Equal(t, 1, summary.KickedMemberCount)

	// Three base roles plus the course role
	assert.Equal(t, 3, summary.CreatedRoleCount)
	assert.Equal(t, 1, summary.CreatedCourseRoleCount)

	tutorRole, ok := g.roleByName(BaseRoleTutor)
	require.True(t, ok)
	studentRole, ok := g.roleByName(BaseRoleStudent)
	require.True(t, ok)
	courseRole, ok := g.roleByName("Linear Algebra")
	require.True(t, ok)

	assert.ElementsMatch(t, []string{tutorRole.ID, courseRole.ID}, g.memberRoles("d-owner"))
	assert.ElementsMatch(t, []string{studentRole.ID, courseRole.ID}, g.memberRoles("d-student"))

	// Four managed categories, the course channel and four fixed channels
	assert.Equal(t, 4, summary.CreatedCategoryCount)
	assert.Equal(t, 5, summary.CreatedChannelCount)

	courseChannel, ok := g.channelByName("linear-algebra")
	require.True(t, ok)
	assert.Equal(t, CourseTopicMarker(10), courseChannel.Topic)

	coursesCategory, ok := g.channelByName("Courses")
	require.True(t, ok)
	require.NotNil(t, courseChannel.ParentID)
	assert.Equal(t, coursesCategory.ID, *courseChannel.ParentID)

	voice, ok := g.channelByName("Study Hall")
	require.True(t, ok)
	assert.Equal(t, discord.ChannelTypeVoice, voice.Type)
}

func TestReconcileIdempotent(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	g.addMember("d-student", "student")
	cfg := testSyncConfig()

	first := runSync(t, g, cfg, singleCoursePlan(t))
	require.Empty(t, first.Errors)
	require.True(t, first.HasChanges())

	second := runSync(t, g, cfg, singleCoursePlan(t))
	assert.Empty(t, second.Errors)
	assert.False(t, second.HasChanges(), "second run should be a no-op, got %+v", second)
}

func TestReconcileBaseRoleExclusivity(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addRole("role-student", BaseRoleStudent)
	g.addRole("role-tutor", BaseRoleTutor)
	g.addRole("role-founder", BaseRoleFounder)
	// The owner drifted into holding both base roles
	g.addMember("d-owner", "owner", "role-student", "role-tutor")

	snap := Snapshot{
		Users: []models.User{
			{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")},
		},
	}
	plan := BuildPlan(snap, "", time.Now(), zerolog.Nop())

	summary := runSync(t, g, testSyncConfig(), plan)

	assert.Empty(t, summary.Errors)
	assert.Equal(t, 1, summary.BaseRoleRemovedCount)
	assert.Equal(t, 0, summary.BaseRoleAddedCount)
	assert.Equal(t, []string{"role-tutor"}, g.memberRoles("d-owner"))
}

func TestReconcileRenameKeepsChannel(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	cfg := testSyncConfig()

	snap := Snapshot{
		Users:   []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{{ID: 10, Title: "Linear Algebra", OwnerID: 1}},
	}
	first := runSync(t, g, cfg, BuildPlan(snap, "", time.Now(), zerolog.Nop()))
	require.Empty(t, first.Errors)

	before, ok := g.channelByName("linear-algebra")
	require.True(t, ok)

	// The tutor renames the course; the channel follows by marker, not by name
	snap.Courses[0].Title = "Advanced Linear Algebra"
	second := runSync(t, g, cfg, BuildPlan(snap, "", time.Now(), zerolog.Nop()))

	assert.Empty(t, second.Errors)
	assert.Equal(t, 0, second.CreatedChannelCount)
	after, ok := g.channelByName("advanced-linear-algebra")
	require.True(t, ok)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, CourseTopicMarker(10), after.Topic)
	_, stillThere := g.channelByName("linear-algebra")
	assert.False(t, stillThere)
}

func TestReconcileArchivesCourseChannel(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	cfg := testSyncConfig()

	snap := Snapshot{
		Users:   []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{{ID: 10, Title: "Linear Algebra", OwnerID: 1}},
	}
	first := runSync(t, g, cfg, BuildPlan(snap, "", time.Now(), zerolog.Nop()))
	require.Empty(t, first.Errors)

	snap.Courses[0].IsCompleted = true
	second := runSync(t, g, cfg, BuildPlan(snap, "", time.Now(), zerolog.Nop()))

	assert.Empty(t, second.Errors)
	assert.Equal(t, 1, second.ArchivedChannelCount)

	archive, ok := g.channelByName("Archive")
	require.True(t, ok)
	ch, ok := g.channelByName("linear-algebra")
	require.True(t, ok)
	require.NotNil(t, ch.ParentID)
	assert.Equal(t, archive.ID, *ch.ParentID)

	// The course role survives so alumni keep channel access
	_, ok = g.roleByName("Linear Algebra")
	assert.True(t, ok)
}

func TestReconcileArchivedCourseWithoutChannelGetsNone(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")

	snap := Snapshot{
		Users:   []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{{ID: 10, Title: "Finished Course", OwnerID: 1, IsCompleted: true}},
	}
	summary := runSync(t, g, testSyncConfig(), BuildPlan(snap, "", time.Now(), zerolog.Nop()))

	assert.Empty(t, summary.Errors)
	_, found := g.channelByName("finished-course")
	assert.False(t, found)
	_, found = g.roleByName("Finished Course")
	assert.False(t, found)
}

func TestReconcileDeletesStaleCourseFootprint(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addRole("role-old", "Deleted Course")
	coursesID := "cat-courses"
	g.addChannel(discord.Channel{ID: coursesID, Name: "Courses", Type: discord.ChannelTypeCategory})
	g.addChannel(discord.Channel{
		ID:       "chan-old",
		Name:     "deleted-course",
		Type:     discord.ChannelTypeText,
		Topic:    CourseTopicMarker(99),
		ParentID: &coursesID,
		PermissionOverwrites: []discord.Overwrite{
			{ID: testGuildID, Type: discord.OverwriteTypeRole, Allow: discord.Permissions(), Deny: discord.Permissions(discord.PermViewChannel)},
			{ID: "role-old", Type: discord.OverwriteTypeRole, Allow: discord.Permissions(discord.PermViewChannel), Deny: discord.Permissions()},
		},
	})

	// Course 99 no longer exists in the application
	summary := runSync(t, g, testSyncConfig(), BuildPlan(Snapshot{}, "", time.Now(), zerolog.Nop()))

	assert.Empty(t, summary.Errors)
	assert.Equal(t, 1, summary.DeletedChannelCount)
	assert.Equal(t, 1, summary.DeletedCourseRoleCount)
	_, found := g.channelByName("deleted-course")
	assert.False(t, found)
	_, found = g.roleByName("Deleted Course")
	assert.False(t, found)
}

func TestReconcileProtectedRolesSurviveCleanup(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addRole("role-mod", "Moderator")
	g.addRole("role-stray", "Leftover")

	cfg := testSyncConfig()
	cfg.ProtectedRoleNames = []string{"Moderator"}

	summary := runSync(t, g, cfg, BuildPlan(Snapshot{}, "", time.Now(), zerolog.Nop()))

	assert.Empty(t, summary.Errors)
	_, found := g.roleByName("Moderator")
	assert.True(t, found)
	_, found = g.roleByName("Leftover")
	assert.False(t, found)
	assert.Equal(t, 1, summary.DeletedCourseRoleCount)
}

func TestReconcileDuplicateRoleClaim(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	g.addRole("role-shared", "Shared Role")
	coursesID := "cat-courses"
	g.addChannel(discord.Channel{ID: coursesID, Name: "Courses", Type: discord.ChannelTypeCategory})
	sharedOverwrites := []discord.Overwrite{
		{ID: testGuildID, Type: discord.OverwriteTypeRole, Allow: discord.Permissions(), Deny: discord.Permissions(discord.PermViewChannel)},
		{ID: "role-shared", Type: discord.OverwriteTypeRole, Allow: discord.Permissions(discord.PermViewChannel), Deny: discord.Permissions()},
	}
	g.addChannel(discord.Channel{
		ID: "chan-a", Name: "algebra", Type: discord.ChannelTypeText,
		Topic: CourseTopicMarker(1), ParentID: &coursesID, PermissionOverwrites: sharedOverwrites,
	})
	g.addChannel(discord.Channel{
		ID: "chan-b", Name: "biology", Type: discord.ChannelTypeText,
		Topic: CourseTopicMarker(2), ParentID: &coursesID, PermissionOverwrites: sharedOverwrites,
	})

	snap := Snapshot{
		Users: []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{
			{ID: 1, Title: "Algebra", OwnerID: 1},
			{ID: 2, Title: "Biology", OwnerID: 1},
		},
	}
	summary := runSync(t, g, testSyncConfig(), BuildPlan(snap, "", time.Now(), zerolog.Nop()))

	assert.Empty(t, summary.Errors)
	// The lower course id keeps the claimed role; the other gets a fresh one
	assert.Equal(t, 1, summary.CreatedCourseRoleCount)
	freshRole, ok := g.roleByName("Biology")
	require.True(t, ok)

	chB, ok := g.channelByName("biology")
	require.True(t, ok)
	var grantsFresh bool
	for _, ow := range chB.PermissionOverwrites {
		if ow.ID == freshRole.ID && ow.Type == discord.OverwriteTypeRole {
			grantsFresh = true
		}
	}
	assert.True(t, grantsFresh, "fresh role should be granted on the second channel")
}

func TestReconcilePartialFailureIsolation(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	g.failCreateRole["Algebra"] = true

	snap := Snapshot{
		Users: []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{
			{ID: 1, Title: "Algebra", OwnerID: 1},
			{ID: 2, Title: "Biology", OwnerID: 1},
		},
	}
	summary := runSync(t, g, testSyncConfig(), BuildPlan(snap, "", time.Now(), zerolog.Nop()))

	// The failed course is skipped; the sibling still converges fully
	require.NotEmpty(t, summary.Errors)
	_, found := g.channelByName("algebra")
	assert.False(t, found)
	_, found = g.roleByName("Biology")
	assert.True(t, found)
	_, found = g.channelByName("biology")
	assert.True(t, found)
}

func TestReconcileRoleFailureKeepsCourseChannel(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	g.failCreateRole["Algebra"] = true
	coursesID := "cat-courses"
	g.addChannel(discord.Channel{ID: coursesID, Name: "Courses", Type: discord.ChannelTypeCategory})
	// The course channel exists but its role vanished, so nothing can be
	// recovered from the overwrites
	g.addChannel(discord.Channel{
		ID: "chan-algebra", Name: "algebra", Type: discord.ChannelTypeText,
		Topic: CourseTopicMarker(1), ParentID: &coursesID,
		PermissionOverwrites: []discord.Overwrite{
			{ID: testGuildID, Type: discord.OverwriteTypeRole, Allow: discord.Permissions(), Deny: discord.Permissions(discord.PermViewChannel)},
		},
	})

	snap := Snapshot{
		Users:   []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{{ID: 1, Title: "Algebra", OwnerID: 1}},
	}
	summary := runSync(t, g, testSyncConfig(), BuildPlan(snap, "", time.Now(), zerolog.Nop()))

	// The role failure is reported, but the live channel and its history stay
	require.NotEmpty(t, summary.Errors)
	assert.Equal(t, 0, summary.DeletedChannelCount)
	ch, ok := g.channelByName("algebra")
	require.True(t, ok, "course channel must survive a role creation failure")
	assert.Equal(t, "chan-algebra", ch.ID)
}

func TestReconcileCourseTitleCollidingWithFixedChannel(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	cfg := testSyncConfig()

	snap := Snapshot{
		Users:   []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{{ID: 1, Title: "General", OwnerID: 1}},
	}
	first := runSync(t, g, cfg, BuildPlan(snap, "", time.Now(), zerolog.Nop()))
	require.Empty(t, first.Errors)

	// The course channel and the fixed community channel share a name but
	// stay distinct: the topic marker keeps them apart
	assert.Equal(t, 5, first.CreatedChannelCount)
	var tagged, untagged int
	for _, ch := range g.channelList() {
		if ch.Name != "general" {
			continue
		}
		if _, ok := ParseTopicMarker(ch.Topic); ok {
			tagged++
		} else {
			untagged++
		}
	}
	assert.Equal(t, 1, tagged)
	assert.Equal(t, 1, untagged)

	second := runSync(t, g, cfg, BuildPlan(snap, "", time.Now(), zerolog.Nop()))
	assert.Empty(t, second.Errors)
	assert.False(t, second.HasChanges(), "second run should be a no-op, got %+v", second)
}

func TestReconcileAdoptsOrphanedCourseRole(t *testing.T) {
	g := newFakeGuild(testGuildID)
	g.addMember("d-owner", "owner")
	// Left over from a run whose channel creation failed
	g.addRole("role-algebra", "Algebra")

	snap := Snapshot{
		Users:   []models.User{{ID: 1, Email: "owner@example.com", RoleType: models.RoleTutor, DiscordUserID: strPtr("d-owner")}},
		Courses: []models.Course{{ID: 1, Title: "Algebra", OwnerID: 1}},
	}
	summary := runSync(t, g, testSyncConfig(), BuildPlan(snap, "", time.Now(), zerolog.Nop()))

	assert.Empty(t, summary.Errors)
	// The leftover role is re-used rather than replaced with a suffixed one
	assert.Equal(t, 0, summary.CreatedCourseRoleCount)
	assert.Equal(t, 0, summary.DeletedCourseRoleCount)
	_, found := g.roleByName("Algebra-1")
	assert.False(t, found)

	ch, ok := g.channelByName("algebra")
	require.True(t, ok)
	var grantsRole bool
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == "role-algebra" && ow.Type == discord.OverwriteTypeRole {
			grantsRole = true
		}
	}
	assert.True(t, grantsRole, "channel should grant the adopted role")
	assert.Contains(t, g.memberRoles("d-owner"), "role-algebra")
}

func TestServiceRunSkipsWhenUnconfigured(t *testing.T) {
	svc := NewService(nil, nil, nil, newFakeGuild(testGuildID), Config{}, zerolog.Nop())
	summary := svc.Run(context.Background())
	assert.False(t, summary.Enabled)
	assert.Equal(t, "bot token not configured", summary.SkippedReason)
	assert.False(t, summary.HasChanges())

	svc = NewService(nil, nil, nil, newFakeGuild(testGuildID), Config{BotToken: "t"}, zerolog.Nop())
	summary = svc.Run(context.Background())
	assert.False(t, summary.Enabled)
	assert.Equal(t, "guild id not configured", summary.SkippedReason)
}
