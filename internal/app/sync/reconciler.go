package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/pkg/discord"
)

// trackedMember is a correlated guild member carried through the passes. Its
// role set mirrors the live guild and is updated after every successful
// corrective call.
type trackedMember struct {
	externalID string
	username   string
	userID     int64
	roles      map[string]bool
}

// reconciler converges the live guild onto the desired plan. All mutable
// mirrors of roles and channels are scoped to a single run; nothing survives
// between invocations. Every corrective operation is independent: a failure
// is recorded and the run continues.
type reconciler struct {
	api     GuildAPI
	cfg     Config
	logger  zerolog.Logger
	guildID string
	botID   string
	plan    *Plan
	summary *Summary

	rawMembers []discord.Member
	members    []*trackedMember
	roles      map[string]discord.Role
	channels   map[string]discord.Channel

	baseRoleIDs    map[string]string // base role name -> role id
	eligible       []*CoursePlan     // ascending course id order
	eligibleSet    map[int64]bool
	courseRoles    map[int64]string // course id -> role id
	courseChannels map[int64]string // course id -> channel id
	categoryIDs    map[string]string
	fixedChannels  map[string]string // fixed channel name -> channel id
}

// newReconciler builds a reconciler around a fresh guild snapshot
func newReconciler(
	api GuildAPI,
	cfg Config,
	plan *Plan,
	botID string,
	members []discord.Member,
	roles []discord.Role,
	channels []discord.Channel,
	summary *Summary,
	logger zerolog.Logger,
) *reconciler {
	r := &reconciler{
		api:            api,
		cfg:            cfg,
		logger:         logger,
		guildID:        cfg.GuildID,
		botID:          botID,
		plan:           plan,
		summary:        summary,
		roles:          make(map[string]discord.Role, len(roles)),
		channels:       make(map[string]discord.Channel, len(channels)),
		baseRoleIDs:    make(map[string]string),
		eligibleSet:    make(map[int64]bool),
		courseRoles:    make(map[int64]string),
		courseChannels: make(map[int64]string),
		categoryIDs:    make(map[string]string),
		fixedChannels:  make(map[string]string),
	}

	for _, role := range roles {
		r.roles[role.ID] = role
	}
	for _, ch := range channels {
		r.channels[ch.ID] = ch
	}
	r.rawMembers = members
	return r
}

// run executes the convergence passes in order. Deletions come after all
// role-assignment passes so cleanup never races assignment.
func (r *reconciler) run(ctx context.Context) {
	r.purgeUncorrelatedMembers(ctx)
	r.ensureBaseRoles(ctx)
	r.convergeBaseRoles(ctx)
	r.computeEligibility()
	r.convergeCourseRoles(ctx)
	r.convergeCourseMembership(ctx)
	r.cleanupStale(ctx)
	r.convergeCourseChannels(ctx)
	r.convergeFixedChannels(ctx)
	r.cleanupOrphans(ctx)
}

// fail records an operation failure and lets the run continue
func (r *reconciler) fail(action, entity string, err error) {
	msg := fmt.Sprintf("%s %q: %v", action, entity, err)
	r.logger.Error().Str("action", action).Str("entity", entity).Err(err).Msg("Guild sync operation failed")
	r.summary.Errors = append(r.summary.Errors, msg)
}

// everyoneID returns the id of the @everyone role, which equals the guild id
func (r *reconciler) everyoneID() string {
	return r.guildID
}

// roleByName finds a non-managed role by exact name
func (r *reconciler) roleByName(name string) (discord.Role, bool) {
	for _, id := range sortedKeys(r.roles) {
		role := r.roles[id]
		if !role.Managed && role.Name == name {
			return role, true
		}
	}
	return discord.Role{}, false
}

// roleNameTaken reports whether any live non-managed role uses the name
func (r *reconciler) roleNameTaken(name string) bool {
	_, taken := r.roleByName(name)
	return taken
}

// isBaseRoleID reports whether the id belongs to one of the three base roles
func (r *reconciler) isBaseRoleID(id string) bool {
	for _, baseID := range r.baseRoleIDs {
		if baseID == id {
			return true
		}
	}
	return false
}

// channelByMarker finds the channel tagged with the course id, the stable
// identity across title renames
func (r *reconciler) channelByMarker(courseID int64) *discord.Channel {
	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if markerID, ok := ParseTopicMarker(ch.Topic); ok && markerID == courseID {
			return &ch
		}
	}
	return nil
}

// Pass 1 — membership purge. Every human guild member without a correlated
// application user is removed. A member whose removal fails is still excluded
// from all subsequent passes, since its presence is now uncertain.
func (r *reconciler) purgeUncorrelatedMembers(ctx context.Context) {
	for _, m := range r.rawMembers {
		if m.User.Bot {
			continue
		}

		user, ok := r.plan.Identities[m.User.ID]
		if !ok {
			if err := r.api.RemoveMember(ctx, r.guildID, m.User.ID); err != nil {
				r.fail("kick member", m.User.Username, err)
			} else {
				r.summary.KickedMemberCount++
			}
			continue
		}

		roles := make(map[string]bool, len(m.Roles))
		for _, roleID := range m.Roles {
			roles[roleID] = true
		}
		r.members = append(r.members, &trackedMember{
			externalID: m.User.ID,
			username:   m.User.Username,
			userID:     user.ID,
			roles:      roles,
		})
	}
}

// ensureBaseRoles creates the three fixed base roles when missing
func (r *reconciler) ensureBaseRoles(ctx context.Context) {
	for _, name := range []string{BaseRoleStudent, BaseRoleTutor, BaseRoleFounder} {
		if role, ok := r.roleByName(name); ok {
			r.baseRoleIDs[name] = role.ID
			continue
		}

		created, err := r.api.CreateRole(ctx, r.guildID, discord.RoleParams{Name: name, Mentionable: true})
		if err != nil {
			r.fail("create base role", name, err)
			continue
		}
		r.roles[created.ID] = *created
		r.baseRoleIDs[name] = created.ID
		r.summary.CreatedRoleCount++
	}
}

// Pass 2 — base role convergence. Each correlated member ends up holding
// exactly the one expected base role; the other two are stripped. Operations
// are independent and one failure never blocks sibling operations.
func (r *reconciler) convergeBaseRoles(ctx context.Context) {
	for _, m := range r.members {
		expectedName := r.plan.BaseRoles[m.externalID]
		expectedID := r.baseRoleIDs[expectedName]

		if expectedID != "" && !m.roles[expectedID] {
			if err := r.api.AddMemberRole(ctx, r.guildID, m.externalID, expectedID); err != nil {
				r.fail("add base role", m.username, err)
			} else {
				m.roles[expectedID] = true
				r.summary.BaseRoleAddedCount++
			}
		}

		for _, name := range []string{BaseRoleStudent, BaseRoleTutor, BaseRoleFounder} {
			id := r.baseRoleIDs[name]
			if name == expectedName || id == "" || !m.roles[id] {
				continue
			}
			if err := r.api.RemoveMemberRole(ctx, r.guildID, m.externalID, id); err != nil {
				r.fail("remove base role", m.username, err)
			} else {
				delete(m.roles, id)
				r.summary.BaseRoleRemovedCount++
			}
		}
	}
}

// computeEligibility marks courses that need a guild footprint: every active
// course, plus archived courses that still have a managed channel to migrate.
func (r *reconciler) computeEligibility() {
	for _, cp := range r.plan.Courses {
		if cp.Archived && r.channelByMarker(cp.Course.ID) == nil {
			continue
		}
		r.eligible = append(r.eligible, cp)
		r.eligibleSet[cp.Course.ID] = true
	}
}

// courseRoleFromChannel recovers the existing course role from the managed
// channel's permission overwrites
func (r *reconciler) courseRoleFromChannel(courseID int64) string {
	ch := r.channelByMarker(courseID)
	if ch == nil {
		return ""
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type != discord.OverwriteTypeRole || ow.ID == r.everyoneID() || r.isBaseRoleID(ow.ID) {
			continue
		}
		if role, ok := r.roles[ow.ID]; ok && !role.Managed {
			return ow.ID
		}
	}
	return ""
}

// Pass 3 — course role creation and dedup. One role per eligible course. If
// historical drift left two courses pointing at the same role, the course
// with the smallest id keeps the mapping and the others get fresh roles.
func (r *reconciler) convergeCourseRoles(ctx context.Context) {
	claimed := make(map[string]int64)
	protected := make(map[string]bool, len(r.cfg.ProtectedRoleNames))
	for _, name := range r.cfg.ProtectedRoleNames {
		protected[name] = true
	}

	for _, cp := range r.eligible {
		roleID := r.courseRoleFromChannel(cp.Course.ID)
		if roleID != "" {
			if _, dup := claimed[roleID]; dup {
				roleID = ""
			}
		}

		// A prior run can leave the course role behind with no channel
		// referencing it, e.g. when channel creation failed. Re-adopt it by
		// name instead of minting a suffixed sibling.
		if roleID == "" {
			if role, ok := r.roleByName(normalizeRoleName(cp.Course.Title)); ok {
				_, dup := claimed[role.ID]
				if !dup && !r.isBaseRoleID(role.ID) && !protected[role.Name] &&
					!r.roleReferencedByCourseChannel(role.ID) {
					roleID = role.ID
				}
			}
		}

		if roleID == "" {
			name := courseRoleName(cp.Course.Title, cp.Course.ID, r.roleNameTaken)
			created, err := r.api.CreateRole(ctx, r.guildID, discord.RoleParams{Name: name, Mentionable: true})
			if err != nil {
				r.fail("create course role", name, err)
				continue
			}
			r.roles[created.ID] = *created
			roleID = created.ID
			r.summary.CreatedCourseRoleCount++
		}

		claimed[roleID] = cp.Course.ID
		r.courseRoles[cp.Course.ID] = roleID
	}
}

// roleReferencedByCourseChannel reports whether any marker-tagged channel
// grants the role in its overwrites
func (r *reconciler) roleReferencedByCourseChannel(roleID string) bool {
	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if _, ok := ParseTopicMarker(ch.Topic); !ok {
			continue
		}
		for _, ow := range ch.PermissionOverwrites {
			if ow.Type == discord.OverwriteTypeRole && ow.ID == roleID {
				return true
			}
		}
	}
	return false
}

// Pass 4 — course membership convergence. Grants the course role to expected
// members and strips it from everyone else.
func (r *reconciler) convergeCourseMembership(ctx context.Context) {
	for _, cp := range r.eligible {
		roleID := r.courseRoles[cp.Course.ID]
		if roleID == "" {
			continue
		}

		for _, m := range r.members {
			want := cp.Members[m.externalID]
			has := m.roles[roleID]

			switch {
			case want && !has:
				if err := r.api.AddMemberRole(ctx, r.guildID, m.externalID, roleID); err != nil {
					r.fail("add course role", fmt.Sprintf("%s to %s", cp.Course.Title, m.username), err)
				} else {
					m.roles[roleID] = true
					r.summary.CourseRoleAddedCount++
				}
			case !want && has:
				if err := r.api.RemoveMemberRole(ctx, r.guildID, m.externalID, roleID); err != nil {
					r.fail("remove course role", fmt.Sprintf("%s from %s", cp.Course.Title, m.username), err)
				} else {
					delete(m.roles, roleID)
					r.summary.CourseRoleRemovedCount++
				}
			}
		}
	}
}

// Pass 5 — stale cleanup. Runs only after all assignment passes so deletions
// never race role grants. Channels tagged with a course no longer in the
// eligible set are deleted, then roles that are neither base, expected,
// protected nor referenced by a remaining managed channel are deleted.
func (r *reconciler) cleanupStale(ctx context.Context) {
	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		courseID, ok := ParseTopicMarker(ch.Topic)
		if !ok || r.eligibleSet[courseID] {
			continue
		}
		if err := r.api.DeleteChannel(ctx, ch.ID); err != nil {
			r.fail("delete stale channel", ch.Name, err)
		} else {
			delete(r.channels, ch.ID)
			r.summary.DeletedChannelCount++
		}
	}

	expected := make(map[string]bool, len(r.courseRoles))
	for _, roleID := range r.courseRoles {
		expected[roleID] = true
	}
	protected := make(map[string]bool, len(r.cfg.ProtectedRoleNames))
	for _, name := range r.cfg.ProtectedRoleNames {
		protected[name] = true
	}
	referenced := make(map[string]bool)
	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if _, ok := ParseTopicMarker(ch.Topic); !ok {
			continue
		}
		for _, ow := range ch.PermissionOverwrites {
			if ow.Type == discord.OverwriteTypeRole {
				referenced[ow.ID] = true
			}
		}
	}

	for _, id := range sortedKeys(r.roles) {
		role := r.roles[id]
		if role.Managed || id == r.everyoneID() || r.isBaseRoleID(id) ||
			expected[id] || protected[role.Name] || referenced[id] {
			continue
		}
		if err := r.api.DeleteRole(ctx, r.guildID, id); err != nil {
			r.fail("delete stale role", role.Name, err)
		} else {
			delete(r.roles, id)
			r.summary.DeletedCourseRoleCount++
		}
	}
}

// ensureCategory finds or creates a category channel by display name
func (r *reconciler) ensureCategory(ctx context.Context, name string, overwrites []discord.Overwrite) string {
	if id, ok := r.categoryIDs[name]; ok {
		return id
	}
	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if ch.Type == discord.ChannelTypeCategory && ch.Name == name {
			r.categoryIDs[name] = ch.ID
			return ch.ID
		}
	}

	created, err := r.api.CreateChannel(ctx, r.guildID, discord.ChannelParams{
		Name:                 name,
		Type:                 discord.ChannelTypeCategory,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		r.fail("create category", name, err)
		return ""
	}
	r.channels[created.ID] = *created
	r.categoryIDs[name] = created.ID
	r.summary.CreatedCategoryCount++
	return created.ID
}

// Pass 6 — channel convergence. Finds each eligible course's channel by topic
// marker first (stable across renames), falling back to a name match; creates
// it when missing (unless the course is archived and never had one) and
// otherwise patches only the fields that differ.
func (r *reconciler) convergeCourseChannels(ctx context.Context) {
	coursesCategory := r.ensureCategory(ctx, r.cfg.CoursesCategory, nil)
	archivedCategory := r.ensureCategory(ctx, r.cfg.ArchivedCategory, readOnlyOverwrites(r.everyoneID(), r.botID))

	for _, cp := range r.eligible {
		roleID := r.courseRoles[cp.Course.ID]
		if roleID == "" {
			continue
		}

		marker := CourseTopicMarker(cp.Course.ID)
		desiredName := channelNameForCourse(cp.Course.Title)
		parentID := coursesCategory
		if cp.Archived {
			parentID = archivedCategory
		}
		desiredOverwrites := courseChannelOverwrites(r.everyoneID(), roleID, r.botID, cp.Archived)

		ch := r.channelByMarker(cp.Course.ID)
		if ch == nil {
			ch = r.textChannelByName(desiredName)
		}

		if ch == nil {
			// Archived courses that never had a channel do not get one now
			if cp.Archived {
				continue
			}
			if parentID == "" {
				r.fail("create course channel", desiredName, fmt.Errorf("missing parent category %q", r.cfg.CoursesCategory))
				continue
			}
			created, err := r.api.CreateChannel(ctx, r.guildID, discord.ChannelParams{
				Name:                 desiredName,
				Type:                 discord.ChannelTypeText,
				Topic:                marker,
				ParentID:             &parentID,
				PermissionOverwrites: desiredOverwrites,
			})
			if err != nil {
				r.fail("create course channel", desiredName, err)
				continue
			}
			r.channels[created.ID] = *created
			r.courseChannels[cp.Course.ID] = created.ID
			r.summary.CreatedChannelCount++
			continue
		}

		var patch discord.ChannelPatch
		changed := false
		archivedMove := false

		if ch.Name != desiredName {
			patch.Name = &desiredName
			changed = true
		}
		if !strings.HasPrefix(ch.Topic, marker) {
			topic := marker
			patch.Topic = &topic
			changed = true
		}
		if parentID != "" && (ch.ParentID == nil || *ch.ParentID != parentID) {
			patch.ParentID = &parentID
			changed = true
			archivedMove = cp.Archived
		}
		if merged, differs := mergeOverwrites(ch.PermissionOverwrites, desiredOverwrites); differs {
			patch.PermissionOverwrites = &merged
			changed = true
		}

		r.courseChannels[cp.Course.ID] = ch.ID
		if !changed {
			continue
		}

		updated, err := r.api.ModifyChannel(ctx, ch.ID, patch)
		if err != nil {
			r.fail("update course channel", ch.Name, err)
			continue
		}
		r.channels[updated.ID] = *updated
		if archivedMove {
			r.summary.ArchivedChannelCount++
		} else {
			r.summary.UpdatedChannelCount++
		}
	}
}

// textChannelByName is the fallback lookup for course channels that predate
// topic tagging
func (r *reconciler) textChannelByName(name string) *discord.Channel {
	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if ch.Type != discord.ChannelTypeText || ch.Name != name {
			continue
		}
		// A channel tagged for another course is never a match
		if _, tagged := ParseTopicMarker(ch.Topic); tagged {
			continue
		}
		return &ch
	}
	return nil
}

// fixedChannelSpec describes one of the fixed community/info channels
type fixedChannelSpec struct {
	name       string
	chanType   int
	category   string
	overwrites func() []discord.Overwrite
}

// Pass 7 — fixed channel convergence, then ordinal position pinning for the
// top-level categories.
func (r *reconciler) convergeFixedChannels(ctx context.Context) {
	r.ensureCategory(ctx, r.cfg.InfoCategory, nil)
	r.ensureCategory(ctx, r.cfg.CommunityCategory, nil)

	specs := []fixedChannelSpec{
		{r.cfg.WelcomeChannel, discord.ChannelTypeText, r.cfg.InfoCategory, func() []discord.Overwrite {
			return readOnlyOverwrites(r.everyoneID(), r.botID)
		}},
		{r.cfg.AnnouncementsChannel, discord.ChannelTypeText, r.cfg.InfoCategory, func() []discord.Overwrite {
			return readOnlyOverwrites(r.everyoneID(), r.botID)
		}},
		{r.cfg.GeneralChannel, discord.ChannelTypeText, r.cfg.CommunityCategory, func() []discord.Overwrite {
			return openTextOverwrites(r.everyoneID())
		}},
		{r.cfg.VoiceChannel, discord.ChannelTypeVoice, r.cfg.CommunityCategory, func() []discord.Overwrite {
			return voiceOverwrites(r.everyoneID())
		}},
	}

	for _, spec := range specs {
		parentID := r.categoryIDs[spec.category]
		desiredOverwrites := spec.overwrites()

		ch := r.channelByNameAndType(spec.name, spec.chanType)
		if ch == nil {
			params := discord.ChannelParams{
				Name:                 spec.name,
				Type:                 spec.chanType,
				PermissionOverwrites: desiredOverwrites,
			}
			if parentID != "" {
				params.ParentID = &parentID
			}
			created, err := r.api.CreateChannel(ctx, r.guildID, params)
			if err != nil {
				r.fail("create fixed channel", spec.name, err)
				continue
			}
			r.channels[created.ID] = *created
			r.fixedChannels[spec.name] = created.ID
			r.summary.CreatedChannelCount++
			continue
		}

		var patch discord.ChannelPatch
		changed := false
		if parentID != "" && (ch.ParentID == nil || *ch.ParentID != parentID) {
			patch.ParentID = &parentID
			changed = true
		}
		if merged, differs := mergeOverwrites(ch.PermissionOverwrites, desiredOverwrites); differs {
			patch.PermissionOverwrites = &merged
			changed = true
		}

		r.fixedChannels[spec.name] = ch.ID
		if !changed {
			continue
		}

		updated, err := r.api.ModifyChannel(ctx, ch.ID, patch)
		if err != nil {
			r.fail("update fixed channel", ch.Name, err)
			continue
		}
		r.channels[updated.ID] = *updated
		r.summary.UpdatedChannelCount++
	}

	r.pinCategoryPositions(ctx)
}

// channelByNameAndType finds a channel by display name and type. A channel
// tagged as a course channel never matches; a course title can collide with a
// fixed channel's name.
func (r *reconciler) channelByNameAndType(name string, chanType int) *discord.Channel {
	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if ch.Type != chanType || ch.Name != name {
			continue
		}
		if _, tagged := ParseTopicMarker(ch.Topic); tagged {
			continue
		}
		return &ch
	}
	return nil
}

// pinCategoryPositions keeps the managed categories in a fixed order at the
// top level of the guild
func (r *reconciler) pinCategoryPositions(ctx context.Context) {
	order := []string{r.cfg.InfoCategory, r.cfg.CommunityCategory, r.cfg.CoursesCategory, r.cfg.ArchivedCategory}

	var positions []discord.ChannelPosition
	needsUpdate := false
	for i, name := range order {
		id := r.categoryIDs[name]
		if id == "" {
			continue
		}
		positions = append(positions, discord.ChannelPosition{ID: id, Position: i})
		if ch, ok := r.channels[id]; ok && ch.Position != i {
			needsUpdate = true
		}
	}

	if !needsUpdate || len(positions) == 0 {
		return
	}

	if err := r.api.UpdateChannelPositions(ctx, r.guildID, positions); err != nil {
		r.fail("pin channel positions", "categories", err)
		return
	}
	for _, p := range positions {
		ch := r.channels[p.ID]
		ch.Position = p.Position
		r.channels[p.ID] = ch
	}
}

// Pass 8 — orphan cleanup. Deletes channels outside the allow-list built by
// the channel passes, then deletes now-childless categories outside the
// protected set.
func (r *reconciler) cleanupOrphans(ctx context.Context) {
	allowed := make(map[string]bool)
	for _, id := range r.courseChannels {
		allowed[id] = true
	}
	for _, id := range r.fixedChannels {
		allowed[id] = true
	}
	for _, id := range r.categoryIDs {
		allowed[id] = true
	}

	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if ch.Type == discord.ChannelTypeCategory || allowed[ch.ID] {
			continue
		}
		// A channel tagged with an eligible course stays even when the
		// course's role operations failed this run; the next run converges it
		if markerID, ok := ParseTopicMarker(ch.Topic); ok && r.eligibleSet[markerID] {
			continue
		}
		if err := r.api.DeleteChannel(ctx, ch.ID); err != nil {
			r.fail("delete orphan channel", ch.Name, err)
		} else {
			delete(r.channels, ch.ID)
			r.summary.DeletedChannelCount++
		}
	}

	protectedCategories := make(map[string]bool, len(r.categoryIDs))
	for _, id := range r.categoryIDs {
		protectedCategories[id] = true
	}

	for _, id := range sortedKeys(r.channels) {
		ch := r.channels[id]
		if ch.Type != discord.ChannelTypeCategory || protectedCategories[ch.ID] {
			continue
		}
		if r.categoryHasChildren(ch.ID) {
			continue
		}
		if err := r.api.DeleteChannel(ctx, ch.ID); err != nil {
			r.fail("delete orphan category", ch.Name, err)
		} else {
			delete(r.channels, ch.ID)
			r.summary.DeletedChannelCount++
		}
	}
}

// categoryHasChildren reports whether any channel still lives under the category
func (r *reconciler) categoryHasChildren(categoryID string) bool {
	for _, ch := range r.channels {
		if ch.ParentID != nil && *ch.ParentID == categoryID {
			return true
		}
	}
	return false
}

// mergeOverwrites checks whether the actual overwrite list already contains
// every desired entry with matching masks. When it does not, it returns the
// desired entries merged with any unmanaged extras from the actual list, so a
// patch never wipes overwrites the platform owner added by hand.
func mergeOverwrites(actual, desired []discord.Overwrite) ([]discord.Overwrite, bool) {
	type key struct {
		id  string
		typ int
	}

	actualByKey := make(map[key]discord.Overwrite, len(actual))
	for _, ow := range actual {
		actualByKey[key{ow.ID, ow.Type}] = ow
	}

	differs := false
	desiredKeys := make(map[key]bool, len(desired))
	for _, want := range desired {
		k := key{want.ID, want.Type}
		desiredKeys[k] = true
		got, ok := actualByKey[k]
		if !ok || got.Allow != want.Allow || got.Deny != want.Deny {
			differs = true
		}
	}
	if !differs {
		return nil, false
	}

	merged := make([]discord.Overwrite, 0, len(desired)+len(actual))
	merged = append(merged, desired...)
	for _, ow := range actual {
		if !desiredKeys[key{ow.ID, ow.Type}] {
			merged = append(merged, ow)
		}
	}
	return merged, true
}

// sortedKeys returns map keys in ascending order for deterministic iteration
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
