package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/app/repositories"
	"github.com/oguzk/tutorhub/internal/pkg/discord"
)

// GuildAPI is the surface of the chat platform client the reconciler drives.
// *discord.Client satisfies it; tests substitute an in-memory fake guild.
type GuildAPI interface {
	CurrentUser(ctx context.Context) (*discord.User, error)
	GuildMembers(ctx context.Context, guildID string) ([]discord.Member, error)
	GuildRoles(ctx context.Context, guildID string) ([]discord.Role, error)
	CreateRole(ctx context.Context, guildID string, params discord.RoleParams) (*discord.Role, error)
	DeleteRole(ctx context.Context, guildID, roleID string) error
	GuildChannels(ctx context.Context, guildID string) ([]discord.Channel, error)
	CreateChannel(ctx context.Context, guildID string, params discord.ChannelParams) (*discord.Channel, error)
	ModifyChannel(ctx context.Context, channelID string, patch discord.ChannelPatch) (*discord.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	UpdateChannelPositions(ctx context.Context, guildID string, positions []discord.ChannelPosition) error
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMember(ctx context.Context, guildID, userID string) error
}

// Config holds guild synchronization settings
type Config struct {
	BotToken     string
	GuildID      string
	FounderEmail string

	// Display names of the managed categories
	CoursesCategory   string
	ArchivedCategory  string
	InfoCategory      string
	CommunityCategory string

	// Display names of the fixed channels
	WelcomeChannel       string
	AnnouncementsChannel string
	GeneralChannel       string
	VoiceChannel         string

	// ProtectedRoleNames are never deleted by stale-role cleanup
	ProtectedRoleNames []string
}

// Summary is the aggregate result of one reconciliation run
type Summary struct {
	Enabled                bool     `json:"enabled"`
	SkippedReason          string   `json:"skippedReason,omitempty"`
	KickedMemberCount      int      `json:"kickedMemberCount"`
	CreatedCategoryCount   int      `json:"createdCategoryCount"`
	CreatedRoleCount       int      `json:"createdRoleCount"`
	CreatedCourseRoleCount int      `json:"createdCourseRoleCount"`
	BaseRoleAddedCount     int      `json:"baseRoleAddedCount"`
	BaseRoleRemovedCount   int      `json:"baseRoleRemovedCount"`
	CourseRoleAddedCount   int      `json:"courseRoleAddedCount"`
	CourseRoleRemovedCount int      `json:"courseRoleRemovedCount"`
	CreatedChannelCount    int      `json:"createdChannelCount"`
	UpdatedChannelCount    int      `json:"updatedChannelCount"`
	ArchivedChannelCount   int      `json:"archivedChannelCount"`
	DeletedChannelCount    int      `json:"deletedChannelCount"`
	DeletedCourseRoleCount int      `json:"deletedCourseRoleCount"`
	Errors                 []string `json:"errors"`
}

// NewSummary returns an empty summary with a non-nil error list
func NewSummary() *Summary {
	return &Summary{Enabled: true, Errors: []string{}}
}

// HasChanges reports whether any corrective operation was applied
func (s *Summary) HasChanges() bool {
	return s.KickedMemberCount+s.CreatedCategoryCount+s.CreatedRoleCount+
		s.CreatedCourseRoleCount+s.BaseRoleAddedCount+s.BaseRoleRemovedCount+
		s.CourseRoleAddedCount+s.CourseRoleRemovedCount+s.CreatedChannelCount+
		s.UpdatedChannelCount+s.ArchivedChannelCount+s.DeletedChannelCount+
		s.DeletedCourseRoleCount > 0
}

// Service drives guild reconciliation: it loads the application snapshot,
// reads the live guild state and lets the reconciler converge the two.
type Service struct {
	userRepo       *repositories.UserRepository
	courseRepo     *repositories.CourseRepository
	enrollmentRepo *repositories.EnrollmentRepository
	api            GuildAPI
	cfg            Config
	logger         zerolog.Logger
	clock          func() time.Time
}

// NewService creates a new synchronization service
func NewService(
	userRepo *repositories.UserRepository,
	courseRepo *repositories.CourseRepository,
	enrollmentRepo *repositories.EnrollmentRepository,
	api GuildAPI,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	return &Service{
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		api:            api,
		cfg:            cfg,
		logger:         logger,
		clock:          time.Now,
	}
}

// Run executes one full reconciliation and always returns a summary; a
// failure before the reconciler starts is reported as a single error with
// zero counts rather than a panic or error return.
func (s *Service) Run(ctx context.Context) *Summary {
	summary := NewSummary()

	if s.cfg.BotToken == "" {
		summary.Enabled = false
		summary.SkippedReason = "bot token not configured"
		return summary
	}
	if s.cfg.GuildID == "" {
		summary.Enabled = false
		summary.SkippedReason = "guild id not configured"
		return summary
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Guild sync aborted: failed to load application data")
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to load application data: %v", err))
		return summary
	}

	plan := BuildPlan(snap, s.cfg.FounderEmail, s.clock(), s.logger)

	bot, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Guild sync aborted: failed to resolve bot identity")
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to resolve bot identity: %v", err))
		return summary
	}

	members, err := s.api.GuildMembers(ctx, s.cfg.GuildID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Guild sync aborted: failed to fetch guild members")
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to fetch guild members: %v", err))
		return summary
	}

	roles, err := s.api.GuildRoles(ctx, s.cfg.GuildID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Guild sync aborted: failed to fetch guild roles")
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to fetch guild roles: %v", err))
		return summary
	}

	channels, err := s.api.GuildChannels(ctx, s.cfg.GuildID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Guild sync aborted: failed to fetch guild channels")
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to fetch guild channels: %v", err))
		return summary
	}

	r := newReconciler(s.api, s.cfg, plan, bot.ID, members, roles, channels, summary, s.logger)
	r.run(ctx)

	s.logger.Info().
		Int("kicked", summary.KickedMemberCount).
		Int("createdCourseRoles", summary.CreatedCourseRoleCount).
		Int("createdChannels", summary.CreatedChannelCount).
		Int("updatedChannels", summary.UpdatedChannelCount).
		Int("deletedChannels", summary.DeletedChannelCount).
		Int("errors", len(summary.Errors)).
		Msg("Guild sync completed")

	return summary
}

// loadSnapshot reads the full application-side input for one run
func (s *Service) loadSnapshot(ctx context.Context) (Snapshot, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("error retrieving users: %w", err)
	}

	courses, err := s.courseRepo.GetAllWithClasses(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("error retrieving courses: %w", err)
	}

	enrollments, err := s.enrollmentRepo.GetByStatus(ctx, models.EnrollmentApproved)
	if err != nil {
		return Snapshot{}, fmt.Errorf("error retrieving enrollments: %w", err)
	}

	snap := Snapshot{
		Courses:     make([]models.Course, 0, len(courses)),
		Users:       make([]models.User, 0, len(users)),
		Enrollments: make([]models.Enrollment, 0, len(enrollments)),
	}
	for _, u := range users {
		snap.Users = append(snap.Users, *u)
	}
	for _, c := range courses {
		snap.Courses = append(snap.Courses, *c)
	}
	for _, e := range enrollments {
		snap.Enrollments = append(snap.Enrollments, *e)
	}
	return snap, nil
}
