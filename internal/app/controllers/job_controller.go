package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/repositories"
	"github.com/oguzk/tutorhub/internal/app/services"
	"github.com/oguzk/tutorhub/internal/app/sync"
)

// JobController exposes maintenance jobs: guild reconciliation, class
// reminders and token cleanup. All are synchronous; callers are expected to
// be cron-style automation, not interactive clients.
type JobController struct {
	syncService     *sync.Service
	reminderService *services.ReminderService
	tokenRepo       *repositories.TokenRepository
	verifyRepo      *repositories.VerificationTokenRepository
	logger          zerolog.Logger
}

// NewJobController creates a new JobController
func NewJobController(
	syncService *sync.Service,
	reminderService *services.ReminderService,
	tokenRepo *repositories.TokenRepository,
	verifyRepo *repositories.VerificationTokenRepository,
	logger zerolog.Logger,
) *JobController {
	return &JobController{
		syncService:     syncService,
		reminderService: reminderService,
		tokenRepo:       tokenRepo,
		verifyRepo:      verifyRepo,
		logger:          logger,
	}
}

// DiscordSync runs one guild reconciliation pass and returns its summary.
// The run itself never fails the request: per-operation failures are carried
// inside the summary's error list. Job callers are automation, so the summary
// is the response body, not wrapped in the API envelope.
func (c *JobController) DiscordSync(ctx *gin.Context) {
	c.logger.Info().Msg("Guild sync job triggered")

	summary := c.syncService.Run(ctx.Request.Context())

	ctx.JSON(http.StatusOK, summary)
}

// ClassReminders delivers reminder emails for classes starting soon
func (c *JobController) ClassReminders(ctx *gin.Context) {
	c.logger.Info().Msg("Class reminder job triggered")

	summary := c.reminderService.Run(ctx.Request.Context())

	ctx.JSON(http.StatusOK, summary)
}

// tokenCleanupSummary reports one token cleanup pass
type tokenCleanupSummary struct {
	DeletedRefreshTokens      int64    `json:"deletedRefreshTokens"`
	DeletedVerificationTokens int64    `json:"deletedVerificationTokens"`
	Errors                    []string `json:"errors"`
}

// TokenCleanup purges expired refresh tokens and stale verification tokens
func (c *JobController) TokenCleanup(ctx *gin.Context) {
	c.logger.Info().Msg("Token cleanup job triggered")

	summary := tokenCleanupSummary{Errors: []string{}}

	deleted, err := c.tokenRepo.CleanupExpiredTokens(ctx.Request.Context())
	if err != nil {
		summary.Errors = append(summary.Errors, "refresh tokens: "+err.Error())
	} else {
		summary.DeletedRefreshTokens = deleted
	}

	deleted, err = c.verifyRepo.CleanupExpiredTokens(ctx.Request.Context())
	if err != nil {
		summary.Errors = append(summary.Errors, "verification tokens: "+err.Error())
	} else {
		summary.DeletedVerificationTokens = deleted
	}

	c.logger.Info().
		Int64("deletedRefreshTokens", summary.DeletedRefreshTokens).
		Int64("deletedVerificationTokens", summary.DeletedVerificationTokens).
		Int("errorCount", len(summary.Errors)).
		Msg("Token cleanup finished")

	ctx.JSON(http.StatusOK, summary)
}
