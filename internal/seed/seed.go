package seed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/app/repositories"
	"github.com/oguzk/tutorhub/internal/config"
	"github.com/oguzk/tutorhub/internal/pkg/apperrors"
	"github.com/oguzk/tutorhub/internal/pkg/auth"
)

// EnsureFounder creates the founder account if it does not exist yet. The
// founder role itself is never stored; the account carries the tutor role and
// the role elevation happens at login based on the configured founder email.
func EnsureFounder(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	founderEmail := cfg.App.FounderEmail
	if founderEmail == "" {
		lgr.Debug().Msg("No founder email configured, skipping founder seed")
		return nil
	}

	userRepo := repositories.NewUserRepository(dbPool)

	existing, err := userRepo.GetByEmail(ctx, founderEmail)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return err
	}
	if existing != nil {
		// The founder may have registered through the normal flow before the
		// email was configured. Make sure the account can manage courses.
		if existing.RoleType == models.RoleStudent {
			if err := userRepo.UpdateRole(ctx, existing.ID, models.RoleTutor); err != nil {
				return err
			}
			lgr.Info().Int64("userID", existing.ID).Msg("Founder account promoted to tutor")
		} else {
			lgr.Debug().Msg("Founder account already exists, skipping creation")
		}
		return nil
	}

	// The initial password only arrives through the environment so it never
	// lands in a config file
	password := config.GetEnv("APP_FOUNDER_PASSWORD", "")
	if password == "" {
		lgr.Warn().Str("email", founderEmail).Msg("Founder account missing and APP_FOUNDER_PASSWORD not set, skipping creation")
		return nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return errors.Join(errors.New("failed to hash founder password"), err)
	}

	founder := &models.User{
		Email:         founderEmail,
		Password:      hashed,
		FirstName:     "Platform",
		LastName:      "Founder",
		RoleType:      models.RoleTutor,
		EmailVerified: true,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := userRepo.Create(ctx, founder); err != nil {
		return err
	}

	lgr.Info().Int64("userID", founder.ID).Str("email", founderEmail).Msg("Founder account created")
	return nil
}
