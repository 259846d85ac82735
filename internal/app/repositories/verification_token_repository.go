package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oguzk/tutorhub/internal/pkg/apperrors"
	"github.com/oguzk/tutorhub/internal/pkg/logger"
)

// VerificationTokenRepository handles email verification token database operations
type VerificationTokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewVerificationTokenRepository creates a new VerificationTokenRepository
func NewVerificationTokenRepository(db *pgxpool.Pool) *VerificationTokenRepository {
	return &VerificationTokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateToken stores a new verification token for a user, invalidating any
// previous unused tokens first
func (r *VerificationTokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	invalidate, args, err := r.sb.Update("email_verification_tokens").
		Set("used", true).
		Where(squirrel.Eq{"user_id": userID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build invalidate tokens query: %w", err)
	}
	if _, err := r.db.Exec(ctx, invalidate, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error invalidating previous verification tokens")
		return fmt.Errorf("error invalidating previous tokens: %w", err)
	}

	insert, args, err := r.sb.Insert("email_verification_tokens").
		Columns("token", "user_id", "expiry_date", "used", "created_at").
		Values(token, userID, expiryDate, false, time.Now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create verification token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, insert, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing create verification token query")
		return fmt.Errorf("error creating verification token: %w", err)
	}

	return nil
}

// ConsumeToken validates a verification token and marks it used, returning
// the owning user id. Expired, used and unknown tokens all report the same
// invalid-token error.
func (r *VerificationTokenRepository) ConsumeToken(ctx context.Context, token string) (int64, error) {
	var userID int64
	var expiryDate time.Time
	var used bool

	query, args, err := r.sb.Select("user_id", "expiry_date", "used").
		From("email_verification_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build get verification token query: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&userID, &expiryDate, &used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrInvalidEmailToken
		}
		logger.Error().Err(err).Msg("Error scanning verification token row")
		return 0, fmt.Errorf("error retrieving verification token: %w", err)
	}

	if used || expiryDate.Before(time.Now()) {
		return 0, apperrors.ErrInvalidEmailToken
	}

	consume, args, err := r.sb.Update("email_verification_tokens").
		Set("used", true).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build consume verification token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, consume, args...); err != nil {
		logger.Error().Err(err).Msg("Error consuming verification token")
		return 0, fmt.Errorf("error consuming verification token: %w", err)
	}

	return userID, nil
}

// CleanupExpiredTokens removes verification tokens past their expiry
func (r *VerificationTokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	query, args, err := r.sb.Delete("email_verification_tokens").
		Where(squirrel.Lt{"expiry_date": time.Now()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build cleanup verification tokens query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error cleaning up verification tokens")
		return 0, fmt.Errorf("error cleaning up verification tokens: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
