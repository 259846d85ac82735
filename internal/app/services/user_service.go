package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models/dto"
	"github.com/oguzk/tutorhub/internal/app/repositories"
	"github.com/oguzk/tutorhub/internal/pkg/apperrors"
)

// UserService handles profile operations
type UserService struct {
	userRepo     *repositories.UserRepository
	founderEmail string
	logger       zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repositories.UserRepository, founderEmail string, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:     userRepo,
		founderEmail: founderEmail,
		logger:       logger,
	}
}

// GetProfile retrieves the caller's profile
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := dto.NewUserResponse(user, s.founderEmail)
	return &resp, nil
}

// UpdateProfile updates the caller's name
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return nil, apperrors.NewBadRequestError("first and last name cannot be empty")
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, firstName, lastName); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

// LinkDiscord links a chat platform account to the caller's profile. An empty
// id clears the link. The next reconciliation run picks the change up.
func (s *UserService) LinkDiscord(ctx context.Context, userID int64, discordUserID string) (*dto.UserResponse, error) {
	var link *string
	if trimmed := strings.TrimSpace(discordUserID); trimmed != "" {
		link = &trimmed
	}

	if err := s.userRepo.UpdateDiscordUserID(ctx, userID, link); err != nil {
		return nil, err
	}

	if link != nil {
		s.logger.Info().Int64("userID", userID).Str("discordUserId", *link).Msg("Discord account linked")
	} else {
		s.logger.Info().Int64("userID", userID).Msg("Discord account unlinked")
	}

	return s.GetProfile(ctx, userID)
}
