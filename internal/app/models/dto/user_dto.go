package dto

import "github.com/oguzk/tutorhub/internal/app/models"

// UserResponse represents basic user information
type UserResponse struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Role          string `json:"role"`
	DiscordUserID string `json:"discordUserId,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// NewUserResponse maps a user to its response form. The role field carries
// the effective role, founder email match included.
func NewUserResponse(user *models.User, founderEmail string) UserResponse {
	resp := UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Role:          string(user.EffectiveRole(founderEmail)),
		EmailVerified: user.EmailVerified,
	}
	if user.DiscordUserID != nil {
		resp.DiscordUserID = *user.DiscordUserID
	}
	return resp
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// LinkDiscordRequest links a chat platform account to the profile. An empty
// id clears the link.
type LinkDiscordRequest struct {
	DiscordUserID string `json:"discordUserId" binding:"omitempty,numeric,min=15,max=21"`
}
