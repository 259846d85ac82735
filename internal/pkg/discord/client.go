package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the REST endpoint of the chat platform API
const DefaultBaseURL = "https://discord.com/api/v10"

// memberPageSize is the maximum page size accepted by the guild members endpoint
const memberPageSize = 1000

// APIError is a non-retryable error response from the API
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: %s (status %d)", e.Message, e.Status)
}

// Config holds client configuration
type Config struct {
	// Token is the bot token used for authentication
	Token string
	// BaseURL overrides the API endpoint (used in tests)
	BaseURL string
	// MaxAttempts bounds retries for rate-limited and transient failures
	MaxAttempts int
	// BaseBackoff is the initial backoff delay, doubled per attempt
	BaseBackoff time.Duration
	// HTTPClient overrides the underlying HTTP client
	HTTPClient *http.Client
}

// Client is a rate-limit-aware REST client for the guild API. Every call goes
// through a single request primitive that retries 429 responses (honoring a
// server-supplied retry-after when present) and transient 5xx responses with
// exponential backoff, up to a bounded attempt count. Other error responses
// fail the call immediately.
type Client struct {
	http        *http.Client
	baseURL     string
	token       string
	maxAttempts int
	baseBackoff time.Duration
	logger      zerolog.Logger
}

// NewClient creates a new API client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		http:        cfg.HTTPClient,
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: cfg.BaseBackoff,
		logger:      logger,
	}
}

// rateLimitBody is the JSON payload of a 429 response
type rateLimitBody struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

// errorBody is the JSON payload of an error response
type errorBody struct {
	Message string `json:"message"`
}

// do issues a request and decodes the JSON response into out (when out is
// non-nil and the response has a body). It is the only path to the network.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request to %s failed: %w", path, err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response from %s: %w", path, err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			// Empty bodies (204 and friends) decode to "no content"
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("failed to decode response from %s: %w", path, err)
				}
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			delay := c.retryAfter(resp, respBody, attempt)
			c.logger.Warn().
				Str("path", path).
				Dur("retryAfter", delay).
				Int("attempt", attempt+1).
				Msg("Rate limited by API, backing off")
			lastErr = fmt.Errorf("rate limited on %s", path)
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}

		case resp.StatusCode >= 500:
			delay := c.backoff(attempt)
			c.logger.Warn().
				Str("path", path).
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Msg("Transient API error, backing off")
			lastErr = &APIError{Status: resp.StatusCode, Message: apiMessage(respBody)}
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}

		default:
			// Other client errors are not retried
			return &APIError{Status: resp.StatusCode, Message: apiMessage(respBody)}
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", c.maxAttempts, lastErr)
}

// retryAfter extracts the server-supplied retry delay from a 429 response,
// falling back to exponential backoff when absent.
func (c *Client) retryAfter(resp *http.Response, body []byte, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if secs, err := strconv.ParseFloat(header, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}

	var rl rateLimitBody
	if err := json.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
		return time.Duration(rl.RetryAfter * float64(time.Second))
	}

	return c.backoff(attempt)
}

// backoff returns the delay for the given attempt, doubling each time
func (c *Client) backoff(attempt int) time.Duration {
	return c.baseBackoff * time.Duration(1<<attempt)
}

// apiMessage extracts the server-provided error message, with a generic fallback
func apiMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}
	return "unexpected API error"
}

// sleepCtx waits for the given duration or until the context is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CurrentUser returns the identity the client authenticates as
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GuildMembers fetches the full member list, paginating with the last-seen
// user id as cursor.
func (c *Client) GuildMembers(ctx context.Context, guildID string) ([]Member, error) {
	var members []Member
	after := ""

	for {
		path := fmt.Sprintf("/guilds/%s/members?limit=%d", guildID, memberPageSize)
		if after != "" {
			path += "&after=" + after
		}

		var page []Member
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		members = append(members, page...)

		if len(page) < memberPageSize {
			return members, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// GuildRoles fetches all roles of the guild
func (c *Client) GuildRoles(ctx context.Context, guildID string) ([]Role, error) {
	var roles []Role
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/roles", guildID), nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// CreateRole creates a new guild role
func (c *Client) CreateRole(ctx context.Context, guildID string, params RoleParams) (*Role, error) {
	var role Role
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/guilds/%s/roles", guildID), params, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole deletes a guild role
func (c *Client) DeleteRole(ctx context.Context, guildID, roleID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/guilds/%s/roles/%s", guildID, roleID), nil, nil)
}

// GuildChannels fetches all channels of the guild, categories included
func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]Channel, error) {
	var channels []Channel
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/channels", guildID), nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// CreateChannel creates a new guild channel
func (c *Client) CreateChannel(ctx context.Context, guildID string, params ChannelParams) (*Channel, error) {
	var channel Channel
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/guilds/%s/channels", guildID), params, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// ModifyChannel applies a partial update to a channel
func (c *Client) ModifyChannel(ctx context.Context, channelID string, patch ChannelPatch) (*Channel, error) {
	var channel Channel
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/channels/%s", channelID), patch, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// DeleteChannel deletes a channel
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/channels/%s", channelID), nil, nil)
}

// UpdateChannelPositions pins channels to ordinal positions in the guild listing
func (c *Client) UpdateChannelPositions(ctx context.Context, guildID string, positions []ChannelPosition) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/guilds/%s/channels", guildID), positions, nil)
}

// AddMemberRole grants a role to a guild member
func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID), nil, nil)
}

// RemoveMemberRole revokes a role from a guild member
func (c *Client) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID), nil, nil)
}

// RemoveMember kicks a member from the guild
func (c *Client) RemoveMember(ctx context.Context, guildID, userID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/guilds/%s/members/%s", guildID, userID), nil, nil)
}
