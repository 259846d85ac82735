package discord

import "strconv"

// Channel types used by the guild API
const (
	ChannelTypeText     = 0
	ChannelTypeVoice    = 2
	ChannelTypeCategory = 4
)

// Permission overwrite target types
const (
	OverwriteTypeRole   = 0
	OverwriteTypeMember = 1
)

// Permission bits used by the platform
const (
	PermViewChannel        int64 = 1 << 10 // 1024
	PermSendMessages       int64 = 1 << 11 // 2048
	PermReadMessageHistory int64 = 1 << 16 // 65536
	PermConnect            int64 = 1 << 20 // 1048576
)

// Permissions combines permission bits into the string-encoded bitmask the API expects
func Permissions(bits ...int64) string {
	var mask int64
	for _, b := range bits {
		mask |= b
	}
	return strconv.FormatInt(mask, 10)
}

// User is a platform account as returned by the API
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// Member is a guild member: the user plus guild-scoped state
type Member struct {
	User  User     `json:"user"`
	Nick  *string  `json:"nick,omitempty"`
	Roles []string `json:"roles"`
}

// Role is a guild role
type Role struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Managed  bool   `json:"managed"`
	Position int    `json:"position"`
}

// Overwrite is a per-channel permission overwrite for a role or member
type Overwrite struct {
	ID    string `json:"id"`
	Type  int    `json:"type"`
	Allow string `json:"allow"`
	Deny  string `json:"deny"`
}

// Channel is a guild channel of any type (text, voice or category)
type Channel struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Type                 int         `json:"type"`
	Topic                string      `json:"topic,omitempty"`
	ParentID             *string     `json:"parent_id,omitempty"`
	Position             int         `json:"position"`
	PermissionOverwrites []Overwrite `json:"permission_overwrites,omitempty"`
}

// RoleParams are the fields sent when creating a role
type RoleParams struct {
	Name        string `json:"name"`
	Permissions string `json:"permissions,omitempty"`
	Mentionable bool   `json:"mentionable"`
}

// ChannelParams are the fields sent when creating a channel
type ChannelParams struct {
	Name                 string      `json:"name"`
	Type                 int         `json:"type"`
	Topic                string      `json:"topic,omitempty"`
	ParentID             *string     `json:"parent_id,omitempty"`
	PermissionOverwrites []Overwrite `json:"permission_overwrites,omitempty"`
}

// ChannelPatch carries the fields of a partial channel update. Nil fields are
// left untouched by the API.
type ChannelPatch struct {
	Name                 *string      `json:"name,omitempty"`
	Topic                *string      `json:"topic,omitempty"`
	ParentID             *string      `json:"parent_id,omitempty"`
	PermissionOverwrites *[]Overwrite `json:"permission_overwrites,omitempty"`
}

// ChannelPosition pins a channel to an ordinal position in the guild listing
type ChannelPosition struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}
