package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaultsAndFile(t *testing.T) {
	path := writeConfigFile(t, `
jwt:
  secret: "file-secret"
database:
  host: "db.internal"
discord:
  protected_roles:
    - "Moderator"
    - "Alumni"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"Moderator", "Alumni"}, cfg.Discord.ProtectedRoles)

	// Untouched sections keep their defaults
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "Courses", cfg.Discord.CoursesCategory)
	assert.Equal(t, "Study Hall", cfg.Discord.VoiceChannel)
	assert.Equal(t, "24h", cfg.App.ReminderLeadTime)
	assert.Equal(t, 20, cfg.Database.MaxConns)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
jwt:
  secret: "file-secret"
server:
  port: "8080"
`)

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("SMTP_USE_TLS", "false")
	t.Setenv("DISCORD_PROTECTED_ROLES", "Moderator, VIP ,Alumni")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 50, cfg.Database.MaxConns)
	assert.False(t, cfg.SMTP.UseTLS)
	assert.Equal(t, []string{"Moderator", "VIP", "Alumni"}, cfg.Discord.ProtectedRoles)
}

func TestLoadConfigMissingFileUsesEnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-only-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only-secret", cfg.JWT.Secret)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		path := writeConfigFile(t, `
database:
  host: "db"
`)
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "JWT secret is required")
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfigFile(t, `
jwt:
  secret: "s"
  access_token_expiration: "notaduration"
`)
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "access token expiration")
	})

	t.Run("bad reminder lead time", func(t *testing.T) {
		path := writeConfigFile(t, `
jwt:
  secret: "s"
app:
  reminder_lead_time: "soon"
`)
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "reminder lead time")
	})
}

func TestGetPostgresConnectionString(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.User = "app"
	cfg.Database.Password = "pw"
	cfg.Database.DBName = "tutorhub"

	assert.Equal(t,
		"postgres://app:pw@localhost:5432/tutorhub?sslmode=disable",
		cfg.GetPostgresConnectionString())
}
