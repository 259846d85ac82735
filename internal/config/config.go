package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	App struct {
		// FounderEmail grants the founder role to a single account by email
		FounderEmail string `yaml:"founder_email" env:"APP_FOUNDER_EMAIL"`
		// JobSecret guards the maintenance job endpoints; empty disables them
		JobSecret string `yaml:"job_secret" env:"APP_JOB_SECRET"`
		// ReminderLeadTime is the look-ahead window for class reminder emails
		ReminderLeadTime string `yaml:"reminder_lead_time" env:"APP_REMINDER_LEAD_TIME"`
		// BaseURL is used for links embedded in outgoing emails
		BaseURL string `yaml:"base_url" env:"APP_BASE_URL"`
	} `yaml:"app"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxConns        int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
		MinConns        int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Discord struct {
		// BotToken and GuildID enable guild synchronization; leaving either
		// empty disables the sync job without failing startup
		BotToken string `yaml:"bot_token" env:"DISCORD_BOT_TOKEN"`
		GuildID  string `yaml:"guild_id" env:"DISCORD_GUILD_ID"`

		CoursesCategory   string `yaml:"courses_category" env:"DISCORD_COURSES_CATEGORY"`
		ArchivedCategory  string `yaml:"archived_category" env:"DISCORD_ARCHIVED_CATEGORY"`
		InfoCategory      string `yaml:"info_category" env:"DISCORD_INFO_CATEGORY"`
		CommunityCategory string `yaml:"community_category" env:"DISCORD_COMMUNITY_CATEGORY"`

		WelcomeChannel       string `yaml:"welcome_channel" env:"DISCORD_WELCOME_CHANNEL"`
		AnnouncementsChannel string `yaml:"announcements_channel" env:"DISCORD_ANNOUNCEMENTS_CHANNEL"`
		GeneralChannel       string `yaml:"general_channel" env:"DISCORD_GENERAL_CHANNEL"`
		VoiceChannel         string `yaml:"voice_channel" env:"DISCORD_VOICE_CHANNEL"`

		// ProtectedRoles are never deleted by cleanup, comma separated in env
		ProtectedRoles []string `yaml:"protected_roles" env:"DISCORD_PROTECTED_ROLES"`
	} `yaml:"discord"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"smtp"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The config file is optional; env vars alone can carry a deployment
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.App.ReminderLeadTime = "24h"
	config.App.BaseURL = "http://localhost:8080"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "tutorhub"
	config.Database.SSLMode = "disable"
	config.Database.MaxConns = 20
	config.Database.MinConns = 2
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "tutorhub.app"

	config.Discord.CoursesCategory = "Courses"
	config.Discord.ArchivedCategory = "Archive"
	config.Discord.InfoCategory = "Information"
	config.Discord.CommunityCategory = "Community"
	config.Discord.WelcomeChannel = "welcome"
	config.Discord.AnnouncementsChannel = "announcements"
	config.Discord.GeneralChannel = "general"
	config.Discord.VoiceChannel = "Study Hall"

	config.SMTP.Port = 587
	config.SMTP.FromName = "TutorHub"
	config.SMTP.FromEmail = "noreply@tutorhub.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.App.ReminderLeadTime); err != nil {
		return fmt.Errorf("invalid reminder lead time format: %w", err)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(GetEnv(key, ""))
	switch valueStr {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

// GetEnvAsDuration gets an environment variable as a duration or returns a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
