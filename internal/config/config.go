package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		SMTP
		Tasks
		Maintenance
		Audit
	}

	HTTP struct {
		Port int32
		Host string
		HSTS bool // Send Strict-Transport-Security, enable only behind TLS
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret         string        // HMAC signing secret; generated per process if empty
		TokenTTL          time.Duration // Bearer token lifetime (default: 7 days)
		TokenIssuer       string
		BcryptCost        int
		MinPasswordLength int
		ResetTokenTTL     time.Duration // Password reset token lifetime (default: 10m)
		ResetURLBase      string        // Reset link prefix, the plaintext token is appended
		DenylistEnabled   bool          // Track revoked tokens until their natural expiry
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Maintenance struct {
		Enabled  bool
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 90)
	}
)

// Configured reports whether enough SMTP settings are present to send mail.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.From != ""
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_hsts", false)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "") // Auto-generated if empty
	v.SetDefault("auth_token_ttl", "168h")
	v.SetDefault("auth_token_issuer", DefaultTokenIssuer)
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_min_password_length", 6)
	v.SetDefault("auth_reset_token_ttl", "10m")
	v.SetDefault("auth_reset_url_base", "http://localhost:8188/api/auth/reset-password")
	v.SetDefault("auth_denylist_enabled", true)

	// SMTP defaults
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_from", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("maintenance_enabled", true)
	v.SetDefault("maintenance_schedule", "*/15 * * * *")
	v.SetDefault("audit_retention_days", 90)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
			HSTS: v.GetBool("HTTP_HSTS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			JWTSecret:         v.GetString("AUTH_JWT_SECRET"),
			TokenTTL:          v.GetDuration("AUTH_TOKEN_TTL"),
			TokenIssuer:       v.GetString("AUTH_TOKEN_ISSUER"),
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			MinPasswordLength: v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
			ResetTokenTTL:     v.GetDuration("AUTH_RESET_TOKEN_TTL"),
			ResetURLBase:      v.GetString("AUTH_RESET_URL_BASE"),
			DenylistEnabled:   v.GetBool("AUTH_DENYLIST_ENABLED"),
		},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Maintenance: Maintenance{
			Enabled:  v.GetBool("MAINTENANCE_ENABLED"),
			Schedule: v.GetString("MAINTENANCE_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
	}
}
