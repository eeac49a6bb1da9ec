package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Student/admin accounts with sessions
)

type BackupProvider string

const (
	BackupProviderLocal BackupProvider = "local"
	BackupProviderS3    BackupProvider = "s3"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Circulation
		Audit
		Tasks
		Schedules
		Auth
		Backup
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path     string
		SeedDemo bool
	}
	Circulation struct {
		LoanPeriod        time.Duration
		RenewalPeriod     time.Duration
		MaxRenewals       int // 0 means unlimited
		DueSoonWindowDays int
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 90)
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Schedules struct {
		OverdueScanEnabled  bool
		OverdueScan         string // Cron format: "0 8 * * *" = daily at 08:00
		InventoryResync     string // Empty disables the job
		BackupEnabled       bool
		Backup              string
		AuditCleanupEnabled bool
		AuditCleanup        string
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Backup struct {
		Provider BackupProvider
		Dir      string
		Prefix   string
		Keep     int // Snapshots retained after each backup; 0 keeps all
		S3       S3
	}
	S3 struct {
		Bucket          string
		Region          string
		Endpoint        string
		AccessKeyID     string
		SecretAccessKey string
		PathStyle       bool
	}
	Metrics struct {
		Enabled bool
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_seed_demo", true)

	// Circulation defaults
	v.SetDefault("loan_period", DefaultLoanPeriod.String())
	v.SetDefault("renewal_period", DefaultRenewalPeriod.String())
	v.SetDefault("max_renewals", 0)
	v.SetDefault("due_soon_window_days", 3)

	v.SetDefault("audit_retention_days", 90)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Scheduler defaults
	v.SetDefault("overdue_scan_enabled", false)
	v.SetDefault("overdue_scan_schedule", "0 8 * * *")       // Daily at 08:00
	v.SetDefault("inventory_resync_schedule", "30 3 * * *") // Daily at 03:30
	v.SetDefault("backup_enabled", false)
	v.SetDefault("backup_schedule", "0 2 * * *") // Daily at 02:00
	v.SetDefault("audit_cleanup_enabled", true)
	v.SetDefault("audit_cleanup_schedule", "0 4 * * 0") // Sundays at 04:00

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Backup defaults
	v.SetDefault("backup_provider", "local")
	v.SetDefault("backup_dir", "./backups")
	v.SetDefault("backup_prefix", "snapshots")
	v.SetDefault("backup_keep", 14)
	v.SetDefault("backup_s3_bucket", "")
	v.SetDefault("backup_s3_region", "us-east-1")
	v.SetDefault("backup_s3_endpoint", "")
	v.SetDefault("backup_s3_access_key_id", "")
	v.SetDefault("backup_s3_secret_access_key", "")
	v.SetDefault("backup_s3_path_style", false)

	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			SeedDemo: v.GetBool("DATABASE_SEED_DEMO"),
		},
		Circulation: Circulation{
			LoanPeriod:        v.GetDuration("LOAN_PERIOD"),
			RenewalPeriod:     v.GetDuration("RENEWAL_PERIOD"),
			MaxRenewals:       v.GetInt("MAX_RENEWALS"),
			DueSoonWindowDays: v.GetInt("DUE_SOON_WINDOW_DAYS"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Schedules: Schedules{
			OverdueScanEnabled:  v.GetBool("OVERDUE_SCAN_ENABLED"),
			OverdueScan:         v.GetString("OVERDUE_SCAN_SCHEDULE"),
			InventoryResync:     v.GetString("INVENTORY_RESYNC_SCHEDULE"),
			BackupEnabled:       v.GetBool("BACKUP_ENABLED"),
			Backup:              v.GetString("BACKUP_SCHEDULE"),
			AuditCleanupEnabled: v.GetBool("AUDIT_CLEANUP_ENABLED"),
			AuditCleanup:        v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Backup: Backup{
			Provider: BackupProvider(v.GetString("BACKUP_PROVIDER")),
			Dir:      v.GetString("BACKUP_DIR"),
			Prefix:   v.GetString("BACKUP_PREFIX"),
			Keep:     v.GetInt("BACKUP_KEEP"),
			S3: S3{
				Bucket:          v.GetString("BACKUP_S3_BUCKET"),
				Region:          v.GetString("BACKUP_S3_REGION"),
				Endpoint:        v.GetString("BACKUP_S3_ENDPOINT"),
				AccessKeyID:     v.GetString("BACKUP_S3_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("BACKUP_S3_SECRET_ACCESS_KEY"),
				PathStyle:       v.GetBool("BACKUP_S3_PATH_STYLE"),
			},
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}
