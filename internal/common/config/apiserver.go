package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type (
	// APIServerConfig is the root configuration for the RAG tracker API server.
	APIServerConfig struct {
		Port       int              `yaml:"port"`
		Database   DatabaseConfig   `yaml:"database"`
		Logger     LoggerConfig     `yaml:"logger"`
		JWT        JWTConfig        `yaml:"jwt"`
		SuperAdmin SuperAdminConfig `yaml:"super_admin"`
		I18n       I18nConfig       `yaml:"i18n"`
		Retention  RetentionConfig  `yaml:"retention"`
		Mailer     MailerConfig     `yaml:"mailer"`
		Schedule   ScheduleConfig   `yaml:"schedule"`
		Metrics    MetricsConfig    `yaml:"metrics"`
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // mysql, postgres, sqlite, etc.
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User     string `yaml:"user"`     // root (for mysql), postgres (for postgres)
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name
		SSLMode  string `yaml:"sslmode"`  // disable (for postgres)
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps, e.g., "UTC", default is local
		TimeFormat string `yaml:"time_format"` // time format for log timestamps, default is "2006-01-02 15:04:05"
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// SuperAdminConfig seeds the initial admin account on first start.
	SuperAdminConfig struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	}

	// I18nConfig represents the internationalization configuration
	I18nConfig struct {
		Path string `yaml:"path"` // Path to i18n translation files
	}

	// RetentionConfig controls how far back weekly reports are kept.
	// The same value bounds storage purges and query ranges.
	RetentionConfig struct {
		Months int `yaml:"months"`
	}

	// MailerConfig configures the outbound email transport.
	MailerConfig struct {
		APIKey      string `yaml:"api_key"`
		From        string `yaml:"from"`
		FrontendURL string `yaml:"frontend_url"` // linked from reminder emails
	}

	// ScheduleConfig places the weekly digest jobs and the daily purge.
	// Times are "HH:MM" in the configured timezone.
	ScheduleConfig struct {
		Timezone      string `yaml:"timezone"`       // e.g. "Europe/Amsterdam"
		ReminderDay   string `yaml:"reminder_day"`   // weekday, e.g. "Friday"
		ReminderTime  string `yaml:"reminder_time"`  // "09:00"
		DashboardDay  string `yaml:"dashboard_day"`  // weekday, e.g. "Friday"
		DashboardTime string `yaml:"dashboard_time"` // "17:00"
		PurgeTime     string `yaml:"purge_time"`     // daily, "02:00"
	}

	MetricsConfig struct {
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}
)

func (c *APIServerConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = 4000
	}
	if c.Retention.Months <= 0 {
		c.Retention.Months = 6
	}
	if c.JWT.Duration <= 0 {
		c.JWT.Duration = 8 * time.Hour
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Europe/Amsterdam"
	}
	if c.Schedule.ReminderDay == "" {
		c.Schedule.ReminderDay = "Friday"
	}
	if c.Schedule.ReminderTime == "" {
		c.Schedule.ReminderTime = "09:00"
	}
	if c.Schedule.DashboardDay == "" {
		c.Schedule.DashboardDay = "Friday"
	}
	if c.Schedule.DashboardTime == "" {
		c.Schedule.DashboardTime = "17:00"
	}
	if c.Schedule.PurgeTime == "" {
		c.Schedule.PurgeTime = "02:00"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "ragtrack"
	}
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return c.getPostgresDSN()
	case "mysql":
		return c.getMySQLDSN()
	case "sqlite":
		if c.DBName == ":memory:" {
			return c.DBName
		}
		// Ensure the directory for the SQLite database exists.
		// If the directory cannot be created, it's a fatal error.
		if err := os.MkdirAll(filepath.Dir(c.DBName), 0755); err != nil {
			panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
		}
		return c.DBName // For SQLite, DBName is the file path
	default:
		return ""
	}
}

// getPostgresDSN returns PostgreSQL connection string
func (c *DatabaseConfig) getPostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// getMySQLDSN returns MySQL connection string
func (c *DatabaseConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
