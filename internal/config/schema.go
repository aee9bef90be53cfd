// Package config provides configuration loading and validation for Remi.
// It supports TOML configuration files with environment variable expansion,
// default values, and comprehensive validation.
//
// Configuration structure:
//   - [server]: HTTP listen address and the public callback base URL
//   - [database]: Postgres connection settings
//   - [queue]: Durable task queue (project, location, queue name, API endpoint)
//   - [delivery]: Outbound messaging channels (WhatsApp, Telegram)
//   - [briefing]: Daily briefing fire times and per-user scheduling mode
//   - [reminders]: Grace period and event reminder defaults
//   - [workers]: Send worker pool sizing
//   - [logging]: Logging level, format, and output
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax. For example: token = "${WHATSAPP_TOKEN}"
package config

// Config represents the main application configuration.
type Config struct {
	Timezone  string          `toml:"timezone"`
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Queue     QueueConfig     `toml:"queue"`
	Delivery  DeliveryConfig  `toml:"delivery"`
	Briefing  BriefingConfig  `toml:"briefing"`
	Reminders RemindersConfig `toml:"reminders"`
	Workers   WorkersConfig   `toml:"workers"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig describes the HTTP callback server.
type ServerConfig struct {
	Listen string `toml:"listen"` // address for the callback endpoints, e.g. ":8080"
	// BaseURL is the public URL the task queue uses to reach this process.
	// Callback URLs are built by appending paths to it.
	BaseURL string `toml:"base_url"`
}

// DatabaseConfig describes the Postgres connection.
type DatabaseConfig struct {
	DSN string `toml:"dsn"`
}

// QueueConfig describes the durable dispatch queue.
type QueueConfig struct {
	BaseURL        string `toml:"base_url"` // queue API endpoint
	Project        string `toml:"project"`
	Location       string `toml:"location"`
	Queue          string `toml:"queue"`
	AuthToken      string `toml:"auth_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DeliveryConfig groups the outbound messaging channels.
type DeliveryConfig struct {
	Channel  string         `toml:"channel"` // "whatsapp" or "telegram"
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Telegram TelegramConfig `toml:"telegram"`
}

// WhatsAppConfig describes the WhatsApp Cloud API sender.
type WhatsAppConfig struct {
	PhoneNumberID  string `toml:"phone_number_id"`
	Token          string `toml:"token"`
	APIBase        string `toml:"api_base"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TelegramConfig describes the Telegram sender.
type TelegramConfig struct {
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// BriefingConfig describes the two recurring daily briefing jobs.
type BriefingConfig struct {
	TodayAt    string `toml:"today_at"`    // "HH:MM", morning digest for today
	TomorrowAt string `toml:"tomorrow_at"` // "HH:MM", evening digest for tomorrow
	PerUser    bool   `toml:"per_user"`    // one queue job per user instead of a global fan-out
}

// RemindersConfig describes reminder scheduling behaviour.
type RemindersConfig struct {
	GraceMinutes       int `toml:"grace_minutes"`        // past-due tolerance before a reminder is missed
	DefaultLeadMinutes int `toml:"default_lead_minutes"` // default minutes-before for event reminders
	RetentionDays      int `toml:"retention_days"`       // keep finished reminders for N days (negative = forever)
}

// WorkersConfig describes the outbound send worker pool.
type WorkersConfig struct {
	PoolSize  int `toml:"pool_size"`
	QueueSize int `toml:"queue_size"`
}

// LoggingConfig describes the logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}
