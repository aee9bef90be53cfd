package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads the configuration from a TOML file, applies defaults, and
// expands environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errors []error

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("invalid timezone: %s", c.Timezone))
	}

	if c.Server.Listen == "" {
		errors = append(errors, fmt.Errorf("server.listen is required"))
	}
	if c.Server.BaseURL == "" {
		errors = append(errors, fmt.Errorf("server.base_url is required"))
	} else if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		errors = append(errors, fmt.Errorf("server.base_url must be an absolute http(s) URL"))
	}

	if c.Database.DSN == "" {
		errors = append(errors, fmt.Errorf("database.dsn is required"))
	}

	if c.Queue.BaseURL == "" {
		errors = append(errors, fmt.Errorf("queue.base_url is required"))
	}
	if c.Queue.Project == "" {
		errors = append(errors, fmt.Errorf("queue.project is required"))
	}
	if c.Queue.Location == "" {
		errors = append(errors, fmt.Errorf("queue.location is required"))
	}
	if c.Queue.Queue == "" {
		errors = append(errors, fmt.Errorf("queue.queue is required"))
	}

	switch c.Delivery.Channel {
	case "whatsapp":
		if c.Delivery.WhatsApp.PhoneNumberID == "" {
			errors = append(errors, fmt.Errorf("delivery.whatsapp.phone_number_id is required when channel is 'whatsapp'"))
		}
		if c.Delivery.WhatsApp.Token == "" {
			errors = append(errors, fmt.Errorf("delivery.whatsapp.token is required when channel is 'whatsapp'"))
		}
	case "telegram":
		if c.Delivery.Telegram.Token == "" {
			errors = append(errors, fmt.Errorf("delivery.telegram.token is required when channel is 'telegram'"))
		} else if err := validateTelegramToken(c.Delivery.Telegram.Token); err != nil {
			errors = append(errors, err)
		}
	default:
		errors = append(errors, fmt.Errorf("invalid delivery.channel: %s (expected: whatsapp, telegram)", c.Delivery.Channel))
	}

	if _, _, err := ParseClock(c.Briefing.TodayAt); err != nil {
		errors = append(errors, fmt.Errorf("invalid briefing.today_at: %w", err))
	}
	if _, _, err := ParseClock(c.Briefing.TomorrowAt); err != nil {
		errors = append(errors, fmt.Errorf("invalid briefing.tomorrow_at: %w", err))
	}

	if c.Reminders.GraceMinutes <= 0 {
		errors = append(errors, fmt.Errorf("reminders.grace_minutes must be positive"))
	}
	if c.Reminders.DefaultLeadMinutes <= 0 {
		errors = append(errors, fmt.Errorf("reminders.default_lead_minutes must be positive"))
	}

	if c.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}
	if c.Logging.Format != "" {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	return errors
}

// Location resolves the configured timezone. Falls back to UTC if the
// configuration was never validated.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GracePeriod returns the missed-reminder grace period as a duration.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Reminders.GraceMinutes) * time.Minute
}

// ParseClock parses a "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected <bot_id>:<token>, got: %s)", maskSecret(token))
	}
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only)")
		}
	}
	return nil
}
