package config

const (
	// DefaultTimezone is the single zone all reminders are scheduled in.
	DefaultTimezone = "Asia/Kuala_Lumpur"

	// DefaultTodayAt is when the morning "today" briefing fires.
	DefaultTodayAt = "08:30"
	// DefaultTomorrowAt is when the evening "tomorrow" briefing fires.
	DefaultTomorrowAt = "19:30"

	// DefaultGraceMinutes is how late a reminder may fire before the
	// reconciler marks it missed.
	DefaultGraceMinutes = 5

	// DefaultLeadMinutes is the auto-reminder lead time for new calendar events.
	DefaultLeadMinutes = 15

	// DefaultRetentionDays is how long finished reminders are kept before
	// the cleanup sweep removes them.
	DefaultRetentionDays = 90
)

func applyDefaults(c *Config) {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}

	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}

	if c.Queue.TimeoutSeconds == 0 {
		c.Queue.TimeoutSeconds = 15
	}

	if c.Delivery.Channel == "" {
		c.Delivery.Channel = "whatsapp"
	}
	if c.Delivery.WhatsApp.APIBase == "" {
		c.Delivery.WhatsApp.APIBase = "https://graph.facebook.com/v18.0"
	}
	if c.Delivery.WhatsApp.TimeoutSeconds == 0 {
		c.Delivery.WhatsApp.TimeoutSeconds = 30
	}
	if c.Delivery.Telegram.TimeoutSeconds == 0 {
		c.Delivery.Telegram.TimeoutSeconds = 30
	}

	if c.Briefing.TodayAt == "" {
		c.Briefing.TodayAt = DefaultTodayAt
	}
	if c.Briefing.TomorrowAt == "" {
		c.Briefing.TomorrowAt = DefaultTomorrowAt
	}

	if c.Reminders.GraceMinutes == 0 {
		c.Reminders.GraceMinutes = DefaultGraceMinutes
	}
	if c.Reminders.DefaultLeadMinutes == 0 {
		c.Reminders.DefaultLeadMinutes = DefaultLeadMinutes
	}
	if c.Reminders.RetentionDays == 0 {
		c.Reminders.RetentionDays = DefaultRetentionDays
	}

	if c.Workers.PoolSize == 0 {
		c.Workers.PoolSize = 5
	}
	if c.Workers.QueueSize == 0 {
		c.Workers.QueueSize = 100
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}
