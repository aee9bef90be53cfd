package config

import (
	"os"
	"strings"
)

// expandEnvVars expands ${VAR} and ${VAR:default} references in the secret
// and endpoint fields of the configuration.
func expandEnvVars(c *Config) {
	c.Database.DSN = expandEnv(c.Database.DSN)
	c.Queue.AuthToken = expandEnv(c.Queue.AuthToken)
	c.Delivery.WhatsApp.PhoneNumberID = expandEnv(c.Delivery.WhatsApp.PhoneNumberID)
	c.Delivery.WhatsApp.Token = expandEnv(c.Delivery.WhatsApp.Token)
	c.Delivery.Telegram.Token = expandEnv(c.Delivery.Telegram.Token)
	c.Server.BaseURL = expandEnv(c.Server.BaseURL)
}

// expandEnv expands a ${VAR:default} reference.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		if val := os.Getenv(parts[0]); val != "" {
			return val
		}
		return parts[1]
	}

	return os.Getenv(content)
}

// maskSecret masks a secret, keeping only the first and last 4 characters.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 8 {
		return "***"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
