// Package delivery sends rendered messages to users over the configured
// channel. Each sender takes a channel-specific address: a phone number
// for WhatsApp, a chat id for Telegram.
package delivery

import (
	"context"
	"fmt"

	"remi/internal/config"
	"remi/internal/logger"
)

// Sender delivers a message to an address.
type Sender interface {
	Send(ctx context.Context, address, message string) error
}

// New builds the sender for the configured delivery channel.
func New(cfg config.DeliveryConfig, log *logger.Logger) (Sender, error) {
	switch cfg.Channel {
	case "whatsapp":
		return NewWhatsAppSender(cfg.WhatsApp, log), nil
	case "telegram":
		return NewTelegramSender(cfg.Telegram, log)
	default:
		return nil, fmt.Errorf("unknown delivery channel: %s", cfg.Channel)
	}
}
