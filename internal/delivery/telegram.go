package delivery

import (
	stdcontext "context"
	"fmt"
	"strconv"
	"time"

	"github.com/mymmrac/telego"

	"remi/internal/config"
	"remi/internal/logger"
)

// telegramSendTimeout is the default timeout for send requests.
const telegramSendTimeout = 30 * time.Second

// TelegramSender sends text messages through the Telegram Bot API.
// The delivery address is the numeric chat id.
type TelegramSender struct {
	bot     *telego.Bot
	timeout time.Duration
	logger  *logger.Logger
}

// NewTelegramSender creates a Telegram sender.
func NewTelegramSender(cfg config.TelegramConfig, log *logger.Logger) (*TelegramSender, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = telegramSendTimeout
	}

	return &TelegramSender{
		bot:     bot,
		timeout: timeout,
		logger:  log,
	}, nil
}

// Send delivers a text message to a chat.
func (s *TelegramSender) Send(ctx stdcontext.Context, address, message string) error {
	chatID, err := strconv.ParseInt(address, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", address, err)
	}

	sendCtx, cancel := stdcontext.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.bot.SendMessage(sendCtx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   message,
	})
	if err != nil {
		s.logger.ErrorCtx(ctx, "failed to send telegram message", err,
			logger.Field{Key: "chat_id", Value: chatID})
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	s.logger.DebugCtx(ctx, "telegram message sent",
		logger.Field{Key: "chat_id", Value: chatID})

	return nil
}
