package delivery

import (
	"bytes"
	stdcontext "context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"remi/internal/config"
	"remi/internal/logger"
)

const (
	// whatsappAPIBase is the default Graph API base URL.
	whatsappAPIBase = "https://graph.facebook.com/v18.0"
	// whatsappSendTimeout is the default timeout for send requests.
	whatsappSendTimeout = 30 * time.Second
)

// WhatsAppSender sends text messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	client *http.Client
	config config.WhatsAppConfig
	apiURL string
	logger *logger.Logger
}

// whatsappRequest is the Cloud API text message payload.
type whatsappRequest struct {
	MessagingProduct string       `json:"messaging_product"` // always "whatsapp"
	To               string       `json:"to"`
	Type             string       `json:"type"` // always "text"
	Text             whatsappText `json:"text"`
}

type whatsappText struct {
	Body string `json:"body"`
}

// whatsappResponse is the subset of the send response we care about.
type whatsappResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *whatsappAPIError `json:"error,omitempty"`
}

// whatsappAPIError represents an error response from the Graph API.
type whatsappAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// NewWhatsAppSender creates a WhatsApp Cloud API sender.
func NewWhatsAppSender(cfg config.WhatsAppConfig, log *logger.Logger) *WhatsAppSender {
	base := cfg.APIBase
	if base == "" {
		base = whatsappAPIBase
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = whatsappSendTimeout
	}

	return &WhatsAppSender{
		client: &http.Client{
			Timeout: timeout,
		},
		config: cfg,
		apiURL: fmt.Sprintf("%s/%s/messages", strings.TrimRight(base, "/"), cfg.PhoneNumberID),
		logger: log,
	}
}

// Send delivers a text message to a phone number.
func (s *WhatsAppSender) Send(ctx stdcontext.Context, address, message string) error {
	body, err := json.Marshal(whatsappRequest{
		MessagingProduct: "whatsapp",
		To:               address,
		Type:             "text",
		Text:             whatsappText{Body: message},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.config.Token))

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.ErrorCtx(ctx, "failed to execute WhatsApp API request", err)
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		s.logger.ErrorCtx(ctx, "WhatsApp API returned error status", nil,
			logger.Field{Key: "status_code", Value: httpResp.StatusCode},
			logger.Field{Key: "response_body", Value: string(respBody)})
		return fmt.Errorf("whatsapp API error: status=%d, body=%s", httpResp.StatusCode, string(respBody))
	}

	var resp whatsappResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return fmt.Errorf("whatsapp API error: %s (code %d): %s",
			resp.Error.Type, resp.Error.Code, resp.Error.Message)
	}

	messageID := ""
	if len(resp.Messages) > 0 {
		messageID = resp.Messages[0].ID
	}

	s.logger.DebugCtx(ctx, "whatsapp message sent",
		logger.Field{Key: "message_id", Value: messageID})

	return nil
}
