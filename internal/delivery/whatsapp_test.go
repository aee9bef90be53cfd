package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remi/internal/config"
	"remi/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func TestWhatsAppSender_Send(t *testing.T) {
	var got whatsappRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/123456/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.abc"}]}`))
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(config.WhatsAppConfig{
		PhoneNumberID: "123456",
		Token:         "wa-token",
		APIBase:       srv.URL,
	}, testLogger(t))

	err := sender.Send(context.Background(), "60123456789", "⏰ Reminder: call mum")
	require.NoError(t, err)

	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "60123456789", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "⏰ Reminder: call mum", got.Text.Body)
}

func TestWhatsAppSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(config.WhatsAppConfig{
		PhoneNumberID: "123456",
		Token:         "expired",
		APIBase:       srv.URL,
	}, testLogger(t))

	err := sender.Send(context.Background(), "60123456789", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestWhatsAppSender_APIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"Recipient not on WhatsApp","type":"GraphMethodException","code":100}}`))
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(config.WhatsAppConfig{
		PhoneNumberID: "123456",
		Token:         "wa-token",
		APIBase:       srv.URL,
	}, testLogger(t))

	err := sender.Send(context.Background(), "000", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GraphMethodException")
}

func TestTelegramSender_InvalidChatID(t *testing.T) {
	sender := &TelegramSender{logger: testLogger(t)}

	err := sender.Send(context.Background(), "not-a-number", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telegram chat id")
}

func TestNew_UnknownChannel(t *testing.T) {
	_, err := New(config.DeliveryConfig{Channel: "carrier-pigeon"}, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown delivery channel")
}
