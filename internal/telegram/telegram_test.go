package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtywizard/server/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestNotifyPropertySaved(t *testing.T) {
	var got map[string]interface{}
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(Config{Enabled: true, BotToken: "token", ChatID: "42", APIURL: server.URL}, testLogger())
	price := 500000.0
	prop := &models.Property{
		ID:        "prop-1",
		Title:     "Casa <com> quintal",
		City:      "São Paulo",
		State:     "SP",
		SalePrice: &price,
		TotalArea: 100,
		Bedrooms:  3,
	}

	require.NoError(t, svc.NotifyPropertySaved(context.Background(), prop, true))
	assert.Equal(t, "/bottoken/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	text := got["text"].(string)
	assert.Contains(t, text, "Novo imóvel cadastrado")
	assert.Contains(t, text, "Casa &lt;com&gt; quintal")
	assert.Contains(t, text, "R$ 500.000,00")
	assert.Contains(t, text, "R$ 5.000,00/m²")
}

func TestSendMessage_Disabled(t *testing.T) {
	svc := NewService(Config{Enabled: false, APIURL: "http://127.0.0.1:1"}, testLogger())
	assert.NoError(t, svc.SendMessage(context.Background(), "hello"))
}

func TestSendMessage_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewService(Config{Enabled: true, BotToken: "bad", ChatID: "1", APIURL: server.URL}, testLogger())
	assert.EqualError(t, svc.SendMessage(context.Background(), "hi"), "invalid bot token")

	svc = NewService(Config{Enabled: true, ChatID: "1"}, testLogger())
	assert.Error(t, svc.SendMessage(context.Background(), "hi"))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,50", formatBRL(0.5))
	assert.Equal(t, "R$ 999,00", formatBRL(999))
	assert.Equal(t, "R$ 1.234.567,89", formatBRL(1234567.89))
}

func TestFormatProperty_Updated(t *testing.T) {
	msg := FormatProperty(&models.Property{Title: "Apto", Images: make([]models.GalleryImage, 3)}, false)
	assert.Contains(t, msg, "Imóvel atualizado")
	assert.Contains(t, msg, "Fotos: 3")
	assert.NotContains(t, msg, "📍")
}
