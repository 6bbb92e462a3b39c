package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/models"
)

const defaultAPIURL = "https://api.telegram.org"

// Config holds the bot credentials. A disabled config turns every send into
// a no-op.
type Config struct {
	Enabled  bool
	BotToken string
	ChatID   string
	APIURL   string
}

// Service posts listing notifications to an agency chat.
type Service struct {
	logger *logrus.Logger
	client *http.Client
	config Config
}

func NewService(config Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config: config,
	}
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.config.Enabled {
		return nil
	}

	if s.config.BotToken == "" {
		return errors.New("telegram bot token is not configured")
	}

	if s.config.ChatID == "" {
		return errors.New("telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(s.config.APIURL, "/"), s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusNotFound:
			return errors.New("invalid bot token")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was removed from the chat")
		default:
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyPropertySaved announces a finalized listing.
func (s *Service) NotifyPropertySaved(ctx context.Context, prop *models.Property, created bool) error {
	if !s.config.Enabled || prop == nil {
		return nil
	}
	err := s.SendMessage(ctx, FormatProperty(prop, created))
	if err != nil {
		s.logger.WithError(err).WithField("property_id", prop.ID).Error("Failed to send listing notification")
	}
	return err
}

// FormatProperty renders the HTML message for a saved listing.
func FormatProperty(prop *models.Property, created bool) string {
	title := "<b>Novo imóvel cadastrado</b>"
	if !created {
		title = "<b>Imóvel atualizado</b>"
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(prop.Title))

	addr := strings.TrimSpace(strings.Join(nonEmpty(prop.Street, prop.Number), ", "))
	place := strings.Join(nonEmpty(prop.Neighborhood, prop.City, prop.State), " - ")
	if addr != "" || place != "" {
		fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(strings.Join(nonEmpty(addr, place), ", ")))
	}

	if prop.SalePrice != nil {
		fmt.Fprintf(&b, "💰 Venda: %s\n", formatBRL(*prop.SalePrice))
		if prop.TotalArea > 0 {
			fmt.Fprintf(&b, "💵 %s/m²\n", formatBRL(*prop.SalePrice/prop.TotalArea))
		}
	}
	if prop.RentPrice != nil {
		fmt.Fprintf(&b, "🔑 Aluguel: %s\n", formatBRL(*prop.RentPrice))
	}
	if prop.TotalArea > 0 {
		fmt.Fprintf(&b, "📐 %.0f m²\n", prop.TotalArea)
	}
	fmt.Fprintf(&b, "🚪 Quartos: %d\n", prop.Bedrooms)
	fmt.Fprintf(&b, "🖼️ Fotos: %d", len(prop.Images))
	return b.String()
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// formatBRL renders 1234567.5 as "R$ 1.234.567,50".
func formatBRL(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
