package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"basismon/internal/config"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramSender delivers alert messages through the Bot API. Credentials
// come from the telegram config section; a sender without them reports
// itself disabled and the alert service skips delivery.
type TelegramSender struct {
	HTTP     *http.Client
	BaseURL  string
	BotToken string
	ChatID   string
}

func NewTelegramSender(cfg config.TelegramConfig) *TelegramSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TelegramSender{
		HTTP:     &http.Client{Timeout: timeout},
		BotToken: cfg.BotToken,
		ChatID:   cfg.ChatID,
	}
}

// Enabled reports whether the sender has credentials to deliver with.
func (s *TelegramSender) Enabled() bool {
	return s != nil && s.BotToken != "" && s.ChatID != ""
}

type telegramSendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (s *TelegramSender) Send(ctx context.Context, message string) error {
	if !s.Enabled() {
		return fmt.Errorf("missing bot_token/chat_id")
	}
	base := s.BaseURL
	if base == "" {
		base = defaultTelegramAPI
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, url.PathEscape(s.BotToken))
	b, err := json.Marshal(telegramSendMessageRequest{ChatID: s.ChatID, Text: message})
	if err != nil {
		return err
	}
	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram http %d", resp.StatusCode)
	}
	return nil
}
