package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"basismon/internal/config"
)

func TestTelegramSenderSend(t *testing.T) {
	var gotPath string
	var gotBody telegramSendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender(config.TelegramConfig{BotToken: "tok", ChatID: "42"})
	s.BaseURL = srv.URL

	if err := s.Send(context.Background(), "ETH basis alert"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/bottok/sendMessage" {
		t.Fatalf("path=%q want=/bottok/sendMessage", gotPath)
	}
	if gotBody.ChatID != "42" || gotBody.Text != "ETH basis alert" {
		t.Fatalf("body=%+v", gotBody)
	}
}

func TestTelegramSenderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewTelegramSender(config.TelegramConfig{BotToken: "tok", ChatID: "42"})
	s.BaseURL = srv.URL

	if err := s.Send(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestTelegramSenderDisabled(t *testing.T) {
	s := NewTelegramSender(config.TelegramConfig{})
	if s.Enabled() {
		t.Fatalf("sender without credentials reports enabled")
	}
	if err := s.Send(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without credentials")
	}
}
