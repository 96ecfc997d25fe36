// Telegram Bot API implementation of [Notifier]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"traktsync/internal/shared"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramService posts HTML-formatted run summaries to a chat.
//
// Notification is strictly best-effort: callers log the error and move
// on, it must never affect sync outcome.
type TelegramService struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewTelegramService creates a notifier from the optional Telegram
// credentials. Returns an error when either credential is absent; the
// caller decides whether to wire a notifier at all.
func NewTelegramService(cfg shared.TelegramConfig, logger *log.Logger) (*TelegramService, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: telegram bot_token and chat_id", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &TelegramService{
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
		baseURL:    telegramBaseURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}, nil
}

// Notify posts a single HTML message to the configured chat.
func (t *TelegramService) Notify(ctx context.Context, message string) error {
	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     message,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendMessage returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return nil
}
