// Package notify delivers fire-and-forget run notifications. Delivery
// failure is never fatal: the engine logs it and the run proceeds.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/flowbridge/flowbridge/types"
)

// Notifier delivers a message to a transport-specific recipient id.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// TelegramConfig configures the Telegram Bot API notifier.
type TelegramConfig struct {
	BotToken      string        `yaml:"bot_token" json:"bot_token"`
	BaseURL       string        `yaml:"base_url" json:"base_url"`
	DefaultChatID string        `yaml:"default_chat_id" json:"default_chat_id"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	// RatePerSecond bounds outbound sendMessage calls; the Bot API
	// throttles beyond ~30 messages per second.
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
}

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	cfg     TelegramConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(cfg TelegramConfig, logger *zap.Logger) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = 25
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:  logger.With(zap.String("component", "telegram_notifier")),
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Send delivers text to chatID, falling back to the configured default
// chat when chatID is empty. All failures come back as
// NOTIFICATION_FAILED.
func (n *Telegram) Send(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		chatID = n.cfg.DefaultChatID
	}
	if chatID == "" {
		return types.NewError(types.ErrNotificationFailed, "no chat id configured")
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return types.NewError(types.ErrNotificationFailed, "rate limit wait cancelled").WithCause(err)
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return types.NewError(types.ErrNotificationFailed, "marshal message").WithCause(err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(n.cfg.BaseURL, "/"), n.cfg.BotToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return types.NewError(types.ErrNotificationFailed, "build request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return types.NewError(types.ErrNotificationFailed, "send message").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.NewError(types.ErrNotificationFailed,
			fmt.Sprintf("telegram status %d: %s", resp.StatusCode, string(data)))
	}

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.NewError(types.ErrNotificationFailed, "decode response").WithCause(err)
	}
	if !out.OK {
		return types.NewError(types.ErrNotificationFailed, out.Description)
	}

	n.logger.Debug("notification delivered", zap.String("chat_id", chatID))
	return nil
}
