// Package notifier delivers best-effort cycle notifications.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	sendTimeout   = 15 * time.Second
)

// Notifier sends a message without blocking the caller. Delivery failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) {}

// Telegram sends messages via the Telegram Bot API.
type Telegram struct {
	l        *zap.Logger
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
	wg       sync.WaitGroup
}

// Option configures Telegram.
type Option func(*Telegram)

// WithAPIURL points the notifier at another Bot API host.
func WithAPIURL(u string) Option {
	return func(t *Telegram) {
		t.apiURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Telegram) {
		t.client = c
	}
}

func NewTelegram(l *zap.Logger, botToken, chatID string, opts ...Option) *Telegram {
	t := &Telegram{
		l:        l,
		botToken: botToken,
		chatID:   chatID,
		apiURL:   defaultAPIURL,
		client:   &http.Client{Timeout: sendTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send delivers text synchronously.
func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Notify sends in the background. Call Wait before exiting to flush pending messages.
func (t *Telegram) Notify(ctx context.Context, message string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()

		if err := t.Send(sendCtx, message); err != nil {
			t.l.Warn("notification failed", zap.Error(err))
		}
	}()
}

// Wait blocks until background sends finish.
func (t *Telegram) Wait() {
	t.wg.Wait()
}
