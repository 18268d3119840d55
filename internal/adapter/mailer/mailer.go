// Package mailer sends contact form notifications through a transactional
// email HTTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
	"github.com/ganjineh/ganjineh-backend/pkg/retry"
)

// Config holds the delivery endpoint and addressing.
type Config struct {
	BaseURL string
	APIKey  string
	From    string
	To      string
}

// Client delivers contact messages via the configured email API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
	retryOpts  retry.Options
}

// NewClient creates a mailer client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	log := logger.With("adapter", "mailer")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
		retryOpts:  retry.Options{Logger: log},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ReplyTo string `json:"replyTo,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("mailer: unexpected status %d", e.status)
}

func (e *statusError) StatusCode() int { return e.status }

// Send delivers a notification for one contact message. Transient failures
// are retried with backoff.
func (c *Client) Send(ctx context.Context, msg *domain.ContactMessage) error {
	body, err := json.Marshal(sendRequest{
		From:    c.cfg.From,
		To:      c.cfg.To,
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("پیام تازه از %s", msg.Name),
		Text:    msg.Message,
	})
	if err != nil {
		return fmt.Errorf("mailer: encode message: %w", err)
	}

	return retry.Do(ctx, "mailer/send", c.retryOpts, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("mailer: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("mailer: send: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &statusError{status: resp.StatusCode}
		}

		c.log.DebugContext(ctx, "contact notification sent",
			slog.String("message_id", msg.ID.String()),
		)
		return nil
	})
}
