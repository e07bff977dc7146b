package services

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
)

// Notification kinds understood by the mailer.
const (
	NotifySubmitted     = "event_submitted"
	NotifyDecision      = "event_decision"
	NotifyAssigned      = "event_assigned"
	NotifyUnassigned    = "event_unassigned"
	NotifyDebriefDigest = "debrief_digest"
	NotifyReminder      = "review_reminder"
)

type Notification struct {
	Kind           string         `json:"kind"`
	RecipientEmail string         `json:"recipient_email"`
	RecipientName  string         `json:"recipient_name,omitempty"`
	EventID        string         `json:"event_id"`
	EventTitle     string         `json:"event_title"`
	VenueName      string         `json:"venue_name,omitempty"`
	StartAt        *time.Time     `json:"start_at,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`
}

// Notifier delivers notifications. Callers treat failures as advisory.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// MailerClient posts notifications to the mail service internal API, which owns templating.
type MailerClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewMailerClient(baseURL string, log *zap.Logger) *MailerClient {
	return &MailerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

func (c *MailerClient) Notify(ctx context.Context, n Notification) error {
	if n.RecipientEmail == "" {
		return fmt.Errorf("notification %s for event %s has no recipient", n.Kind, n.EventID)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/notify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailer unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mailer returned %d: %s", resp.StatusCode, string(b))
	}

	c.log.Debug("notification sent", zap.String("kind", n.Kind), zap.String("event_id", n.EventID))
	return nil
}
