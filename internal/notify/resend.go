// Package notify sends settle-up reminders by email through Resend.
// Delivery is fire-and-forget: failures are logged and reported in the
// Delivery result, never returned as errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultEndpoint = "https://api.resend.com/emails"
	DefaultFrom     = "Splitledger <noreply@splitledger.dev>"
	defaultNote     = "Settle when it's convenient."
)

// Reminder asks a recipient to settle an outstanding balance. Callers
// validate it; the RPC layer checks ledgerrpc.SendReminderRequest.
type Reminder struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note,omitempty"`
}

// Delivery reports what happened to a reminder. OK is false only when a
// configured provider rejected or failed the send.
type Delivery struct {
	OK        bool `json:"ok"`
	Delivered bool `json:"delivered"`
}

// Sender delivers reminders.
type Sender interface {
	SendReminder(ctx context.Context, r Reminder) Delivery
}

var _ Sender = (*Resend)(nil)

// Resend sends reminders through the Resend HTTP API.
type Resend struct {
	apiKey     string
	from       string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option is a functional option for configuring Resend.
type Option func(*Resend)

func WithEndpoint(url string) Option {
	return func(s *Resend) { s.endpoint = url }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(s *Resend) { s.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Resend) { s.logger = l }
}

// NewResend creates a sender. With an empty apiKey reminders are accepted
// but not delivered.
func NewResend(apiKey, from string, opts ...Option) *Resend {
	if from == "" {
		from = DefaultFrom
	}
	s := &Resend{
		apiKey:     apiKey,
		from:       from,
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendReminder emails r.To.
func (s *Resend) SendReminder(ctx context.Context, r Reminder) Delivery {
	if s.apiKey == "" {
		s.logger.Info("RESEND_API_KEY not configured, reminder not delivered", "to", r.To)
		return Delivery{OK: true, Delivered: false}
	}
	if err := s.send(ctx, r); err != nil {
		s.logger.Error("Resend reminder failed", "to", r.To, "error", err)
		return Delivery{OK: false, Delivered: false}
	}
	s.logger.Info("Reminder delivered", "to", r.To, "amount", r.Amount)
	return Delivery{OK: true, Delivered: true}
}

// ReminderHTML renders the email body.
func ReminderHTML(r Reminder) string {
	note := r.Note
	if note == "" {
		note = defaultNote
	}
	return fmt.Sprintf("<p>Hey there! You have an outstanding balance of <strong>$%.2f</strong>.</p><p>%s</p>",
		r.Amount, html.EscapeString(note))
}

func (s *Resend) send(ctx context.Context, r Reminder) error {
	payload := map[string]any{
		"from":    s.from,
		"to":      []string{r.To},
		"subject": "Friendly reminder to settle up",
		"html":    ReminderHTML(r),
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}
	return nil
}
