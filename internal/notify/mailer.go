package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultResendURL = "https://api.resend.com"
	defaultFrom      = "Home Inventory <onboarding@resend.dev>"
)

// ErrMailerNotConfigured is returned by explicit sends when no API key is set
var ErrMailerNotConfigured = errors.New("email delivery is not configured")

// Email is a single outbound message
type Email struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Mailer delivers email
type Mailer interface {
	Send(ctx context.Context, email Email) error
	// Configured reports whether Send can deliver anything
	Configured() bool
}

// ResendMailer sends email through the Resend HTTP API
type ResendMailer struct {
	client *resty.Client
	apiKey string
	from   string
}

// NewResendMailer creates a Resend client. An empty apiKey yields a mailer that
// reports itself as unconfigured.
func NewResendMailer(apiKey, baseURL, from string) *ResendMailer {
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	if from == "" {
		from = defaultFrom
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &ResendMailer{client: client, apiKey: apiKey, from: from}
}

// Configured reports whether an API key is set
func (m *ResendMailer) Configured() bool {
	return m.apiKey != ""
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Send posts the email to Resend
func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	if !m.Configured() {
		return ErrMailerNotConfigured
	}
	if len(email.To) == 0 {
		return errors.New("email has no recipients")
	}

	result := new(resendResponse)
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    m.from,
			To:      email.To,
			Subject: email.Subject,
			HTML:    email.HTML,
		}).
		SetResult(result).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
