package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const defaultResendEndpoint = "https://api.resend.com"

// Resend delivers mail through the Resend HTTP API.
type Resend struct {
	client *resty.Client
	from   Address
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	ReplyTo     string             `json:"reply_to,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewResend builds a Resend sender against endpoint.
func NewResend(apiKey string, from Address, endpoint string) *Resend {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = defaultResendEndpoint
	}
	client := resty.New().
		SetBaseURL(endpoint).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &Resend{client: client, from: from}
}

func (r *Resend) Name() string { return ProviderResend }

func (r *Resend) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	body := resendRequest{
		From:    r.from.String(),
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, to := range msg.To {
		body.To = append(body.To, to.String())
	}
	if msg.ReplyTo != nil {
		body.ReplyTo = msg.ReplyTo.String()
	}
	for _, att := range msg.Attachments {
		body.Attachments = append(body.Attachments, resendAttachment{
			Filename: att.Filename,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	var apiErr resendError
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("resend send: status %d: %s", resp.StatusCode(), apiErr.Message)
		}
		return fmt.Errorf("resend send: status %d", resp.StatusCode())
	}
	return nil
}
