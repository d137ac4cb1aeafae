// Package email posts templated payloads to the mail-dispatch endpoint.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bdticketpro/backoffice/config"
	"github.com/bdticketpro/backoffice/internal/domain"
)

const (
	TemplateBookingInvoice      = "booking_invoice"
	TemplateBookingExpiryWarn   = "booking_expiry_warning"
	TemplateBookingConfirmation = "booking_confirmation"
)

type Sender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewSender(cfg config.MailerConfig) *Sender {
	return &Sender{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	Template  string                 `json:"template"`
	Recipient string                 `json:"recipient"`
	Data      map[string]interface{} `json:"data"`
}

// Send posts one templated message. Failures are retryable by the caller;
// they never gate a booking transition.
func (s *Sender) Send(ctx context.Context, template, recipient string, data map[string]interface{}) error {
	if s.endpoint == "" {
		return nil
	}

	payload, err := json.Marshal(sendRequest{Template: template, Recipient: recipient, Data: data})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: mail endpoint: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// InvoiceData shapes the invoice template payload from a confirmed booking.
func InvoiceData(b *domain.Booking) map[string]interface{} {
	return map[string]interface{}{
		"booking_reference": b.Reference,
		"passenger_name":    b.PassengerName,
		"pax_count":         b.PaxCount,
		"total_amount":      b.TotalAmount,
		"payment_status":    string(b.PaymentStatus),
		"created_at":        b.CreatedAt.Format(time.RFC3339),
	}
}
