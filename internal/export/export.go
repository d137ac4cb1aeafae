// Package export produces periodic JSON snapshots of the booking data and
// ships them to the backup endpoint.
package export

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
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/sirupsen/logrus"
)

// Uploader ships a named blob to external storage.
type Uploader interface {
	Upload(ctx context.Context, name string, blob []byte) error
}

// HTTPUploader posts the snapshot to the configured backup endpoint.
type HTTPUploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPUploader(cfg config.BackupConfig) *HTTPUploader {
	return &HTTPUploader{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, name string, blob []byte) error {
	if u.endpoint == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint+"?name="+name, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: backup endpoint: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backup endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

type Snapshot struct {
	Type      string           `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Bookings  []domain.Booking `json:"bookings"`
	Tickets   []domain.Ticket  `json:"tickets"`
}

type Exporter struct {
	bookings repository.BookingRepository
	tickets  repository.TicketRepository
	uploader Uploader
	logger   *logrus.Logger
	now      func() time.Time
}

func NewExporter(bookings repository.BookingRepository, tickets repository.TicketRepository, uploader Uploader, logger *logrus.Logger) *Exporter {
	return &Exporter{
		bookings: bookings,
		tickets:  tickets,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

// Run builds and uploads one snapshot. backupType names the trigger
// (daily, manual).
func (e *Exporter) Run(ctx context.Context, backupType string) error {
	now := e.now()

	bookings, err := e.bookings.List(ctx, domain.BookingFilter{})
	if err != nil {
		return fmt.Errorf("snapshot bookings: %w", err)
	}
	tickets, err := e.tickets.List(ctx, domain.TicketFilter{})
	if err != nil {
		return fmt.Errorf("snapshot tickets: %w", err)
	}

	blob, err := json.Marshal(Snapshot{
		Type:      backupType,
		Timestamp: now,
		Bookings:  bookings,
		Tickets:   tickets,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	name := FileName(backupType, now)
	if err := e.uploader.Upload(ctx, name, blob); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	e.logger.WithFields(logrus.Fields{
		"file":     name,
		"bookings": len(bookings),
		"tickets":  len(tickets),
	}).Info("backup uploaded")
	return nil
}

func FileName(backupType string, at time.Time) string {
	return fmt.Sprintf("bdticketpro_backup_%s_%s.json", backupType, at.Format("2006-01-02"))
}
