// Package notify schedules and dispatches booking notifications. Every
// operation is idempotent: a booking never gets the same notification type
// twice, and marking one sent is a conditional write.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/bdticketpro/backoffice/internal/email"
	"github.com/bdticketpro/backoffice/internal/metrics"
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/sirupsen/logrus"
)

// ExpiryWarningLead is how long before the hold lapses the warning fires.
const ExpiryWarningLead = 2 * time.Hour

// Mailer is the outbound email capability. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, template, recipient string, data map[string]interface{}) error
}

type Dispatcher struct {
	notifications repository.NotificationRepository
	agents        repository.AgentRepository
	mailer        Mailer
	logger        *logrus.Logger
}

func NewDispatcher(notifications repository.NotificationRepository, agents repository.AgentRepository, mailer Mailer, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		agents:        agents,
		mailer:        mailer,
		logger:        logger,
	}
}

// ScheduleExpiryWarning queues the "confirm or lose the hold" message for
// expires_at - 2h. Safe to call again for the same booking.
func (d *Dispatcher) ScheduleExpiryWarning(ctx context.Context, b *domain.Booking) error {
	return d.notifications.Schedule(ctx, &domain.Notification{
		UserID:       b.AgentID,
		BookingID:    b.ID,
		Type:         domain.NotificationBookingExpiry,
		Title:        "Booking Expiry Warning",
		Message:      fmt.Sprintf("Booking %s is about to expire in 2 hours. Please confirm or it will be automatically cancelled.", b.Reference),
		ScheduledFor: b.ExpiresAt.Add(-ExpiryWarningLead),
	})
}

// CancelExpiryWarning drops a still-pending warning once the booking reaches
// a terminal state.
func (d *Dispatcher) CancelExpiryWarning(ctx context.Context, bookingID int64) error {
	return d.notifications.CancelPending(ctx, bookingID, domain.NotificationBookingExpiry)
}

// NotifyCommission records the "commission earned" message for the agent.
func (d *Dispatcher) NotifyCommission(ctx context.Context, b *domain.Booking, amount int64) error {
	return d.notifications.Schedule(ctx, &domain.Notification{
		UserID:       b.AgentID,
		BookingID:    b.ID,
		Type:         domain.NotificationCommissionUpdate,
		Title:        "Commission Earned",
		Message:      fmt.Sprintf("You earned ৳%d commission from booking %s", amount, b.Reference),
		ScheduledFor: time.Now(),
	})
}

// DispatchInvoice emails the invoice for a confirmed booking at most once.
// The claim row absorbs event redeliveries: only the claiming call sends.
func (d *Dispatcher) DispatchInvoice(ctx context.Context, b *domain.Booking) error {
	claimed, err := d.notifications.ClaimSend(ctx, &domain.Notification{
		UserID:    b.AgentID,
		BookingID: b.ID,
		Type:      domain.NotificationBookingInvoice,
		Title:     "Booking Invoice",
		Message:   fmt.Sprintf("Invoice issued for booking %s", b.Reference),
	}, time.Now())
	if err != nil {
		return err
	}
	if !claimed || d.mailer == nil {
		return nil
	}

	agent, err := d.agents.GetByID(ctx, b.AgentID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	return d.mailer.Send(ctx, email.TemplateBookingInvoice, agent.Email, email.InvoiceData(b))
}

// ProcessDue sends notifications whose scheduled time has passed and marks
// them sent. Re-running it, or running two copies, cannot double-send: the
// sent_at stamp is a conditional write and only the winner dispatches.
func (d *Dispatcher) ProcessDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := d.notifications.Due(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range due {
		claimed, err := d.notifications.MarkSent(ctx, n.ID, now)
		if err != nil {
			d.logger.WithError(err).WithField("notification_id", n.ID).Error("failed to mark notification sent")
			continue
		}
		if !claimed {
			continue
		}

		if err := d.deliver(ctx, n); err != nil {
			// best effort: the state is already recorded, delivery failures
			// are logged and left to the mail channel's own retry
			d.logger.WithError(err).WithField("notification_id", n.ID).Warn("notification delivery failed")
		}
		sent++
		metrics.NotificationsSent.Inc()
	}
	return sent, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) error {
	if d.mailer == nil {
		return nil
	}
	agent, err := d.agents.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	return d.mailer.Send(ctx, string(n.Type), agent.Email, map[string]interface{}{
		"title":      n.Title,
		"message":    n.Message,
		"booking_id": n.BookingID,
	})
}
