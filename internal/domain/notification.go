package domain

import "time"

type NotificationType string

const (
	NotificationBookingExpiry    NotificationType = "booking_expiry"
	NotificationCommissionUpdate NotificationType = "commission_update"
	NotificationBookingInvoice   NotificationType = "booking_invoice"
)

// Notification is a scheduled message tied to a booking. A booking never
// gets the same notification type twice.
type Notification struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"user_id"`
	BookingID    int64            `json:"booking_id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	ScheduledFor time.Time        `json:"scheduled_for"`
	SentAt       *time.Time       `json:"sent_at,omitempty"`
	Read         bool             `json:"is_read"`
	CreatedAt    time.Time        `json:"created_at"`
}
