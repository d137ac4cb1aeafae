package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

// Terminal reports whether no further transition is allowed out of s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled, BookingStatusExpired:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusFull    PaymentStatus = "full"
)

// HoldDuration is the fixed ticket hold window. ExpiresAt is always
// CreatedAt + HoldDuration and is never extended.
const HoldDuration = 24 * time.Hour

type Booking struct {
	ID             int64         `json:"id"`
	Reference      string        `json:"booking_reference"`
	TicketID       int64         `json:"ticket_id"`
	AgentID        int64         `json:"agent_id"`
	PassengerName  string        `json:"passenger_name"`
	PassportNumber string        `json:"passport_number"`
	MobileNumber   string        `json:"mobile_number"`
	PaxCount       int           `json:"pax_count"`
	TotalAmount    int64         `json:"total_amount"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Status         BookingStatus `json:"booking_status"`
	Comments       *string       `json:"comments,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ExpiresAt      time.Time     `json:"expires_at"`
	ConfirmedAt    *time.Time    `json:"confirmed_at,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BookingFilter narrows list queries. SearchTerm matches passenger name,
// passport number or mobile number, substring and case-insensitive.
type BookingFilter struct {
	AgentID    int64
	Status     BookingStatus
	SearchTerm string
}
