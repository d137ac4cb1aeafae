package domain

import "time"

// Commission is credited once per confirming transition, keyed by booking.
type Commission struct {
	ID               int64     `json:"id"`
	BookingID        int64     `json:"booking_id"`
	AgentID          int64     `json:"agent_id"`
	BookingReference string    `json:"booking_reference"`
	Amount           int64     `json:"commission_amount"`
	CreatedAt        time.Time `json:"created_at"`
}

// CommissionStats aggregates an agent's confirmed bookings.
type CommissionStats struct {
	TotalBookings       int                     `json:"total_bookings"`
	TotalSales          int64                   `json:"total_sales"`
	TotalCommission     int64                   `json:"total_commission"`
	AverageBookingValue int64                   `json:"average_booking_value"`
	BookingsByMonth     map[string]MonthlyStats `json:"bookings_by_month"`
}

// MonthlyStats buckets sales by YYYY-MM of the confirmation time.
type MonthlyStats struct {
	Count      int   `json:"count"`
	Sales      int64 `json:"sales"`
	Commission int64 `json:"commission"`
}
