package domain

import "time"

type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusLocked    TicketStatus = "locked"
	TicketStatusSold      TicketStatus = "sold"
)

type Ticket struct {
	ID            int64        `json:"id"`
	Airline       string       `json:"airline"`
	FlightNumber  string       `json:"flight_number"`
	DepartureCity string       `json:"departure_city"`
	ArrivalCity   string       `json:"arrival_city"`
	Country       string       `json:"country"`
	DepartureTime time.Time    `json:"departure_date"`
	SellingPrice  int64        `json:"selling_price"`
	BuyingPrice   int64        `json:"buying_price,omitempty"`
	Status        TicketStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type TicketFilter struct {
	Country string
	Status  TicketStatus
	Airline string
}
