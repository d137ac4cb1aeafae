package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketColumns = `id, airline, flight_number, departure_city, arrival_city, country, departure_date, selling_price, buying_price, status, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.Airline, &t.FlightNumber, &t.DepartureCity, &t.ArrivalCity, &t.Country, &t.DepartureTime, &t.SellingPrice, &t.BuyingPrice, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.Country != "" {
		args = append(args, filter.Country)
		query += fmt.Sprintf(` AND country=$%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if filter.Airline != "" {
		args = append(args, filter.Airline)
		query += fmt.Sprintf(` AND airline=$%d`, len(args))
	}
	query += ` ORDER BY departure_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func (r *PGTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

var _ TicketRepository = (*PGTicketRepository)(nil)
