package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommissionRepository interface {
	// Credit records the accrual for a confirming transition. The unique key
	// on booking_id makes retries a no-op; the bool reports whether this call
	// actually credited.
	Credit(ctx context.Context, c *domain.Commission) (bool, error)
	StatsForAgent(ctx context.Context, agentID int64, from, to time.Time) (*domain.CommissionStats, error)
}

type PGCommissionRepository struct {
	db *pgxpool.Pool
}

func NewCommissionRepository(db *pgxpool.Pool) CommissionRepository {
	return &PGCommissionRepository{db: db}
}

func (r *PGCommissionRepository) Credit(ctx context.Context, c *domain.Commission) (bool, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO commissions (booking_id, agent_id, booking_reference, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (booking_id) DO NOTHING
		RETURNING id, created_at`,
		c.BookingID, c.AgentID, c.BookingReference, c.Amount).
		Scan(&c.ID, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGCommissionRepository) StatsForAgent(ctx context.Context, agentID int64, from, to time.Time) (*domain.CommissionStats, error) {
	query := `SELECT b.total_amount, c.amount, b.confirmed_at
		FROM commissions c
		JOIN bookings b ON b.id = c.booking_id
		WHERE c.agent_id=$1 AND b.booking_status='confirmed'`
	args := []interface{}{agentID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(` AND b.confirmed_at >= $%d`, len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(` AND b.confirmed_at <= $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &domain.CommissionStats{BookingsByMonth: make(map[string]domain.MonthlyStats)}
	for rows.Next() {
		var total, commission int64
		var confirmedAt time.Time
		if err := rows.Scan(&total, &commission, &confirmedAt); err != nil {
			return nil, err
		}
		stats.TotalBookings++
		stats.TotalSales += total
		stats.TotalCommission += commission

		month := confirmedAt.Format("2006-01")
		m := stats.BookingsByMonth[month]
		m.Count++
		m.Sales += total
		m.Commission += commission
		stats.BookingsByMonth[month] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.TotalBookings > 0 {
		stats.AverageBookingValue = stats.TotalSales / int64(stats.TotalBookings)
	}
	return stats, nil
}

var _ CommissionRepository = (*PGCommissionRepository)(nil)
