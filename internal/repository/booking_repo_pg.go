package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// CreatePending inserts the booking and locks its ticket atomically.
	// The partial unique index on active bookings makes the check-then-create
	// race-free: a concurrent insert for the same ticket loses with ErrConflict.
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindByReference(ctx context.Context, reference string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	Search(ctx context.Context, term string) ([]domain.Booking, error)
	ConfirmPending(ctx context.Context, id int64, paymentStatus domain.PaymentStatus, now time.Time) (*domain.Booking, error)
	CancelPending(ctx context.Context, id int64) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, booking_reference, ticket_id, agent_id, passenger_name, passport_number, mobile_number, pax_count, total_amount, payment_status, booking_status, comments, created_at, expires_at, confirmed_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.TicketID, &b.AgentID, &b.PassengerName, &b.PassportNumber, &b.MobileNumber, &b.PaxCount, &b.TotalAmount, &b.PaymentStatus, &b.Status, &b.Comments, &b.CreatedAt, &b.ExpiresAt, &b.ConfirmedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		domain.TicketStatusLocked, booking.TicketID, domain.TicketStatusAvailable)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, booking.TicketID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}

	booking.Status = domain.BookingStatusPending
	err = tx.QueryRow(ctx, `INSERT INTO bookings (booking_reference, ticket_id, agent_id, passenger_name, passport_number, mobile_number, pax_count, total_amount, payment_status, booking_status, comments, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.TicketID, booking.AgentID, booking.PassengerName, booking.PassportNumber, booking.MobileNumber, booking.PaxCount, booking.TotalAmount, booking.PaymentStatus, booking.Status, booking.Comments, booking.ExpiresAt).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (r *PGBookingRepository) FindByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference=$1`, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.AgentID != 0 {
		args = append(args, filter.AgentID)
		query += fmt.Sprintf(` AND agent_id=$%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND booking_status=$%d`, len(args))
	}
	if filter.SearchTerm != "" {
		args = append(args, "%"+filter.SearchTerm+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (passenger_name ILIKE $%d OR passport_number ILIKE $%d OR mobile_number ILIKE $%d)`, n, n, n)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryBookings(ctx, query, args...)
}

func (r *PGBookingRepository) Search(ctx context.Context, term string) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE passport_number ILIKE $1 OR mobile_number ILIKE $1
		ORDER BY created_at DESC`, "%"+term+"%")
}

func (r *PGBookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ConfirmPending applies pending->confirmed with a conditional update: the row
// must still be pending and inside its hold window. A losing race is reported
// as ErrInvalidTransition or ErrExpired depending on the row's actual state.
func (r *PGBookingRepository) ConfirmPending(ctx context.Context, id int64, paymentStatus domain.PaymentStatus, now time.Time) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	b, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
		SET booking_status=$1, confirmed_at=$2, payment_status=$3, updated_at=now()
		WHERE id=$4 AND booking_status=$5 AND expires_at > $2
		RETURNING `+bookingColumns,
		domain.BookingStatusConfirmed, now, paymentStatus, id, domain.BookingStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMiss(ctx, id, now)
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE id=$2`,
		domain.TicketStatusSold, b.TicketID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) CancelPending(ctx context.Context, id int64) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	b, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings
		SET booking_status=$1, updated_at=now()
		WHERE id=$2 AND booking_status=$3
		RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, id, domain.BookingStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMiss(ctx, id, time.Time{})
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		domain.TicketStatusAvailable, b.TicketID, domain.TicketStatusLocked); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// classifyMiss turns a zero-row conditional update into the precise domain
// error. now is zero for cancel, where lapsing the window is not an error by
// itself.
func (r *PGBookingRepository) classifyMiss(ctx context.Context, id int64, now time.Time) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == domain.BookingStatusPending && !now.IsZero() && !now.Before(current.ExpiresAt) {
		return domain.ErrExpired
	}
	return domain.ErrInvalidTransition
}

// ExpirePendingBefore is the sweep primitive: page-limited and safe to run
// concurrently. SKIP LOCKED keeps two sweeps from claiming the same rows.
func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `UPDATE bookings SET booking_status=$1, updated_at=now()
		WHERE id IN (
			SELECT id FROM bookings
			WHERE booking_status=$2 AND expires_at <= $3
			ORDER BY expires_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+bookingColumns,
		domain.BookingStatusExpired, domain.BookingStatusPending, deadline, limit)
	if err != nil {
		return nil, err
	}

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, *b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range expired {
		if _, err := tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
			domain.TicketStatusAvailable, b.TicketID, domain.TicketStatusLocked); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
