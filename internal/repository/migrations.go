package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// RunMigrations applies the schema in order. Statements are idempotent so a
// restart can re-run the full list.
func RunMigrations(ctx context.Context, db *pgxpool.Pool, logger *logrus.Logger) error {
	migrations := []string{
		createAgentsTable,
		createTicketsTable,
		createBookingsTable,
		createActiveBookingIndex,
		createBookingSearchIndexes,
		createNotificationsTable,
		createCommissionsTable,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	logger.WithField("count", len(migrations)).Info("migrations applied")
	return nil
}

const createAgentsTable = `
CREATE TABLE IF NOT EXISTS agents (
    id BIGSERIAL PRIMARY KEY,
    full_name VARCHAR(255) NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    phone VARCHAR(20) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL DEFAULT 'staff',
    commission_rate DOUBLE PRECISION NOT NULL DEFAULT 5,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id BIGSERIAL PRIMARY KEY,
    airline VARCHAR(255) NOT NULL,
    flight_number VARCHAR(20) NOT NULL,
    departure_city VARCHAR(100) NOT NULL,
    arrival_city VARCHAR(100) NOT NULL,
    country VARCHAR(100) NOT NULL,
    departure_date TIMESTAMPTZ NOT NULL,
    selling_price BIGINT NOT NULL,
    buying_price BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'available',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id BIGSERIAL PRIMARY KEY,
    booking_reference VARCHAR(20) UNIQUE NOT NULL,
    ticket_id BIGINT NOT NULL REFERENCES tickets(id),
    agent_id BIGINT NOT NULL REFERENCES agents(id),
    passenger_name VARCHAR(255) NOT NULL,
    passport_number VARCHAR(50) NOT NULL,
    mobile_number VARCHAR(20) NOT NULL,
    pax_count INTEGER NOT NULL,
    total_amount BIGINT NOT NULL,
    payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
    booking_status VARCHAR(20) NOT NULL DEFAULT 'pending',
    comments TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    expires_at TIMESTAMPTZ NOT NULL,
    confirmed_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// One non-terminal booking per ticket, enforced by the database so
// check-then-create races resolve to a unique violation.
const createActiveBookingIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_ticket_uq
    ON bookings (ticket_id)
    WHERE booking_status IN ('pending', 'confirmed');`

const createBookingSearchIndexes = `
CREATE INDEX IF NOT EXISTS bookings_passport_idx ON bookings (passport_number);
CREATE INDEX IF NOT EXISTS bookings_mobile_idx ON bookings (mobile_number);
CREATE INDEX IF NOT EXISTS bookings_expiry_idx ON bookings (expires_at) WHERE booking_status = 'pending';`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES agents(id),
    booking_id BIGINT NOT NULL REFERENCES bookings(id),
    type VARCHAR(50) NOT NULL,
    title VARCHAR(255) NOT NULL,
    message TEXT NOT NULL,
    scheduled_for TIMESTAMPTZ NOT NULL,
    sent_at TIMESTAMPTZ,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (booking_id, type)
);`

const createCommissionsTable = `
CREATE TABLE IF NOT EXISTS commissions (
    id BIGSERIAL PRIMARY KEY,
    booking_id BIGINT UNIQUE NOT NULL REFERENCES bookings(id),
    agent_id BIGINT NOT NULL REFERENCES agents(id),
    booking_reference VARCHAR(20) NOT NULL,
    amount BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
