package repository

import (
	"context"
	"time"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	// Schedule inserts the notification unless one of the same type already
	// exists for the booking. Scheduling twice is a no-op, never an error.
	Schedule(ctx context.Context, n *domain.Notification) error
	// CancelPending deletes unsent notifications of the given type for a
	// booking. Idempotent.
	CancelPending(ctx context.Context, bookingID int64, typ domain.NotificationType) error
	// Due returns unsent notifications whose scheduled time has passed.
	Due(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error)
	// MarkSent stamps sent_at only if it is still unset.
	MarkSent(ctx context.Context, id int64, sentAt time.Time) (bool, error)
	// ClaimSend inserts an already-sent marker for booking+type. The bool
	// reports whether this call won the claim; false means an earlier dispatch
	// already did.
	ClaimSend(ctx context.Context, n *domain.Notification, sentAt time.Time) (bool, error)
	ListForUser(ctx context.Context, userID int64, includeRead bool) ([]domain.Notification, error)
}

type PGNotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

const notificationColumns = `id, user_id, booking_id, type, title, message, scheduled_for, sent_at, is_read, created_at`

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.BookingID, &n.Type, &n.Title, &n.Message, &n.ScheduledFor, &n.SentAt, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PGNotificationRepository) Schedule(ctx context.Context, n *domain.Notification) error {
	err := r.db.QueryRow(ctx, `INSERT INTO notifications (user_id, booking_id, type, title, message, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (booking_id, type) DO NOTHING
		RETURNING id, created_at`,
		n.UserID, n.BookingID, n.Type, n.Title, n.Message, n.ScheduledFor).
		Scan(&n.ID, &n.CreatedAt)
	if err == pgx.ErrNoRows {
		// already scheduled for this booking+type
		return nil
	}
	return err
}

func (r *PGNotificationRepository) CancelPending(ctx context.Context, bookingID int64, typ domain.NotificationType) error {
	_, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE booking_id=$1 AND type=$2 AND sent_at IS NULL`, bookingID, typ)
	return err
}

func (r *PGNotificationRepository) Due(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE sent_at IS NULL AND scheduled_for <= $1
		ORDER BY scheduled_for
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, *n)
	}
	return due, rows.Err()
}

func (r *PGNotificationRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET sent_at=$1 WHERE id=$2 AND sent_at IS NULL`, sentAt, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGNotificationRepository) ClaimSend(ctx context.Context, n *domain.Notification, sentAt time.Time) (bool, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO notifications (user_id, booking_id, type, title, message, scheduled_for, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (booking_id, type) DO NOTHING
		RETURNING id, created_at`,
		n.UserID, n.BookingID, n.Type, n.Title, n.Message, sentAt).
		Scan(&n.ID, &n.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGNotificationRepository) ListForUser(ctx context.Context, userID int64, includeRead bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id=$1`
	if !includeRead {
		query += ` AND is_read=false`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)
