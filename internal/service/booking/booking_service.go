package booking

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/bdticketpro/backoffice/internal/kafka"
	"github.com/bdticketpro/backoffice/internal/metrics"
	"github.com/bdticketpro/backoffice/internal/notify"
	"github.com/bdticketpro/backoffice/internal/pricing"
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/bdticketpro/backoffice/internal/validate"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, reference string, paidAmount int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, reference string) (*domain.Booking, error)
	ExpireDueBookings(ctx context.Context) ([]domain.Booking, error)
	GetBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	SearchBookings(ctx context.Context, term string) ([]domain.Booking, error)
	FindByReference(ctx context.Context, reference string) (*domain.Booking, error)
}

// Cache is the optional fast-path lock in front of the store. The store's
// unique constraint stays authoritative; the lock only fails doomed creates
// early.
type Cache interface {
	AcquireTicketLock(ctx context.Context, ticketID int64, ttl time.Duration) (bool, error)
	ReleaseTicketLock(ctx context.Context, ticketID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	TicketID       int64   `json:"ticket_id"`
	AgentID        int64   `json:"agent_id"`
	AgentName      string  `json:"agent_name"`
	PassengerName  string  `json:"passenger_name"`
	PassportNumber string  `json:"passport_number"`
	MobileNumber   string  `json:"mobile_number"`
	PaxCount       int     `json:"pax_count"`
	SellingPrice   int64   `json:"selling_price"`
	Discount       float64 `json:"discount"`
	PaidAmount     int64   `json:"paid_amount"`
	Comments       *string `json:"comments,omitempty"`
}

type BookingService struct {
	bookings     repository.BookingRepository
	tickets      repository.TicketRepository
	agents       repository.AgentRepository
	commissions  repository.CommissionRepository
	dispatcher   *notify.Dispatcher
	cache        Cache
	producer     Producer
	bookingTopic string
	logger       *logrus.Logger

	createLockTTL time.Duration
	sweepPageSize int
	now           func() time.Time
}

type BookingServiceOption func(*BookingService)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) { s.now = now }
}

func WithSweepPageSize(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.sweepPageSize = n
		}
	}
}

func WithCreateLockTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.createLockTTL = ttl }
}

func NewBookingService(
	bookings repository.BookingRepository,
	tickets repository.TicketRepository,
	agents repository.AgentRepository,
	commissions repository.CommissionRepository,
	dispatcher *notify.Dispatcher,
	cache Cache,
	producer Producer,
	bookingTopic string,
	logger *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		bookings:      bookings,
		tickets:       tickets,
		agents:        agents,
		commissions:   commissions,
		dispatcher:    dispatcher,
		cache:         cache,
		producer:      producer,
		bookingTopic:  bookingTopic,
		logger:        logger,
		createLockTTL: 30 * time.Second,
		sweepPageSize: 100,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	v := validate.PassengerFields(validate.Passenger{
		Name:     input.PassengerName,
		Passport: input.PassportNumber,
		Mobile:   input.MobileNumber,
	})
	for field, msg := range validate.AgentFields(input.AgentID, input.AgentName).Fields {
		v.Add(field, msg)
	}
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, err
	}

	// cost price is the selling floor
	quote, err := pricing.Calculate(ticket.BuyingPrice, input.SellingPrice, input.PaxCount, input.Discount)
	if err != nil {
		return nil, err
	}
	if err := validate.PaymentFields(input.PaidAmount, quote.TotalAmount).ErrOrNil(); err != nil {
		return nil, err
	}

	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireTicketLock(ctx, input.TicketID, s.createLockTTL)
		if err != nil {
			s.logger.WithError(err).Warn("ticket lock unavailable, falling through to store")
		} else if !ok {
			return nil, domain.ErrConflict
		} else {
			locked = true
		}
	}

	now := s.now()
	booking := &domain.Booking{
		Reference:      newReference(),
		TicketID:       input.TicketID,
		AgentID:        input.AgentID,
		PassengerName:  strings.TrimSpace(input.PassengerName),
		PassportNumber: strings.TrimSpace(input.PassportNumber),
		MobileNumber:   validate.SanitizeMobile(input.MobileNumber),
		PaxCount:       input.PaxCount,
		TotalAmount:    quote.TotalAmount,
		PaymentStatus:  validate.PaymentStatusFor(input.PaidAmount, quote.TotalAmount),
		Comments:       input.Comments,
		ExpiresAt:      now.Add(domain.HoldDuration),
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		if locked {
			_ = s.cache.ReleaseTicketLock(ctx, input.TicketID)
		}
		if errors.Is(err, domain.ErrConflict) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}
	metrics.BookingsCreated.Inc()

	// side effects run after the committed insert and never fail the create
	if err := s.dispatcher.ScheduleExpiryWarning(ctx, booking); err != nil {
		s.logger.WithError(err).WithField("reference", booking.Reference).Warn("failed to schedule expiry warning")
	}
	s.publish(ctx, kafka.EventBookingCreated, booking)

	return booking, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, reference string, paidAmount int64) (*domain.Booking, error) {
	current, err := s.bookings.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := validate.PaymentFields(paidAmount, current.TotalAmount).ErrOrNil(); err != nil {
		return nil, err
	}
	paymentStatus := validate.PaymentStatusFor(paidAmount, current.TotalAmount)
	if paymentStatus == domain.PaymentStatusPending {
		v := domain.NewValidationError()
		v.Add("paid_amount", "a payment is required to confirm a booking")
		return nil, v
	}

	updated, err := s.bookings.ConfirmPending(ctx, current.ID, paymentStatus, s.now())
	if err != nil {
		return nil, err
	}
	metrics.BookingTransitions.WithLabelValues(string(domain.BookingStatusConfirmed)).Inc()

	s.creditCommission(ctx, updated)

	if err := s.dispatcher.CancelExpiryWarning(ctx, updated.ID); err != nil {
		s.logger.WithError(err).WithField("reference", updated.Reference).Warn("failed to cancel expiry warning")
	}
	s.publish(ctx, kafka.EventBookingConfirmed, updated)
	if s.cache != nil {
		_ = s.cache.ReleaseTicketLock(ctx, updated.TicketID)
	}
	return updated, nil
}

// creditCommission accrues total × rate exactly once per booking. The unique
// key on booking_id absorbs retries; the notification only fires for the
// crediting call.
func (s *BookingService) creditCommission(ctx context.Context, b *domain.Booking) {
	agent, err := s.agents.GetByID(ctx, b.AgentID)
	if err != nil {
		s.logger.WithError(err).WithField("agent_id", b.AgentID).Error("commission skipped: agent lookup failed")
		return
	}

	amount := int64(math.Round(float64(b.TotalAmount) * agent.CommissionRate / 100))
	credited, err := s.commissions.Credit(ctx, &domain.Commission{
		BookingID:        b.ID,
		AgentID:          b.AgentID,
		BookingReference: b.Reference,
		Amount:           amount,
	})
	if err != nil {
		s.logger.WithError(err).WithField("reference", b.Reference).Error("commission credit failed")
		return
	}
	if !credited {
		return
	}
	if err := s.dispatcher.NotifyCommission(ctx, b, amount); err != nil {
		s.logger.WithError(err).WithField("reference", b.Reference).Warn("commission notification failed")
	}
}

func (s *BookingService) CancelBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	current, err := s.bookings.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.CancelPending(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	metrics.BookingTransitions.WithLabelValues(string(domain.BookingStatusCancelled)).Inc()

	if err := s.dispatcher.CancelExpiryWarning(ctx, updated.ID); err != nil {
		s.logger.WithError(err).WithField("reference", updated.Reference).Warn("failed to cancel expiry warning")
	}
	s.publish(ctx, kafka.EventBookingCancelled, updated)
	if s.cache != nil {
		_ = s.cache.ReleaseTicketLock(ctx, updated.TicketID)
	}
	return updated, nil
}

// ExpireDueBookings is the sweep: one page of lapsed pending holds per call.
// Safe to run concurrently; a second sweep sees no rows and is a no-op.
func (s *BookingService) ExpireDueBookings(ctx context.Context) ([]domain.Booking, error) {
	metrics.SweepRuns.Inc()

	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now(), s.sweepPageSize)
	if err != nil {
		return nil, err
	}

	for i := range expired {
		b := &expired[i]
		metrics.BookingTransitions.WithLabelValues(string(domain.BookingStatusExpired)).Inc()
		if err := s.dispatcher.CancelExpiryWarning(ctx, b.ID); err != nil {
			s.logger.WithError(err).WithField("reference", b.Reference).Warn("failed to cancel expiry warning")
		}
		s.publish(ctx, kafka.EventBookingExpired, b)
		if s.cache != nil {
			_ = s.cache.ReleaseTicketLock(ctx, b.TicketID)
		}
	}
	return expired, nil
}

func (s *BookingService) GetBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

func (s *BookingService) SearchBookings(ctx context.Context, term string) ([]domain.Booking, error) {
	return s.bookings.Search(ctx, term)
}

func (s *BookingService) FindByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.FindByReference(ctx, reference)
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		BookingReference: b.Reference,
		TicketID:         b.TicketID,
		AgentID:          b.AgentID,
		PassengerName:    b.PassengerName,
		MobileNumber:     b.MobileNumber,
		PaxCount:         b.PaxCount,
		TotalAmount:      b.TotalAmount,
		PaymentStatus:    string(b.PaymentStatus),
		Status:           string(b.Status),
		ExpiresAt:        b.ExpiresAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.Reference, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"reference": b.Reference,
			"event":     eventType,
		}).Warn("failed to publish booking event")
	}
}

func newReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BK" + id[:10]
}

var _ BookingUseCase = (*BookingService)(nil)
