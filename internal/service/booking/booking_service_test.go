package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/bdticketpro/backoffice/internal/notify"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Search(ctx context.Context, term string) ([]domain.Booking, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ConfirmPending(ctx context.Context, id int64, paymentStatus domain.PaymentStatus, now time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, id, paymentStatus, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CancelPending(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) UpdateCommissionRate(ctx context.Context, id int64, rate float64) (*domain.Agent, error) {
	args := m.Called(ctx, id, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) Credit(ctx context.Context, c *domain.Commission) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommissionRepository) StatsForAgent(ctx context.Context, agentID int64, from, to time.Time) (*domain.CommissionStats, error) {
	args := m.Called(ctx, agentID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionStats), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Schedule(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) CancelPending(ctx context.Context, bookingID int64, typ domain.NotificationType) error {
	args := m.Called(ctx, bookingID, typ)
	return args.Error(0)
}

func (m *MockNotificationRepository) Due(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) (bool, error) {
	args := m.Called(ctx, id, sentAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) ClaimSend(ctx context.Context, n *domain.Notification, sentAt time.Time) (bool, error) {
	args := m.Called(ctx, n, sentAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID int64, includeRead bool) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, includeRead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireTicketLock(ctx context.Context, ticketID int64, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, ticketID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseTicketLock(ctx context.Context, ticketID int64) error {
	args := m.Called(ctx, ticketID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type fixture struct {
	bookings      *MockBookingRepository
	tickets       *MockTicketRepository
	agents        *MockAgentRepository
	commissions   *MockCommissionRepository
	notifications *MockNotificationRepository
	cache         *MockCache
	producer      *MockProducer
	service       *BookingService
	now           time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		bookings:      &MockBookingRepository{},
		tickets:       &MockTicketRepository{},
		agents:        &MockAgentRepository{},
		commissions:   &MockCommissionRepository{},
		notifications: &MockNotificationRepository{},
		cache:         &MockCache{},
		producer:      &MockProducer{},
		now:           time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC),
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	dispatcher := notify.NewDispatcher(f.notifications, f.agents, nil, logger)
	f.service = NewBookingService(
		f.bookings,
		f.tickets,
		f.agents,
		f.commissions,
		dispatcher,
		f.cache,
		f.producer,
		"booking-events",
		logger,
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		TicketID:       11,
		AgentID:        7,
		AgentName:      "Karim Travels",
		PassengerName:  "Rahim Uddin",
		PassportNumber: "BD1234567",
		MobileNumber:   "01712345678",
		PaxCount:       2,
		SellingPrice:   85000,
		Discount:       0,
	}
}

func availableTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:           11,
		Airline:      "Biman Bangladesh Airlines",
		FlightNumber: "BG147",
		SellingPrice: 85000,
		BuyingPrice:  75000,
		Status:       domain.TicketStatusAvailable,
	}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(11)).Return(availableTicket(), nil)
	f.cache.On("AcquireTicketLock", ctx, int64(11), mock.Anything).Return(true, nil)
	f.bookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).Run(func(args mock.Arguments) {
		b := args.Get(1).(*domain.Booking)
		b.ID = 42
		b.Status = domain.BookingStatusPending
		b.CreatedAt = f.now
		b.UpdatedAt = f.now
	}).Return(nil)
	f.notifications.On("Schedule", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)
	f.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil)

	created, err := f.service.CreateBooking(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, domain.BookingStatusPending, created.Status)
	assert.Equal(t, int64(170000), created.TotalAmount)
	assert.Equal(t, domain.PaymentStatusPending, created.PaymentStatus)
	assert.Regexp(t, `^BK[0-9A-F]{10}$`, created.Reference)
	assert.Equal(t, f.now.Add(domain.HoldDuration), created.ExpiresAt)
	assert.Nil(t, created.ConfirmedAt)

	// expiry warning scheduled 2h before the hold lapses
	f.notifications.AssertCalled(t, "Schedule", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Type == domain.NotificationBookingExpiry &&
			n.BookingID == 42 &&
			n.ScheduledFor.Equal(created.ExpiresAt.Add(-notify.ExpiryWarningLead))
	}))

	f.bookings.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
}

func TestCreateBooking_SanitizesMobile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(11)).Return(availableTicket(), nil)
	f.cache.On("AcquireTicketLock", ctx, int64(11), mock.Anything).Return(true, nil)
	f.bookings.On("CreatePending", ctx, mock.Anything).Return(nil)
	f.notifications.On("Schedule", ctx, mock.Anything).Return(nil)
	f.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil)

	input := validInput()
	input.MobileNumber = "017-1234 5678"

	created, err := f.service.CreateBooking(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "01712345678", created.MobileNumber)
}

func TestCreateBooking_ValidationFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := validInput()
	input.PassengerName = ""
	input.PassportNumber = "short"
	input.MobileNumber = "12345"

	created, err := f.service.CreateBooking(ctx, input)
	require.Error(t, err)
	assert.Nil(t, created)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "passenger_name")
	assert.Contains(t, vErr.Fields, "passport_number")
	assert.Contains(t, vErr.Fields, "mobile_number")

	f.bookings.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
	f.tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCreateBooking_BelowFloorPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(11)).Return(availableTicket(), nil)

	input := validInput()
	input.SellingPrice = 70000 // below the 75000 cost

	_, err := f.service.CreateBooking(ctx, input)
	require.Error(t, err)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "selling_price")
	f.bookings.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestCreateBooking_TicketNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(11)).Return(nil, domain.ErrNotFound)

	_, err := f.service.CreateBooking(ctx, validInput())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBooking_TicketAlreadyLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(11)).Return(availableTicket(), nil)
	f.cache.On("AcquireTicketLock", ctx, int64(11), mock.Anything).Return(false, nil)

	_, err := f.service.CreateBooking(ctx, validInput())
	assert.ErrorIs(t, err, domain.ErrConflict)
	f.bookings.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestCreateBooking_StoreConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(11)).Return(availableTicket(), nil)
	f.cache.On("AcquireTicketLock", ctx, int64(11), mock.Anything).Return(true, nil)
	f.bookings.On("CreatePending", ctx, mock.Anything).Return(domain.ErrConflict)
	f.cache.On("ReleaseTicketLock", ctx, int64(11)).Return(nil)

	_, err := f.service.CreateBooking(ctx, validInput())
	assert.ErrorIs(t, err, domain.ErrConflict)
	f.cache.AssertCalled(t, "ReleaseTicketLock", ctx, int64(11))
}

func TestCreateBooking_SideEffectFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(11)).Return(availableTicket(), nil)
	f.cache.On("AcquireTicketLock", ctx, int64(11), mock.Anything).Return(true, nil)
	f.bookings.On("CreatePending", ctx, mock.Anything).Return(nil)
	f.notifications.On("Schedule", ctx, mock.Anything).Return(errors.New("notifications down"))
	f.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	created, err := f.service.CreateBooking(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, created.Reference)
}

func pendingBooking(now time.Time) *domain.Booking {
	return &domain.Booking{
		ID:             42,
		Reference:      "BKAB12CD34EF",
		TicketID:       11,
		AgentID:        7,
		PassengerName:  "Rahim Uddin",
		PassportNumber: "BD1234567",
		MobileNumber:   "01712345678",
		PaxCount:       2,
		TotalAmount:    170000,
		PaymentStatus:  domain.PaymentStatusPending,
		Status:         domain.BookingStatusPending,
		CreatedAt:      now.Add(-time.Hour),
		ExpiresAt:      now.Add(23 * time.Hour),
	}
}

func TestConfirmBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := pendingBooking(f.now)
	confirmedAt := f.now
	confirmed := *pending
	confirmed.Status = domain.BookingStatusConfirmed
	confirmed.PaymentStatus = domain.PaymentStatusFull
	confirmed.ConfirmedAt = &confirmedAt

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(pending, nil)
	f.bookings.On("ConfirmPending", ctx, int64(42), domain.PaymentStatusFull, f.now).Return(&confirmed, nil)
	f.agents.On("GetByID", ctx, int64(7)).Return(&domain.Agent{ID: 7, CommissionRate: 5}, nil)
	f.commissions.On("Credit", ctx, mock.AnythingOfType("*domain.Commission")).Return(true, nil)
	f.notifications.On("Schedule", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)
	f.notifications.On("CancelPending", ctx, int64(42), domain.NotificationBookingExpiry).Return(nil)
	f.producer.On("Publish", ctx, "booking-events", "BKAB12CD34EF", mock.Anything).Return(nil)
	f.cache.On("ReleaseTicketLock", ctx, int64(11)).Return(nil)

	updated, err := f.service.ConfirmBooking(ctx, "BKAB12CD34EF", 170000)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)
	assert.Equal(t, domain.PaymentStatusFull, updated.PaymentStatus)
	require.NotNil(t, updated.ConfirmedAt)

	// commission is total × rate: 170000 × 5% = 8500
	f.commissions.AssertCalled(t, "Credit", ctx, mock.MatchedBy(func(c *domain.Commission) bool {
		return c.BookingID == 42 && c.AgentID == 7 && c.Amount == 8500
	}))
	f.notifications.AssertCalled(t, "CancelPending", ctx, int64(42), domain.NotificationBookingExpiry)
}

func TestConfirmBooking_PartialPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := pendingBooking(f.now)
	confirmed := *pending
	confirmed.Status = domain.BookingStatusConfirmed
	confirmed.PaymentStatus = domain.PaymentStatusPartial

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(pending, nil)
	f.bookings.On("ConfirmPending", ctx, int64(42), domain.PaymentStatusPartial, f.now).Return(&confirmed, nil)
	f.agents.On("GetByID", ctx, int64(7)).Return(&domain.Agent{ID: 7, CommissionRate: 5}, nil)
	f.commissions.On("Credit", ctx, mock.Anything).Return(true, nil)
	f.notifications.On("Schedule", ctx, mock.Anything).Return(nil)
	f.notifications.On("CancelPending", ctx, int64(42), domain.NotificationBookingExpiry).Return(nil)
	f.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("ReleaseTicketLock", ctx, int64(11)).Return(nil)

	updated, err := f.service.ConfirmBooking(ctx, "BKAB12CD34EF", 50000)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPartial, updated.PaymentStatus)
}

func TestConfirmBooking_NoPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(pendingBooking(f.now), nil)

	_, err := f.service.ConfirmBooking(ctx, "BKAB12CD34EF", 0)
	require.Error(t, err)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "paid_amount")
	f.bookings.AssertNotCalled(t, "ConfirmPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmBooking_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(pendingBooking(f.now), nil)
	f.bookings.On("ConfirmPending", ctx, int64(42), domain.PaymentStatusFull, f.now).Return(nil, domain.ErrExpired)

	_, err := f.service.ConfirmBooking(ctx, "BKAB12CD34EF", 170000)
	assert.ErrorIs(t, err, domain.ErrExpired)
	f.commissions.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
}

func TestConfirmBooking_AlreadyCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled := pendingBooking(f.now)
	cancelled.Status = domain.BookingStatusCancelled

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(cancelled, nil)
	f.bookings.On("ConfirmPending", ctx, int64(42), domain.PaymentStatusFull, f.now).Return(nil, domain.ErrInvalidTransition)

	_, err := f.service.ConfirmBooking(ctx, "BKAB12CD34EF", 170000)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.commissions.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
}

func TestConfirmBooking_CommissionRetryDoesNotDoubleNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := pendingBooking(f.now)
	confirmed := *pending
	confirmed.Status = domain.BookingStatusConfirmed
	confirmed.PaymentStatus = domain.PaymentStatusFull

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(pending, nil)
	f.bookings.On("ConfirmPending", ctx, int64(42), domain.PaymentStatusFull, f.now).Return(&confirmed, nil)
	f.agents.On("GetByID", ctx, int64(7)).Return(&domain.Agent{ID: 7, CommissionRate: 5}, nil)
	// a previous attempt already credited this booking
	f.commissions.On("Credit", ctx, mock.Anything).Return(false, nil)
	f.notifications.On("CancelPending", ctx, int64(42), domain.NotificationBookingExpiry).Return(nil)
	f.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("ReleaseTicketLock", ctx, int64(11)).Return(nil)

	_, err := f.service.ConfirmBooking(ctx, "BKAB12CD34EF", 170000)
	require.NoError(t, err)

	f.notifications.AssertNotCalled(t, "Schedule", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Type == domain.NotificationCommissionUpdate
	}))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := pendingBooking(f.now)
	cancelled := *pending
	cancelled.Status = domain.BookingStatusCancelled

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(pending, nil)
	f.bookings.On("CancelPending", ctx, int64(42)).Return(&cancelled, nil)
	f.notifications.On("CancelPending", ctx, int64(42), domain.NotificationBookingExpiry).Return(nil)
	f.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("ReleaseTicketLock", ctx, int64(11)).Return(nil)

	updated, err := f.service.CancelBooking(ctx, "BKAB12CD34EF")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, updated.Status)

	f.commissions.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
}

func TestCancelBooking_AlreadyTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := pendingBooking(f.now)
	expired.Status = domain.BookingStatusExpired

	f.bookings.On("FindByReference", ctx, "BKAB12CD34EF").Return(expired, nil)
	f.bookings.On("CancelPending", ctx, int64(42)).Return(nil, domain.ErrInvalidTransition)

	_, err := f.service.CancelBooking(ctx, "BKAB12CD34EF")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestExpireDueBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := *pendingBooking(f.now)
	first.Status = domain.BookingStatusExpired
	second := first
	second.ID = 43
	second.Reference = "BK0011223344"
	second.TicketID = 12

	f.bookings.On("ExpirePendingBefore", ctx, f.now, 100).Return([]domain.Booking{first, second}, nil)
	f.notifications.On("CancelPending", ctx, int64(42), domain.NotificationBookingExpiry).Return(nil)
	f.notifications.On("CancelPending", ctx, int64(43), domain.NotificationBookingExpiry).Return(nil)
	f.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("ReleaseTicketLock", ctx, int64(11)).Return(nil)
	f.cache.On("ReleaseTicketLock", ctx, int64(12)).Return(nil)

	expired, err := f.service.ExpireDueBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, expired, 2)

	f.notifications.AssertNumberOfCalls(t, "CancelPending", 2)
	f.commissions.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
}

func TestExpireDueBookings_SecondRunIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("ExpirePendingBefore", ctx, f.now, 100).Return([]domain.Booking{}, nil)

	expired, err := f.service.ExpireDueBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)
	f.notifications.AssertNotCalled(t, "CancelPending", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	match := *pendingBooking(f.now)
	f.bookings.On("Search", ctx, "01712345678").Return([]domain.Booking{match}, nil)

	found, err := f.service.SearchBookings(ctx, "01712345678")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "01712345678", found[0].MobileNumber)
}

func TestFindByReference_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("FindByReference", ctx, "BKMISSING000").Return(nil, domain.ErrNotFound)

	_, err := f.service.FindByReference(ctx, "BKMISSING000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
