package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bdticketpro/backoffice/config"
	"github.com/bdticketpro/backoffice/internal/bootstrap"
	"github.com/bdticketpro/backoffice/internal/cache"
	"github.com/bdticketpro/backoffice/internal/email"
	"github.com/bdticketpro/backoffice/internal/kafka"
	"github.com/bdticketpro/backoffice/internal/notify"
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/bdticketpro/backoffice/internal/service/agents"
	"github.com/bdticketpro/backoffice/internal/service/booking"
	"github.com/bdticketpro/backoffice/internal/service/tickets"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool, logger); err != nil {
		logger.WithError(err).Fatal("run migrations")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.TicketsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	mailer := email.NewSender(cfg.Mailer)

	bookingRepo := repository.NewBookingRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	commissionRepo := repository.NewCommissionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	dispatcher := notify.NewDispatcher(notificationRepo, agentRepo, mailer, logger)
	bookingService := booking.NewBookingService(
		bookingRepo,
		ticketRepo,
		agentRepo,
		commissionRepo,
		dispatcher,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		logger,
		booking.WithCreateLockTTL(time.Duration(cfg.Booking.CreateLockSeconds)*time.Second),
		booking.WithSweepPageSize(cfg.Worker.SweepPageSize),
	)
	ticketService := tickets.NewTicketService(ticketRepo, redisCache, logger)
	agentService := agents.NewAgentService(agentRepo, commissionRepo, logger)

	err = bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Bookings:      bookingService,
		Tickets:       ticketService,
		Agents:        agentService,
		Notifications: notificationRepo,
	})
	if err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
