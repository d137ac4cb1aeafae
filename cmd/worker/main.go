package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bdticketpro/backoffice/config"
	"github.com/bdticketpro/backoffice/internal/cache"
	"github.com/bdticketpro/backoffice/internal/email"
	"github.com/bdticketpro/backoffice/internal/export"
	"github.com/bdticketpro/backoffice/internal/kafka"
	"github.com/bdticketpro/backoffice/internal/notify"
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/bdticketpro/backoffice/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
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
		booking.WithSweepPageSize(cfg.Worker.SweepPageSize),
	)

	// invoice emails ride the booking event stream
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingTopic, logger)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
			if event.Type != kafka.EventBookingConfirmed {
				return nil
			}

			b, err := bookingService.FindByReference(ctx, event.BookingReference)
			if err != nil {
				logger.WithError(err).WithField("reference", event.BookingReference).Error("invoice lookup failed")
				return nil
			}
			if err := dispatcher.DispatchInvoice(ctx, b); err != nil {
				logger.WithError(err).WithField("reference", b.Reference).Warn("invoice dispatch failed")
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("consumer stopped")
		}
	}()

	// daily backup export, scheduled instead of piggybacking on page loads
	exporter := export.NewExporter(bookingRepo, ticketRepo, export.NewHTTPUploader(cfg.Backup), logger)
	schedule := cfg.Worker.BackupSchedule
	if schedule == "" {
		schedule = "0 0 2 * * *"
	}
	cronRunner := cron.New(cron.WithSeconds())
	if _, err := cronRunner.AddFunc(schedule, func() {
		if err := exporter.Run(ctx, "daily"); err != nil {
			logger.WithError(err).Error("backup export failed")
		}
	}); err != nil {
		logger.WithError(err).Fatal("schedule backup job")
	}
	cronRunner.Start()
	defer func() { <-cronRunner.Stop().Done() }()

	sweepInterval := time.Duration(cfg.Worker.ExpirationSweepSeconds) * time.Second
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	pollInterval := time.Duration(cfg.Worker.NotificationPollSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	notificationPage := cfg.Worker.NotificationPageSize
	if notificationPage <= 0 {
		notificationPage = 100
	}

	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()
	notifyTicker := time.NewTicker(pollInterval)
	defer notifyTicker.Stop()

	logger.WithFields(logrus.Fields{
		"sweep_interval": sweepInterval.String(),
		"poll_interval":  pollInterval.String(),
	}).Info("worker started")

	for {
		select {
		case <-sweepTicker.C:
			expired, err := bookingService.ExpireDueBookings(ctx)
			if err != nil {
				logger.WithError(err).Error("expiry sweep failed")
				continue
			}
			if len(expired) > 0 {
				logger.WithField("count", len(expired)).Info("expired bookings")
			}
		case <-notifyTicker.C:
			sent, err := dispatcher.ProcessDue(ctx, time.Now(), notificationPage)
			if err != nil {
				logger.WithError(err).Error("notification processing failed")
				continue
			}
			if sent > 0 {
				logger.WithField("count", sent).Info("notifications dispatched")
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
