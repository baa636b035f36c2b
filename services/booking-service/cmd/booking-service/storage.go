package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/appointment"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage/memory"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/migrations"
	"github.com/segmentio/kafka-go"
)

type storageConfig struct {
	Mode           string
	MigrateOnStart bool
	Brokers        string
	Observer       outbox.Observer
}

// backend holds the repositories and event sink of one storage mode. Postgres
// records events through unit; memory mode publishes directly.
type backend struct {
	organizations domain.OrganizationRepository
	schedules     domain.ScheduleRepository
	services      domain.ServiceRepository
	spaces        domain.SpaceRepository
	customers     domain.CustomerRepository
	appointments  domain.AppointmentRepository
	unit          appointment.UnitOfWork
	publisher     appointment.Publisher
	ready         func(context.Context) error
	closers       []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openStorage(ctx context.Context, logger *slog.Logger, cfg storageConfig) (*backend, error) {
	var writer *kafka.Writer
	if brokers := kafkax.SplitBrokers(cfg.Brokers); len(brokers) > 0 {
		writer = kafkax.NewWriter(brokers)
	}

	switch cfg.Mode {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		b := &backend{
			organizations: store.Organizations(),
			schedules:     store.Schedules(),
			services:      store.Services(),
			spaces:        store.Spaces(),
			customers:     store.Customers(),
			appointments:  store.Appointments(),
		}
		if writer != nil {
			b.publisher = outbox.NewDirectPublisher(writer)
			b.closers = append(b.closers, func() { _ = writer.Close() })
		}
		return b, nil

	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := db.Migrate(dbURL, migrations.FS, db.MigrateOptions{MigrationsTable: "booking_schema_migrations"}); err != nil {
				return nil, err
			}
			logger.Info("migrations applied")
		}
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("db connection: %w", err)
		}

		outboxRepo := outbox.NewRepository()
		b := &backend{
			organizations: storage.NewOrganizationRepository(pool),
			schedules:     storage.NewScheduleRepository(pool),
			services:      storage.NewServiceRepository(pool),
			spaces:        storage.NewSpaceRepository(pool),
			customers:     storage.NewCustomerRepository(pool),
			appointments:  storage.NewAppointmentRepository(pool),
			unit:          storage.NewAppointmentUnit(pool, outboxRepo),
			ready:         db.ReadyCheck(pool),
			closers:       []func(){pool.Close},
		}

		var mw outbox.MessageWriter
		if writer != nil {
			mw = writer
			b.closers = append(b.closers, func() { _ = writer.Close() })
		}
		relay := outbox.NewRelay(pool, outboxRepo, mw, cfg.Observer, logger, outbox.RelayConfig{
			PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go relay.Run(ctx)
		return b, nil
	}
	return nil, fmt.Errorf("STORAGE must be postgres or memory (got %q)", cfg.Mode)
}
