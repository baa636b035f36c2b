package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/grpcx"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/appointment"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/customer"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/organization"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/schedule"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// healthService is the gRPC health name reported alongside the server-wide status.
const healthService = "slotbook.booking"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9093")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	brokers := config.String("KAFKA_BROKERS", "")
	st, err := openStorage(ctx, logger, storageConfig{
		Mode:           config.String("STORAGE", "postgres"),
		MigrateOnStart: config.Bool("MIGRATE_ON_START", false),
		Brokers:        brokers,
		Observer:       bookingMetrics,
	})
	if err != nil {
		logger.Error("storage init failed", "err", err)
		panic(err)
	}
	defer st.Close()

	// Storage timestamps round-trip through Postgres at microsecond precision.
	now := func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

	api := handlers.New(handlers.Services{
		Organizations: organization.NewService(st.organizations, st.schedules, logger, now),
		Schedules:     schedule.NewService(st.organizations, st.schedules, logger, now),
		Catalog:       catalog.New(st.organizations, st.services, st.spaces, st.appointments, logger, now),
		Customers:     customer.NewService(st.organizations, st.customers, st.appointments, logger, now),
		Appointments: appointment.NewEngine(appointment.Deps{
			Organizations: st.organizations,
			Schedules:     st.schedules,
			Services:      st.services,
			Spaces:        st.spaces,
			Customers:     st.customers,
			Appointments:  st.appointments,
			Unit:          st.unit,
			Publisher:     st.publisher,
			Metrics:       bookingMetrics,
			Logger:        logger,
			Now:           now,
		}),
	}, logger)

	grpcServer := grpcx.NewServer(logger)
	grpcServer.SetServing("", true)
	grpcServer.SetServing(healthService, true)
	go func() {
		if err := grpcServer.Run(ctx, ":"+grpcPort); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: st.ready},
		runtime.ReadyCheck{Name: "kafka", Check: kafkaCheck(brokers)},
	)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/api/v1/", api.Routes())

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	runtime.ServeHTTP(ctx, logger, srv, 10*time.Second)
}

func kafkaCheck(brokers string) func(context.Context) error {
	if len(kafkax.SplitBrokers(brokers)) == 0 {
		return nil
	}
	return kafkax.ReadyCheck(brokers)
}
