package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightsales/config"
	"github.com/Domenick1991/flightsales/internal/bootstrap"
	"github.com/Domenick1991/flightsales/internal/cache"
	"github.com/Domenick1991/flightsales/internal/kafka"
	"github.com/Domenick1991/flightsales/internal/notify"
	"github.com/Domenick1991/flightsales/internal/refund"
	"github.com/Domenick1991/flightsales/internal/repository"
	"github.com/Domenick1991/flightsales/internal/service/booking"
	"github.com/Domenick1991/flightsales/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightRepo := repository.NewFlightRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	notifier := notify.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic)
	refunds := refund.NewProcessor()

	flightService := flights.NewFlightService(flightRepo, redisCache)
	bookingService := booking.NewBookingService(
		orderRepo,
		flightRepo,
		notifier,
		refunds,
		booking.WithCache(redisCache),
		booking.WithProducer(producer, cfg.Kafka.OrdersTopic),
	)

	if err := bootstrap.Run(ctx, cfg, bookingService, flightService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
