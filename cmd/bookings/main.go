package main

import (
	"context"

	"staybook/internal/bookings/handler"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/pkg/app"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/events"
	"staybook/pkg/middleware"
)

func main() {
	cfg := config.Load("bookings-service")
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set for the bookings service")
	}

	cfg.SetMongo()
	cfg.SetRedis()

	bookingRepo := repository.NewBookingRepository(cfg.Client.Mongo, cfg.MongoDatabaseName)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	if err := bookingRepo.EnsureIndexes(ctx); err != nil {
		cancel()
		cfg.Log.Fatal("Failed to ensure booking indexes", "error", err)
	}
	cancel()

	hotelClient := client.NewHotelClient(client.HotelConfig{
		BaseURL:       cfg.HotelBaseURL,
		InternalToken: cfg.InternalToken,
		Timeout:       cfg.HotelTimeout,
		MaxAttempts:   cfg.HotelMaxAttempts,
		Backoff:       cfg.HotelBackoff,
	}, cfg.Log)

	var publisher *events.Publisher
	var eventSink service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Log)
		eventSink = publisher
		cfg.Log.Info("Booking events enabled", "topic", cfg.KafkaTopic)
	}

	bookingService := service.NewBookingService(bookingRepo, hotelClient, eventSink, cfg.Log)

	application := app.NewApplication(cfg)
	application.SetApp(handler.NewHandler(bookingService), middleware.Identity(cfg.JWTSecret))
	application.Run()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}
}
