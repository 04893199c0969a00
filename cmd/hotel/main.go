package main

import (
	"context"

	"staybook/internal/hotel/handler"
	"staybook/internal/hotel/repository"
	"staybook/internal/hotel/service"
	"staybook/pkg/app"
	"staybook/pkg/config"
	mongodb "staybook/pkg/db/mongo"
	"staybook/pkg/middleware"
)

func main() {
	cfg := config.Load("hotel-service")
	if cfg.InternalToken == "" {
		cfg.Log.Fatal("INTERNAL_TOKEN must be set for the hotel service")
	}

	cfg.SetMongo()
	cfg.SetRedis()

	roomRepo := repository.NewRoomRepository(cfg.Client.Mongo, cfg.MongoDatabaseName)
	lockRepo := repository.NewRoomLockRepository(cfg.Client.Mongo, cfg.MongoDatabaseName)
	hotelRepo := repository.NewHotelRepository(cfg.Client.Mongo, cfg.MongoDatabaseName)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	if err := roomRepo.EnsureIndexes(ctx); err != nil {
		cancel()
		cfg.Log.Fatal("Failed to ensure room indexes", "error", err)
	}
	if err := lockRepo.EnsureIndexes(ctx); err != nil {
		cancel()
		cfg.Log.Fatal("Failed to ensure lock indexes", "error", err)
	}
	cancel()

	txManager := mongodb.NewTransactionManager(cfg.Client.Mongo)

	lockService := service.NewLockService(lockRepo, roomRepo, txManager, cfg.Log)
	roomService := service.NewRoomService(roomRepo, hotelRepo, lockRepo, cfg.Log)

	application := app.NewApplication(cfg)
	application.SetApp(handler.NewHandler(roomService, lockService), middleware.InternalToken(cfg.InternalToken))
	application.Run()
}
