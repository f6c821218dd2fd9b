// File: petcare/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petcare/config"
	"petcare/cron"
	"petcare/database"
	"petcare/database/repository"
	bookingRepo "petcare/database/repository/booking"
	caregiverRepo "petcare/database/repository/caregiver"
	serviceTypeRepo "petcare/database/repository/servicetype"
	"petcare/handlers"
	"petcare/middleware"
	"petcare/routes"
	"petcare/services/booking"
	"petcare/services/caregiver"
	"petcare/services/catalog"
	"petcare/services/notification"
	"petcare/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	cache := utils.GetCacheClient()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	utils.StartHealthMonitor(rootCtx, 30*time.Second, map[string]*redis.Client{"cache": cache}, database.MongoClient)

	// repositories.
	db := database.Database()
	bookings, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		logger.Fatal("main: failed to initialize booking repository", zap.Error(err))
	}
	caregivers, err := caregiverRepo.NewMongoCaregiverRepo(db)
	if err != nil {
		logger.Fatal("main: failed to initialize caregiver repository", zap.Error(err))
	}
	serviceTypes, err := serviceTypeRepo.NewMongoServiceTypeRepo(db)
	if err != nil {
		logger.Fatal("main: failed to initialize service type repository", zap.Error(err))
	}

	// queue + realtime.
	queueOpt := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
	publisher := notification.NewQueuePublisher(queueOpt)
	defer publisher.Close()
	hub := notification.NewHub()
	worker := cron.InitWorker(queueOpt, hub)

	// services.
	settings := booking.Settings{
		Policy: booking.Policy{
			CancelWindow:         time.Duration(config.AppConfig.CancelWindowHours) * time.Hour,
			FullRefundBefore:     time.Duration(config.AppConfig.FullRefundHours) * time.Hour,
			PartialRefundPercent: config.AppConfig.PartialRefundPercent,
		},
		OTP: booking.OTPPolicy{
			DropOffTTL: config.AppConfig.DropOffOTPTTL,
			PickupTTL:  config.AppConfig.PickupOTPTTL,
			HashCost:   config.AppConfig.OTPHashCost,
		},
		TaxPercent:   config.AppConfig.TaxPercent,
		ReminderLead: config.AppConfig.ReminderLeadTime,
	}
	bookingService := &booking.DefaultBookingService{
		Bookings:     bookings,
		Caregivers:   caregivers,
		ServiceTypes: serviceTypes,
		Tx:           repository.NewMongoTransactor(database.MongoClient),
		Sequence:     &booking.RedisSequencer{Client: cache, TTL: 48 * time.Hour},
		Publisher:    publisher,
		Settings:     settings,
		Logger:       logger,
	}
	caregiverService := &caregiver.DefaultCaregiverService{Repo: caregivers, Logger: logger}
	catalogService := &catalog.DefaultCatalogService{Repo: serviceTypes}

	handlerBundle := &handlers.HandlerBundle{
		Booking:     handlers.NewBookingHandler(bookingService, hub),
		Caregiver:   handlers.NewCaregiverHandler(caregiverService),
		ServiceType: handlers.NewServiceTypeHandler(catalogService),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	if err := database.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
