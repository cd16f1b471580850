package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachly/config"
	"coachly/cron"
	"coachly/database"
	bookingRepo "coachly/database/repository/booking"
	clientRepo "coachly/database/repository/client"
	feedbackRepo "coachly/database/repository/feedback"
	"coachly/handlers"
	"coachly/middleware"
	"coachly/models"
	"coachly/routes"
	"coachly/services/availability"
	"coachly/services/booking"
	"coachly/services/calendar"
	"coachly/services/notification"
	"coachly/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	clients := clientRepo.NewMongoClientRepo()
	feedback := feedbackRepo.NewMongoFeedbackRepo()

	// Calendar gateway and slot engine.
	gateway := calendar.NewRestGateway(
		config.AppConfig.CalendarBaseURL,
		config.AppConfig.CalendarToken,
		config.AppConfig.CalendarID,
		config.AppConfig.Timezone,
		time.Duration(config.AppConfig.CalendarTimeout)*time.Millisecond,
	)
	engine := availability.NewEngine(
		models.BusinessHours{
			StartHour: config.AppConfig.BusinessStartHour,
			EndHour:   config.AppConfig.BusinessEndHour,
		},
		config.AppConfig.WorkingDays,
	)

	notifier := notification.NewLogNotificationService()

	flowService := booking.NewDefaultFlowService(
		gateway,
		engine,
		booking.NewRedisSessionStore(utils.GetSessionCacheClient()),
		bookings,
		clients,
		notifier,
		config.Location(),
		map[string]int{
			models.SessionTypeFree: config.AppConfig.FreeSessionMinutes,
			models.SessionTypePaid: config.AppConfig.PaidSessionMinutes,
		},
		config.SessionIdleTTL(),
		config.AppConfig.CalendarMaxRetries,
		time.Duration(config.AppConfig.CalendarRetryBackoff)*time.Millisecond,
	)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Booking:  handlers.NewBookingHandler(flowService),
		Coach:    handlers.NewCoachHandler(bookings, clients, gateway, notifier, utils.NewRedisByteCache(utils.GetCacheClient())),
		Feedback: handlers.NewFeedbackHandler(feedback, bookings),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Background sweep for elapsed bookings.
	sweeper := cron.StartSweeper(bookings)

	// Start the HTTP server.
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

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
