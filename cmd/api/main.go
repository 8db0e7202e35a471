package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/practiva/scheduling-api/internal/config"
	"github.com/practiva/scheduling-api/internal/handler"
	availabilityHandler "github.com/practiva/scheduling-api/internal/handler/availability"
	bookingHandler "github.com/practiva/scheduling-api/internal/handler/booking"
	"github.com/practiva/scheduling-api/internal/middleware"
	"github.com/practiva/scheduling-api/internal/repository/postgres"
	"github.com/practiva/scheduling-api/internal/router"
	availabilityService "github.com/practiva/scheduling-api/internal/service/availability"
	bookingService "github.com/practiva/scheduling-api/internal/service/booking"
	"github.com/practiva/scheduling-api/pkg/logger"
	"github.com/practiva/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("scheduling")
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	store := postgres.NewStore(db, m)

	availabilitySvc := availabilityService.NewService(store, appLogger, m, cfg.Scheduling.MinWindowDuration())
	bookingSvc := bookingService.NewService(store, appLogger, m, cfg.Scheduling.SlotCacheTTL())
	availabilitySvc.OnWindowsChanged(bookingSvc.FlushSlotCache)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	handler.RegisterValidations()
	h := handler.NewHandler(db)
	availabilityH := availabilityHandler.NewHandler(availabilitySvc)
	bookingH := bookingHandler.NewHandler(bookingSvc, cfg.Scheduling.DefaultSlotMinutes)

	r := router.NewRouter(authMiddleware, availabilityH, bookingH, h, router.Config{
		RateLimit:       rate.Limit(cfg.RateLimit.RPS),
		RateBurst:       cfg.RateLimit.Burst,
		CORSConfig:      middleware.DefaultCORSConfig(),
		MetricsPrefix:   "scheduling_http",
		MetricsRegistry: prometheus.DefaultRegisterer,
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
