package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mr1hm/go-coastal-alerts/internal/alert"
	"github.com/mr1hm/go-coastal-alerts/internal/api"
	"github.com/mr1hm/go-coastal-alerts/internal/broadcast"
	"github.com/mr1hm/go-coastal-alerts/internal/classifier"
	"github.com/mr1hm/go-coastal-alerts/internal/config"
	"github.com/mr1hm/go-coastal-alerts/internal/directory"
	"github.com/mr1hm/go-coastal-alerts/internal/dispatch"
	"github.com/mr1hm/go-coastal-alerts/internal/engine"
	"github.com/mr1hm/go-coastal-alerts/internal/logging"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
	"github.com/mr1hm/go-coastal-alerts/internal/provider"
	"github.com/mr1hm/go-coastal-alerts/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := classifier.New(classifier.DefaultRules(classifier.Thresholds{
		SeaLevelRise: cfg.Rules.SeaLevelRiseThreshold,
		WaveHeight:   cfg.Rules.WaveHeightThreshold,
		WindSpeed:    cfg.Rules.WindSpeedThreshold,
		Pollution:    cfg.Rules.PollutionThreshold,
	}))

	factory, err := alert.NewFactory(alert.Options{
		SensorTTL:  cfg.Dispatch.SensorAlertTTL,
		AnomalyTTL: cfg.Dispatch.AnomalyTTL,
	})
	if err != nil {
		logging.Fatalf("Invalid alert configuration: %v", err)
	}

	dir := directory.New()
	if cfg.Server.SeedDirectory {
		for _, s := range directory.DefaultStakeholders() {
			dir.Register(s)
		}
		slog.Info("stakeholder directory seeded", "count", dir.Count())
	}

	providers := map[models.ChannelType]dispatch.Provider{
		models.ChannelSMS:     provider.NewSMSProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From),
		models.ChannelEmail:   provider.NewEmailProvider(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
		models.ChannelWebhook: provider.NewWebhookProvider(),
	}
	for chType, p := range providers {
		if !p.Configured() {
			slog.Warn("provider not configured, its deliveries will be skipped", "channel", chType)
		}
	}

	dispatcher := dispatch.NewDispatcher(providers, db, dispatch.Options{
		Workers:    cfg.Worker.Count,
		BufferSize: cfg.Worker.BufferSize,
		Timeouts: dispatch.Timeouts{
			SMS:     cfg.Dispatch.SMSTimeout,
			Email:   cfg.Dispatch.EmailTimeout,
			Webhook: cfg.Dispatch.WebhookTimeout,
		},
	})
	dispatcher.Start(ctx)

	broadcaster := broadcast.NewBroadcaster()

	eng := engine.New(c, factory, db, db, dir, dispatcher, broadcaster)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(eng, dir, broadcaster)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// End SSE streams first or Shutdown would wait on them, then stop
	// accepting requests. The dispatcher stops last among the three: it
	// drains only while the root context is alive, and in-flight handlers
	// may still be submitting deliveries.
	broadcaster.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	dispatcher.Stop()
	cancel()

	slog.Info("shutdown complete")
}
