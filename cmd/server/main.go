// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/database"
	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/jobs"
	"github.com/javajoker/assetdesk/internal/logging"
	"github.com/javajoker/assetdesk/internal/middleware"
	"github.com/javajoker/assetdesk/internal/router"
	"github.com/javajoker/assetdesk/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logCloser, err := logging.Setup(logrus.StandardLogger(), cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	defer logCloser.Close()

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := router.NewServices(db, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize services")
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svc.Roles.SeedBuiltInRoles(seedCtx); err != nil {
		logrus.WithError(err).Fatal("Failed to seed roles")
	}
	if err := svc.Auth.SeedAdmin(seedCtx); err != nil {
		logrus.WithError(err).Fatal("Failed to seed administrator")
	}
	cancelSeed()

	var scheduler *jobs.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = jobs.NewScheduler(cfg.Scheduler, svc.Reminders, svc.Taxonomy)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to configure scheduler")
		}
		scheduler.Start()
	}

	limits := middleware.NewRateLimits(cfg.RateLimit)
	stopSweeper := make(chan struct{})
	go limits.Run(stopSweeper)

	r := router.Initialize(db, cfg, svc, limits)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	close(stopSweeper)
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
			logrus.Warn("Scheduled jobs still running at shutdown")
		}
	}

	logrus.Info("Server exited")
}
