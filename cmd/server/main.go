package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propertytrack/internal/audit"
	"propertytrack/internal/authz"
	"propertytrack/internal/config"
	"propertytrack/internal/database"
	"propertytrack/internal/logging"
	"propertytrack/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("propertytrack", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	db, err := database.Open(cfg, logging.Component(log, "database"))
	if err != nil {
		log.WithError(err).Fatal("could not open database")
	}

	writer := audit.NewWriter(db, logging.Component(log, "audit"), audit.Options{
		QueueSize:  cfg.AuditQueueSize,
		Workers:    cfg.AuditWorkers,
		MaxRetries: cfg.AuditMaxRetries,
	})

	policy := authz.NewPolicy(db, cfg.OwnerTTL)
	defer policy.Close()

	app := server.New(cfg, log, db, writer, policy)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).WithField("env", cfg.Env).Info("server listening")
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.WithField("signal", s.String()).Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server stopped")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := writer.Close(ctx); err != nil {
		log.WithError(err).Warn("audit queue not fully drained")
	}
	if err := database.Close(db); err != nil {
		log.WithError(err).Error("closing database")
	}
	log.Info("bye")
}
