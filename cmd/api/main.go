package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"finapp-backend/internal/config"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal, shutting down gracefully")
		cancel()
	}()

	var err error
	switch {
	case len(os.Args) > 1 && os.Args[1] == "migrate":
		err = migrateCmd(cfg)
	case len(os.Args) > 1 && os.Args[1] == "job":
		if len(os.Args) < 3 {
			err = fmt.Errorf("usage: api job <%s>", jobNamesUsage)
			break
		}
		err = jobCmd(ctx, cfg, os.Args[2])
	default:
		err = serve(ctx, cfg)
	}
	if err != nil {
		log.WithError(err).Fatal("application error")
	}
}

func setupLogging(level string) {
	log.SetFormatter(&log.JSONFormatter{})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown LOG_LEVEL, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
