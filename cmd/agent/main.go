package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/heimdex/heimdex-pose/internal/api"
	"github.com/heimdex/heimdex-pose/internal/config"
	"github.com/heimdex/heimdex-pose/internal/db"
	"github.com/heimdex/heimdex-pose/internal/history"
	"github.com/heimdex/heimdex-pose/internal/logging"
	"github.com/heimdex/heimdex-pose/internal/transform"
	"github.com/heimdex/heimdex-pose/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	out, closer := logging.Output(cfg.LogFile())
	defer closer.Close()
	logger := logging.NewLogger(cfg.LogLevel(), out)
	logger.Info("starting heimdex pose agent",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
	)

	database, err := db.New(cfg.DBPath(), logging.WithComponent(logger, "db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := history.NewRepository(database.Conn())
	historySvc := history.NewService(repo, logging.WithComponent(logger, "history"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deviceID, err := historySvc.EnsureSecret(ctx, history.ConfigDeviceID, 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := historySvc.EnsureSecret(ctx, history.ConfigAuthToken, 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                HEIMDEX POSE AGENT v%-22s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	engine := transform.New(transform.Options{
		Workers: cfg.Workers(),
		Strict:  cfg.StrictPersonIndex(),
		Logger:  logging.WithComponent(logger, "transform"),
	})
	logger.Info("transform engine ready", "workers", engine.Workers(), "strict_person_index", engine.Strict())

	apiServer := api.NewServer(api.ServerConfig{
		Port:         cfg.Port(),
		Engine:       engine,
		History:      historySvc,
		Repository:   repo,
		Logger:       logging.WithComponent(logger, "api"),
		StartTime:    startTime,
		DeviceID:     deviceID,
		Version:      config.Version,
		MaxBodyBytes: cfg.MaxBodyBytes(),
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Runs:   historySvc,
			Logger: logging.WithComponent(logger, "tray"),
			OnCopyToken: func() error {
				logger.Info("auth token requested from tray", "token", logging.SanitizeToken(authToken))
				fmt.Printf("Auth Token: %s\n", authToken)
				return nil
			},
			OnQuit: quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
