package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arjun/vita/internal/gateway"
	"github.com/arjun/vita/internal/observability"
	"github.com/arjun/vita/internal/roma"
	"github.com/arjun/vita/internal/server"
	"github.com/arjun/vita/internal/store"
	"github.com/arjun/vita/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Secrets come from .env in development; missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := observability.NewLogger()

	reports, err := store.NewReportStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer reports.Close()

	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}
	model, err := gateway.New(
		pCfg.APIKey,
		pCfg.Model,
		pCfg.BaseURL,
		time.Duration(cfg.Engine.ModelTimeoutSeconds)*time.Second,
	)
	if err != nil {
		log.Fatal(err)
	}
	model.Events = logger

	// Wire the executors behind an explicit stage lookup table.
	registry := roma.NewRegistry()
	registry.Register(roma.NewIngestExecutor())
	registry.Register(roma.NewMetricsExecutor(model))
	registry.Register(roma.NewCoachExecutor(model))
	registry.Register(roma.NewReportExecutor())
	registry.Register(roma.NewEchoExecutor())

	runner := roma.NewRunner(registry, roma.NewAtomizer(), cfg.Engine.Workers)
	solver := roma.NewSolver(runner, logger)

	handlers := &server.Handlers{
		AppName: cfg.App.Name,
		APIKey:  cfg.Auth.APIKey,
		Engine:  solver,
		Store:   reports,
		Policy:  server.DefaultPolicy(),
		Logger:  logger,
	}
	srv := server.NewServer(cfg.Addr(), handlers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	go func() {
		log.Printf("%s listening on %s (provider: %s, model: %s)", cfg.App.Name, cfg.Addr(), pName, pCfg.Model)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	log.Println("bye")
}
