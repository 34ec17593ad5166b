package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-vault-local/internal/adapter"
	"github.com/MKhiriev/go-vault-local/internal/app"
	"github.com/MKhiriev/go-vault-local/internal/config"
	"github.com/MKhiriev/go-vault-local/internal/logger"
	"github.com/MKhiriev/go-vault-local/internal/service"
	"github.com/MKhiriev/go-vault-local/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	startupLog := logger.NewLogger("vault")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		startupLog.Fatal().Err(err).Msg("error getting configs")
	}

	// after startup, log to a file so output does not interleave with the
	// terminal
	log := logger.NewFileLogger("vault")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	clientCfg := adapter.HTTPClientConfig{BaseURL: cfg.Remote.HTTPAddress, Timeout: cfg.Remote.RequestTimeout}
	remote := adapter.NewHTTPRemoteStore(clientCfg)
	transport := adapter.NewHTTPBlobTransport(clientCfg)

	services := service.NewServices(storages, remote, transport, cfg)

	session := app.NewSession(services, cfg, log)
	session.Start(ctx)
	defer session.Logout()

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
