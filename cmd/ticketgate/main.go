// Ticketgate serves the JSON-RPC ticketing gateway in front of the REST backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tulinowpavel/ticketgate"
	"github.com/tulinowpavel/ticketgate/backend"
	"github.com/tulinowpavel/ticketgate/config"
	"github.com/tulinowpavel/ticketgate/logger"
	"github.com/tulinowpavel/ticketgate/server"
	"github.com/tulinowpavel/ticketgate/tickets"
)

const serviceName = "ticketgate"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		listenAddr  string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", os.Getenv(config.EnvConfigPath),
		"path to a config file ("+strings.Join(config.Extensions(), ", ")+")")
	flagSet.StringVar(&listenAddr, "listen", "", "listen address, overrides the config file")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("%s %s\n", serviceName, version)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listenAddr != "" {
		cfg.Gateway.ListenAddress = listenAddr
	}

	logs, err := logger.NewLogger(serviceName, version, cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		if err := logs.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}()

	retry := backend.DefaultRetryPolicy()
	retry.Jitter = cfg.Backend.RetryJitter

	client := backend.NewClient(backend.Config{
		BaseURL:   cfg.Backend.URL,
		APIKey:    cfg.Backend.APIKey,
		AccountID: cfg.Backend.AccountID,
		Timeout:   cfg.Backend.Timeout(),
	}, backend.WithRetryPolicy(retry))
	defer client.Close()

	dispatcher := ticketgate.NewDispatcher()
	tickets.Register(dispatcher, tickets.NewService(client, client.AccountID()))

	handler := server.New(server.Config{
		APIKey:       cfg.Gateway.APIKey,
		CORSOrigin:   cfg.Gateway.CORSOrigin,
		MaxBodyBytes: cfg.Gateway.MaxBodyBytes,
	}, dispatcher).Handler()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting gateway",
		slog.String("version", version),
		slog.String("backend", cfg.Backend.URL),
		slog.Int("methods", len(dispatcher.Catalog().Methods)),
	)

	return server.NewHTTPServer(server.HTTPServerConfig{
		Address:         cfg.Gateway.ListenAddress,
		Handler:         handler,
		ShutdownTimeout: cfg.Gateway.ShutdownTimeout(),
	}).Serve(ctx)
}
