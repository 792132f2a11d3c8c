// Ticketmock serves an in-memory ticketing backend for local runs of the gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tulinowpavel/ticketgate/logger"
	"github.com/tulinowpavel/ticketgate/mockapi"
	"github.com/tulinowpavel/ticketgate/server"
)

const serviceName = "ticketmock"

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listenAddr string
		token      string
		logLevel   string
	)

	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.StringVar(&listenAddr, "listen", ":8085", "listen address")
	flagSet.StringVar(&token, "token", os.Getenv("TICKETMOCK_TOKEN"), "bearer token required from callers (empty disables the check)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logs, err := logger.NewLogger(serviceName, version, logLevel, "")
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting mock backend", slog.Bool("token_required", token != ""))

	return server.NewHTTPServer(server.HTTPServerConfig{
		Address: listenAddr,
		Handler: mockapi.NewHandler(mockapi.NewStore(nil), token),
	}).Serve(ctx)
}
