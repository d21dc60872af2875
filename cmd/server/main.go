// Package main is the entry point for the recdiff report server. It runs one
// comparison configured through the environment and serves the result as
// browsable HTML.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"recdiff/internal/app"
	"recdiff/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present)
	dotEnvErr := config.LoadDotEnv(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if dotEnvErr != nil {
		logger.Warn("could not load .env", "error", dotEnvErr)
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	if err := cfg.ValidateInputs(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		return err
	}

	logger.Info("comparing snapshots", "source", cfg.SourcePath, "target", cfg.TargetPath)
	rep, sheets, err := a.Build(ctx, app.Inputs{
		Source:     cfg.SourcePath,
		Target:     cfg.TargetPath,
		ConfigFile: cfg.DiffConfig,
		Keyword:    cfg.Keyword,
	})
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	if rep != nil {
		tot := rep.Totals()
		logger.Info("comparison finished", "id", rep.ID, "tables", len(rep.Tables),
			"added", tot.Added, "removed", tot.Removed, "changed", tot.Changed,
			"duration", rep.Duration())
	} else {
		logger.Info("workbook comparison finished", "id", sheets.ID, "sheets", len(sheets.Sheets))
	}

	srv := app.NewServer(cfg.ListenAddr, a.Router(rep, sheets))
	logger.Info("open the report", "url", browseURL(cfg.ListenAddr, cfg.TLSCertFile != ""))
	return app.Serve(ctx, srv, cfg.TLSCertFile, cfg.TLSKeyFile, logger)
}

// browseURL turns a listen address into a URL a browser on the same host
// can open. Wildcard and empty hosts become localhost.
func browseURL(listenAddr string, tls bool) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		addr = config.DefaultListenAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return scheme + "://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}
