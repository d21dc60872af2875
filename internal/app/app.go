// Package app wires configuration, the compare service and the report
// server for the recdiff binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"recdiff/internal/config"
	"recdiff/internal/diff"
	"recdiff/internal/diffconfig"
	"recdiff/internal/domain"
	"recdiff/internal/middleware"
	"recdiff/internal/service/compare"
	"recdiff/internal/storage"
	"recdiff/internal/ui"
)

const shutdownTimeout = 10 * time.Second

// Deps holds what main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// App holds the wired compare service and the settings of the report server.
type App struct {
	Service  *compare.Service
	Resolver *storage.Resolver

	cfg    *config.Config
	logger *slog.Logger
}

// New builds the storage resolver for the configured clouds, the diff engine
// and the compare service.
func New(ctx context.Context, deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := deps.Cfg
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}

	resolver, err := storage.NewResolverFromConfig(ctx, cfg, logger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	engine := diff.NewEngine(
		diff.WithLogger(logger.With("component", "diff")),
		diff.WithStrictKeys(cfg.StrictKeys),
		diff.WithMatchTimeout(cfg.PatternTimeout),
	)
	svc := compare.NewService(compare.ServiceDeps{
		Resolver:    resolver,
		Engine:      engine,
		MaxParallel: cfg.MaxParallel,
		Logger:      logger.With("component", "compare"),
	})
	return &App{Service: svc, Resolver: resolver, cfg: cfg, logger: logger}, nil
}

// Inputs names the snapshots to compare and the adjustments applied to the
// proposed configuration.
type Inputs struct {
	Source     string
	Target     string
	ConfigFile string   // JSON or YAML configuration, local or remote
	Keyword    string   // re-infers the keys of the selected tables
	Ignore     string   // comma-separated column names ignored in every table
	Tables     []string // replaces the selection when set
}

// Prepare loads both database snapshots and adjusts the proposed
// configuration with, in order, the configuration file, the table selection,
// the keyword and the global ignore list.
func (a *App) Prepare(ctx context.Context, in Inputs) (*compare.Session, *domain.ConfigSet, error) {
	session, err := a.Service.LoadDatabases(ctx, in.Source, in.Target)
	if err != nil {
		return nil, nil, err
	}
	cs := session.Config

	if in.ConfigFile != "" {
		loaded, err := a.loadConfig(ctx, in.ConfigFile)
		if err != nil {
			return nil, nil, err
		}
		if skipped := diffconfig.Merge(cs, loaded); len(skipped) > 0 {
			a.logger.Warn("configuration entries for unknown tables skipped", "tables", skipped)
		}
	}
	if len(in.Tables) > 0 {
		cs.SelectAll(in.Tables)
	}
	if in.Keyword != "" {
		a.Service.AutoConfigure(session, cs, in.Keyword)
	}
	if in.Ignore != "" {
		keywords := cs.ApplyGlobalIgnore(in.Ignore, session.Schemas())
		a.logger.Debug("global ignore applied", "columns", keywords)
	}
	return session, cs, nil
}

func (a *App) loadConfig(ctx context.Context, location string) (*domain.ConfigSet, error) {
	local, cleanup, err := a.Resolver.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return diffconfig.Load(local)
}

// Build runs the comparison in: a workbook comparison when the source is a
// spreadsheet, a database comparison otherwise. Exactly one report is
// non-nil on success.
func (a *App) Build(ctx context.Context, in Inputs) (*compare.Report, *compare.SheetReport, error) {
	if a.Service.Registry().IsWorkbook(in.Source) {
		sheets, err := a.Service.CompareWorkbooks(ctx, in.Source, in.Target)
		return nil, sheets, err
	}
	session, cs, err := a.Prepare(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	rep, err := a.Service.Run(ctx, session, cs)
	return rep, nil, err
}

// Router returns the report server for a finished comparison.
func (a *App) Router(rep *compare.Report, sheets *compare.SheetReport) http.Handler {
	h := ui.NewHandler(ui.HandlerDeps{
		Report:   rep,
		Sheets:   sheets,
		PageSize: a.cfg.PageSize,
		Logger:   a.logger.With("component", "ui"),
	})
	return ui.NewRouter(h, ui.RouterConfig{
		Logger: a.logger.With("component", "http"),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		},
		CORSOrigins: a.cfg.CORSOrigins,
	})
}

// NewServer returns an HTTP server for handler listening on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs srv until it fails or ctx is cancelled, then shuts it down
// gracefully. TLS is used when certFile is set.
func Serve(ctx context.Context, srv *http.Server, certFile, keyFile string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	errCh := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" {
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	logger.Info("report server listening", "addr", srv.Addr, "tls", certFile != "")
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down report server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
