// Package app wires the engine and its collaborators from a workspace.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"auditline/internal/calendar"
	"auditline/internal/config"
	"auditline/internal/db"
	"auditline/internal/docservice"
	"auditline/internal/engine"
	"auditline/internal/metrics"
	"auditline/internal/migrate"
	"auditline/internal/tenders"
)

// App is an opened workspace: migrated database, loaded config and an engine
// bound to both.
type App struct {
	Workspace string
	Config    *config.Config
	DB        *sql.DB
	Engine    engine.Engine
	Registry  *prometheus.Registry
	Calendar  *calendar.Calendar
}

// Open loads workspace config (defaults when the file is absent), migrates
// the database and builds the engine.
func Open(ctx context.Context, workspace string, logger *slog.Logger) (*App, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	return OpenWithConfig(ctx, workspace, cfg, logger)
}

func OpenWithConfig(ctx context.Context, workspace string, cfg *config.Config, logger *slog.Logger) (*App, error) {
	cal, err := LoadCalendar(workspace, cfg)
	if err != nil {
		return nil, err
	}
	signer, err := NewSigner(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if _, err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := engine.Options{
		Calendar: cal,
		Docs:     signer,
		Metrics:  metrics.New(reg),
		Logger:   logger,
	}
	if cfg.Tenders.URL != "" {
		client := tenders.New(cfg.Tenders.URL, cfg.Tenders.Token)
		client.Timeout = cfg.TendersTimeout()
		opts.Tenders = client
	}
	e, err := engine.New(conn, cfg, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &App{
		Workspace: workspace,
		Config:    cfg,
		DB:        conn,
		Engine:    e,
		Registry:  reg,
		Calendar:  cal,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// LoadCalendar returns the calendar file named in config, resolved against
// the workspace, or the inline table.
func LoadCalendar(workspace string, cfg *config.Config) (*calendar.Calendar, error) {
	if cfg.Calendar.File != "" {
		path := cfg.Calendar.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(workspace, path)
		}
		return calendar.Load(path)
	}
	return calendar.New(cfg.Calendar.Version, cfg.Calendar.Days, cfg.Calendar.Short)
}

// NewSigner builds the document-service signer. Without a configured seed
// the key is random and issued URLs do not survive a restart.
func NewSigner(cfg *config.Config) (*docservice.Signer, error) {
	if cfg.DocService.KeySeed != "" {
		return docservice.FromHexSeed(cfg.DocService.URL, cfg.DocService.KeySeed)
	}
	return docservice.New(cfg.DocService.URL, nil)
}
