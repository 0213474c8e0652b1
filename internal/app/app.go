// Package app wires the controllers together from a Config. Both binaries
// build the same graph.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dharsanguruparan/OrderDrop/internal/api"
	"github.com/dharsanguruparan/OrderDrop/internal/clock"
	"github.com/dharsanguruparan/OrderDrop/internal/config"
	"github.com/dharsanguruparan/OrderDrop/internal/intake"
	"github.com/dharsanguruparan/OrderDrop/internal/notify"
	"github.com/dharsanguruparan/OrderDrop/internal/s3storage"
	"github.com/dharsanguruparan/OrderDrop/internal/server"
	"github.com/dharsanguruparan/OrderDrop/internal/session"
	"github.com/dharsanguruparan/OrderDrop/internal/store"
)

// App is the assembled order workflow.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Client   *api.Client
	Orders   *store.Store
	Clock    *clock.Clock
	Notifier *notify.Notifier
	Pipeline *intake.Pipeline
	Session  *session.Controller
	// Scanner is nil unless a scanner bucket is configured.
	Scanner *s3storage.Storage
}

// New builds the App.
func New(cfg *config.Config, logger *slog.Logger, notifyOpts ...notify.Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := api.New(cfg.APIBase, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Orders:   store.New(client, logger),
		Clock:    clock.New(cfg.Tick),
		Notifier: notify.New(cfg.NotifyTTL, notifyOpts...),
		Pipeline: intake.New(cfg.MaxFileBytes, cfg.EncodeWorkers, logger),
	}
	a.Session = session.New(a.Pipeline, client, a.Orders, a.Notifier, logger)
	if cfg.S3.Enabled() {
		scanner, err := s3storage.New(cfg.S3)
		if err != nil {
			return nil, err
		}
		a.Scanner = scanner
	}
	return a, nil
}

// Candidates resolves command line arguments into intake candidates. Local
// paths are stat'ed; s3:// references need a configured scanner bucket.
func (a *App) Candidates(ctx context.Context, args []string) ([]intake.Candidate, error) {
	out := make([]intake.Candidate, 0, len(args))
	for _, arg := range args {
		if s3storage.IsRef(arg) {
			if a.Scanner == nil {
				return nil, fmt.Errorf("%s: %w", arg, s3storage.ErrNotConfigured)
			}
			c, err := a.Scanner.Candidate(ctx, arg)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			continue
		}
		c, err := intake.FileCandidate(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Server returns the HTTP controller over this App.
func (a *App) Server() *server.Server {
	return server.New(a.Config, server.Deps{
		Orders:   a.Orders,
		Session:  a.Session,
		Notifier: a.Notifier,
		Clock:    a.Clock,
		Logger:   a.Logger,
	})
}

// Close stops background timers.
func (a *App) Close() {
	a.Notifier.Stop()
}
