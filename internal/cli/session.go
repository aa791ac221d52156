package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/plotbook/internal/consistency"
	"github.com/mesh-intelligence/plotbook/internal/events"
	"github.com/mesh-intelligence/plotbook/internal/persistence"
	"github.com/mesh-intelligence/plotbook/internal/prompt"
	"github.com/mesh-intelligence/plotbook/internal/storage"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// session is the object graph of one command run: store, write-behind
// manager, event bus and the deletion service on top.
type session struct {
	ctx      context.Context
	cfg      types.Config
	logger   *slog.Logger
	store    types.Store
	manager  *persistence.Manager
	registry *prometheus.Registry
	bus      *events.Bus
	service  *consistency.Service
	prompter consistency.Prompter
	opts     *rootOptions
}

// openSession resolves the configuration and wires the graph. The caller
// must call close.
func (o *rootOptions) openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, cfg, o.logger)
	if err != nil {
		return nil, sysError(err)
	}

	registry := prometheus.NewRegistry()
	manager := persistence.NewManager(store,
		persistence.WithContext(ctx),
		persistence.WithLogger(o.logger),
		persistence.WithMetrics(persistence.NewMetrics(registry)),
		persistence.WithMode(cfg.Persistence.Mode),
		persistence.WithFlushInterval(cfg.Persistence.FlushInterval),
		persistence.WithRetry(cfg.Persistence.ShutdownAttempts, cfg.Persistence.ShutdownDelay),
	)
	manager.Start()

	bus := events.NewBus(o.logger)
	bus.Subscribe(func(n *types.Novel, e types.Event) {
		o.logger.Debug("domain event", "novel", n.ID, "event", e.Name())
	})

	var prompter consistency.Prompter = prompt.NewTerminal(cmd.InOrStdin(), cmd.ErrOrStderr())
	if o.yes {
		prompter = prompt.Fixed(true)
	}

	return &session{
		ctx:      ctx,
		cfg:      cfg,
		logger:   o.logger,
		store:    store,
		manager:  manager,
		registry: registry,
		bus:      bus,
		service:  consistency.NewService(manager, prompter, bus, o.logger),
		prompter: prompter,
		opts:     o,
	}, nil
}

// close writes every pending operation and releases the store. A failed
// final flush is a system error: changes made by the command are lost.
func (s *session) close() error {
	var errs []error
	if err := s.manager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("saving changes: %w", err))
	}
	if s.opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(s.opts.metricsFile, s.registry); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return sysError(err)
	}
	return nil
}

func (s *session) confirm(message, title string) bool {
	return s.prompter.Confirm(message, title)
}

// withSession runs fn inside a session and merges its error with the one
// from closing.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := o.openSession(cmd)
	if err != nil {
		return err
	}
	runErr := fn(s)
	closeErr := s.close()
	if runErr != nil && closeErr != nil {
		return &ExitError{Code: exitSysError, Err: errors.Join(runErr, closeErr)}
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// novel loads the novel selected by --novel, or the only novel of the
// project when the flag is empty.
func (s *session) novel() (*types.Novel, error) {
	list, err := s.store.Novels(s.ctx)
	if err != nil {
		return nil, sysError(err)
	}
	var d types.NovelDescriptor
	switch {
	case s.opts.novel != "":
		d, err = match(list, s.opts.novel, "novel",
			func(d types.NovelDescriptor) uuid.UUID { return d.ID },
			func(d types.NovelDescriptor) string { return d.Title })
		if err != nil {
			return nil, err
		}
	case len(list) == 1:
		d = list[0]
	case len(list) == 0:
		return nil, fmt.Errorf("no novels yet; create one with 'plotbook novel create'")
	default:
		return nil, fmt.Errorf("%d novels in the project; choose one with --novel", len(list))
	}
	n, err := s.store.FetchNovel(s.ctx, d.ID)
	if err != nil {
		return nil, sysError(err)
	}
	return n, nil
}
