package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"stylesync/internal/api"
	"stylesync/internal/config"
	"stylesync/internal/jobs"
	"stylesync/internal/logging"
	"stylesync/internal/metrics"
	"stylesync/internal/preflight"
)

// ErrAlreadyRunning is returned when another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another stylesync daemon instance is already running")

// Daemon owns the service facade, the HTTP server, and the completion
// consumer, and enforces single-instance execution.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	svc         *api.Service
	metrics     *metrics.Collector
	completions chan jobs.CompletionEvent
	server      *apiServer

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	addr      atomic.Value
	ready     chan struct{}
	readyOnce sync.Once
}

// New opens the stores and builds the HTTP handler. Run starts serving.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	buffer := cfg.Jobs.CompletionBuffer
	if buffer <= 0 {
		buffer = 1
	}
	completions := make(chan jobs.CompletionEvent, buffer)
	collector := metrics.New()

	svc, err := api.Open(ctx, cfg, logger,
		api.WithObserver(collector),
		api.WithCompletionQueue(completions),
	)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		svc:         svc,
		metrics:     collector,
		completions: completions,
		lockPath:    cfg.DaemonLockPath(),
		lock:        flock.New(cfg.DaemonLockPath()),
		ready:       make(chan struct{}),
	}
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Run acquires the instance lock, verifies the workspace, and serves until
// ctx ends or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	if failed := preflight.Failed(preflight.RunAll(d.cfg)); len(failed) > 0 {
		for _, check := range failed {
			logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail),
				logging.String(logging.FieldErrorHint, "create the directory or fix its permissions"),
				logging.String(logging.FieldImpact, "daemon will not start"),
			)
		}
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	listener, err := net.Listen("tcp", strings.TrimSpace(d.cfg.Paths.APIBind))
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	d.addr.Store(listener.Addr().String())
	d.readyOnce.Do(func() { close(d.ready) })

	d.logger.Info("stylesync daemon started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath),
		logging.String("store_backend", d.cfg.Store.Backend),
		logging.Int("pid", os.Getpid()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.server.serve(gctx, listener)
	})
	g.Go(func() error {
		return d.svc.Jobs().Consume(gctx, d.completions)
	})
	err = g.Wait()
	d.logger.Info("stylesync daemon stopped")
	return err
}

// Ready is closed once the listener is bound.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the bound listener address, empty before Run binds.
func (d *Daemon) Addr() string {
	if v, ok := d.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Running reports whether Run is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the single-instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Close releases the record store backend.
func (d *Daemon) Close() error {
	return d.svc.Close()
}

// Status combines workspace status with daemon runtime information.
func (d *Daemon) Status(ctx context.Context) (api.DaemonStatus, error) {
	workspace, err := d.svc.Status(ctx)
	if err != nil {
		return api.DaemonStatus{}, err
	}
	return api.DaemonStatus{
		Running:            d.Running(),
		PID:                os.Getpid(),
		LockFilePath:       d.lockPath,
		PendingCompletions: len(d.completions),
		Workspace:          workspace,
	}, nil
}
