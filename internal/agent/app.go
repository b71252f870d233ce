// Package agent wires the asset cache agent into a runnable process: it
// opens the snapshot store, picks the origin backend, keeps the active
// version current and serves the cache-first proxy over HTTP.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/manholepro/internal/agent/cache"
	"github.com/dmitrijs2005/manholepro/internal/agent/config"
	"github.com/dmitrijs2005/manholepro/internal/agent/origin"
	"github.com/dmitrijs2005/manholepro/internal/agent/snapshot"
	"github.com/dmitrijs2005/manholepro/internal/dbx"
	"github.com/dmitrijs2005/manholepro/internal/logging"
	"github.com/dmitrijs2005/manholepro/internal/observability"
)

// Paths served by the agent itself. Everything else is proxied.
const (
	MetricsPath = "/_agent/metrics"
	StatusPath  = "/_agent/status"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	snapshots *snapshot.SQLite
	agent     *cache.Agent
	registry  *prometheus.Registry
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	originURL, err := url.Parse(c.Origin)
	if err != nil || originURL.Scheme == "" || originURL.Host == "" {
		return nil, fmt.Errorf("invalid origin %q", c.Origin)
	}

	network, err := newFetcher(ctx, c)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewPromMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	snaps, err := snapshot.OpenSQLite(ctx, dbx.FileDSN(c.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	a := cache.New(originURL, snaps, network,
		cache.WithLogger(logger),
		cache.WithMetrics(metrics),
	)

	return &App{config: c, logger: logger, snapshots: snaps, agent: a, registry: reg}, nil
}

func newFetcher(ctx context.Context, c *config.Config) (cache.Fetcher, error) {
	switch c.OriginKind {
	case "", config.OriginHTTP:
		return origin.NewHTTP(origin.DefaultTimeout), nil
	case config.OriginS3:
		return origin.NewS3FromConfig(ctx, origin.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3User,
			SecretKey:    c.S3Password,
		})
	}
	return nil, fmt.Errorf("unknown origin kind %q", c.OriginKind)
}

// Handler serves the agent's own endpoints and proxies everything else.
func (app *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(StatusPath, app.handleStatus)
	mux.Handle("/", app.agent)
	return mux
}

func (app *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := app.agent.Status()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"state":   string(st.State),
		"active":  st.Active,
		"pending": st.Pending,
	})
}

// prepare resumes the persisted version and tries one update. Update
// failures are logged only: the agent keeps serving what it has.
func (app *App) prepare(ctx context.Context) error {
	if err := app.agent.Restore(ctx); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	var (
		changed bool
		err     error
	)
	if app.config.ManifestPath == "" {
		changed, err = app.agent.Update(ctx, cache.DefaultManifest())
	} else {
		changed, err = app.agent.CheckForUpdate(ctx, app.config.ManifestPath)
	}
	if err != nil {
		app.logger.Warn(ctx, "initial install failed", "error", err)
		return nil
	}
	if changed {
		app.logger.Info(ctx, "asset version installed on start", "version", app.agent.Status().Active)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	defer func() {
		app.agent.Wait()
		if err := app.snapshots.Close(); err != nil {
			app.logger.Warn(ctx, "closing snapshot db", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting agent...", "origin", app.config.Origin, "listen", app.config.ListenAddr)

	if err := app.prepare(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", app.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.ListenAddr, err)
	}

	var wg sync.WaitGroup
	if app.config.ManifestPath != "" && app.config.CheckInterval.Duration > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.agent.Watch(ctx, app.config.ManifestPath, app.config.CheckInterval.Duration)
		}()
	}

	err = app.serve(ctx, ln)
	cancelFunc()
	wg.Wait()

	app.logger.Info(context.Background(), "agent stopped")
	return err
}
