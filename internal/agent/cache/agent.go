package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/dmitrijs2005/manholepro/internal/logging"
	"github.com/dmitrijs2005/manholepro/internal/netx"
	"github.com/dmitrijs2005/manholepro/internal/observability"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle position of the agent.
type State string

const (
	// StateIdle means no version is active; requests go to the network.
	StateIdle State = "idle"
	// StateInstalling means a version is being downloaded.
	StateInstalling State = "installing"
	// StateInstalled means a version is stored and waits for activation.
	StateInstalled State = "installed"
	// StateActivating means old versions are being discarded.
	StateActivating State = "activating"
	// StateActive means requests are served from the active version.
	StateActive State = "active"
	// StateInstallFailed reports that the last install was aborted. The
	// active version, if any, is still served.
	StateInstallFailed State = "install-failed"
)

// Status is a point-in-time view of the agent.
type Status struct {
	State   State
	Active  string // version being served, "" when idle
	Pending string // version being installed or activated
}

const (
	DefaultRefreshTimeout = 30 * time.Second
	installConcurrency    = 4
)

type Option func(*Agent)

func WithLogger(l logging.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

func WithMetrics(m observability.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithPassthrough sets the transport for requests the agent does not
// intercept. It defaults to http.DefaultTransport.
func WithPassthrough(rt http.RoundTripper) Option {
	return func(a *Agent) { a.passthrough = rt }
}

// WithRefreshTimeout bounds each background refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(a *Agent) { a.refreshTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// Agent is the asset cache agent. Create it with New; the zero value is not
// usable.
type Agent struct {
	origin         *url.URL
	snapshots      Snapshots
	network        Fetcher
	passthrough    http.RoundTripper
	logger         logging.Logger
	metrics        observability.Metrics
	now            func() time.Time
	refreshTimeout time.Duration

	// installMu serializes Restore, Install, Activate and Update.
	installMu sync.Mutex

	// mu guards the fields below. Writes to the active snapshot hold it for
	// reading so that activation cannot slip in between the version check
	// and the write.
	mu      sync.RWMutex
	state   State
	active  string
	pending string

	refreshes sync.WaitGroup
	inflight  singleflight.Group
}

// New returns an idle agent for origin. Call Restore to resume a version
// persisted by an earlier run.
//
// The origin path is treated as a directory: "https://host/field" and
// "https://host/field/" both scope the agent to /field/.
func New(origin *url.URL, snapshots Snapshots, network Fetcher, opts ...Option) *Agent {
	a := &Agent{
		origin:         baseURL(origin),
		snapshots:      snapshots,
		network:        network,
		passthrough:    http.DefaultTransport,
		logger:         logging.Discard(),
		metrics:        observability.NopMetrics{},
		now:            time.Now,
		refreshTimeout: DefaultRefreshTimeout,
		state:          StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// baseURL copies u with a path ending in "/" so that manifest entries
// resolve under it the same way ServeHTTP maps request paths.
func baseURL(u *url.URL) *url.URL {
	b := *u
	b.Fragment = ""
	b.RawQuery = ""
	if !strings.HasSuffix(b.Path, "/") {
		b.Path += "/"
		b.RawPath = ""
	}
	return &b
}

func (a *Agent) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{State: a.state, Active: a.active, Pending: a.pending}
}

func (a *Agent) setState(state State, pending string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
	a.pending = pending
}

// settle returns to the resting state after an aborted step.
func (a *Agent) settle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = ""
	a.state = StateIdle
	if a.active != "" {
		a.state = StateActive
	}
}

func (a *Agent) activeVersion() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// Restore resumes the active version recorded in the snapshot store, if it
// is still present, and drops every other version.
func (a *Agent) Restore(ctx context.Context) error {
	a.installMu.Lock()
	defer a.installMu.Unlock()

	version, err := a.snapshots.ActiveVersion(ctx)
	if err != nil {
		return fmt.Errorf("read active version: %w", err)
	}
	if version == "" {
		return nil
	}

	versions, err := a.snapshots.Versions(ctx)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	if !slices.Contains(versions, version) {
		a.logger.Warn(ctx, "persisted active version has no snapshot", "version", version)
		return nil
	}

	a.mu.Lock()
	a.active = version
	a.state = StateActive
	a.pending = ""
	a.mu.Unlock()

	a.reportAssets(ctx, version)
	a.logger.Info(ctx, "asset version restored", "version", version)
	return a.collect(ctx, version, versions)
}

// Install downloads every asset of m and stores them as one snapshot. If any
// asset cannot be fetched or is not a 2xx response nothing is stored and the
// error wraps common.ErrAssetInstallFailed. The active version is never
// touched.
func (a *Agent) Install(ctx context.Context, m Manifest) error {
	a.installMu.Lock()
	defer a.installMu.Unlock()
	return a.install(ctx, m)
}

func (a *Agent) install(ctx context.Context, m Manifest) (err error) {
	if err := m.Validate(); err != nil {
		return err
	}

	start := a.now()
	a.setState(StateInstalling, m.Version)
	defer func() {
		a.metrics.ObserveLatency(observability.InstallDuration, a.now().Sub(start).Seconds())
		if err != nil {
			a.metrics.IncCounter(observability.InstallFailed, 1)
			a.setState(StateInstallFailed, "")
			a.logger.Warn(ctx, "asset install failed", "version", m.Version, "error", err)
			err = fmt.Errorf("%w: %s: %w", common.ErrAssetInstallFailed, m.Version, err)
			return
		}
		a.metrics.IncCounter(observability.InstallSucceeded, 1)
		a.setState(StateInstalled, m.Version)
	}()

	type job struct {
		key string
		u   *url.URL
	}
	var jobs []job
	seen := make(map[string]bool, len(m.Assets))
	for _, ref := range m.Assets {
		u, err := netx.Resolve(a.origin, ref)
		if err != nil {
			return err
		}
		key := netx.CacheKey(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		jobs = append(jobs, job{key: key, u: u})
	}

	assets := make([]Asset, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(installConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			got, err := a.network.Fetch(gctx, j.u)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", j.key, err)
			}
			if !got.OK() {
				return fmt.Errorf("fetch %s: status %d", j.key, got.Status)
			}
			assets[i] = NewAsset(j.key, got.Status, got.Header, got.Body, a.now())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := a.snapshots.PutAll(ctx, m.Version, assets); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	a.logger.Info(ctx, "asset version installed", "version", m.Version, "assets", len(assets))
	return nil
}

// Activate makes an installed version the one served and deletes every
// other version. It is the only place old versions are removed.
func (a *Agent) Activate(ctx context.Context, version string) error {
	a.installMu.Lock()
	defer a.installMu.Unlock()
	return a.activate(ctx, version)
}

func (a *Agent) activate(ctx context.Context, version string) error {
	versions, err := a.snapshots.Versions(ctx)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	if !slices.Contains(versions, version) {
		return fmt.Errorf("activate %s: %w", version, common.ErrorNotFound)
	}

	a.setState(StateActivating, version)
	if err := a.snapshots.SetActiveVersion(ctx, version); err != nil {
		a.settle()
		return fmt.Errorf("persist active version: %w", err)
	}

	a.mu.Lock()
	a.active = version
	a.state = StateActive
	a.pending = ""
	a.mu.Unlock()

	a.reportAssets(ctx, version)
	a.logger.Info(ctx, "asset version activated", "version", version)
	return a.collect(ctx, version, versions)
}

// collect deletes every version in versions except keep.
func (a *Agent) collect(ctx context.Context, keep string, versions []string) error {
	var errs []error
	for _, v := range versions {
		if v == keep {
			continue
		}
		if err := a.snapshots.Delete(ctx, v); err != nil {
			errs = append(errs, fmt.Errorf("delete version %s: %w", v, err))
			continue
		}
		a.logger.Info(ctx, "stale asset version deleted", "version", v)
	}
	return errors.Join(errs...)
}

func (a *Agent) reportAssets(ctx context.Context, version string) {
	keys, err := a.snapshots.Keys(ctx, version)
	if err != nil {
		a.logger.Warn(ctx, "count snapshot assets", "version", version, "error", err)
		return
	}
	a.metrics.SetGauge(observability.ActiveSnapshotAssets, float64(len(keys)))
}

// Update installs and activates m unless m.Version is already active. It
// reports whether the active version changed.
func (a *Agent) Update(ctx context.Context, m Manifest) (bool, error) {
	if err := m.Validate(); err != nil {
		return false, err
	}

	a.installMu.Lock()
	defer a.installMu.Unlock()

	if m.Version == a.activeVersion() {
		return false, nil
	}
	if err := a.install(ctx, m); err != nil {
		return false, err
	}
	if err := a.activate(ctx, m.Version); err != nil {
		return a.activeVersion() == m.Version, err
	}
	return true, nil
}

// CheckForUpdate fetches the manifest at path and applies it with Update.
// A manifest that cannot be fetched aborts the attempt; the active version
// stays as it is and the next check tries again.
func (a *Agent) CheckForUpdate(ctx context.Context, path string) (bool, error) {
	m, err := FetchManifest(ctx, a.network, a.origin, path)
	if err != nil {
		a.logger.Warn(ctx, "manifest unavailable", "path", path, "error", err)
		return false, fmt.Errorf("%w: %w", common.ErrAssetInstallFailed, err)
	}
	return a.Update(ctx, m)
}

// Watch calls CheckForUpdate every interval until ctx is done.
func (a *Agent) Watch(ctx context.Context, path string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := a.CheckForUpdate(ctx, path)
			if err != nil {
				a.logger.Warn(ctx, "version check failed", "error", err)
				continue
			}
			if changed {
				a.logger.Info(ctx, "asset version updated", "version", a.activeVersion())
			}
		}
	}
}

// Wait blocks until all background refreshes started so far have finished.
func (a *Agent) Wait() {
	a.refreshes.Wait()
}

func (a *Agent) intercepts(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead:
		return netx.SameOrigin(req.URL, a.origin)
	}
	return false
}

// RoundTrip answers GET and HEAD requests for the origin cache-first. Any
// other request goes to the passthrough transport unchanged.
//
// A request that is neither cached nor reachable on the network fails with
// an error wrapping common.ErrRequestUnservable.
func (a *Agent) RoundTrip(req *http.Request) (*http.Response, error) {
	if !a.intercepts(req) {
		a.metrics.IncCounter(observability.CachePassthrough, 1)
		return a.passthrough.RoundTrip(req)
	}
	if req.Body != nil {
		_ = req.Body.Close()
	}

	ctx := req.Context()
	key := netx.CacheKey(req.URL)
	u := *req.URL
	u.Fragment = ""

	version := a.activeVersion()
	if version != "" {
		cached, ok, err := a.snapshots.Match(ctx, version, key)
		if err != nil {
			a.logger.Warn(ctx, "snapshot lookup failed", "key", key, "error", err)
		}
		if ok {
			a.metrics.IncCounter(observability.CacheHits, 1)
			a.refresh(version, key, &u, cached.Hash)
			return cached.Response(req), nil
		}
		a.metrics.IncCounter(observability.CacheMisses, 1)
	}

	got, err := a.network.Fetch(ctx, &u)
	if err != nil {
		a.metrics.IncCounter(observability.CacheUnservable, 1)
		return nil, fmt.Errorf("%w: %s: %w", common.ErrRequestUnservable, key, err)
	}
	fresh := NewAsset(key, got.Status, got.Header, got.Body, a.now())
	if version != "" && fresh.OK() {
		if err := a.putIfActive(ctx, version, fresh); err != nil {
			a.logger.Warn(ctx, "caching response failed", "key", key, "error", err)
		}
	}
	return fresh.Response(req), nil
}

// putIfActive writes asset into version only while version is still active.
func (a *Agent) putIfActive(ctx context.Context, version string, asset Asset) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.active != version {
		return nil
	}
	return a.snapshots.Put(ctx, version, asset)
}

// refresh re-fetches key in the background after a cache hit and replaces
// the stored copy when the content changed. Concurrent refreshes of the same
// key share one fetch. Failures are counted and otherwise dropped.
func (a *Agent) refresh(version, key string, u *url.URL, storedHash uint64) {
	a.refreshes.Add(1)
	go func() {
		defer a.refreshes.Done()
		_, _, _ = a.inflight.Do(version+"\x00"+key, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), a.refreshTimeout)
			defer cancel()

			got, err := a.network.Fetch(ctx, u)
			if err != nil || !got.OK() {
				a.metrics.IncCounter(observability.RefreshFailed, 1)
				a.logger.Debug(ctx, "background refresh dropped", "key", key, "status", got.Status, "error", err)
				return nil, nil
			}
			if Hash(got.Body) == storedHash {
				return nil, nil
			}
			if err := a.putIfActive(ctx, version, NewAsset(key, got.Status, got.Header, got.Body, a.now())); err != nil {
				a.metrics.IncCounter(observability.RefreshFailed, 1)
				a.logger.Debug(ctx, "background refresh not stored", "key", key, "error", err)
				return nil, nil
			}
			a.metrics.IncCounter(observability.RefreshUpdated, 1)
			return nil, nil
		})
	}()
}
