// Package preview serves a built book over HTTP while watching its
// sources: file changes debounce into rebuilds, and connected browsers
// are told to reload over server-sent events.
package preview

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bookbinder/internal/book"
	"git.home.luguber.info/inful/bookbinder/internal/config"
	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/logfields"
	"git.home.luguber.info/inful/bookbinder/internal/metrics"
)

// debounceDelay batches filesystem event bursts into one rebuild.
const debounceDelay = 300 * time.Millisecond

// Server hosts the preview: a static file server over the output tree,
// a live-reload hub, and a watcher-driven rebuild loop.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	registry *prometheus.Registry

	engine    *book.Engine
	hub       *ReloadHub
	state     *buildState
	startTime time.Time

	rebuildReq chan struct{}
}

// NewServer wires a preview server for cfg. When metrics are enabled
// the server carries its own Prometheus registry and exposes it at
// /metrics.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
		state:      &buildState{},
		rebuildReq: make(chan struct{}, 1),
	}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}
	return s
}

// WithLogger injects a logger.
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	s.logger = logger
	return s
}

// WithRecorder overrides the metrics recorder.
func (s *Server) WithRecorder(recorder metrics.Recorder) *Server {
	s.recorder = recorder
	return s
}

// init wires the engine and hub from whatever logger and recorder are
// set by the time Run starts. Each part logs under its own component
// field so interleaved build, reload, and watcher lines stay apart.
func (s *Server) init() {
	s.startTime = time.Now()
	base := s.logger
	s.engine = book.NewEngine(s.cfg).
		WithLogger(base.With(logfields.Component("build"))).
		WithRecorder(s.recorder).
		WithLiveReload()
	s.hub = NewReloadHub(base.With(logfields.Component("livereload")), s.recorder)
	s.logger = base.With(logfields.Component("preview"))
}

// Run builds once, then serves and rebuilds until ctx is canceled. A
// failing initial build does not abort: the failure is logged and
// reported by /healthz while the watcher waits for a fix.
func (s *Server) Run(ctx context.Context) error {
	src := s.cfg.Book.Src
	if st, err := os.Stat(src); err != nil || !st.IsDir() {
		return errors.NewError(errors.CategoryPreview, "source directory not found").
			WithContext("path", src).
			Build()
	}
	s.init()

	s.rebuild(ctx)

	ln, err := net.Listen("tcp", s.cfg.Preview.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryPreview, "failed to bind preview address").
			WithContext("addr", s.cfg.Preview.Addr).
			Build()
	}

	// No write timeout: the live-reload stream holds its connection open.
	httpSrv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}
	go func() {
		if serr := httpSrv.Serve(ln); serr != nil && !stderrors.Is(serr, http.ErrServerClosed) {
			s.logger.Error("preview server error", logfields.Error(serr))
		}
	}()
	s.logger.Info("preview server listening",
		slog.String("addr", "http://"+s.cfg.Preview.Addr),
		logfields.Path(s.cfg.Output.Directory))

	watcher, err := newSourceWatcher(src, s.logger)
	if err != nil {
		_ = s.shutdown(httpSrv)
		return err
	}
	defer func() { _ = watcher.Close() }()

	if interval := s.cfg.Preview.ResyncInterval(); interval > 0 {
		sched, serr := s.startResync(interval)
		if serr != nil {
			_ = s.shutdown(httpSrv)
			return serr
		}
		defer func() { _ = sched.Shutdown() }()
	}

	trigger := s.debouncedTrigger()
	s.startRebuildWorker(ctx)

	outAbs, _ := filepath.Abs(s.cfg.Output.Directory)

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(httpSrv)
		case ev, ok := <-watcher.Events:
			if !ok {
				return s.shutdown(httpSrv)
			}
			s.handleEvent(watcher, ev, outAbs, trigger)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return s.shutdown(httpSrv)
			}
			s.logger.Warn("watcher error", logfields.Error(werr))
		}
	}
}

// startResync schedules periodic full rebuilds, catching changes the
// watcher missed (network mounts, editors writing via rename chains).
func (s *Server) startResync(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPreview, "failed to create resync scheduler").Build()
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.requestRebuild),
		gocron.WithName("resync"),
	); err != nil {
		_ = sched.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryPreview, "failed to schedule resync job").Build()
	}
	sched.Start()
	s.logger.Info("periodic resync enabled", slog.Duration("interval", interval))
	return sched, nil
}

// shutdown closes the reload hub first so long-lived SSE connections
// drain, letting the HTTP shutdown complete within its timeout.
func (s *Server) shutdown(httpSrv *http.Server) error {
	s.logger.Info("shutting down preview server")
	s.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown error", logfields.Error(err))
	}
	return nil
}

// rebuild runs one build, records the outcome, and broadcasts the new
// tree hash. Partial failures still broadcast: the pages that did
// render should reach the browser.
func (s *Server) rebuild(ctx context.Context) {
	report, err := s.engine.Build(ctx)
	s.state.setResult(report, err)
	if err != nil {
		s.logger.Warn("build failed", logfields.Error(err))
	}
	if report != nil {
		s.hub.Broadcast(report.TreeHash)
	}
}

// requestRebuild enqueues a rebuild without blocking. The channel holds
// one slot; requests arriving mid-build park there and collapse into a
// single followup rebuild.
func (s *Server) requestRebuild() {
	select {
	case s.rebuildReq <- struct{}{}:
	default:
	}
}

// debouncedTrigger returns a function that requests a rebuild once no
// further calls arrive for debounceDelay.
func (s *Server) debouncedTrigger() func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, s.requestRebuild)
	}
}

func (s *Server) startRebuildWorker(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.rebuildReq:
				s.rebuild(ctx)
			}
		}
	}()
}

// buildState tracks the latest build outcome for /healthz.
type buildState struct {
	mu      sync.RWMutex
	report  *book.Report
	err     error
	builtAt time.Time
	good    bool
}

type stateSnapshot struct {
	report  *book.Report
	err     error
	builtAt time.Time
	good    bool
}

// setResult stores one build outcome. A partial failure keeps the
// report: some pages rendered and are being served.
func (b *buildState) setResult(report *book.Report, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
	b.builtAt = time.Now()
	if report != nil {
		b.report = report
	}
	if err == nil {
		b.good = true
	}
}

func (b *buildState) snapshot() stateSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return stateSnapshot{report: b.report, err: b.err, builtAt: b.builtAt, good: b.good}
}
