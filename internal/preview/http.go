package preview

import (
	"encoding/json"
	"net/http"
	"time"

	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/logfields"
	"git.home.luguber.info/inful/bookbinder/internal/metrics"
	"git.home.luguber.info/inful/bookbinder/internal/version"
)

// routes assembles the preview mux: the rendered tree at the root plus
// the live-reload, health, build-trigger, and optional metrics
// endpoints.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", s.handleReloadScript)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/build", s.handleBuildTrigger)
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Output.Directory)))
	return mux
}

func (s *Server) handleReloadScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write([]byte(ReloadScript)); err != nil {
		s.logger.Debug("reload script write failed", logfields.Error(err))
	}
}

type healthStatus string

const (
	healthHealthy   healthStatus = "healthy"
	healthDegraded  healthStatus = "degraded"
	healthUnhealthy healthStatus = "unhealthy"
)

type healthResponse struct {
	Status    healthStatus  `json:"status"`
	Version   string        `json:"version"`
	Uptime    string        `json:"uptime"`
	LastError string        `json:"last_error,omitempty"`
	Build     *buildSummary `json:"build,omitempty"`
}

type buildSummary struct {
	ID       string    `json:"id"`
	Pages    int       `json:"pages"`
	Assets   int       `json:"assets"`
	Failed   int       `json:"failed"`
	TreeHash string    `json:"tree_hash"`
	At       time.Time `json:"at"`
}

// handleHealth reports the serve state: healthy after a clean build,
// degraded while the latest rebuild fails but an older tree still
// serves, unhealthy (503) when no build has succeeded yet.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.state.snapshot()

	resp := healthResponse{
		Version: version.String(),
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	}
	switch {
	case snap.good && snap.err == nil:
		resp.Status = healthHealthy
	case snap.good:
		resp.Status = healthDegraded
	default:
		resp.Status = healthUnhealthy
	}
	if snap.err != nil {
		resp.LastError = snap.err.Error()
	}
	if snap.report != nil {
		resp.Build = &buildSummary{
			ID:       snap.report.BuildID,
			Pages:    snap.report.Pages,
			Assets:   snap.report.Assets,
			Failed:   snap.report.Failed,
			TreeHash: snap.report.TreeHash,
			At:       snap.builtAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if resp.Status == healthUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		adapter := errors.NewHTTPErrorAdapter(s.logger)
		e := errors.WrapError(err, errors.CategoryInternal, "failed to encode health response").Build()
		adapter.WriteErrorResponse(w, r, e)
	}
}

// handleBuildTrigger queues a rebuild on POST. The build itself runs on
// the worker; the response only acknowledges the request.
func (s *Server) handleBuildTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		adapter := errors.NewHTTPErrorAdapter(s.logger)
		e := errors.NewError(errors.CategoryValidation, "build trigger requires POST").
			WithContext("method", r.Method).
			Build()
		adapter.WriteErrorResponse(w, r, e)
		return
	}
	s.requestRebuild()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("{\"status\":\"queued\"}\n"))
}
