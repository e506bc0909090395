// Package book implements the build engine: it walks the book source
// tree, expands include directives, renders every page through the
// markdown pipeline, wraps the results in the page shell, and writes the
// HTML output tree together with its static assets.
//
// All execution paths (CLI build, preview rebuilds, link checking) route
// through Engine.Build.
package book

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bookbinder/internal/config"
	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/fsutil"
	"git.home.luguber.info/inful/bookbinder/internal/includes"
	"git.home.luguber.info/inful/bookbinder/internal/logfields"
	"git.home.luguber.info/inful/bookbinder/internal/metrics"
	"git.home.luguber.info/inful/bookbinder/internal/render"
)

// Engine executes book builds for one configuration.
type Engine struct {
	cfg        *config.Config
	logger     *slog.Logger
	recorder   metrics.Recorder
	expander   *includes.Expander
	renderer   *render.Renderer
	liveReload bool
}

// NewEngine creates an Engine for cfg. The config's source and output
// paths are used as given; callers resolve them against the config file
// location first (config.ResolvePaths).
func NewEngine(cfg *config.Config) *Engine {
	logger := slog.Default()
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		expander: includes.NewExpander(logger),
		renderer: render.New(render.Options{
			CurlyQuotes:    cfg.Render.CurlyQuotes,
			HeadingIDs:     true,
			Highlight:      cfg.Render.Highlight,
			HighlightStyle: cfg.Render.HighlightStyle,
			SanitizeHTML:   cfg.Render.SanitizeHTML,
		}),
	}
}

// WithLogger injects a logger (the preview server scopes it per component).
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	e.expander = includes.NewExpander(logger)
	return e
}

// WithRecorder injects a metrics recorder.
func (e *Engine) WithRecorder(recorder metrics.Recorder) *Engine {
	e.recorder = recorder
	return e
}

// WithLiveReload makes rendered shells load the preview reload script.
func (e *Engine) WithLiveReload() *Engine {
	e.liveReload = true
	return e
}

// Build renders the whole book once. Page failures do not abort the walk;
// the returned Report counts them and the error (if any) summarizes the
// failures. The report is non-nil whenever the output tree was produced.
func (e *Engine) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	buildID := uuid.NewString()
	log := e.logger.With(logfields.BuildID(buildID))

	src := e.cfg.Book.Src
	out := e.cfg.Output.Directory

	if e.cfg.Output.Clean {
		if err := os.RemoveAll(out); err != nil {
			e.recorder.IncBuildOutcome(metrics.OutcomeFailed)
			return nil, errors.WrapError(err, errors.CategoryBuild, "failed to clean output directory").
				WithContext("path", out).
				Build()
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		e.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, errors.WrapError(err, errors.CategoryBuild, "failed to create output directory").
			WithContext("path", out).
			Build()
	}

	pages, err := collectPages(src, e.avoidDirs()...)
	if err != nil {
		e.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, errors.WrapError(err, errors.CategoryBuild, "failed to scan source tree").
			WithContext("path", src).
			Build()
	}
	log.Debug("source tree scanned", logfields.Stage("scan"), logfields.Pages(len(pages)), logfields.Path(src))

	report := &Report{BuildID: buildID}
	var failed []string
	for _, rel := range pages {
		if ctx.Err() != nil {
			e.recorder.IncBuildOutcome(metrics.OutcomeCanceled)
			return nil, errors.WrapError(ctx.Err(), errors.CategoryBuild, "build canceled").Build()
		}

		pageStart := time.Now()
		if err := e.renderPage(src, out, rel); err != nil {
			log.Error("page render failed", logfields.Page(rel), logfields.Error(err))
			report.Failed++
			failed = append(failed, rel)
			continue
		}
		e.recorder.ObservePageRender(time.Since(pageStart))
		report.Pages++
		log.Debug("page rendered",
			logfields.Page(rel),
			logfields.DurationMS(float64(time.Since(pageStart).Milliseconds())))
	}

	if e.cfg.Render.Highlight {
		if err := e.writeHighlightCSS(out); err != nil {
			e.recorder.IncBuildOutcome(metrics.OutcomeFailed)
			return nil, err
		}
	}

	assets, err := fsutil.CopyFilesExceptExt(src, out, "md", e.avoidDirs()...)
	if err != nil {
		e.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	report.Assets = assets
	log.Debug("assets copied", logfields.Stage("assets"), logfields.Assets(assets))

	hash, err := TreeHash(out)
	if err != nil {
		e.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	report.TreeHash = hash
	report.Duration = time.Since(start)

	e.recorder.ObserveBuildDuration(report.Duration)
	e.recorder.SetPagesRendered(report.Pages)

	if report.Failed > 0 {
		e.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return report, errors.BuildError(
			fmt.Sprintf("%d of %d pages failed to render", report.Failed, report.Failed+report.Pages)).
			WithContext("pages", strings.Join(failed, ", ")).
			Build()
	}

	e.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	log.Info("build complete",
		logfields.Pages(report.Pages),
		logfields.Assets(report.Assets),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

// avoidDirs lists directories the page walk and asset copy must not
// descend into: the output tree (it may nest inside src) and a fallback
// tree that resolves inside src (it belongs to the sibling language
// build).
func (e *Engine) avoidDirs() []string {
	dirs := []string{e.cfg.Output.Directory}
	if fb := e.cfg.Book.Fallback; fb != "" {
		dirs = append(dirs, fallbackDir(e.cfg.Book.Src, fb))
	}
	return dirs
}
