package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbinder/internal/config"
	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func checkConfig(out string) *config.Config {
	return &config.Config{Output: config.OutputConfig{Directory: out}}
}

func TestCheckerLocalTree(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "ja")
	writeTree(t, root, map[string]string{
		"ja/index.html": `<html><body id="top">
<a href="ok.html">ok</a>
<a href="missing.html">missing</a>
<a href="guide">directory</a>
<a href="#top">self</a>
<a href="#nowhere">bad fragment</a>
<a href="ok.html#section">cross fragment</a>
<a href="ok.html#ghost">bad cross fragment</a>
<a href="mailto:team@example.com">mail</a>
<a href="../en/page.html">sibling build</a>
<a href="../en/missing.html">sibling missing</a>
<img src="img/logo.png">
<img src="img/ghost.png">
</body></html>`,
		"ja/ok.html":          `<html><body><h2 id="section">S</h2><a href="index.html">back</a></body></html>`,
		"ja/guide/index.html": `<html><body><a href="../ok.html">up</a></body></html>`,
		"ja/img/logo.png":     "png bytes",
		"en/page.html":        `<html><body>english</body></html>`,
	})

	checker := NewChecker(checkConfig(out)).WithLogger(quietLogger())
	report, err := checker.Check(context.Background())

	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryLink))
	require.NotNil(t, report)
	require.False(t, report.Ok())
	require.Equal(t, 3, report.Pages)
	require.Equal(t, 14, report.Links)
	require.Equal(t, 0, report.External)

	require.Equal(t, []BrokenLink{
		{Page: "index.html", Target: "#nowhere", Reason: "missing fragment #nowhere"},
		{Page: "index.html", Target: "../en/missing.html", Reason: "target does not exist"},
		{Page: "index.html", Target: "img/ghost.png", Reason: "target does not exist"},
		{Page: "index.html", Target: "missing.html", Reason: "target does not exist"},
		{Page: "index.html", Target: "ok.html#ghost", Reason: "missing fragment #ghost in ok.html"},
	}, report.Broken)
}

func TestCheckerCleanTree(t *testing.T) {
	out := t.TempDir()
	writeTree(t, out, map[string]string{
		"index.html":      `<html><body><a href="guide/page.html">guide</a></body></html>`,
		"guide/page.html": `<html><body><a href="../index.html">home</a> <a href="#x" id="x">x</a></body></html>`,
	})

	report, err := NewChecker(checkConfig(out)).WithLogger(quietLogger()).Check(context.Background())
	require.NoError(t, err)
	require.True(t, report.Ok())
	require.Equal(t, 2, report.Pages)
	require.Equal(t, 3, report.Links)
}

func TestCheckerExternal(t *testing.T) {
	var (
		mu        sync.Mutex
		hits      = map[string]int{}
		userAgent string
	)
	record := func(r *http.Request) {
		mu.Lock()
		hits[r.Method+" "+r.URL.Path]++
		userAgent = r.Header.Get("User-Agent")
		mu.Unlock()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		record(r)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/head-hostile", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("get works"))
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/rate", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusTooManyRequests)
	})
	mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := t.TempDir()
	writeTree(t, out, map[string]string{
		"index.html": fmt.Sprintf(`<html><body>
<a href="%[1]s/ok">ok</a>
<a href="%[1]s/gone">gone</a>
<a href="%[1]s/head-hostile">hostile</a>
<a href="%[1]s/auth">auth</a>
<a href="%[1]s/rate">rate</a>
<a href="%[1]s/boom">boom</a>
</body></html>`, srv.URL),
		"second.html": fmt.Sprintf(`<html><body><a href="%s/ok">ok again</a></body></html>`, srv.URL),
	})

	cfg := checkConfig(out)
	cfg.LinkCheck.External = true
	checker := NewChecker(cfg).WithLogger(quietLogger()).WithHTTPClient(srv.Client())

	report, err := checker.Check(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryLink))
	require.Equal(t, 7, report.External)

	require.Equal(t, []BrokenLink{
		{Page: "index.html", Target: srv.URL + "/boom", Reason: "HTTP 500"},
		{Page: "index.html", Target: srv.URL + "/gone", Reason: "HTTP 404"},
	}, report.Broken)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, hits["HEAD /ok"], "identical URLs probe once")
	require.Equal(t, 0, hits["GET /ok"])
	require.Equal(t, 1, hits["HEAD /gone"])
	require.Equal(t, 1, hits["GET /gone"], "404 on HEAD retries with GET")
	require.Equal(t, 1, hits["HEAD /head-hostile"])
	require.Equal(t, 1, hits["GET /head-hostile"], "405 on HEAD retries with GET")
	require.Equal(t, 1, hits["HEAD /rate"])
	require.True(t, strings.HasPrefix(userAgent, "bookbinder/"))
}

func TestCheckerExternalDisabled(t *testing.T) {
	var probes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes++
	}))
	defer srv.Close()

	out := t.TempDir()
	writeTree(t, out, map[string]string{
		"index.html": fmt.Sprintf(`<html><body><a href="%s/ok">external</a></body></html>`, srv.URL),
	})

	report, err := NewChecker(checkConfig(out)).WithLogger(quietLogger()).Check(context.Background())
	require.NoError(t, err)
	require.True(t, report.Ok())
	require.Equal(t, 1, report.Links)
	require.Equal(t, 0, report.External)
	require.Equal(t, 0, probes)
}

func TestCheckerCanceled(t *testing.T) {
	out := t.TempDir()
	writeTree(t, out, map[string]string{
		"index.html": `<html><body><a href="index.html">self</a></body></html>`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChecker(checkConfig(out)).WithLogger(quietLogger()).Check(ctx)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryRuntime))
}
