package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbinder/internal/config"
	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
)

func resetCLI() {
	CLI.Config = config.DefaultFileName
	CLI.LogLevel = ""
	CLI.LogFormat = ""
	CLI.Quiet = false
	CLI.Serve.Addr = ""
	CLI.Check.External = false
	CLI.Init.Force = false
	CLI.Render.File = ""
	CLI.Render.CurlyQuotes = false
	CLI.Render.HeadingIDs = false
	CLI.Render.Highlight = false
	CLI.Render.Style = "github"
}

// writeBook lays out a minimal project: config file plus a one-page
// source tree.
func writeBook(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultFileName)
	cfgYAML := "book:\n  title: CLI Test\n  src: src\noutput:\n  directory: book\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	page := "# Hello\n\nSee [hello](intro.md).\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "intro.md"), []byte(page), 0o644))
	return dir
}

func TestSetupLoggingPrecedence(t *testing.T) {
	resetCLI()

	setupLogging(nil)
	require.Equal(t, config.LogLevelInfo, effectiveLevel)

	cfg := &config.Config{}
	cfg.Logging.Level = config.LogLevelWarn
	setupLogging(cfg)
	require.Equal(t, config.LogLevelWarn, effectiveLevel)

	CLI.LogLevel = "DEBUG"
	setupLogging(cfg)
	require.Equal(t, config.LogLevelDebug, effectiveLevel)

	CLI.Quiet = true
	setupLogging(cfg)
	require.Equal(t, config.LogLevelError, effectiveLevel)
}

func TestWithConfigResolvesPaths(t *testing.T) {
	resetCLI()
	dir := writeBook(t)
	CLI.Config = filepath.Join(dir, config.DefaultFileName)

	err := withConfig(func(cfg *config.Config) error {
		require.Equal(t, filepath.Join(dir, "src"), cfg.Book.Src)
		require.Equal(t, filepath.Join(dir, "book"), cfg.Output.Directory)
		return nil
	})
	require.NoError(t, err)
}

func TestWithConfigMissingFile(t *testing.T) {
	resetCLI()
	CLI.Config = filepath.Join(t.TempDir(), "absent.yaml")

	err := withConfig(func(*config.Config) error { return nil })
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRunBuildEndToEnd(t *testing.T) {
	resetCLI()
	dir := writeBook(t)
	CLI.Config = filepath.Join(dir, config.DefaultFileName)
	CLI.Quiet = true

	require.NoError(t, withConfig(runBuild))

	html, err := os.ReadFile(filepath.Join(dir, "book", "intro.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), `<h1 id="hello">Hello</h1>`)
	require.Contains(t, string(html), `href="intro.html"`)
}

func TestRunCheckAfterBuild(t *testing.T) {
	resetCLI()
	dir := writeBook(t)
	CLI.Config = filepath.Join(dir, config.DefaultFileName)
	CLI.Quiet = true

	require.NoError(t, withConfig(runBuild))
	require.NoError(t, withConfig(runCheck))
}

func TestRunInit(t *testing.T) {
	resetCLI()
	dir := t.TempDir()
	CLI.Config = filepath.Join(dir, config.DefaultFileName)

	require.NoError(t, runInit())
	require.FileExists(t, CLI.Config)

	err := runInit()
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))

	CLI.Init.Force = true
	require.NoError(t, runInit())
}

func TestRunRender(t *testing.T) {
	resetCLI()
	dir := t.TempDir()
	file := filepath.Join(dir, "page.md")
	require.NoError(t, os.WriteFile(file, []byte("# Title\n\n'quoted' text\n"), 0o644))
	CLI.Render.File = file
	CLI.Render.CurlyQuotes = true
	CLI.Render.HeadingIDs = true

	out, err := captureStdout(t, runRender)
	require.NoError(t, err)
	require.Contains(t, out, `<h1 id="title">Title</h1>`)
	require.Contains(t, out, "‘quoted’")
}

func TestRunRenderMissingFile(t *testing.T) {
	resetCLI()
	CLI.Render.File = filepath.Join(t.TempDir(), "absent.md")

	err := runRender()
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	runErr := fn()
	require.NoError(t, w.Close())
	out, readErr := io.ReadAll(r)
	require.NoError(t, readErr)
	return string(out), runErr
}
