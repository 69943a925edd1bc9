package command

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/server/config"
	"github.com/yndnr/snapwatch-go/internal/server/httpserver"
)

// runApp runs the CLI with args and returns what it wrote to the app writer.
// Exit codes are returned as errors instead of exiting the process.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"snapwatch-cli"}, args...))
	return out.String(), err
}

// runJSON runs the CLI with JSON output and decodes the result into v.
func runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := runApp(t, append([]string{"-o", "json"}, args...)...)
	if err != nil {
		t.Fatalf("%v: error = %v", args, err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("%v: decode %q: %v", args, out, err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestServer serves the HTTP API over a manager built from sources.
// Pollers are not started; tests poll through the API.
func newTestServer(t *testing.T, sources ...config.SourceConfig) string {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(t, sources...))
	t.Cleanup(srv.Close)
	return srv.URL
}

// newTestRouter returns the API handler over a manager built from sources.
func newTestRouter(t *testing.T, sources ...config.SourceConfig) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Poll.Interval = time.Hour
	cfg.Poll.TriggerRate = 1000
	cfg.Poll.TriggerBurst = 100
	cfg.Sources = sources

	m, err := service.NewManager(cfg, service.ManagerOptions{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	t.Cleanup(func() { m.Stop() })
	return httpserver.NewRouter(&httpserver.RouterConfig{
		Watcher: m,
		Logger:  discardLogger(),
	})
}
