package command

import (
	"context"
	"encoding/pem"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/snapwatch-go/internal/cli/connection"
	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/server/config"
	"github.com/yndnr/snapwatch-go/internal/server/localserver"
	"github.com/yndnr/snapwatch-go/internal/server/httpserver/handler"
)

func TestLiveAndSources(t *testing.T) {
	server := newTestServer(t, config.SourceConfig{Name: "flags", Kind: config.KindLive})
	s := []string{"--server", server}

	var entry handler.LiveEntry
	runJSON(t, &entry, append(s, "live", "set", "flags", "beta", "on")...)
	if entry.Key != "beta" || entry.Value != "on" {
		t.Errorf("live set = %+v", entry)
	}

	var poll handler.PollResponse
	runJSON(t, &poll, append(s, "sources", "poll", "flags")...)
	if !poll.Changed || poll.ChangeSet == nil || !poll.ChangeSet.Initial {
		t.Fatalf("first poll = %+v, want initial change set", poll)
	}

	runJSON(t, &entry, append(s, "live", "set", "flags", "beta", "off")...)
	runJSON(t, &entry, append(s, "live", "set", "flags", "path/with/slash", "x")...)

	poll = handler.PollResponse{}
	runJSON(t, &poll, append(s, "sources", "poll", "flags")...)
	if poll.ChangeSet == nil || poll.ChangeSet.Initial {
		t.Fatalf("second poll = %+v, want non-initial change set", poll)
	}
	want := map[string]string{"beta": "off", "path/with/slash": "x"}
	if len(poll.ChangeSet.Changes) != len(want) {
		t.Errorf("Changes = %v, want %v", poll.ChangeSet.Changes, want)
	}
	for k, v := range want {
		if poll.ChangeSet.Changes[k] != v {
			t.Errorf("Changes[%q] = %q, want %q", k, poll.ChangeSet.Changes[k], v)
		}
	}

	poll = handler.PollResponse{}
	runJSON(t, &poll, append(s, "sources", "poll", "flags")...)
	if poll.Changed || poll.ChangeSet != nil {
		t.Errorf("third poll = %+v, want no changes", poll)
	}

	var snap handler.SnapshotResponse
	runJSON(t, &snap, append(s, "sources", "snapshot", "flags")...)
	if snap.Entries != 2 || snap.Snapshot["beta"] != "off" {
		t.Errorf("snapshot = %+v", snap)
	}

	var changes handler.ChangesResponse
	runJSON(t, &changes, append(s, "sources", "changes", "-n", "1", "flags")...)
	if len(changes.Items) != 1 || changes.Items[0].Sequence != 2 {
		t.Errorf("changes = %+v, want only the newest change set", changes)
	}

	runJSON(t, &entry, append(s, "live", "get", "flags", "path/with/slash")...)
	if entry.Value != "x" {
		t.Errorf("live get = %+v", entry)
	}

	out, err := runApp(t, append(s, "live", "delete", "flags", "beta")...)
	if err != nil || !strings.Contains(out, "deleted flags/beta") {
		t.Errorf("live delete = %q, %v", out, err)
	}

	_, err = runApp(t, append(s, "live", "get", "flags", "beta")...)
	if !connection.IsCode(err, domain.ErrLiveKeyNotFound.Code) {
		t.Errorf("live get deleted key error = %v, want %s", err, domain.ErrLiveKeyNotFound.Code)
	}
}

func TestSourcesListGetReset(t *testing.T) {
	server := newTestServer(t,
		config.SourceConfig{Name: "flags", Kind: config.KindLive},
		config.SourceConfig{Name: "other", Kind: config.KindLive},
	)
	s := []string{"--server", server}

	var list handler.ListSourcesResponse
	runJSON(t, &list, append(s, "sources", "list")...)
	if len(list.Sources) != 2 || list.Sources[0].Source != "flags" || list.Sources[1].Kind != config.KindLive {
		t.Errorf("list = %+v", list)
	}

	runApp(t, append(s, "sources", "poll", "flags")...)

	var status service.PollerStatus
	runJSON(t, &status, append(s, "sources", "get", "flags")...)
	if status.Polls != 1 || status.ChangeSets != 1 {
		t.Errorf("status = %+v, want one poll and one change set", status)
	}

	status = service.PollerStatus{}
	runJSON(t, &status, append(s, "sources", "reset", "flags")...)
	if status.Source != "flags" {
		t.Errorf("reset status = %+v", status)
	}

	var poll handler.PollResponse
	runJSON(t, &poll, append(s, "sources", "poll", "flags")...)
	if poll.ChangeSet == nil || !poll.ChangeSet.Initial {
		t.Errorf("poll after reset = %+v, want initial change set", poll)
	}

	_, err := runApp(t, append(s, "sources", "get", "missing")...)
	if !connection.IsCode(err, domain.ErrSourceNotFound.Code) {
		t.Errorf("get missing error = %v, want %s", err, domain.ErrSourceNotFound.Code)
	}
}

func TestSourcesCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yaml", oldDoc)
	server := newTestServer(t, config.SourceConfig{Name: "app", Kind: config.KindFile, Path: path})
	s := []string{"--server", server}

	runApp(t, append(s, "sources", "poll", "app")...)

	candidate := writeFile(t, dir, "candidate.yaml", newDoc)
	var cmp handler.CompareResponse
	runJSON(t, &cmp, append(s, "sources", "compare", "app", candidate)...)
	if cmp.Same || len(cmp.Changes) != 3 || cmp.Changes["db.host"] != "db2" {
		t.Errorf("compare = %+v", cmp)
	}

	cmp = handler.CompareResponse{}
	runJSON(t, &cmp, append(s, "sources", "compare", "app", path)...)
	if !cmp.Same || len(cmp.Changes) != 0 {
		t.Errorf("compare with current file = %+v, want same", cmp)
	}
}

func TestSourcesPollAsync(t *testing.T) {
	server := newTestServer(t, config.SourceConfig{Name: "flags", Kind: config.KindLive})

	var poll handler.PollResponse
	runJSON(t, &poll, "--server", server, "sources", "poll", "--async", "flags")
	if !poll.Queued || poll.Source != "flags" {
		t.Errorf("async poll = %+v", poll)
	}
}

func TestSourcesTableOutput(t *testing.T) {
	server := newTestServer(t, config.SourceConfig{Name: "flags", Kind: config.KindLive})
	s := []string{"--server", server, "-o", "table"}

	runApp(t, "--server", server, "live", "set", "flags", "beta", "on")

	out, err := runApp(t, append(s, "sources", "poll", "flags")...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "# flags #1 ") || !strings.Contains(out, "(1 initial)") {
		t.Errorf("poll table = %q", out)
	}

	out, _ = runApp(t, append(s, "sources", "poll", "flags")...)
	if strings.TrimSpace(out) != "# flags: no changes" {
		t.Errorf("unchanged poll table = %q", out)
	}

	out, _ = runApp(t, append(s, "sources", "list")...)
	if !strings.Contains(out, "SOURCE") || !strings.Contains(out, "flags") {
		t.Errorf("list table = %q", out)
	}
}

func TestSystemHealthAndReady(t *testing.T) {
	server := newTestServer(t, config.SourceConfig{Name: "flags", Kind: config.KindLive})
	s := []string{"--server", server}

	var health HealthStatus
	runJSON(t, &health, append(s, "system", "health")...)
	if health.Status != "healthy" {
		t.Errorf("health = %+v", health)
	}

	_, err := runApp(t, append(s, "system", "ready")...)
	if !connection.IsCode(err, domain.ErrNotReady.Code) {
		t.Errorf("ready before polling error = %v, want %s", err, domain.ErrNotReady.Code)
	}

	runApp(t, append(s, "sources", "poll", "flags")...)
	var ready HealthStatus
	runJSON(t, &ready, append(s, "system", "ready")...)
	if ready.Status != "ready" {
		t.Errorf("ready = %+v", ready)
	}
}

func TestServerUnavailable(t *testing.T) {
	_, err := runApp(t, "--server", "127.0.0.1:1", "--timeout", "1s", "system", "health")
	if err == nil {
		t.Error("health against an unreachable server should fail")
	}
}

func TestServerOverTLSWithCAFile(t *testing.T) {
	srv := httptest.NewTLSServer(newTestRouter(t, config.SourceConfig{Name: "flags", Kind: config.KindLive}))
	defer srv.Close()

	caFile := writeFile(t, t.TempDir(), "ca.pem",
		string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})))

	var health HealthStatus
	runJSON(t, &health, "--server", srv.URL, "--ca-file", caFile, "system", "health")
	if health.Status != "healthy" {
		t.Errorf("health = %+v", health)
	}

	if _, err := runApp(t, "--server", srv.URL, "--timeout", "2s", "system", "health"); err == nil {
		t.Error("health without the CA should fail verification")
	}
	if _, err := runApp(t, "--server", srv.URL, "--ca-file", caFile+".missing", "system", "health"); err == nil {
		t.Error("a missing CA file should fail")
	}
}

func TestServerOverUnixSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "swcli")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	socket := filepath.Join(dir, "api.sock")

	local := localserver.New(socket, newTestRouter(t, config.SourceConfig{Name: "flags", Kind: config.KindLive}), discardLogger())
	if err := local.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	go local.Serve()
	defer local.Shutdown(context.Background())

	s := []string{"--server", connection.UnixScheme + socket}

	var entry handler.LiveEntry
	runJSON(t, &entry, append(s, "live", "set", "flags", "beta", "on")...)
	if entry.Value != "on" {
		t.Errorf("live set = %+v", entry)
	}

	var list handler.ListSourcesResponse
	runJSON(t, &list, append(s, "sources", "list")...)
	if len(list.Sources) != 1 || list.Sources[0].Source != "flags" {
		t.Errorf("sources list = %+v", list)
	}
}
