package tlsroots

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var discard = slog.New(slog.DiscardHandler)

// fakeWatcher records registrations and lets tests fire events.
type fakeWatcher struct {
	mu        sync.Mutex
	files     []string
	callbacks []func(string)
}

func (f *fakeWatcher) Watch(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	abs, _ := filepath.Abs(path)
	f.files = append(f.files, abs)
	return nil
}

func (f *fakeWatcher) OnChange(cb func(string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, cb)
}

func (f *fakeWatcher) fire(path string) {
	f.mu.Lock()
	cbs := append([]func(string){}, f.callbacks...)
	f.mu.Unlock()
	for _, cb := range cbs {
		cb(path)
	}
}

func tempPair(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
}

func commonName(t *testing.T, k *KeyPair) string {
	t.Helper()
	cert, err := k.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	return cert.Leaf.Subject.CommonName
}

func TestLoadKeyPair(t *testing.T) {
	certFile, keyFile := tempPair(t)
	notAfter := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	writeCert(t, certFile, keyFile, "snapwatch-a", notAfter)

	k, err := LoadKeyPair(certFile, keyFile, WithLogger(discard))
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}
	if got := commonName(t, k); got != "snapwatch-a" {
		t.Errorf("CommonName = %q, want snapwatch-a", got)
	}
	if !k.NotAfter().Equal(notAfter) {
		t.Errorf("NotAfter() = %v, want %v", k.NotAfter(), notAfter)
	}
	if k.ServerConfig().GetCertificate == nil {
		t.Error("ServerConfig().GetCertificate should be set")
	}
}

func TestLoadKeyPair_Invalid(t *testing.T) {
	certFile, keyFile := tempPair(t)
	os.WriteFile(certFile, []byte("invalid"), 0o644)
	os.WriteFile(keyFile, []byte("invalid"), 0o600)

	if _, err := LoadKeyPair(certFile, keyFile, WithLogger(discard)); err == nil {
		t.Error("LoadKeyPair() expected error for invalid files")
	}
	if _, err := LoadKeyPair("/nonexistent/cert.pem", "/nonexistent/key.pem", WithLogger(discard)); err == nil {
		t.Error("LoadKeyPair() expected error for missing files")
	}
}

func TestKeyPair_ReloadKeepsOldOnFailure(t *testing.T) {
	certFile, keyFile := tempPair(t)
	writeCert(t, certFile, keyFile, "snapwatch-a", time.Now().Add(time.Hour))

	k, err := LoadKeyPair(certFile, keyFile, WithLogger(discard))
	if err != nil {
		t.Fatal(err)
	}

	os.WriteFile(keyFile, []byte("truncated"), 0o600)
	if err := k.Reload(); err == nil {
		t.Error("Reload() expected error for broken key")
	}
	if got := commonName(t, k); got != "snapwatch-a" {
		t.Errorf("CommonName after failed reload = %q, want snapwatch-a", got)
	}

	writeCert(t, certFile, keyFile, "snapwatch-b", time.Now().Add(time.Hour))
	if err := k.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := commonName(t, k); got != "snapwatch-b" {
		t.Errorf("CommonName after reload = %q, want snapwatch-b", got)
	}
}

func TestKeyPair_Watch(t *testing.T) {
	certFile, keyFile := tempPair(t)
	writeCert(t, certFile, keyFile, "snapwatch-a", time.Now().Add(time.Hour))

	k, err := LoadKeyPair(certFile, keyFile, WithLogger(discard), WithSettle(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	w := &fakeWatcher{}
	if err := k.Watch(w); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if len(w.files) != 2 {
		t.Fatalf("watched files = %v, want cert and key", w.files)
	}

	writeCert(t, certFile, keyFile, "snapwatch-b", time.Now().Add(time.Hour))

	// Unrelated files are ignored.
	w.fire(filepath.Join(filepath.Dir(certFile), "other.txt"))
	time.Sleep(50 * time.Millisecond)
	if got := commonName(t, k); got != "snapwatch-a" {
		t.Fatalf("CommonName = %q after unrelated event, want snapwatch-a", got)
	}

	certAbs, _ := filepath.Abs(certFile)
	keyAbs, _ := filepath.Abs(keyFile)
	w.fire(certAbs)
	w.fire(keyAbs)

	deadline := time.Now().Add(2 * time.Second)
	for commonName(t, k) != "snapwatch-b" {
		if time.Now().After(deadline) {
			t.Fatal("certificate was not reloaded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestKeyPair_ServesTLS(t *testing.T) {
	certFile, keyFile := tempPair(t)
	certPEM := writeCert(t, certFile, keyFile, "snapwatch-a", time.Now().Add(time.Hour))

	k, err := LoadKeyPair(certFile, keyFile, WithLogger(discard))
	if err != nil {
		t.Fatal(err)
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", k.ServerConfig())
	if err != nil {
		t.Fatal(err)
	}
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	go srv.Serve(ln)
	defer srv.Close()

	pool := NewPool()
	if err := pool.AddPEM(certPEM); err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: pool.ClientConfig()}, Timeout: 5 * time.Second}

	resp, err := client.Get("https://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()

	if got := resp.TLS.PeerCertificates[0].Subject.CommonName; got != "snapwatch-a" {
		t.Errorf("peer CommonName = %q, want snapwatch-a", got)
	}
}
