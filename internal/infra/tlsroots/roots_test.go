package tlsroots

import (
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p := NewPool()
	if p.CertPool() == nil {
		t.Fatal("CertPool() = nil")
	}
	cfg := p.ClientConfig()
	if cfg.RootCAs != p.CertPool() {
		t.Error("ClientConfig().RootCAs should be the pool")
	}
}

func TestPool_AddPEM(t *testing.T) {
	certPEM := writeCert(t, "", "", "ca", time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"single", certPEM, nil},
		{"bundle", append(append([]byte{}, certPEM...), certPEM...), nil},
		{"skips other blocks", append(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1}}), certPEM...), nil},
		{"empty", nil, ErrNoCertsFound},
		{"garbage", []byte("not pem"), ErrNoCertsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPool().AddPEM(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddPEM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPool_AddPEM_BadCertificate(t *testing.T) {
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("junk")})
	err := NewPool().AddPEM(data)
	if err == nil || errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddPEM() error = %v, want parse error", err)
	}
}

func TestPool_AddFile_NotFound(t *testing.T) {
	if err := NewPool().AddFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("AddFile() expected error for missing file")
	}
}

func TestClientConfigFromFile_Empty(t *testing.T) {
	cfg, err := ClientConfigFromFile("")
	if err != nil || cfg != nil {
		t.Errorf("ClientConfigFromFile(\"\") = %v, %v, want nil, nil", cfg, err)
	}
}

func TestClientConfigFromFile_TrustsServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, pemData, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ClientConfigFromFile(caFile)
	if err != nil {
		t.Fatalf("ClientConfigFromFile() error = %v", err)
	}

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}, Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	// Without the CA the handshake fails.
	if _, err := (&http.Client{Timeout: 5 * time.Second}).Get(srv.URL); err == nil {
		t.Error("GET without CA should fail")
	}
}
