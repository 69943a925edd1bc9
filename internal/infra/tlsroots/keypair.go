package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// DefaultSettle is how long KeyPair waits after the last file event before
// reloading. Writers usually replace the certificate and key one after the
// other.
const DefaultSettle = 200 * time.Millisecond

// ExpiryWarning is the remaining validity below which a loaded
// certificate is logged as a warning.
const ExpiryWarning = 14 * 24 * time.Hour

// FileWatcher notifies callbacks when registered files change.
// confloader.Watcher implements it.
type FileWatcher interface {
	Watch(path string) error
	OnChange(callback func(path string))
}

// KeyPair holds a server certificate loaded from disk.
type KeyPair struct {
	certFile string
	keyFile  string
	settle   time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	cert     *tls.Certificate
	notAfter time.Time

	timerMu sync.Mutex
	timer   *time.Timer
}

// KeyPairOption configures a KeyPair.
type KeyPairOption func(*KeyPair)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) KeyPairOption {
	return func(k *KeyPair) {
		k.logger = logger
	}
}

// WithSettle sets the delay between a file event and the reload.
func WithSettle(d time.Duration) KeyPairOption {
	return func(k *KeyPair) {
		k.settle = d
	}
}

// LoadKeyPair loads certFile and keyFile.
func LoadKeyPair(certFile, keyFile string, opts ...KeyPairOption) (*KeyPair, error) {
	k := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		settle:   DefaultSettle,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.Reload(); err != nil {
		return nil, err
	}
	return k, nil
}

// Reload reads the files again. On failure the previous certificate stays
// in use.
func (k *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("tlsroots: parse leaf: %w", err)
	}
	cert.Leaf = leaf

	k.mu.Lock()
	k.cert = &cert
	k.notAfter = leaf.NotAfter
	k.mu.Unlock()

	remaining := time.Until(leaf.NotAfter)
	switch {
	case remaining <= 0:
		k.logger.Error("certificate expired", "cert_file", k.certFile, "not_after", leaf.NotAfter)
	case remaining < ExpiryWarning:
		k.logger.Warn("certificate expires soon", "cert_file", k.certFile, "not_after", leaf.NotAfter)
	default:
		k.logger.Info("certificate loaded", "cert_file", k.certFile, "not_after", leaf.NotAfter)
	}
	return nil
}

// Watch registers both files with w. Bursts of events collapse into one
// reload after the settle delay.
func (k *KeyPair) Watch(w FileWatcher) error {
	if err := w.Watch(k.certFile); err != nil {
		return err
	}
	if err := w.Watch(k.keyFile); err != nil {
		return err
	}

	certAbs, _ := filepath.Abs(k.certFile)
	keyAbs, _ := filepath.Abs(k.keyFile)
	w.OnChange(func(path string) {
		if path != certAbs && path != keyAbs {
			return
		}
		k.scheduleReload()
	})
	return nil
}

func (k *KeyPair) scheduleReload() {
	k.timerMu.Lock()
	defer k.timerMu.Unlock()

	if k.timer != nil {
		k.timer.Stop()
	}
	k.timer = time.AfterFunc(k.settle, func() {
		if err := k.Reload(); err != nil {
			k.logger.Error("certificate reload failed",
				"cert_file", k.certFile,
				"key_file", k.keyFile,
				"error", err,
			)
		}
	})
}

// GetCertificate returns the current certificate. It has the signature of
// tls.Config.GetCertificate.
func (k *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}

// NotAfter returns the expiry of the current certificate.
func (k *KeyPair) NotAfter() time.Time {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.notAfter
}

// ServerConfig returns a server TLS config that always presents the
// current certificate.
func (k *KeyPair) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: k.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}
