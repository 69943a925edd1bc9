package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yndnr/snapwatch-go/internal/infra/confloader"
	"github.com/yndnr/snapwatch-go/internal/server/config"
)

// MaxHTTPBody caps the size of a fetched document.
const MaxHTTPBody = 8 << 20

// HTTP snapshots a JSON object served at a URL.
type HTTP struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
}

// NewHTTP creates an http source. headers are sent with every request.
func NewHTTP(name, url string, headers map[string]string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{name: name, url: url, headers: headers, client: client}
}

// Name implements Source.
func (s *HTTP) Name() string { return s.name }

// Kind implements Source.
func (s *HTTP) Kind() string { return config.KindHTTP }

// Snapshot fetches and flattens the document.
func (s *HTTP) Snapshot(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fetchError(s.name, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fetchError(s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fetchError(s.name, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxHTTPBody)).Decode(&doc); err != nil {
		return nil, fetchError(s.name, fmt.Errorf("decode body: %w", err))
	}

	l := confloader.NewLoader()
	if err := l.LoadMap(doc); err != nil {
		return nil, fetchError(s.name, err)
	}
	return l.Strings(), nil
}
