package transfer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/samber/lo"
)

const (
	DefaultRemoteTimeout = 30 * time.Second
	// DefaultMaxDescriptorSize bounds downloaded .torrent files.
	DefaultMaxDescriptorSize = 10 << 20
)

var defaultRemoteHeaders = map[string]string{
	"User-Agent": "instant/0.1.0",
	"Accept":     "application/x-bittorrent, */*",
}

type RemoteConfig struct {
	Headers  map[string]string
	Timeout  time.Duration
	MaxSize  int64
	Insecure bool
}

// Remote downloads .torrent files named by http(s) identifiers.
type Remote struct {
	httpClient *http.Client
	headers    map[string]string
	maxSize    int64
}

type RemoteOption func(*Remote)

func WithHTTPClient(httpClient *http.Client) RemoteOption {
	return func(r *Remote) {
		r.httpClient = httpClient
	}
}

func NewRemote(cfg RemoteConfig, opts ...RemoteOption) *Remote {
	r := &Remote{
		headers: lo.Assign(defaultRemoteHeaders, cfg.Headers),
		maxSize: cfg.MaxSize,
	}
	if r.maxSize <= 0 {
		r.maxSize = DefaultMaxDescriptorSize
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultRemoteTimeout
		}

		transport := cleanhttp.DefaultPooledTransport()
		if cfg.Insecure {
			if transport.TLSClientConfig == nil {
				transport.TLSClientConfig = &tls.Config{}
			}
			transport.TLSClientConfig.InsecureSkipVerify = true
		}

		r.httpClient = &http.Client{
			Transport: transport,
			Timeout:   timeout,
		}
	}

	return r
}

// Fetch downloads the descriptor at rawURL.
func (r *Remote) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if int64(len(body)) > r.maxSize {
		return nil, fmt.Errorf("descriptor at %s exceeds %d bytes", rawURL, r.maxSize)
	}

	return body, nil
}
