package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// Downloader saves remote files into a directory.
type Downloader struct {
	dir       string
	client    *http.Client
	proxyAddr string
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithProxy routes requests through the SOCKS5 proxy at addr ("host:port").
func WithProxy(addr string) Option {
	return func(d *Downloader) {
		d.proxyAddr = addr
	}
}

// WithTimeout bounds each download, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		d.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(d *Downloader) {
		d.userAgent = ua
	}
}

// WithHTTPClient replaces the HTTP client. Proxy and timeout options are then ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		d.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// New creates a Downloader that writes into dir.
func New(dir string, opts ...Option) (*Downloader, error) {
	d := &Downloader{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		client, err := newHTTPClient(d.proxyAddr, d.timeout)
		if err != nil {
			return nil, err
		}
		d.client = client
	}

	return d, nil
}

// newHTTPClient builds a client that dials directly or through a SOCKS5 proxy.
func newHTTPClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport

	if proxyAddr != "" {
		if !isValidProxyAddress(proxyAddr) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, proxyAddr)
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

func isValidProxyAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// FileName returns the final path segment of rawURL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	return name, nil
}

// Download fetches rawURL into the downloader's directory, named after the
// URL's final path segment, and returns the local path. An existing file is
// replaced when overwrite is true and reported as ErrFileExists otherwise.
// There is no retry and no checksum verification.
func (d *Downloader) Download(ctx context.Context, rawURL string, overwrite bool) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(d.dir, name)

	if !overwrite {
		if _, err := os.Stat(dest); err == nil {
			return "", fmt.Errorf("%w: %s", ErrFileExists, dest)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	d.logger.Debug("downloading", "url", rawURL, "dest", dest)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, rawURL)
	}

	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", d.dir, err)
	}

	tmp, err := os.CreateTemp(d.dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Debug("download complete", "dest", dest, "bytes", n)
	return dest, nil
}
