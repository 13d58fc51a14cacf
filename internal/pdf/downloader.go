// Package pdf validates document URLs and downloads PDFs with an SSRF guard
// and a size limit.
package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// Sentinel errors for PDF download operations.
var (
	// ErrNotPDF is returned when the body is neither labelled nor sniffed as a PDF.
	ErrNotPDF = errors.New("pdf: response is not a PDF")
	// ErrTooLarge is returned when the document exceeds the configured size.
	ErrTooLarge = errors.New("pdf: file exceeds maximum size")
	// ErrDownloadFailed covers network failures and non-2xx responses.
	ErrDownloadFailed = errors.New("pdf: download failed")
	// ErrSSRF is returned when a connection would reach a non-public address
	// or the URL scheme is not http(s).
	ErrSSRF = errors.New("pdf: request to private network denied")
)

// DownloadResult holds a downloaded document.
type DownloadResult struct {
	Content     []byte
	ContentHash string // SHA-256, hex
	SizeBytes   int64
	ContentType string
}

// Config holds downloader configuration.
type Config struct {
	// Timeout bounds the whole request including redirects.
	Timeout time.Duration
	// MaxSize is the largest accepted document in bytes.
	MaxSize int64
	// UserAgent is sent with every request. Some publishers reject blank agents.
	UserAgent string
	// AllowPrivateNetworks turns the address guard off. Tests only.
	AllowPrivateNetworks bool
}

// Downloader defaults.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxSize   = 20 * 1024 * 1024
	DefaultUserAgent = "Mozilla/5.0 (compatible; ResearcherDiscovery/1.0)"

	maxRedirects = 10
	sniffLen     = 512
)

// blockedPrefixes are non-public ranges not covered by the netip predicates
// used in blockedAddr.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

// Downloader fetches PDFs over a transport that refuses to connect to
// private, loopback or link-local addresses. The check runs on the address
// actually dialed, so DNS rebinding and redirects are covered too.
type Downloader struct {
	client *http.Client
	config Config
}

// NewDownloader creates a new Downloader with the given configuration.
func NewDownloader(cfg Config) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Downloader{
		config: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(cfg.AllowPrivateNetworks),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("%w: stopped after %d redirects", ErrDownloadFailed, maxRedirects)
				}
				return checkScheme(req.URL)
			},
		},
	}
}

func newTransport(allowPrivate bool) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		dialer.Control = guardDial
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	// A proxy would be dialed instead of the target and hide it from the guard.
	transport.Proxy = nil
	return transport
}

// guardDial runs after name resolution and before connect.
func guardDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSSRF, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: unparsable address %q", ErrSSRF, host)
	}
	if blockedAddr(addr) {
		return fmt.Errorf("%w: %s is not a public address", ErrSSRF, addr)
	}
	return nil
}

// blockedAddr reports whether a is outside public unicast space.
func blockedAddr(a netip.Addr) bool {
	a = a.Unmap()
	if a.IsLoopback() || a.IsPrivate() || a.IsUnspecified() ||
		a.IsLinkLocalUnicast() || a.IsLinkLocalMulticast() || a.IsMulticast() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func checkScheme(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("%w: scheme %q is not allowed", ErrSSRF, u.Scheme)
	}
}

// Download fetches the document at rawURL. Servers often label PDFs as
// application/octet-stream, so the body is sniffed when the header does not
// say application/pdf.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*DownloadResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrDownloadFailed, err)
	}
	if err := checkScheme(u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", d.config.UserAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrSSRF) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}
	if resp.ContentLength > d.config.MaxSize {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrTooLarge, resp.ContentLength, d.config.MaxSize)
	}

	// One extra byte tells an exact fit from an overflow.
	content, err := io.ReadAll(io.LimitReader(resp.Body, d.config.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrDownloadFailed, err)
	}
	if int64(len(content)) > d.config.MaxSize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, d.config.MaxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isPDF(contentType, content) {
		return nil, fmt.Errorf("%w: Content-Type is %q", ErrNotPDF, contentType)
	}

	sum := sha256.Sum256(content)
	return &DownloadResult{
		Content:     content,
		ContentHash: hex.EncodeToString(sum[:]),
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
	}, nil
}

func isPDF(contentType string, content []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "application/pdf" {
		return true
	}
	return http.DetectContentType(content[:min(len(content), sniffLen)]) == "application/pdf"
}
