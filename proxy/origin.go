package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scriptedge/buildinfo"

	"github.com/asaskevich/govalidator"
)

// DefaultMaxScriptBytes caps an upstream body when the caller passes 0.
const DefaultMaxScriptBytes = 5 << 20

var (
	// ErrUpstreamMiss means the origin answered with a non-2xx status.
	ErrUpstreamMiss = errors.New("upstream miss")
	// ErrTransport means the fetch could not complete.
	ErrTransport = errors.New("upstream transport failure")
)

// StatusError carries the status of an upstream miss.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned %d", e.URL, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamMiss }

// Script is a successfully fetched upstream body.
type Script struct {
	Path string
	Body []byte
}

// Options tune an Origin. Zero values select defaults.
type Options struct {
	Timeout  time.Duration
	MaxBytes int64
	Client   *http.Client
}

// Origin fetches raw scripts from a fixed base URL.
type Origin struct {
	base     string
	maxBytes int64
	client   *http.Client
}

// NewOrigin validates base and builds a client with a tuned transport.
func NewOrigin(base string, opts Options) (*Origin, error) {
	if !govalidator.IsURL(base) {
		return nil, fmt.Errorf("invalid upstream base %q", base)
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream base %q must be http or https", base)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxScriptBytes
	}

	return &Origin{
		base:     strings.TrimRight(base, "/"),
		maxBytes: maxBytes,
		client:   client,
	}, nil
}

// Base returns the normalized base URL.
func (o *Origin) Base() string { return o.base }

// URL joins the base with an upstream path by plain concatenation.
func (o *Origin) URL(upstreamPath string) string {
	return o.base + upstreamPath
}

// Fetch issues a single GET for upstreamPath. Non-2xx responses yield a
// *StatusError; everything else that prevents a full body yields an error
// wrapping ErrTransport.
func (o *Origin) Fetch(ctx context.Context, upstreamPath string) (*Script, error) {
	target := o.URL(upstreamPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "text/plain, */*")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if int64(len(body)) > o.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTransport, o.maxBytes)
	}

	return &Script{Path: upstreamPath, Body: body}, nil
}
