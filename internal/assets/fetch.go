package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
)

// Fetched is a remote or inline upload before it is stored.
type Fetched struct {
	Data []byte
	// Hint is a file name suggested by the source, possibly empty.
	Hint string
	// Ext is derived from the declared MIME type, possibly empty.
	Ext string
}

// Fetch resolves an http(s) URL or a base64 data URI to bytes. Loopback
// and cloud metadata hosts are refused.
func Fetch(ctx context.Context, rawURL string, maxBytes int) (Fetched, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if strings.HasPrefix(rawURL, "data:") {
		data, ext, err := decodeDataURI(rawURL)
		if err != nil {
			return Fetched{}, fmt.Errorf("assets: %w: %w", err, apperr.ErrInvalidAsset)
		}
		return Fetched{Data: data, Ext: ext}, nil
	}
	return fetchHTTP(ctx, rawURL, maxBytes)
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := mimeToExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}
	return data, ext, nil
}

func fetchHTTP(ctx context.Context, rawURL string, maxBytes int) (Fetched, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Fetched{}, fmt.Errorf("assets: invalid URL: %w", apperr.ErrInvalidAsset)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Fetched{}, fmt.Errorf("assets: unsupported scheme %q (only http/https): %w", parsed.Scheme, apperr.ErrInvalidAsset)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return Fetched{}, fmt.Errorf("assets: %w: %w", err, apperr.ErrInvalidAsset)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Fetched{}, fmt.Errorf("assets: build request: %w", apperr.ErrInvalidAsset)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Fetched{}, fmt.Errorf("assets: download failed: %v: %w", err, apperr.ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Fetched{}, fmt.Errorf("assets: download failed: HTTP %d: %w", resp.StatusCode, apperr.ErrUnavailable)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return Fetched{}, fmt.Errorf("assets: read body: %v: %w", err, apperr.ErrUnavailable)
	}
	if len(data) > maxBytes {
		return Fetched{}, fmt.Errorf("assets: file too large: exceeds %d bytes: %w", maxBytes, apperr.ErrInvalidAsset)
	}

	ct := resp.Header.Get("Content-Type")
	out := Fetched{Data: data, Ext: mimeToExt[strings.Split(ct, ";")[0]]}
	if base := path.Base(parsed.Path); base != "." && base != "/" && strings.Contains(base, ".") {
		out.Hint = base
	}
	return out, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}
