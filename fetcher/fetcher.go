// Package fetcher downloads each configured source page: rotating
// user-agents, SSRF-guarded, size-capped streaming, fail-fast on 4xx/5xx,
// never propagating an error upstream.
package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
	"github.com/nullbyte-labs/proxyharvest/internal/logging"
	"github.com/nullbyte-labs/proxyharvest/network"
)

const chunkSize = 8 * 1024

// Fetcher downloads Source pages under a shared HTTP client and byte cap.
type Fetcher struct {
	client       *http.Client
	contentLimit int
	logger       logging.Logger
}

// New builds a Fetcher. contentLimitMB caps the streamed body size;
// timeout bounds the whole request wall-clock.
func New(dialer network.Dialer, contentLimitMB int, timeout time.Duration, logger logging.Logger) *Fetcher {
	if contentLimitMB <= 0 {
		contentLimitMB = 3
	}

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Fetcher{
		client:       network.NewHTTPClient(dialer, timeout),
		contentLimit: contentLimitMB * 1024 * 1024,
		logger:       logger.Named("fetcher"),
	}
}

// Fetch downloads one source and returns its decoded body, best-effort
// UTF-8 with invalid bytes replaced. Every failure mode (SSRF-blocked
// host, network error, status >= 400, read error) returns an empty,
// non-OK FetchedPage instead of an error: the fetcher never raises
// upstream, matching the pipeline's error-handling design.
func (f *Fetcher) Fetch(ctx context.Context, source harvest.Source) harvest.FetchedPage {
	quiet := source.Kind == harvest.SourceTelegram

	page := harvest.FetchedPage{Source: source, FetchedAt: time.Now()}

	parsed, err := url.Parse(source.CanonicalURL)
	if err != nil {
		f.warn(quiet, "invalid source url", err)

		return page
	}

	if config.IsBlockedRemoteHost(parsed.Hostname()) {
		f.warn(quiet, "source host blocked by ssrf guard", nil)

		return page
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.CanonicalURL, nil)
	if err != nil {
		f.warn(quiet, "cannot build request", err)

		return page
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.warn(quiet, "request failed", err)

		return page
	}
	defer resp.Body.Close()

	page.Status = resp.StatusCode

	if resp.StatusCode >= 400 {
		if !quiet {
			f.logger.BindStr("url", source.CanonicalURL).Warning("page fetch failed with status >= 400")
		}

		return page
	}

	body, err := f.readCapped(resp.Body)
	if err != nil {
		f.warn(quiet, "cannot read body", err)

		return page
	}

	page.Body = toValidUTF8(body)

	return page
}

func (f *Fetcher) readCapped(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer

	chunk := make([]byte, chunkSize)

	for buf.Len() < f.contentLimit {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return buf.Bytes(), err
		}
	}

	return buf.Bytes(), nil
}

func (f *Fetcher) warn(quiet bool, msg string, err error) {
	if quiet {
		return
	}

	if err != nil {
		f.logger.WarningError(msg, err)
	} else {
		f.logger.Warning(msg)
	}
}

// toValidUTF8 replaces invalid byte sequences with the Unicode replacement
// character instead of failing the fetch outright.
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder

	sb.Grow(len(b))

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}

	return sb.String()
}
