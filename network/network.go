// Package network provides the dialers and HTTP client the page fetcher,
// subscription validator, connectivity prober and IP-reputation enricher
// all build on: a connect-timeout dialer, a per-host circuit breaker, an
// optional SOCKS5/HTTP proxy dialer, user-agent rotation, and a small
// cached DNS resolver for the enrichment step's host-to-IPv4 lookups.
package network

import (
	"context"
	"errors"
	"net"
	"time"
)

// Default timeouts, mirroring the teacher's package-level constants.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultHTTPTimeout    = 15 * time.Second
	DNSTimeout            = 3 * time.Second

	defaultDNSCacheSize = 2048
	defaultDNSTTL       = 300 // seconds, used when the upstream answer carries no usable TTL
)

// ErrCircuitBreakerOpened is returned by a cooldownDialer while a host is
// in its cooldown window.
var ErrCircuitBreakerOpened = errors.New("network: circuit breaker is open")

// Dialer is the minimal interface every layer in this package both
// consumes and produces, so dialers compose (default -> circuit breaker
// -> proxy) without each layer needing to know about the others.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}
