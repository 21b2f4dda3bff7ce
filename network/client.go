package network

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// UserAgents is the fixed pool of desktop and mobile user-agent strings
// the page fetcher rotates through, one picked uniformly per request.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/605.1.15 (KHTML, like Gecko) Edge/124.0.0.0 Safari/605.1.15",
}

// RandomUserAgent picks one entry from UserAgents uniformly at random.
func RandomUserAgent() string {
	return UserAgents[rand.Intn(len(UserAgents))]
}

type rotatingUserAgentTransport struct {
	next http.RoundTripper
}

func (t rotatingUserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", RandomUserAgent())

	return t.next.RoundTrip(req) //nolint: wrapcheck
}

// NewHTTPClient builds an *http.Client dialing through dialer (nil means
// the system default, honoring HTTP_PROXY/HTTPS_PROXY env vars via
// http.ProxyFromEnvironment), rotating the User-Agent header on every
// request, and bounded by timeout.
func NewHTTPClient(dialer Dialer, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	if dialer != nil {
		transport.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, address)
		}
		transport.Proxy = nil
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rotatingUserAgentTransport{next: transport},
	}
}
