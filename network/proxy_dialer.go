package network

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/txthinking/socks5"
)

type socks5Dialer struct {
	client *socks5.Client
}

func (s socks5Dialer) DialContext(_ context.Context, network, address string) (net.Conn, error) {
	conn, err := s.client.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("socks5 dial %s: %w", address, err)
	}

	return conn, nil
}

type httpProxyDialer struct {
	base      Dialer
	proxyAddr string
}

func (h httpProxyDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := h.base.DialContext(ctx, network, h.proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("cannot reach http proxy %s: %w", h.proxyAddr, err)
	}

	if _, err := fmt.Fprintf(conn, "CONNECT %s HTTP/1.1\r\nHost: %s\r\n\r\n", address, address); err != nil {
		conn.Close()

		return nil, fmt.Errorf("cannot send CONNECT to %s: %w", h.proxyAddr, err)
	}

	status := make([]byte, 0, 128)
	buf := make([]byte, 1)

	for len(status) < 4 || string(status[len(status)-4:]) != "\r\n\r\n" {
		if _, err := conn.Read(buf); err != nil {
			conn.Close()

			return nil, fmt.Errorf("cannot read CONNECT response: %w", err)
		}

		status = append(status, buf[0])

		if len(status) > 4096 {
			conn.Close()

			return nil, fmt.Errorf("CONNECT response from %s too large", h.proxyAddr)
		}
	}

	if len(status) < 12 || string(status[9:12]) != "200" {
		conn.Close()

		return nil, fmt.Errorf("http proxy %s refused CONNECT: %s", h.proxyAddr, status)
	}

	return conn, nil
}

// NewProxyDialer wraps base with a forced outbound proxy, used both to
// honor a system-proxy configuration and to drive the CN-test forced-proxy
// probe path. rawURL must carry a socks5://, http:// or https:// scheme,
// already validated by config.TypeProxyURL.
func NewProxyDialer(base Dialer, rawURL string) (Dialer, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cannot parse proxy url: %w", err)
	}

	switch parsed.Scheme {
	case "socks5":
		username, password := "", ""
		if parsed.User != nil {
			username = parsed.User.Username()
			password, _ = parsed.User.Password()
		}

		client, err := socks5.NewClient(parsed.Host, username, password, 0, 60)
		if err != nil {
			return nil, fmt.Errorf("cannot build socks5 client for %s: %w", parsed.Host, err)
		}

		return socks5Dialer{client: client}, nil
	case "http", "https":
		return httpProxyDialer{base: base, proxyAddr: parsed.Host}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %s", parsed.Scheme)
	}
}
