package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TypeSourceURL validates a configured source URL (Telegram channel, fuzzy
// web page, subscription URL, subconverter backend) or a local path to a
// source list. It rejects anything that resolves lexically to a local or
// private host, which is the SSRF guard required of every remote fetch in
// this pipeline.
type TypeSourceURL struct {
	Value string
}

func (t *TypeSourceURL) Set(value string) error {
	if stat, err := os.Stat(value); err == nil {
		if stat.IsDir() {
			return fmt.Errorf("value is a correct filepath but a directory")
		}

		abs, err := filepath.Abs(value)
		if err != nil {
			return fmt.Errorf("cannot resolve absolute path for %s: %w", value, err)
		}

		t.Value = abs

		return nil
	}

	parsedURL, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("incorrect url (%s): %w", value, err)
	}

	switch parsedURL.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("unknown scheme %s (%s)", parsedURL.Scheme, value)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("incorrect url %s", value)
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("incorrect host in url %s", value)
	}

	if port := parsedURL.Port(); port != "" {
		portNo, err := strconv.Atoi(port)
		if err != nil || portNo <= 0 || portNo > 65535 {
			return fmt.Errorf("incorrect port in url %s", value)
		}
	}

	if isBlockedRemoteHost(hostname) {
		return fmt.Errorf("url resolves to a local/private host (%s)", value)
	}

	t.Value = parsedURL.String()

	return nil
}

func (t TypeSourceURL) Get(defaultValue string) string {
	if t.Value == "" {
		return defaultValue
	}

	return t.Value
}

// IsBlockedRemoteHost exposes the SSRF lexical check for use at fetch time,
// where the host has already been extracted/normalized and may not have
// gone through Set (e.g. a host mined by the extractor).
func IsBlockedRemoteHost(hostname string) bool {
	return isBlockedRemoteHost(hostname)
}

func isBlockedRemoteHost(hostname string) bool {
	host := strings.ToLower(strings.TrimSpace(hostname))
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")

	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsMulticast() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast()
}

func (t *TypeSourceURL) UnmarshalText(data []byte) error {
	return t.Set(string(data))
}

func (t TypeSourceURL) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t TypeSourceURL) String() string {
	return t.Value
}
