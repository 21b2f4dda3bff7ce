package network

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// Resolver resolves a hostname to its IPv4 addresses, caching answers by
// their reported TTL. It exists for one caller: the IP-reputation
// enrichment step, which needs a concrete IPv4 address before it can query
// abuseipdb.
type Resolver struct {
	cache    *LRUDNSCache
	upstream string // "host:port" of the upstream resolver
	client   *dns.Client
}

// NewResolver builds a Resolver querying upstream (e.g. "1.1.1.1:53")
// directly over UDP, bypassing the process's configured system resolver.
// An empty upstream defaults to Cloudflare's public resolver.
func NewResolver(upstream string) *Resolver {
	if upstream == "" {
		upstream = "1.1.1.1:53"
	}

	return &Resolver{
		cache:    NewLRUDNSCache(defaultDNSCacheSize),
		upstream: upstream,
		client:   &dns.Client{Timeout: DNSTimeout},
	}
}

// ResolveIPv4 returns the first IPv4 address for hostname, consulting the
// cache first. If hostname is already a literal IPv4 address it is
// returned unchanged.
func (r *Resolver) ResolveIPv4(hostname string) (string, error) {
	if ip := net.ParseIP(hostname); ip != nil && ip.To4() != nil {
		return hostname, nil
	}

	key := "\x00" + hostname

	if cached := r.cache.Get(key); cached != nil && len(cached.IPs) > 0 {
		return cached.IPs[0], nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(hostname), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := r.client.Exchange(msg, r.upstream)
	if err != nil {
		return "", fmt.Errorf("dns query for %s failed: %w", hostname, err)
	}

	var (
		ips []string
		ttl uint32
	)

	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			ips = append(ips, a.A.String())
			ttl = a.Hdr.Ttl
		}
	}

	if len(ips) == 0 {
		return "", fmt.Errorf("no A records for %s", hostname)
	}

	if ttl == 0 {
		ttl = defaultDNSTTL
	}

	r.cache.Set(key, ips, ttl)

	return ips[0], nil
}

// Metrics exposes the underlying cache's hit/miss counters for reporting.
func (r *Resolver) Metrics() DNSCacheMetrics {
	return r.cache.GetMetrics()
}
