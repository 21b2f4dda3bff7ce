package network

import (
	"context"
	"net"
	"sync"
	"time"
)

// cooldownDialer is a simplified circuit breaker: after openThreshold
// consecutive failed dials through this instance (whatever the address),
// it puts that dialer on
// cooldown for reconnectTimeout; subsequent dials fail fast without
// touching the network until cooldown expires. Two states only
// (Available/Cooldown) instead of the usual three (Closed/HalfOpen/Open),
// since the fetcher and connectivity prober never need the half-open
// trial-request behavior.
type cooldownDialer struct {
	Dialer

	mu               sync.Mutex
	failuresCount    uint32
	cooldownUntil    time.Time
	openThreshold    uint32
	reconnectTimeout time.Duration
}

func (c *cooldownDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	c.mu.Lock()
	if !c.cooldownUntil.IsZero() && time.Now().Before(c.cooldownUntil) {
		c.mu.Unlock()

		return nil, ErrCircuitBreakerOpened
	}
	c.mu.Unlock()

	conn, err := c.Dialer.DialContext(ctx, network, address)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.failuresCount = 0
		c.cooldownUntil = time.Time{}

		return conn, nil
	}

	c.failuresCount++

	if c.failuresCount >= c.openThreshold {
		c.cooldownUntil = time.Now().Add(c.reconnectTimeout)
		c.failuresCount = 0
	}

	return conn, err
}

// NewCooldownDialer wraps base with a per-instance circuit breaker. The
// failure count is not keyed by address, so one instance per remote host
// is what makes a dead host stop eating connect-timeout wall-clock without
// blocking dials to other hosts.
func NewCooldownDialer(base Dialer, openThreshold uint32, reconnectTimeout time.Duration) Dialer {
	if openThreshold == 0 {
		openThreshold = 3
	}

	if reconnectTimeout <= 0 {
		reconnectTimeout = 30 * time.Second
	}

	return &cooldownDialer{
		Dialer:           base,
		openThreshold:    openThreshold,
		reconnectTimeout: reconnectTimeout,
	}
}
