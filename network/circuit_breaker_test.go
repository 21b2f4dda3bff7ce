package network

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nullbyte-labs/proxyharvest/internal/testlib"
)

func TestCooldownDialerTripsAfterThreshold(t *testing.T) {
	base := &testlib.DialerMock{}
	dialErr := errors.New("connection refused")

	base.On("DialContext", context.Background(), "tcp", "dead.example.com:443").
		Return((net.Conn)(nil), dialErr).Times(2)

	d := NewCooldownDialer(base, 2, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := d.DialContext(context.Background(), "tcp", "dead.example.com:443"); err != dialErr {
			t.Fatalf("call %d: err = %v, want %v", i, err, dialErr)
		}
	}

	_, err := d.DialContext(context.Background(), "tcp", "dead.example.com:443")
	if err != ErrCircuitBreakerOpened {
		t.Fatalf("err = %v, want ErrCircuitBreakerOpened", err)
	}

	base.AssertExpectations(t)
}

func TestCooldownDialerResetsOnSuccess(t *testing.T) {
	base := &testlib.DialerMock{}
	dialErr := errors.New("timeout")

	base.On("DialContext", context.Background(), "tcp", "flaky.example.com:443").
		Return((net.Conn)(nil), dialErr).Once()
	base.On("DialContext", context.Background(), "tcp", "flaky.example.com:443").
		Return((net.Conn)(nil), nil).Once()
	base.On("DialContext", context.Background(), "tcp", "flaky.example.com:443").
		Return((net.Conn)(nil), dialErr).Once()

	d := NewCooldownDialer(base, 2, time.Minute)

	if _, err := d.DialContext(context.Background(), "tcp", "flaky.example.com:443"); err != dialErr {
		t.Fatalf("first call: err = %v", err)
	}

	if _, err := d.DialContext(context.Background(), "tcp", "flaky.example.com:443"); err != nil {
		t.Fatalf("second call (success): err = %v", err)
	}

	if _, err := d.DialContext(context.Background(), "tcp", "flaky.example.com:443"); err != dialErr {
		t.Fatalf("third call: err = %v, want failure counter to have reset after success", err)
	}

	base.AssertExpectations(t)
}
