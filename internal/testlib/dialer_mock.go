// Package testlib holds shared test doubles used across package test
// suites.
package testlib

import (
	"context"
	"net"

	"github.com/stretchr/testify/mock"
)

// DialerMock is a mockable network.Dialer, adapted from the teacher's
// network-manager mock down to the single DialContext method the
// pipeline's Dialer interface actually needs.
type DialerMock struct {
	mock.Mock
}

func (m *DialerMock) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	args := m.Called(ctx, network, address)

	conn, _ := args.Get(0).(net.Conn)

	return conn, args.Error(1)
}
