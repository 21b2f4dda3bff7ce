package scorer

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"testing"

	"github.com/nullbyte-labs/proxyharvest/dedup"
	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
	"github.com/nullbyte-labs/proxyharvest/internal/logging"
)

// alwaysUpDialer satisfies network.Dialer by handing back one half of an
// in-memory pipe for every dial, so every connectivity probe succeeds
// without touching a real socket.
type alwaysUpDialer struct{}

func (alwaysUpDialer) DialContext(_ context.Context, _, _ string) (net.Conn, error) {
	client, server := net.Pipe()

	go server.Close()

	return client, nil
}

func ssURI(host string) string {
	userinfo := base64.StdEncoding.EncodeToString([]byte("aes-256-gcm:pw"))

	return fmt.Sprintf("ss://%s@%s:8388", userinfo, host)
}

// TestRunStopsAtMinGuaranteeIndependentlyOfMaxOutput guards against
// min_guarantee being silently raised to max_output_nodes: with a small
// min_guarantee and a much larger max_output_nodes, the batch loop must
// stop testing as soon as the smaller threshold is met.
func TestRunStopsAtMinGuaranteeIndependentlyOfMaxOutput(t *testing.T) {
	var cfg config.Config

	if err := cfg.QualityControl.MinGuarantee.Set("5"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := cfg.QualityFilter.MaxOutputNodes.Set("50"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := cfg.QualityFilter.MaxTestNodes.Set("5"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	uris := make([]string, 50)
	for i := range uris {
		uris[i] = ssURI(fmt.Sprintf("host%d.example.com", i))
	}

	s := New(&cfg, alwaysUpDialer{}, nil, logging.Noop())
	merger := dedup.NewMerger(dedup.DefaultMaxSize, dedup.DefaultErrorRate)
	stream := events.NewEventStream(nil)

	defer stream.Shutdown()

	result := s.Run(context.Background(), "test-run", stream, merger, uris)

	if len(result.AllTested) != 5 {
		t.Errorf("AllTested = %d nodes, want exactly 5 (loop should stop at min_guarantee, not climb toward max_output_nodes)", len(result.AllTested))
	}
}
