package scorer

import (
	"context"
	"testing"

	"github.com/nullbyte-labs/proxyharvest/dedup"
	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
	"github.com/nullbyte-labs/proxyharvest/internal/logging"
)

// runEmpty runs s over an empty URI pool, so no batch runs and no fresh
// probe head can be selected.
func runEmpty(s *Scorer) Result {
	stream := events.NewEventStream(nil)
	defer stream.Shutdown()

	merger := dedup.NewMerger(dedup.DefaultMaxSize, dedup.DefaultErrorRate)

	return s.Run(context.Background(), "test-run", stream, merger, nil)
}

func TestRunFallsBackToPreviousProbeHeadWhenNoneSelected(t *testing.T) {
	s := New(&config.Config{}, alwaysUpDialer{}, nil, logging.Noop())

	prev := &harvest.Node{URI: "vmess://stale", Host: "stale.example.com", Port: 443}
	s.LoadProbeHead(prev)

	if s.probeHead != nil {
		t.Fatalf("probeHead should start nil before any batch runs")
	}

	result := runEmpty(s)

	if result.ProbeHead != prev {
		t.Errorf("ProbeHead = %v, want fallback to previous %v", result.ProbeHead, prev)
	}
}

func TestFreshProbeHeadTakesPrecedenceOverPrevious(t *testing.T) {
	s := New(&config.Config{}, alwaysUpDialer{}, nil, logging.Noop())

	prev := &harvest.Node{URI: "vmess://stale", Host: "stale.example.com", Port: 443}
	s.LoadProbeHead(prev)

	fresh := &harvest.Node{URI: "vmess://fresh", Host: "fresh.example.com", Port: 443}
	s.probeHead = fresh

	result := runEmpty(s)

	if result.ProbeHead != fresh {
		t.Errorf("ProbeHead = %v, want fresh selection to win", result.ProbeHead)
	}
}
