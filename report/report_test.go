package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

func TestBuildQualityReportCounts(t *testing.T) {
	online := func(proto harvest.Protocol, latency int) *harvest.Node {
		return &harvest.Node{Protocol: proto, Status: harvest.StatusOnline, LatencyMS: latency, Host: "example.com"}
	}

	allTested := []*harvest.Node{
		online(harvest.ProtocolVLess, 80),
		online(harvest.ProtocolTrojan, 250),
		{Protocol: harvest.ProtocolSS, Status: harvest.StatusOffline, Host: "dead.example.com"},
	}

	topN := allTested[:2]

	r := BuildQualityReport(allTested, topN, 1, 2)

	if r.TotalTested != 3 {
		t.Errorf("TotalTested = %d, want 3", r.TotalTested)
	}

	if r.TotalAvailable != 2 {
		t.Errorf("TotalAvailable = %d, want 2", r.TotalAvailable)
	}

	if r.TotalEmitted != 2 {
		t.Errorf("TotalEmitted = %d, want 2", r.TotalEmitted)
	}

	if r.RiskFilteredCount != 1 || r.ASNFilteredCount != 2 {
		t.Errorf("filter counts = %d/%d, want 1/2", r.RiskFilteredCount, r.ASNFilteredCount)
	}

	if r.ProtocolCounts["vless"] != 1 || r.ProtocolCounts["trojan"] != 1 || r.ProtocolCounts["ss"] != 1 {
		t.Errorf("protocol counts = %+v", r.ProtocolCounts)
	}

	if r.LatencyHistogram["<100"] != 1 || r.LatencyHistogram["200-300"] != 1 {
		t.Errorf("latency histogram = %+v", r.LatencyHistogram)
	}

	if r.CNLatencyHistogram != nil {
		t.Error("expected nil CN latency histogram when no node carries CN data")
	}

	for _, n := range r.TopNodes {
		if n.HostHash == "example.com" {
			t.Error("expected top node host to be redacted, not plaintext")
		}
	}
}

func TestBuildQualityReportIncludesCNHistogramWhenPresent(t *testing.T) {
	nodes := []*harvest.Node{
		{Protocol: harvest.ProtocolVLess, Status: harvest.StatusOnline, LatencyMS: 80, CNLatencyMS: 90, Host: "a"},
	}

	r := BuildQualityReport(nodes, nodes, 0, 0)

	if r.CNLatencyHistogram == nil {
		t.Fatal("expected CN latency histogram to be present")
	}

	if r.CNLatencyHistogram["<100"] != 1 {
		t.Errorf("CNLatencyHistogram = %+v", r.CNLatencyHistogram)
	}
}

func TestWriteProbeHeadRemovesFileWhenNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe_head.json")

	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	if err := WriteProbeHead(path, nil); err != nil {
		t.Fatalf("WriteProbeHead(nil) returned error: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected probe head file to be removed")
	}
}

func TestWriteProbeHeadWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe_head.json")

	node := &harvest.Node{Host: "example.com", Port: 443, LatencyMS: 42, URI: "vless://u@example.com:443"}

	if err := WriteProbeHead(path, node); err != nil {
		t.Fatalf("WriteProbeHead() returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read written probe head: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("expected non-empty probe head file")
	}
}

func TestReadProbeHeadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe_head.json")

	node := &harvest.Node{Host: "example.com", Port: 443, LatencyMS: 42, URI: "vless://u@example.com:443"}

	if err := WriteProbeHead(path, node); err != nil {
		t.Fatalf("WriteProbeHead() returned error: %v", err)
	}

	got, err := ReadProbeHead(path)
	if err != nil {
		t.Fatalf("ReadProbeHead() returned error: %v", err)
	}

	if got.Host != node.Host || got.Port != node.Port || got.URI != node.URI {
		t.Errorf("ReadProbeHead() = %+v, want host/port/uri matching %+v", got, node)
	}
}

func TestWriteSourceHealthRoundTripsPerSourceTally(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source_health.json")

	stats := map[string]SourceStats{
		"https://example.com/feed": {
			Fetched:    1,
			Candidates: 2,
			Nodes:      15,
			Classifications: map[string]int{
				"clash":          1,
				"rejected_empty": 1,
			},
		},
		"https://example.com/dead": {
			Failed: 1,
		},
	}

	if err := WriteSourceHealth(path, stats); err != nil {
		t.Fatalf("WriteSourceHealth() returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read written source health: %v", err)
	}

	var got SourceHealth
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("cannot parse written source health: %v", err)
	}

	feed := got.Sources["https://example.com/feed"]
	if feed.Candidates != 2 || feed.Nodes != 15 {
		t.Errorf("feed stats = %+v, want Candidates=2 Nodes=15", feed)
	}

	if feed.Classifications["clash"] != 1 || feed.Classifications["rejected_empty"] != 1 {
		t.Errorf("feed classifications = %+v", feed.Classifications)
	}

	dead := got.Sources["https://example.com/dead"]
	if dead.Failed != 1 {
		t.Errorf("dead stats = %+v, want Failed=1", dead)
	}
}

func TestReadProbeHeadMissingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does_not_exist.json")

	got, err := ReadProbeHead(path)
	if err != nil {
		t.Fatalf("ReadProbeHead() returned error: %v", err)
	}

	if got != nil {
		t.Errorf("ReadProbeHead() = %+v, want nil for missing file", got)
	}
}
