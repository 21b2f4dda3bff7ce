// Package report writes the pipeline's JSON reporting artifacts:
// quality_report.json, source_health.json and probe_head.json.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/privacy"
)

// QualityReport summarizes one pipeline run's scoring output.
type QualityReport struct {
	GeneratedAt        time.Time         `json:"generatedAt"`
	TotalTested        int               `json:"totalTested"`
	TotalAvailable     int               `json:"totalAvailable"`
	TotalEmitted       int               `json:"totalEmitted"`
	ProtocolCounts     map[string]int    `json:"protocolDistribution"`
	LatencyHistogram   map[string]int    `json:"latencyHistogramMs"`
	CNLatencyHistogram map[string]int    `json:"cnLatencyHistogramMs,omitempty"`
	RiskFilteredCount  int               `json:"riskFilteredCount"`
	ASNFilteredCount   int               `json:"asnFilteredCount"`
	TopNodes           []TopNodeSummary  `json:"topNodes"`
}

// TopNodeSummary is one Top-10 entry, with the host redacted before it
// ever reaches disk.
type TopNodeSummary struct {
	HostHash    string  `json:"hostHash"`
	Protocol    string  `json:"protocol"`
	Country     string  `json:"country"`
	LatencyMS   int     `json:"latencyMs"`
	CNLatencyMS int     `json:"cnLatencyMs,omitempty"`
	FinalScore  float64 `json:"finalScore"`
}

// SourceHealth summarizes per-source fetch outcomes.
type SourceHealth struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Sources     map[string]SourceStats `json:"sources"`
}

// SourceStats is one source's fetch tally, plus the candidate/node counts
// and terminal classification breakdown the candidates mined from it
// reached once validated.
type SourceStats struct {
	Fetched         int            `json:"fetched"`
	Failed          int            `json:"failed"`
	Dropped         int            `json:"dropped"`
	Candidates      int            `json:"candidates"`
	Nodes           int            `json:"nodes"`
	Classifications map[string]int `json:"classifications,omitempty"`
}

// ProbeHead persists the dynamically selected probe-head node.
type ProbeHead struct {
	GeneratedAt time.Time `json:"generatedAt"`
	URI         string    `json:"uri"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	LatencyMS   int       `json:"latencyMs"`
}

// BuildQualityReport computes the report from the scorer's full tested
// pool and final Top-N list.
func BuildQualityReport(allTested, topN []*harvest.Node, riskFiltered, asnFiltered int) QualityReport {
	r := QualityReport{
		GeneratedAt:      time.Now().UTC(),
		TotalTested:      len(allTested),
		TotalEmitted:     len(topN),
		ProtocolCounts:   make(map[string]int),
		LatencyHistogram: make(map[string]int),
		RiskFilteredCount: riskFiltered,
		ASNFilteredCount:  asnFiltered,
	}

	hasCNData := false

	for _, n := range allTested {
		r.ProtocolCounts[n.Protocol.String()]++

		if n.Emittable() {
			r.TotalAvailable++
			r.LatencyHistogram[latencyBucket(n.LatencyMS)]++
		}

		if n.CNLatencyMS > 0 {
			hasCNData = true
		}
	}

	if hasCNData {
		r.CNLatencyHistogram = make(map[string]int)

		for _, n := range allTested {
			if n.CNLatencyMS > 0 {
				r.CNLatencyHistogram[latencyBucket(n.CNLatencyMS)]++
			}
		}
	}

	top := topN
	if len(top) > 10 {
		top = top[:10]
	}

	for _, n := range top {
		r.TopNodes = append(r.TopNodes, TopNodeSummary{
			HostHash:    privacy.RedactHost(n.Host),
			Protocol:    n.Protocol.String(),
			Country:     n.Country,
			LatencyMS:   n.LatencyMS,
			CNLatencyMS: n.CNLatencyMS,
			FinalScore:  n.FinalScore,
		})
	}

	return r
}

func latencyBucket(ms int) string {
	switch {
	case ms < 100:
		return "<100"
	case ms < 200:
		return "100-200"
	case ms < 300:
		return "200-300"
	case ms < 500:
		return "300-500"
	default:
		return ">=500"
	}
}

// WriteQualityReport writes r to path as indented JSON.
func WriteQualityReport(path string, r QualityReport) error {
	return writeJSON(path, r)
}

// WriteSourceHealth writes per-source fetch stats to path.
func WriteSourceHealth(path string, stats map[string]SourceStats) error {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return writeJSON(path, SourceHealth{GeneratedAt: time.Now().UTC(), Sources: stats})
}

// WriteProbeHead persists the selected probe head, or removes the file
// when head is nil (no probe head was selected this run).
func WriteProbeHead(path string, head *harvest.Node) error {
	if head == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cannot remove stale probe head file: %w", err)
		}

		return nil
	}

	return writeJSON(path, ProbeHead{
		GeneratedAt: time.Now().UTC(),
		URI:         head.URI,
		Host:        head.Host,
		Port:        head.Port,
		LatencyMS:   head.LatencyMS,
	})
}

// ReadProbeHead loads a previously persisted probe head, for the scorer to
// fall back on when this run's own dynamic sampling finds no reachable
// candidate. Returns nil, nil if no probe head file exists yet.
func ReadProbeHead(path string) (*harvest.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("cannot read probe head file: %w", err)
	}

	var head ProbeHead
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("cannot parse probe head file: %w", err)
	}

	return &harvest.Node{
		URI:       head.URI,
		Host:      head.Host,
		Port:      head.Port,
		LatencyMS: head.LatencyMS,
	}, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create report dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write report %s: %w", path, err)
	}

	return nil
}
