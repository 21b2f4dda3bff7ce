package scorer

import (
	"testing"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

func TestLatencyBonus(t *testing.T) {
	tests := []struct {
		latencyMS, maxLatencyMS int
		want                    float64
	}{
		{50, 1000, 5},
		{150, 1000, 3},
		{250, 1000, 1},
		{1500, 1000, -5},
		{400, 1000, 0},
		{400, 0, 0},
	}

	for _, tc := range tests {
		if got := latencyBonus(tc.latencyMS, tc.maxLatencyMS); got != tc.want {
			t.Errorf("latencyBonus(%d, %d) = %v, want %v", tc.latencyMS, tc.maxLatencyMS, got, tc.want)
		}
	}
}

func TestSortNodesFinalScoreDesc(t *testing.T) {
	nodes := []*harvest.Node{
		{FinalScore: 5},
		{FinalScore: 12},
		{FinalScore: 8},
	}

	sortNodes(nodes)

	if nodes[0].FinalScore != 12 || nodes[1].FinalScore != 8 || nodes[2].FinalScore != 5 {
		t.Fatalf("unexpected order: %+v", nodes)
	}
}

func TestSortNodesCNLatencyTiebreak(t *testing.T) {
	a := &harvest.Node{FinalScore: 12, LatencyMS: 150, CNLatencyMS: 120}
	b := &harvest.Node{FinalScore: 12, LatencyMS: 150, CNLatencyMS: 0}

	nodes := []*harvest.Node{b, a}
	sortNodes(nodes)

	if nodes[0] != a {
		t.Fatal("expected node with cn_latency data to rank above one without")
	}
}

func TestSortNodesLatencyTiebreak(t *testing.T) {
	a := &harvest.Node{FinalScore: 10, LatencyMS: 80}
	b := &harvest.Node{FinalScore: 10, LatencyMS: 200}

	nodes := []*harvest.Node{b, a}
	sortNodes(nodes)

	if nodes[0] != a {
		t.Fatal("expected lower-latency node to rank first on a final_score tie")
	}
}
