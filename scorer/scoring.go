package scorer

import "github.com/nullbyte-labs/proxyharvest/harvest"

// score computes each node's final composite score in the deterministic
// order §4.5 step 5 lays out: protocol base, risk/ASN penalties already
// recorded on the node, latency bonus/penalty, preferred-protocol bonus,
// CN-probe bonus.
func (s *Scorer) score(nodes []*harvest.Node) {
	qf := s.cfg.QualityFilter
	maxLatencyMS := int(qf.MaxLatency.Get(0).Milliseconds())

	for _, n := range nodes {
		if n.Status != harvest.StatusOnline {
			continue
		}

		total := float64(n.Protocol.BaseScore())
		total -= float64(n.RiskPenalty)
		total -= float64(n.ASNPenalty)
		total += latencyBonus(n.LatencyMS, maxLatencyMS)

		if qf.PreferredProtocols.Contains(n.Protocol.String()) {
			total += 2
		}

		total += s.cnProbeBonus(n)

		n.FinalScore = total
	}
}

func latencyBonus(latencyMS, maxLatencyMS int) float64 {
	switch {
	case latencyMS < 100:
		return 5
	case latencyMS < 200:
		return 3
	case latencyMS < 300:
		return 1
	case maxLatencyMS > 0 && latencyMS > maxLatencyMS:
		return -5
	default:
		return 0
	}
}

func (s *Scorer) cnProbeBonus(n *harvest.Node) float64 {
	if !n.CNOK && n.CNScore == nil && n.CNLatencyMS == 0 {
		return 0
	}

	const maxBonus = 10.0

	weight := 1.0

	if n.CNScore != nil {
		return (*n.CNScore / 100) * maxBonus * weight
	}

	maxCNLatencyMS := int(s.cfg.CNProbeAPI.Timeout.Get(0).Milliseconds()) // probe timeout bounds a sane "too slow" cutoff
	if maxCNLatencyMS == 0 {
		maxCNLatencyMS = 500
	}

	switch {
	case n.CNLatencyMS <= 100:
		return 1.0 * maxBonus * weight
	case n.CNLatencyMS <= 200:
		return 0.7 * maxBonus * weight
	case n.CNLatencyMS <= 300:
		return 0.4 * maxBonus * weight
	case n.CNLatencyMS <= 500:
		return 0.2 * maxBonus * weight
	case n.CNLatencyMS > maxCNLatencyMS:
		return -0.2 * maxBonus * weight
	default:
		return 0
	}
}

// sortNodes orders nodes by the final total order the spec requires:
// final_score desc, cn_latency asc, latency asc.
func sortNodes(nodes []*harvest.Node) {
	// Stable insertion sort: quadratic in the worst case, and nodes can
	// reach max_output_nodes * batches.
	n := len(nodes)

	for i := 1; i < n; i++ {
		j := i

		for j > 0 && less(nodes[j], nodes[j-1]) {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
			j--
		}
	}
}

func less(a, b *harvest.Node) bool {
	if a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}

	if a.CNLatencyMS != b.CNLatencyMS {
		if a.CNLatencyMS == 0 {
			return false
		}

		if b.CNLatencyMS == 0 {
			return true
		}

		return a.CNLatencyMS < b.CNLatencyMS
	}

	return a.LatencyMS < b.LatencyMS
}
