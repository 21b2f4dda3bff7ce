// Package scorer implements the multi-pass Quality Scorer: protocol and
// risk pre-filters, a batched min-yield connectivity test loop, an
// optional CN-reachability probe, composite scoring, Top-N truncation and
// IP-reputation enrichment of the survivors.
package scorer

import (
	"context"
	"time"

	"github.com/nullbyte-labs/proxyharvest/dedup"
	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
	"github.com/nullbyte-labs/proxyharvest/internal/logging"
	"github.com/nullbyte-labs/proxyharvest/network"
	"github.com/nullbyte-labs/proxyharvest/nodeparser"
	"github.com/nullbyte-labs/proxyharvest/ratelimit"
)

const hardTestCeiling = 20000

// Scorer runs the full connectivity + scoring pipeline over a pool of raw
// node URIs.
type Scorer struct {
	cfg      *config.Config
	dialer   network.Dialer
	resolver *network.Resolver
	limiter  *ratelimit.Limiter
	logger   logging.Logger

	probeHead         *harvest.Node // selected fresh this run, once any batch succeeds
	previousProbeHead *harvest.Node // reloaded from disk, used only if this run finds none
}

// LoadProbeHead seeds the fallback probe head from a prior run's
// persisted selection. Fresh sampling (selectProbeHead) still runs in each
// batch until it finds a reachable candidate; the prior head is only
// substituted in if this run's sampling never does.
func (s *Scorer) LoadProbeHead(head *harvest.Node) {
	s.previousProbeHead = head
}

// New builds a Scorer. dialer is the base dialer connectivity probes use
// (already wrapped with a cooldown circuit breaker by the caller, per
// host, if desired); resolver backs the IP-reputation enrichment step's
// host-to-IPv4 lookups.
func New(cfg *config.Config, dialer network.Dialer, resolver *network.Resolver, logger logging.Logger) *Scorer {
	return &Scorer{
		cfg:      cfg,
		dialer:   dialer,
		resolver: resolver,
		limiter:  ratelimit.New(),
		logger:   logger.Named("scorer"),
	}
}

// Result carries both the final curated Top-N list and the full tested
// pool, so the reporting stage can summarize protocol distribution and
// filter counts across every node the scorer touched, not only survivors.
type Result struct {
	TopN      []*harvest.Node
	AllTested []*harvest.Node
	ProbeHead *harvest.Node
}

// Run executes the full pipeline over uris (already deduplicated by the
// merger) and returns the final, sorted, enriched Top-N list alongside the
// full tested pool.
func (s *Scorer) Run(ctx context.Context, runID string, stream events.EventStream, merger *dedup.Merger, uris []string) Result {
	shuffled := dedup.Shuffle(uris)

	qf := s.cfg.QualityFilter
	minGuarantee := s.cfg.QualityControl.MinGuarantee.Get(50)
	maxOutput := qf.MaxOutputNodes.Get(200)

	firstBatch := qf.MaxTestNodes.Get(5000)
	batchSize := firstBatch

	var (
		available []*harvest.Node
		allNodes  []*harvest.Node
		tested    int
		offset    int
	)

	for offset < len(shuffled) && tested < hardTestCeiling && len(available) < minGuarantee {
		end := offset + batchSize
		if end > len(shuffled) {
			end = len(shuffled)
		}

		if end-offset > hardTestCeiling-tested {
			end = offset + (hardTestCeiling - tested)
		}

		batch := shuffled[offset:end]
		offset = end
		tested += len(batch)

		nodes := s.runBatch(ctx, runID, stream, merger, batch)
		allNodes = append(allNodes, nodes...)

		for _, n := range nodes {
			if n.Emittable() {
				available = append(available, n)
			}
		}

		stream.Send(ctx, harvest.NewEventBatchComplete(runID, len(batch), tested, len(available)))

		batchSize = 2000
	}

	if s.probeHead == nil {
		s.probeHead = s.previousProbeHead
	}

	s.score(allNodes)

	sortNodes(available)

	topN := available
	if len(topN) > maxOutput {
		topN = topN[:maxOutput]
	}

	s.enrichTopN(ctx, runID, stream, topN)

	topN = keepOnline(topN)

	sortNodes(topN)

	return Result{TopN: topN, AllTested: allNodes, ProbeHead: s.probeHead}
}

// runBatch parses, pre-filters, and connectivity-tests one batch of raw
// node URIs, returning every Node that survived parsing (whether or not
// it ended up reachable — the caller needs the full set for reporting).
func (s *Scorer) runBatch(ctx context.Context, runID string, stream events.EventStream, merger *dedup.Merger, uris []string) []*harvest.Node {
	var nodes []*harvest.Node

	for _, uri := range uris {
		node, ok := nodeparser.Parse(uri)
		stream.Send(ctx, harvest.NewEventNodeParsed(runID, node.Protocol, ok))

		if !ok {
			continue
		}

		if merger.SeenKey(node.DedupKey()) {
			stream.Send(ctx, harvest.NewEventDedupDropped(runID, node.DedupKey()))

			continue
		}

		n := node
		nodes = append(nodes, &n)
	}

	nodes = s.applyProtocolPrefilter(nodes)
	nodes = s.applyRiskPrefilter(ctx, runID, stream, nodes)

	if s.probeHead == nil && s.cfg.DynamicProbe.Enabled.Get(false) {
		s.selectProbeHead(ctx, nodes)
	}

	s.testConnectivity(ctx, runID, stream, nodes)

	return nodes
}

func clampTimeout(d time.Duration, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}

// keepOnline drops nodes the enrichment pass's ASN/region filter took
// offline after Top-N truncation, so a filter-mode rejection actually
// removes the node from the final emitted list.
func keepOnline(nodes []*harvest.Node) []*harvest.Node {
	out := nodes[:0]

	for _, n := range nodes {
		if n.Status == harvest.StatusOnline {
			out = append(out, n)
		}
	}

	return out
}
