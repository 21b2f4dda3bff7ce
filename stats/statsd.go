package stats

import (
	"strconv"

	statsd "github.com/smira/go-statsd"

	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
)

type statsdProcessor struct {
	client *statsd.Client
}

func (s statsdProcessor) EventPageFetched(evt harvest.EventPageFetched) {
	s.client.Incr("pages.fetched", 1, tag("status", strconv.Itoa(evt.Status)))
}

func (s statsdProcessor) EventPageDropped(_ harvest.EventPageDropped) {
	s.client.Incr("pages.dropped", 1)
}

func (s statsdProcessor) EventSubscriptionClassified(evt harvest.EventSubscriptionClassified) {
	for _, class := range evt.Classes {
		s.client.Incr("subscriptions.classified", 1, tag("class", classLabel(class)))
	}
}

func (s statsdProcessor) EventSubscriptionFailed(evt harvest.EventSubscriptionFailed) {
	reason := string(evt.FailReason)
	if reason == "" {
		reason = evt.RejectReason.String()
	}

	s.client.Incr("subscriptions.failed", 1, tag(TagReason, reason))
}

func (s statsdProcessor) EventBlocklistHit(_ harvest.EventBlocklistHit) {
	s.client.Incr("blocklist.hits", 1)
}

func (s statsdProcessor) EventDedupDropped(_ harvest.EventDedupDropped) {
	s.client.Incr("dedup.dropped", 1)
}

func (s statsdProcessor) EventNodeParsed(evt harvest.EventNodeParsed) {
	s.client.Incr("nodes.parsed", 1, tag(TagProtocol, evt.Protocol.String()))
}

func (s statsdProcessor) EventRiskFiltered(evt harvest.EventRiskFiltered) {
	s.client.Incr("risk.filtered", 1, tag("blocked", strconv.FormatBool(evt.Blocked)))
}

func (s statsdProcessor) EventConnectivityProbe(evt harvest.EventConnectivityProbe) {
	s.client.Incr("connectivity.probes", 1, tag(TagSuccess, strconv.FormatBool(evt.Success)))

	if evt.Success {
		s.client.Timing("connectivity.latency_ms", int64(evt.LatencyMS))
	}
}

func (s statsdProcessor) EventCNProbe(evt harvest.EventCNProbe) {
	s.client.Incr("cn.probes", 1, tag(TagPath, evt.Path), tag(TagSuccess, strconv.FormatBool(evt.Success)))

	if evt.Success {
		s.client.Timing("cn.latency_ms", int64(evt.LatencyMS))
	}
}

func (s statsdProcessor) EventEnrichmentLookup(evt harvest.EventEnrichmentLookup) {
	s.client.Incr("enrichment.lookups", 1, tag(TagProvider, evt.Provider), tag("ok", strconv.FormatBool(evt.OK)))
}

func (s statsdProcessor) EventBatchComplete(evt harvest.EventBatchComplete) {
	s.client.Gauge("batch.available", int64(evt.TotalAvailable))
}

func (s statsdProcessor) EventRunFinished(evt harvest.EventRunFinished) {
	s.client.Gauge("run.emitted_nodes", int64(evt.EmittedNodes))
	s.client.Timing("run.duration_ms", evt.Duration.Milliseconds())
}

func (s statsdProcessor) Shutdown() {}

// StatsDFactory builds observers that forward events to a StatsD daemon.
type StatsDFactory struct {
	client *statsd.Client
}

// Make builds a new observer sharing this factory's client.
func (f *StatsDFactory) Make() events.Observer {
	return statsdProcessor{client: f.client}
}

// Close flushes and closes the underlying UDP client.
func (f *StatsDFactory) Close() error {
	return f.client.Close() //nolint: wrapcheck
}

// NewStatsD dials a StatsD daemon at addr and builds a factory, prefixing
// every metric with metricPrefix.
func NewStatsD(addr, metricPrefix string) *StatsDFactory {
	client := statsd.NewClient(addr,
		statsd.MetricPrefix(metricPrefix+"."),
	)

	return &StatsDFactory{client: client}
}
