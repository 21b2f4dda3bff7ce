package stats

// Prometheus metric names, namespaced under the configured prefix at
// registration time. The StatsD sink uses its own dotted names.
const (
	MetricPagesFetched          = "pages_fetched_total"
	MetricPagesDropped          = "pages_dropped_total"
	MetricSubscriptionsTotal    = "subscriptions_classified_total"
	MetricSubscriptionsFailed   = "subscriptions_failed_total"
	MetricBlocklistHits         = "blocklist_hits_total"
	MetricDedupDropped          = "dedup_dropped_total"
	MetricNodesParsed           = "nodes_parsed_total"
	MetricRiskFiltered          = "risk_filtered_total"
	MetricConnectivityProbes    = "connectivity_probes_total"
	MetricConnectivityLatency   = "connectivity_latency_ms"
	MetricCNProbes              = "cn_probes_total"
	MetricCNProbeLatency        = "cn_probe_latency_ms"
	MetricEnrichmentLookups     = "enrichment_lookups_total"
	MetricBatchAvailable        = "batch_available_nodes"
	MetricRunEmittedNodes       = "run_emitted_nodes"
	MetricRunDurationSeconds    = "run_duration_seconds"
	MetricBuildInfo             = "build_info"
)

// Tag keys shared by both sinks.
const (
	TagProtocol = "protocol"
	TagSuccess  = "success"
	TagProvider = "provider"
	TagPath     = "path"
	TagReason   = "reason"
	TagVersion  = "version"
)
