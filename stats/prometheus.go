package stats

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
)

type prometheusProcessor struct {
	factory *PrometheusFactory
}

func (p prometheusProcessor) EventPageFetched(evt harvest.EventPageFetched) {
	p.factory.metricPagesFetched.WithLabelValues(strconv.Itoa(evt.Status)).Inc()
}

func (p prometheusProcessor) EventPageDropped(_ harvest.EventPageDropped) {
	p.factory.metricPagesDropped.Inc()
}

func (p prometheusProcessor) EventSubscriptionClassified(evt harvest.EventSubscriptionClassified) {
	for _, class := range evt.Classes {
		p.factory.metricSubscriptionsTotal.WithLabelValues(classLabel(class)).Inc()
	}
}

func (p prometheusProcessor) EventSubscriptionFailed(evt harvest.EventSubscriptionFailed) {
	reason := string(evt.FailReason)
	if reason == "" {
		reason = evt.RejectReason.String()
	}

	p.factory.metricSubscriptionsFailed.WithLabelValues(reason).Inc()
}

func (p prometheusProcessor) EventBlocklistHit(_ harvest.EventBlocklistHit) {
	p.factory.metricBlocklistHits.Inc()
}

func (p prometheusProcessor) EventDedupDropped(_ harvest.EventDedupDropped) {
	p.factory.metricDedupDropped.Inc()
}

func (p prometheusProcessor) EventNodeParsed(evt harvest.EventNodeParsed) {
	p.factory.metricNodesParsed.WithLabelValues(evt.Protocol.String(), strconv.FormatBool(evt.OK)).Inc()
}

func (p prometheusProcessor) EventRiskFiltered(evt harvest.EventRiskFiltered) {
	p.factory.metricRiskFiltered.WithLabelValues(strconv.FormatBool(evt.Blocked)).Inc()
}

func (p prometheusProcessor) EventConnectivityProbe(evt harvest.EventConnectivityProbe) {
	p.factory.metricConnectivityProbes.WithLabelValues(strconv.FormatBool(evt.Success)).Inc()

	if evt.Success {
		p.factory.metricConnectivityLatency.Observe(float64(evt.LatencyMS))
	}
}

func (p prometheusProcessor) EventCNProbe(evt harvest.EventCNProbe) {
	p.factory.metricCNProbes.WithLabelValues(evt.Path, strconv.FormatBool(evt.Success)).Inc()

	if evt.Success {
		p.factory.metricCNProbeLatency.Observe(float64(evt.LatencyMS))
	}
}

func (p prometheusProcessor) EventEnrichmentLookup(evt harvest.EventEnrichmentLookup) {
	p.factory.metricEnrichmentLookups.WithLabelValues(evt.Provider, strconv.FormatBool(evt.OK)).Inc()
}

func (p prometheusProcessor) EventBatchComplete(evt harvest.EventBatchComplete) {
	p.factory.metricBatchAvailable.Set(float64(evt.TotalAvailable))
}

func (p prometheusProcessor) EventRunFinished(evt harvest.EventRunFinished) {
	p.factory.metricRunEmittedNodes.Set(float64(evt.EmittedNodes))
	p.factory.metricRunDurationSeconds.Observe(evt.Duration.Seconds())
}

func (p prometheusProcessor) Shutdown() {}

func classLabel(c harvest.SubscriptionClass) string {
	switch c {
	case harvest.ClassClash:
		return "clash"
	case harvest.ClassV2:
		return "v2"
	case harvest.ClassAirport:
		return "airport"
	default:
		return "rejected"
	}
}

// PrometheusFactory is a factory of [events.Observer] exposing the
// pipeline's Prometheus metrics, mirroring the teacher's PrometheusFactory
// shape one for one.
type PrometheusFactory struct {
	httpServer *http.Server

	metricPagesFetched  *prometheus.CounterVec
	metricPagesDropped  prometheus.Counter
	metricSubscriptionsTotal  *prometheus.CounterVec
	metricSubscriptionsFailed *prometheus.CounterVec
	metricBlocklistHits prometheus.Counter
	metricDedupDropped  prometheus.Counter
	metricNodesParsed   *prometheus.CounterVec
	metricRiskFiltered  *prometheus.CounterVec

	metricConnectivityProbes  *prometheus.CounterVec
	metricConnectivityLatency prometheus.Histogram
	metricCNProbes            *prometheus.CounterVec
	metricCNProbeLatency      prometheus.Histogram

	metricEnrichmentLookups *prometheus.CounterVec
	metricBatchAvailable    prometheus.Gauge

	metricRunEmittedNodes    prometheus.Gauge
	metricRunDurationSeconds prometheus.Histogram

	metricBuildInfo *prometheus.GaugeVec
}

// Make builds a new observer bound to this factory's metrics.
func (p *PrometheusFactory) Make() events.Observer {
	return prometheusProcessor{factory: p}
}

// Serve starts an HTTP server on a given listener, same convention as the
// teacher's health-check-friendly metrics endpoint.
func (p *PrometheusFactory) Serve(listener net.Listener) error {
	return p.httpServer.Serve(listener) //nolint: wrapcheck
}

// Close stops the factory's HTTP server. The underlying listener is not
// closed.
func (p *PrometheusFactory) Close() error {
	return p.httpServer.Shutdown(context.Background()) //nolint: wrapcheck
}

// NewPrometheus builds a PrometheusFactory serving metrics under httpPath.
func NewPrometheus(metricPrefix, httpPath, version string) *PrometheusFactory { //nolint: funlen
	registry := prometheus.NewPedanticRegistry()
	httpHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	mux := http.NewServeMux()
	mux.Handle(httpPath, httpHandler)

	factory := &PrometheusFactory{
		httpServer: &http.Server{Handler: mux},

		metricPagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricPagesFetched, Help: "Pages fetched, by HTTP status.",
		}, []string{"status"}),
		metricPagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricPagesDropped, Help: "Pages dropped by the extractor's yield gate.",
		}),
		metricSubscriptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricSubscriptionsTotal, Help: "Subscriptions classified, by class.",
		}, []string{"class"}),
		metricSubscriptionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricSubscriptionsFailed, Help: "Subscriptions that failed or were rejected, by reason.",
		}, []string{TagReason}),
		metricBlocklistHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricBlocklistHits, Help: "Candidate subscriptions skipped due to blocklist membership.",
		}),
		metricDedupDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricDedupDropped, Help: "Nodes dropped as duplicates.",
		}),
		metricNodesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricNodesParsed, Help: "Node URIs parsed, by protocol and outcome.",
		}, []string{TagProtocol, "ok"}),
		metricRiskFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricRiskFiltered, Help: "Nodes flagged by the phishing/risk pre-filter, by whether they were blocked outright.",
		}, []string{"blocked"}),

		metricConnectivityProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricConnectivityProbes, Help: "TCP connectivity probes, by outcome.",
		}, []string{TagSuccess}),
		metricConnectivityLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricPrefix, Name: MetricConnectivityLatency, Help: "Successful TCP connect latency in milliseconds.",
			Buckets: []float64{25, 50, 100, 150, 200, 300, 500, 1000},
		}),
		metricCNProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricCNProbes, Help: "CN-reachability probes, by path and outcome.",
		}, []string{TagPath, TagSuccess}),
		metricCNProbeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricPrefix, Name: MetricCNProbeLatency, Help: "Successful CN probe latency in milliseconds.",
			Buckets: []float64{50, 100, 200, 300, 500, 1000},
		}),

		metricEnrichmentLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix, Name: MetricEnrichmentLookups, Help: "IP-reputation provider lookups, by provider and outcome.",
		}, []string{TagProvider, "ok"}),
		metricBatchAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricPrefix, Name: MetricBatchAvailable, Help: "Cumulative available (online) nodes across scoring batches in the current run.",
		}),

		metricRunEmittedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricPrefix, Name: MetricRunEmittedNodes, Help: "Nodes written to the curated output on the last completed run.",
		}),
		metricRunDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricPrefix, Name: MetricRunDurationSeconds, Help: "Wall-clock duration of a full pipeline run.",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800},
		}),

		metricBuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricPrefix, Name: MetricBuildInfo, Help: "Build information about proxyharvest.",
		}, []string{TagVersion}),
	}

	registry.MustRegister(
		factory.metricPagesFetched,
		factory.metricPagesDropped,
		factory.metricSubscriptionsTotal,
		factory.metricSubscriptionsFailed,
		factory.metricBlocklistHits,
		factory.metricDedupDropped,
		factory.metricNodesParsed,
		factory.metricRiskFiltered,
		factory.metricConnectivityProbes,
		factory.metricConnectivityLatency,
		factory.metricCNProbes,
		factory.metricCNProbeLatency,
		factory.metricEnrichmentLookups,
		factory.metricBatchAvailable,
		factory.metricRunEmittedNodes,
		factory.metricRunDurationSeconds,
		factory.metricBuildInfo,
	)

	factory.metricBuildInfo.WithLabelValues(version).Set(1)

	return factory
}
