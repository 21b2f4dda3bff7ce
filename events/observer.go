package events

import "github.com/nullbyte-labs/proxyharvest/harvest"

// Observer consumes pipeline events, one method per concrete event type.
// Implementations (stats.PrometheusFactory, stats.StatsDFactory) translate
// these calls into metric updates.
type Observer interface {
	EventPageFetched(harvest.EventPageFetched)
	EventPageDropped(harvest.EventPageDropped)
	EventSubscriptionClassified(harvest.EventSubscriptionClassified)
	EventSubscriptionFailed(harvest.EventSubscriptionFailed)
	EventBlocklistHit(harvest.EventBlocklistHit)
	EventDedupDropped(harvest.EventDedupDropped)
	EventNodeParsed(harvest.EventNodeParsed)
	EventRiskFiltered(harvest.EventRiskFiltered)
	EventConnectivityProbe(harvest.EventConnectivityProbe)
	EventCNProbe(harvest.EventCNProbe)
	EventEnrichmentLookup(harvest.EventEnrichmentLookup)
	EventBatchComplete(harvest.EventBatchComplete)
	EventRunFinished(harvest.EventRunFinished)

	// Shutdown releases any resources this observer instance holds. It is
	// called once, when the owning shard goroutine exits.
	Shutdown()
}

// ObserverFactory builds one Observer instance per EventStream shard, so
// stateful observers (e.g. per-stream accumulators) don't need locking.
type ObserverFactory func() Observer

type noopObserver struct{}

func (noopObserver) EventPageFetched(harvest.EventPageFetched)                       {}
func (noopObserver) EventPageDropped(harvest.EventPageDropped)                       {}
func (noopObserver) EventSubscriptionClassified(harvest.EventSubscriptionClassified) {}
func (noopObserver) EventSubscriptionFailed(harvest.EventSubscriptionFailed)         {}
func (noopObserver) EventBlocklistHit(harvest.EventBlocklistHit)                     {}
func (noopObserver) EventDedupDropped(harvest.EventDedupDropped)                     {}
func (noopObserver) EventNodeParsed(harvest.EventNodeParsed)                         {}
func (noopObserver) EventRiskFiltered(harvest.EventRiskFiltered)                     {}
func (noopObserver) EventConnectivityProbe(harvest.EventConnectivityProbe)           {}
func (noopObserver) EventCNProbe(harvest.EventCNProbe)                               {}
func (noopObserver) EventEnrichmentLookup(harvest.EventEnrichmentLookup)             {}
func (noopObserver) EventBatchComplete(harvest.EventBatchComplete)                   {}
func (noopObserver) EventRunFinished(harvest.EventRunFinished)                       {}
func (noopObserver) Shutdown()                                                      {}

// NewNoopObserver is the default ObserverFactory used when a caller wires
// no real sinks.
func NewNoopObserver() Observer {
	return noopObserver{}
}

// multiObserver fans a single event out to N observers built from N
// factories, used when both Prometheus and StatsD sinks are configured.
type multiObserver struct {
	observers []Observer
}

func newMultiObserver(factories []ObserverFactory) multiObserver {
	observers := make([]Observer, len(factories))
	for i, f := range factories {
		observers[i] = f()
	}

	return multiObserver{observers: observers}
}

func (m multiObserver) EventPageFetched(e harvest.EventPageFetched) {
	for _, o := range m.observers {
		o.EventPageFetched(e)
	}
}

func (m multiObserver) EventPageDropped(e harvest.EventPageDropped) {
	for _, o := range m.observers {
		o.EventPageDropped(e)
	}
}

func (m multiObserver) EventSubscriptionClassified(e harvest.EventSubscriptionClassified) {
	for _, o := range m.observers {
		o.EventSubscriptionClassified(e)
	}
}

func (m multiObserver) EventSubscriptionFailed(e harvest.EventSubscriptionFailed) {
	for _, o := range m.observers {
		o.EventSubscriptionFailed(e)
	}
}

func (m multiObserver) EventBlocklistHit(e harvest.EventBlocklistHit) {
	for _, o := range m.observers {
		o.EventBlocklistHit(e)
	}
}

func (m multiObserver) EventDedupDropped(e harvest.EventDedupDropped) {
	for _, o := range m.observers {
		o.EventDedupDropped(e)
	}
}

func (m multiObserver) EventNodeParsed(e harvest.EventNodeParsed) {
	for _, o := range m.observers {
		o.EventNodeParsed(e)
	}
}

func (m multiObserver) EventRiskFiltered(e harvest.EventRiskFiltered) {
	for _, o := range m.observers {
		o.EventRiskFiltered(e)
	}
}

func (m multiObserver) EventConnectivityProbe(e harvest.EventConnectivityProbe) {
	for _, o := range m.observers {
		o.EventConnectivityProbe(e)
	}
}

func (m multiObserver) EventCNProbe(e harvest.EventCNProbe) {
	for _, o := range m.observers {
		o.EventCNProbe(e)
	}
}

func (m multiObserver) EventEnrichmentLookup(e harvest.EventEnrichmentLookup) {
	for _, o := range m.observers {
		o.EventEnrichmentLookup(e)
	}
}

func (m multiObserver) EventBatchComplete(e harvest.EventBatchComplete) {
	for _, o := range m.observers {
		o.EventBatchComplete(e)
	}
}

func (m multiObserver) EventRunFinished(e harvest.EventRunFinished) {
	for _, o := range m.observers {
		o.EventRunFinished(e)
	}
}

func (m multiObserver) Shutdown() {
	for _, o := range m.observers {
		o.Shutdown()
	}
}
