package harvest

import "time"

// Event is anything the pipeline can emit onto an EventStream. The shape is
// lifted directly from the teacher's relay event system: a timestamp plus a
// run-scoped stream id, with the payload carried on the concrete type.
type Event interface {
	StreamID() string
	Timestamp() time.Time
}

type eventBase struct {
	streamID  string
	timestamp time.Time
}

func (e eventBase) StreamID() string {
	return e.streamID
}

func (e eventBase) Timestamp() time.Time {
	return e.timestamp
}

func newBase(streamID string) eventBase {
	return eventBase{streamID: streamID, timestamp: time.Now()}
}

// EventPageFetched is emitted once per source after the fetcher returns,
// success or not.
type EventPageFetched struct {
	eventBase

	Source   Source
	Status   int
	BodySize int
}

func NewEventPageFetched(runID string, source Source, status, bodySize int) EventPageFetched {
	return EventPageFetched{eventBase: newBase(runID), Source: source, Status: status, BodySize: bodySize}
}

// EventPageDropped is emitted when the extractor's yield gate discards a
// page for producing too little.
type EventPageDropped struct {
	eventBase

	Source Source
}

func NewEventPageDropped(runID string, source Source) EventPageDropped {
	return EventPageDropped{eventBase: newBase(runID), Source: source}
}

// EventSubscriptionClassified is emitted once a subscription URL resolves
// to a terminal classification.
type EventSubscriptionClassified struct {
	eventBase

	URL       string
	Classes   []SubscriptionClass
	NodeCount int
}

func NewEventSubscriptionClassified(runID, url string, classes []SubscriptionClass, nodeCount int) EventSubscriptionClassified {
	return EventSubscriptionClassified{eventBase: newBase(runID), URL: url, Classes: classes, NodeCount: nodeCount}
}

// EventSubscriptionFailed is emitted when a candidate subscription GET
// fails outright (becomes blocklist-eligible) or fails quality validation
// (does not).
type EventSubscriptionFailed struct {
	eventBase

	URL          string
	FailReason   FailReason
	RejectReason RejectReason
}

func NewEventSubscriptionFailed(runID, url string, fail FailReason, reject RejectReason) EventSubscriptionFailed {
	return EventSubscriptionFailed{eventBase: newBase(runID), URL: url, FailReason: fail, RejectReason: reject}
}

// EventBlocklistHit is emitted when a candidate subscription is skipped
// because it is already on the persistent blocklist.
type EventBlocklistHit struct {
	eventBase

	URL string
}

func NewEventBlocklistHit(runID, url string) EventBlocklistHit {
	return EventBlocklistHit{eventBase: newBase(runID), URL: url}
}

// EventDedupDropped is emitted by the merger/deduper when a node is
// discarded as a duplicate, either pre-parse (full URI) or post-parse
// (protocol://host:port).
type EventDedupDropped struct {
	eventBase

	Key string
}

func NewEventDedupDropped(runID, key string) EventDedupDropped {
	return EventDedupDropped{eventBase: newBase(runID), Key: key}
}

// EventNodeParsed is emitted for every node URI the node parser turns into
// a structured Node (ok=false means the URI was dropped).
type EventNodeParsed struct {
	eventBase

	Protocol Protocol
	OK       bool
}

func NewEventNodeParsed(runID string, protocol Protocol, ok bool) EventNodeParsed {
	return EventNodeParsed{eventBase: newBase(runID), Protocol: protocol, OK: ok}
}

// EventRiskFiltered is emitted when the phishing/risk pre-filter blocks or
// penalizes a node.
type EventRiskFiltered struct {
	eventBase

	Flags   []string
	Blocked bool
	Penalty int
}

func NewEventRiskFiltered(runID string, flags []string, blocked bool, penalty int) EventRiskFiltered {
	return EventRiskFiltered{eventBase: newBase(runID), Flags: flags, Blocked: blocked, Penalty: penalty}
}

// EventConnectivityProbe is emitted after every TCP connectivity attempt.
type EventConnectivityProbe struct {
	eventBase

	Host      string
	Port      int
	Success   bool
	LatencyMS int
}

func NewEventConnectivityProbe(runID, host string, port int, success bool, latencyMS int) EventConnectivityProbe {
	return EventConnectivityProbe{eventBase: newBase(runID), Host: host, Port: port, Success: success, LatencyMS: latencyMS}
}

// EventCNProbe is emitted after a CN-reachability probe, whichever of the
// three paths was used.
type EventCNProbe struct {
	eventBase

	Path      string // forced_proxy, cn_test_api, third_party
	Success   bool
	LatencyMS int
}

func NewEventCNProbe(runID, path string, success bool, latencyMS int) EventCNProbe {
	return EventCNProbe{eventBase: newBase(runID), Path: path, Success: success, LatencyMS: latencyMS}
}

// EventEnrichmentLookup is emitted after every IP-reputation provider call.
type EventEnrichmentLookup struct {
	eventBase

	Provider string
	OK       bool
}

func NewEventEnrichmentLookup(runID, provider string, ok bool) EventEnrichmentLookup {
	return EventEnrichmentLookup{eventBase: newBase(runID), Provider: provider, OK: ok}
}

// EventBatchComplete is emitted once per scoring batch with the running
// tally of available (online) nodes, used to decide whether the min-yield
// loop should continue.
type EventBatchComplete struct {
	eventBase

	BatchSize      int
	TotalTested    int
	TotalAvailable int
}

func NewEventBatchComplete(runID string, batchSize, totalTested, totalAvailable int) EventBatchComplete {
	return EventBatchComplete{eventBase: newBase(runID), BatchSize: batchSize, TotalTested: totalTested, TotalAvailable: totalAvailable}
}

// EventRunFinished is emitted exactly once, at the very end of a pipeline
// run.
type EventRunFinished struct {
	eventBase

	EmittedNodes int
	Duration     time.Duration
}

func NewEventRunFinished(runID string, emittedNodes int, duration time.Duration) EventRunFinished {
	return EventRunFinished{eventBase: newBase(runID), EmittedNodes: emittedNodes, Duration: duration}
}
