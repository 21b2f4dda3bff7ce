// Package events distributes pipeline events to one or more observers
// (Prometheus, StatsD, ...) without a shared mutex: each event is hashed by
// run id onto one of a fixed set of channels, and a single goroutine per
// channel owns delivery to that channel's observer.
package events

import (
	"context"
	"math/rand"
	"runtime"
	"sync/atomic"

	"github.com/OneOfOne/xxhash"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

// EventStream is the default implementation of the stream every pipeline
// stage sends events to.
type EventStream struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	chans     []chan harvest.Event

	dropped *atomic.Uint64
}

// Send delivers evt to whichever shard owns its stream id. Delivery never
// blocks: when that shard's buffer is full the event is discarded and
// counted in Dropped.
func (e EventStream) Send(ctx context.Context, evt harvest.Event) {
	var chanNo uint32

	if streamID := evt.StreamID(); streamID != "" {
		chanNo = xxhash.ChecksumString32(streamID)
	} else {
		chanNo = rand.Uint32()
	}

	ch := e.chans[int(chanNo)%len(e.chans)]

	select {
	case <-ctx.Done():
	case <-e.ctx.Done():
	case ch <- evt:
	default:
		e.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because a shard's buffer
// was full.
func (e EventStream) Dropped() uint64 {
	return e.dropped.Load()
}

// Shutdown stops every observer goroutine.
func (e EventStream) Shutdown() {
	e.ctxCancel()
}

// NewEventStream builds an EventStream fanning out to the given observer
// factories. An empty factory list falls back to a no-op observer so
// callers never need a nil check.
func NewEventStream(observerFactories []ObserverFactory) EventStream {
	if len(observerFactories) == 0 {
		observerFactories = append(observerFactories, NewNoopObserver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	shards := runtime.NumCPU()

	rv := EventStream{
		ctx:       ctx,
		ctxCancel: cancel,
		chans:     make([]chan harvest.Event, shards),
		dropped:   &atomic.Uint64{},
	}

	for i := 0; i < shards; i++ {
		rv.chans[i] = make(chan harvest.Event, 256)

		if len(observerFactories) == 1 {
			go eventStreamProcessor(ctx, rv.chans[i], observerFactories[0]())
		} else {
			go eventStreamProcessor(ctx, rv.chans[i], newMultiObserver(observerFactories))
		}
	}

	return rv
}

func eventStreamProcessor(ctx context.Context, eventChan <-chan harvest.Event, observer Observer) { //nolint: cyclop
	defer observer.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-eventChan:
			switch typedEvt := evt.(type) {
			case harvest.EventPageFetched:
				observer.EventPageFetched(typedEvt)
			case harvest.EventPageDropped:
				observer.EventPageDropped(typedEvt)
			case harvest.EventSubscriptionClassified:
				observer.EventSubscriptionClassified(typedEvt)
			case harvest.EventSubscriptionFailed:
				observer.EventSubscriptionFailed(typedEvt)
			case harvest.EventBlocklistHit:
				observer.EventBlocklistHit(typedEvt)
			case harvest.EventDedupDropped:
				observer.EventDedupDropped(typedEvt)
			case harvest.EventNodeParsed:
				observer.EventNodeParsed(typedEvt)
			case harvest.EventRiskFiltered:
				observer.EventRiskFiltered(typedEvt)
			case harvest.EventConnectivityProbe:
				observer.EventConnectivityProbe(typedEvt)
			case harvest.EventCNProbe:
				observer.EventCNProbe(typedEvt)
			case harvest.EventEnrichmentLookup:
				observer.EventEnrichmentLookup(typedEvt)
			case harvest.EventBatchComplete:
				observer.EventBatchComplete(typedEvt)
			case harvest.EventRunFinished:
				observer.EventRunFinished(typedEvt)
			}
		}
	}
}
