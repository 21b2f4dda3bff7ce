package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/nullbyte-labs/proxyharvest/dedup"
	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/extractor"
	"github.com/nullbyte-labs/proxyharvest/fetcher"
	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
	"github.com/nullbyte-labs/proxyharvest/internal/logging"
	"github.com/nullbyte-labs/proxyharvest/internal/utils"
	"github.com/nullbyte-labs/proxyharvest/network"
	"github.com/nullbyte-labs/proxyharvest/renamer"
	"github.com/nullbyte-labs/proxyharvest/report"
	"github.com/nullbyte-labs/proxyharvest/scorer"
	"github.com/nullbyte-labs/proxyharvest/sources"
	"github.com/nullbyte-labs/proxyharvest/stats"
	"github.com/nullbyte-labs/proxyharvest/validator"
)

const rawNodeStoreCap = 10000

// Run executes one full pipeline pass: intake, fetch, extract, validate,
// merge/dedupe, parse, score, rename and emit.
type Run struct {
	ConfigPath string `kong:"arg,required,type='existingfile',help='Path to config file.',name='config-path'"` //nolint: lll
}

func (r Run) Run(_ *CLI, version string) error {
	startedAt := time.Now()

	conf, err := utils.ReadConfig(r.ConfigPath)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}

	logger := logging.NewLogger(conf.Debug.Get(false))

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())

	var factories []events.ObserverFactory

	if conf.Stats.Prometheus.Enabled.Get(false) {
		factory := stats.NewPrometheus(conf.Stats.Prometheus.MetricPrefix, conf.Stats.Prometheus.HTTPPath, version)

		bindTo := conf.Stats.Prometheus.BindTo.Get("0.0.0.0:9401")

		listener, err := net.Listen("tcp", bindTo)
		if err != nil {
			return fmt.Errorf("cannot bind prometheus listener on %s: %w", bindTo, err)
		}

		go func() {
			if err := factory.Serve(listener); err != nil {
				logger.WarningError("prometheus server stopped", err)
			}
		}()

		factories = append(factories, factory.Make)
	}

	if conf.Stats.StatsD.Enabled.Get(false) {
		factory := stats.NewStatsD(conf.Stats.StatsD.Address.Get(""), conf.Stats.StatsD.MetricPrefix)
		factories = append(factories, factory.Make)
	}

	stream := events.NewEventStream(factories)
	defer stream.Shutdown()

	ctx := context.Background()

	paths := resolvePaths(conf.Paths)

	if err := os.MkdirAll(paths.RuntimeDir, 0o755); err != nil {
		return fmt.Errorf("cannot create runtime dir: %w", err)
	}

	dialer, err := network.NewDefaultDialer(conf.QualityFilter.ConnectTimeout.Get(network.DefaultConnectTimeout))
	if err != nil {
		return fmt.Errorf("cannot build dialer: %w", err)
	}

	srcs := sources.Load(conf.Sources)

	f := fetcher.New(dialer, int(conf.Performance.ContentLimitMB.Get(3)), conf.Performance.RequestTimeout.Get(0), logger)
	pages := f.FetchAll(ctx, srcs, conf.Performance.MaxWorkers.Get(32))

	merger := dedup.NewMerger(dedup.DefaultMaxSize, conf.Dedup.ErrorRate.Get(dedup.DefaultErrorRate))

	sourceHealth := make(map[string]report.SourceStats)

	var candidates []harvest.CandidateSubscription

	for _, page := range pages {
		key := page.Source.CanonicalURL

		statsEntry := sourceHealth[key]

		if !page.OK() {
			statsEntry.Failed++
			sourceHealth[key] = statsEntry

			stream.Send(ctx, harvest.NewEventPageFetched(runID, page.Source, page.Status, len(page.Body)))

			continue
		}

		statsEntry.Fetched++

		stream.Send(ctx, harvest.NewEventPageFetched(runID, page.Source, page.Status, len(page.Body)))

		result, ok := extractor.Extract(page.Body)
		if !ok {
			statsEntry.Dropped++
			sourceHealth[key] = statsEntry

			stream.Send(ctx, harvest.NewEventPageDropped(runID, page.Source))

			continue
		}

		sourceHealth[key] = statsEntry

		for i := range result.Candidates {
			result.Candidates[i].SourceKey = key
		}

		candidates = append(candidates, result.Candidates...)

		for _, uri := range result.NodeURIs {
			if merger.AddURI(uri) {
				continue
			}

			stream.Send(ctx, harvest.NewEventDedupDropped(runID, uri))
		}
	}

	blocklist, err := validator.LoadBlocklist(paths.Blacklist)
	if err != nil {
		return fmt.Errorf("cannot load blocklist: %w", err)
	}

	failLog := validator.NewFailureLog(paths.FailureLog)

	v := validator.New(dialer, conf.Performance.RequestTimeout.Get(0), blocklist, failLog, conf.QualityControl.MinNodes.Get(3), logger)

	for _, c := range dedupCandidates(candidates) {
		rec := v.Validate(ctx, runID, stream, c.URL)

		statsEntry := sourceHealth[c.SourceKey]
		statsEntry.Candidates++
		statsEntry.Nodes += rec.NodeCount

		if statsEntry.Classifications == nil {
			statsEntry.Classifications = make(map[string]int)
		}

		statsEntry.Classifications[classificationLabel(rec)]++

		sourceHealth[c.SourceKey] = statsEntry

		for _, uri := range rec.NodeURIs {
			if merger.AddURI(uri) {
				continue
			}

			stream.Send(ctx, harvest.NewEventDedupDropped(runID, uri))
		}
	}

	if err := blocklist.Flush(); err != nil {
		logger.WarningError("cannot flush blocklist", err)
	}

	rawURIs := dedup.DownsampleStrings(merger.URIs(), rawNodeStoreCap)

	if err := os.WriteFile(paths.CollectedNodes, []byte(joinLines(rawURIs)), 0o644); err != nil {
		logger.WarningError("cannot write collected nodes store", err)
	}

	resolver := network.NewResolver("")

	sc := scorer.New(&conf, dialer, resolver, logger)

	probeHeadPath := paths.RuntimeDir + "/probe_head.json"
	if prev, err := report.ReadProbeHead(probeHeadPath); err != nil {
		logger.WarningError("cannot reload prior probe head", err)
	} else if prev != nil {
		sc.LoadProbeHead(prev)
	}

	result := sc.Run(ctx, runID, stream, merger, rawURIs)

	curatedLines := renamer.Emit(result.TopN)

	if err := os.WriteFile(paths.CuratedOutput, []byte(joinLines(curatedLines)), 0o644); err != nil {
		return fmt.Errorf("cannot write curated output: %w", err)
	}

	riskFiltered, asnFiltered := countFilters(result.AllTested)

	qr := report.BuildQualityReport(result.AllTested, result.TopN, riskFiltered, asnFiltered)
	if err := report.WriteQualityReport(paths.RuntimeDir+"/quality_report.json", qr); err != nil {
		logger.WarningError("cannot write quality report", err)
	}

	if err := report.WriteSourceHealth(paths.RuntimeDir+"/source_health.json", sourceHealth); err != nil {
		logger.WarningError("cannot write source health report", err)
	}

	if err := report.WriteProbeHead(probeHeadPath, result.ProbeHead); err != nil {
		logger.WarningError("cannot write probe head", err)
	}

	stream.Send(ctx, harvest.NewEventRunFinished(runID, len(result.TopN), time.Since(startedAt)))

	logger.BindInt("emitted", len(result.TopN)).Info("pipeline run finished")

	return nil
}

func resolvePaths(p config.Paths) config.Paths {
	if p.CollectedNodes == "" {
		p.CollectedNodes = "collected_nodes.txt"
	}

	if p.Blacklist == "" {
		p.Blacklist = "blacklist.txt"
	}

	if p.FailureLog == "" {
		p.FailureLog = "failed_subscriptions.log"
	}

	if p.CuratedOutput == "" {
		p.CuratedOutput = "sub/high_quality_nodes.txt"
	}

	if p.RuntimeDir == "" {
		p.RuntimeDir = "runtime"
	}

	return p
}

// classificationLabel reduces a validated subscription record to the one
// terminal classification source_health.json records against its source:
// a failed GET, a quality-gate rejection, or whichever recognized class it
// carries (Clash takes priority over V2, and V2 over Airport, when a body
// matches more than one; classifyBody itself records every class it
// matches).
func classificationLabel(rec *harvest.SubscriptionRecord) string {
	if rec.Failed() {
		return "failed_" + string(rec.FailReason)
	}

	if rec.RejectWhy != harvest.RejectNone {
		return "rejected_" + rec.RejectWhy.String()
	}

	switch {
	case rec.Classes[harvest.ClassClash]:
		return "clash"
	case rec.Classes[harvest.ClassV2]:
		return "v2"
	case rec.Classes[harvest.ClassAirport]:
		return "airport"
	default:
		return "unclassified"
	}
}

func dedupCandidates(candidates []harvest.CandidateSubscription) []harvest.CandidateSubscription {
	seen := make(map[string]bool, len(candidates))

	out := candidates[:0]

	for _, c := range candidates {
		if seen[c.DedupKey] {
			continue
		}

		seen[c.DedupKey] = true
		out = append(out, c)
	}

	return out
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	out := make([]byte, 0, len(lines)*64)

	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}

	return string(out)
}

func countFilters(nodes []*harvest.Node) (risk, asn int) {
	for _, n := range nodes {
		if len(n.RiskFlags) > 0 {
			risk++
		}

		if len(n.ASNFlags) > 0 {
			asn++
		}
	}

	return risk, asn
}
