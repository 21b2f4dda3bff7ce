package validator

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/logging"
	"github.com/nullbyte-labs/proxyharvest/network"
)

const maxBodyBytes = 5 * 1024 * 1024

// Validator performs the single streaming GET per candidate subscription,
// classifies the body, and applies the per-subscription minimum-quality
// gate.
type Validator struct {
	client    *http.Client
	blocklist *Blocklist
	failLog   *FailureLog
	minNodes  int
	logger    logging.Logger
}

// New builds a Validator. minNodes defaults to 3 when <= 0, matching the
// documented default.
func New(dialer network.Dialer, timeout time.Duration, blocklist *Blocklist, failLog *FailureLog, minNodes int, logger logging.Logger) *Validator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if minNodes <= 0 {
		minNodes = 3
	}

	return &Validator{
		client:    network.NewHTTPClient(dialer, timeout),
		blocklist: blocklist,
		failLog:   failLog,
		minNodes:  minNodes,
		logger:    logger.Named("validator"),
	}
}

// Validate runs one candidate URL through the blocklist gate, the GET, the
// classifier and the quality gate, emitting events as it goes. It never
// returns an error: every outcome is carried on the returned record.
func (v *Validator) Validate(ctx context.Context, runID string, stream events.EventStream, url string) *harvest.SubscriptionRecord {
	rec := harvest.NewSubscriptionRecord(url)

	if v.blocklist.Contains(url) {
		stream.Send(ctx, harvest.NewEventBlocklistHit(runID, url))

		rec.FailReason = harvest.FailRequestFailed

		return rec
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		v.fail(ctx, runID, stream, rec, harvest.FailRequestFailed)

		return rec
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.fail(ctx, runID, stream, rec, harvest.FailRequestFailed)

		return rec
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		v.fail(ctx, runID, stream, rec, harvest.HTTPFailReason(resp.StatusCode))

		return rec
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		v.fail(ctx, runID, stream, rec, harvest.FailDownloadFailed)

		return rec
	}

	classes, nodeURIs, traffic := classifyBody(string(body), resp.Header)

	rec.Classes = classes
	rec.NodeURIs = nodeURIs
	rec.NodeCount = countNodes(nodeURIs)
	rec.Traffic = traffic

	rec.RejectWhy = qualityGate(string(body), rec.NodeCount, v.minNodes)

	if rec.RejectWhy != harvest.RejectNone {
		stream.Send(ctx, harvest.NewEventSubscriptionFailed(runID, url, "", rec.RejectWhy))

		return rec
	}

	classList := make([]harvest.SubscriptionClass, 0, len(classes))
	for c := range classes {
		classList = append(classList, c)
	}

	stream.Send(ctx, harvest.NewEventSubscriptionClassified(runID, url, classList, rec.NodeCount))

	return rec
}

func (v *Validator) fail(ctx context.Context, runID string, stream events.EventStream, rec *harvest.SubscriptionRecord, reason harvest.FailReason) {
	rec.FailReason = reason

	v.blocklist.Add(rec.URL)

	if err := v.failLog.Append(rec.URL, string(reason)); err != nil {
		v.logger.BindStr("url", rec.URL).WarningError("cannot append failure log", err)
	}

	stream.Send(ctx, harvest.NewEventSubscriptionFailed(runID, rec.URL, reason, harvest.RejectNone))
}
