package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/network"
)

// selectProbeHead runs from each batch until a probe head is found, so at
// most one is kept per run: sample dynamic_probe_sample_size parsed nodes,
// connectivity-test each, and keep the lowest-latency success as the probe
// head used by later CN-proxy-test paths.
func (s *Scorer) selectProbeHead(ctx context.Context, nodes []*harvest.Node) {
	sampleSize := s.cfg.DynamicProbe.SampleSize.Get(50)

	sample := nodes
	if len(sample) > sampleSize {
		idx := rand.Perm(len(sample))[:sampleSize]
		sample = make([]*harvest.Node, sampleSize)

		for i, j := range idx {
			sample[i] = nodes[j]
		}
	}

	var best *harvest.Node

	bestLatency := -1

	timeout := clampTimeout(s.cfg.QualityFilter.ConnectTimeout.Get(0), 5*time.Second)

	for _, n := range sample {
		latency, ok := dialOnce(ctx, s.dialer, n.Host, n.Port, timeout)
		if !ok {
			continue
		}

		if bestLatency == -1 || latency < bestLatency {
			bestLatency = latency
			best = n
		}
	}

	if best != nil {
		s.probeHead = best
	}
}

// testConnectivity fans out a TCP dial to every node, bounded by
// max_workers, dropping anything that fails to connect or exceeds
// max_latency. If CN testing is configured, it additionally runs one of
// the three CN-reachability probe paths on every surviving node.
func (s *Scorer) testConnectivity(ctx context.Context, runID string, stream events.EventStream, nodes []*harvest.Node) {
	qf := s.cfg.QualityFilter
	maxWorkers := qf.MaxWorkers.Get(32)
	connectTimeout := clampTimeout(qf.ConnectTimeout.Get(0), 5*time.Second)
	maxLatency := clampTimeout(qf.MaxLatency.Get(0), 500*time.Millisecond)

	pool, err := ants.NewPool(maxWorkers)
	if err != nil {
		pool, _ = ants.NewPool(1)
	}
	defer pool.Release()

	var wg sync.WaitGroup

	for _, node := range nodes {
		node := node

		wg.Add(1)

		submit := func() {
			defer wg.Done()

			latency, ok := dialOnce(ctx, s.dialer, node.Host, node.Port, connectTimeout)

			stream.Send(ctx, harvest.NewEventConnectivityProbe(runID, node.Host, node.Port, ok, latency))

			if !ok || time.Duration(latency)*time.Millisecond > maxLatency {
				node.Status = harvest.StatusOffline

				return
			}

			node.LatencyMS = latency
			node.Status = harvest.StatusOnline

			s.probeCN(ctx, runID, stream, node)
		}

		if err := pool.Submit(submit); err != nil {
			wg.Done()

			submit()
		}
	}

	wg.Wait()
}

func dialOnce(ctx context.Context, dialer network.Dialer, host string, port int, timeout time.Duration) (int, bool) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	conn, err := dialer.DialContext(dialCtx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return 0, false
	}

	latency := int(time.Since(start).Milliseconds())

	_ = conn.Close()

	return latency, true
}

// probeCN runs at most one of the three mutually exclusive CN-reachability
// paths, in priority order: forced proxy, CN-test-proxy API, third-party
// CN-probe API.
func (s *Scorer) probeCN(ctx context.Context, runID string, stream events.EventStream, node *harvest.Node) {
	switch {
	case s.cfg.CNTestProxy.Enabled.Get(false):
		s.probeForcedProxy(ctx, runID, stream, node)
	case s.cfg.CNProbeAPI.Enabled.Get(false):
		s.probeCNTestProxyAPI(ctx, runID, stream, node)
	case s.cfg.CNProbe.Enabled.Get(false):
		s.probeThirdPartyCN(ctx, runID, stream, node)
	}
}

func (s *Scorer) probeForcedProxy(ctx context.Context, runID string, stream events.EventStream, node *harvest.Node) {
	cfg := s.cfg.CNTestProxy

	start := time.Now()

	dialer, err := network.NewProxyDialer(s.dialer, s.cfg.SystemProxy.Get(""))

	ok := false

	if err == nil {
		client := network.NewHTTPClient(dialer, clampTimeout(s.cfg.Performance.RequestTimeout.Get(0), 15*time.Second))

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, cfg.TestURL, nil)
		if reqErr == nil {
			resp, doErr := client.Do(req)
			if doErr == nil {
				resp.Body.Close()

				expected := cfg.ExpectedStatus.Get(204)
				ok = resp.StatusCode == expected
			}
		}
	}

	latency := int(time.Since(start).Milliseconds())

	node.CNOK = ok
	node.CNLatencyMS = latency

	stream.Send(ctx, harvest.NewEventCNProbe(runID, "forced_proxy", ok, latency))

	if !ok && cfg.Required.Get(false) {
		node.Status = harvest.StatusOffline
	}
}

type cnTestProxyRequest struct {
	Node      string `json:"node"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	TestURL   string `json:"test_url"`
	Timeout   int    `json:"timeout"`
	ProbeHead string `json:"probe_head,omitempty"`
}

type cnTestProxyResponse struct {
	OK        bool `json:"ok"`
	LatencyMS int  `json:"latency_ms"`
}

func (s *Scorer) probeCNTestProxyAPI(ctx context.Context, runID string, stream events.EventStream, node *harvest.Node) {
	cfg := s.cfg.CNProbeAPI

	timeout := clampTimeout(cfg.Timeout.Get(0), 10*time.Second)

	probeHead := ""
	if s.probeHead != nil {
		probeHead = s.probeHead.URI
	}

	reqBody := cnTestProxyRequest{
		Node:      node.URI,
		Host:      node.Host,
		Port:      node.Port,
		TestURL:   node.URI,
		Timeout:   int(timeout.Seconds()),
		ProbeHead: probeHead,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return
	}

	start := time.Now()

	ok, latencyMS := postJSON(ctx, s.dialer, cfg.URL.Get(""), payload, timeout)

	if latencyMS == 0 {
		latencyMS = int(time.Since(start).Milliseconds())
	}

	node.CNOK = ok
	node.CNLatencyMS = latencyMS

	stream.Send(ctx, harvest.NewEventCNProbe(runID, "cn_test_api", ok, latencyMS))
}

func postJSON(ctx context.Context, dialer network.Dialer, url string, payload []byte, timeout time.Duration) (bool, int) {
	client := network.NewHTTPClient(dialer, timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, 0
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false, 0
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return false, 0
	}

	var parsed cnTestProxyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, 0
	}

	return parsed.OK, parsed.LatencyMS
}

func (s *Scorer) probeThirdPartyCN(ctx context.Context, runID string, stream events.EventStream, node *harvest.Node) {
	cfg := s.cfg.CNProbe

	timeout := clampTimeout(cfg.Timeout.Get(0), 10*time.Second)

	url := strings.NewReplacer(
		"{host}", node.Host,
		"{port}", strconv.Itoa(node.Port),
		"{node}", node.URI,
	).Replace(cfg.URLTemplate)

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	client := network.NewHTTPClient(s.dialer, timeout)

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)

	ok := false

	if err == nil {
		resp, doErr := client.Do(req)
		if doErr == nil {
			defer resp.Body.Close()

			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
			if readErr == nil {
				var parsed map[string]any

				if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil {
					success, _ := resolveJSONPath(parsed, cfg.SuccessPath).(bool)
					ok = success

					if ok && !cfg.RequireLocations.Empty() {
						ok = allLocationsOK(parsed, cfg.RequireLocations.Values)
					}
				}
			}
		}
	}

	latency := int(time.Since(start).Milliseconds())

	node.CNOK = ok
	node.CNLatencyMS = latency

	stream.Send(ctx, harvest.NewEventCNProbe(runID, "third_party", ok, latency))
}

// resolveJSONPath walks a dot-separated path (no array indexing — the
// loader's JSON-path parser never supported that, and this preserves the
// limitation rather than broadening it silently).
func resolveJSONPath(doc map[string]any, path string) any {
	if path == "" {
		return nil
	}

	var cur any = doc

	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}

		cur, ok = m[key]
		if !ok {
			return nil
		}
	}

	return cur
}

func allLocationsOK(doc map[string]any, locations []string) bool {
	raw := resolveJSONPath(doc, "data.locations")

	list, ok := raw.([]any)
	if !ok {
		return false
	}

	okByName := make(map[string]bool, len(list))

	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		name, _ := m["name"].(string)
		success, _ := m["ok"].(bool)
		okByName[name] = success
	}

	for _, loc := range locations {
		if !okByName[loc] {
			return false
		}
	}

	return true
}
