package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/nullbyte-labs/proxyharvest/internal/utils"
)

// healthCheckTimeout bounds how long a health check waits for a response,
// short enough that a container orchestrator doesn't mark a slow-but-alive
// instance unhealthy.
const healthCheckTimeout = 5 * time.Second

// maxReportAge is how stale quality_report.json can be before a run is
// considered stalled rather than merely between runs.
const maxReportAge = 2 * time.Hour

// Health checks that a previous pipeline run reported healthy: prefer the
// Prometheus /metrics endpoint if enabled, falling back to the freshness
// of the last quality_report.json on disk.
type Health struct {
	ConfigPath string `kong:"arg,required,type='existingfile',help='Path to config file.',name='config-path'"` //nolint: lll
}

func (h Health) Run(_ *CLI, _ string) error {
	conf, err := utils.ReadConfig(h.ConfigPath)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}

	if conf.Stats.Prometheus.Enabled.Get(false) {
		bindTo := conf.Stats.Prometheus.BindTo.Get("0.0.0.0:9401")
		httpPath := conf.Stats.Prometheus.HTTPPath
		if httpPath == "" {
			httpPath = "/metrics"
		}

		_, port, err := net.SplitHostPort(bindTo)
		if err != nil || port == "" {
			port = "9401"
		}

		return checkHTTP(fmt.Sprintf("http://127.0.0.1:%s%s", port, httpPath))
	}

	runtimeDir := conf.Paths.RuntimeDir
	if runtimeDir == "" {
		runtimeDir = "runtime"
	}

	return checkReportFreshness(runtimeDir + "/quality_report.json")
}

func checkHTTP(url string) error {
	client := &http.Client{Timeout: healthCheckTimeout}

	resp, err := client.Get(url) //nolint: noctx
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body) //nolint: errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	return nil
}

func checkReportFreshness(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("quality report not found at %s: %w", path, err)
	}

	if time.Since(info.ModTime()) > maxReportAge {
		return fmt.Errorf("quality report at %s is stale (last written %s ago)", path, time.Since(info.ModTime()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read quality report: %w", err)
	}

	var parsed map[string]any

	return json.Unmarshal(data, &parsed)
}
