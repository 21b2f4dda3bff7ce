// Package config defines the pipeline's hierarchical configuration tree.
//
// Every leaf is a typed wrapper (TypeBool, TypeDuration, ...) following the
// same Set/Get/UnmarshalJSON idiom throughout, so a zero value always means
// "unset" and every consumer asks for its own default via Get.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Optional struct {
	Enabled TypeBool `json:"enabled"`
}

// Performance controls the Page Fetcher / HTTP-bound concurrency budget.
type Performance struct {
	MaxWorkers     TypeConcurrency `json:"maxWorkers"`
	ContentLimitMB TypeBytes       `json:"contentLimitMb"`
	RequestTimeout TypeDuration    `json:"requestTimeout"`
}

// QualityControl gates subscription validation (§4.3).
type QualityControl struct {
	MinNodes           TypeConcurrency `json:"minNodes"`
	EnableQualityCheck TypeBool        `json:"enableQualityCheck"`
	MinGuarantee       TypeConcurrency `json:"minGuarantee"`
}

// RegionLimit restricts emitted nodes by country (§4.5 step 7).
type RegionLimit struct {
	Optional

	AllowedCountries TypeStringList `json:"allowedCountries"`
	BlockedCountries TypeStringList `json:"blockedCountries"`
	Policy           TypeRiskPolicy `json:"policy"`
}

// QualityFilter controls the connectivity/scoring batch loop (§4.5).
type QualityFilter struct {
	MaxWorkers             TypeConcurrency `json:"maxWorkers"`
	ConnectTimeout         TypeDuration    `json:"connectTimeout"`
	MaxLatency             TypeDuration    `json:"maxLatency"`
	MaxTestNodes           TypeConcurrency `json:"maxTestNodes"`
	MaxOutputNodes         TypeConcurrency `json:"maxOutputNodes"`
	PreferredProtocols     TypeStringList  `json:"preferredProtocols"`
	PreferredProtocolsOnly TypeBool        `json:"preferredProtocolsOnly"`
	SmartSampling          TypeBool        `json:"smartSampling"`
	RegionLimit            RegionLimit     `json:"regionLimit"`
}

// IPAPIBehavior configures penalty knobs for the key-free ipapi provider.
type IPAPIBehavior struct {
	ExcludeHosting TypeBool `json:"excludeHosting"`
	ExcludeProxy   TypeBool `json:"excludeProxy"`
	ExcludeMobile  TypeBool `json:"excludeMobile"`
}

// ASNFilter blacklists network operators by ASN number or org/ISP keyword.
type ASNFilter struct {
	Optional

	Mode             TypeRiskPolicy  `json:"mode"`
	Penalty          TypeConcurrency `json:"penalty"`
	ASNBlacklist     TypeStringList  `json:"asnBlacklist"`
	OrgBlacklistKeys TypeStringList  `json:"orgBlacklistKeywords"`
	ISPBlacklistKeys TypeStringList  `json:"ispBlacklistKeywords"`
}

// IPRiskCheck drives the Top-N IP-reputation enrichment pass (§4.5 step 7).
type IPRiskCheck struct {
	Optional

	Provider           TypeProviderName `json:"provider"`
	APIKey             string           `json:"apiKey"`
	CheckTopNodes      TypeConcurrency  `json:"checkTopNodes"`
	MaxRiskScore       TypeConcurrency  `json:"maxRiskScore"`
	RateLimitPerSecond TypeRateLimit    `json:"rateLimitPerSecond"`
	IPAPIBehavior      IPAPIBehavior    `json:"ipapiBehavior"`
	ASNFilter          ASNFilter        `json:"asnFilter"`
}

// Dedup controls the Merger's stable bloom filter (§4.2).
type Dedup struct {
	ErrorRate TypeErrorRate `json:"errorRate"`
}

// CNProbe configures the third-party multi-location CN-reachability API
// (§4.5 step 4c).
type CNProbe struct {
	Optional

	URLTemplate      string         `json:"urlTemplate"`
	Method           string         `json:"method"`
	SuccessPath      string         `json:"successPath"`
	RequireLocations TypeStringList `json:"requireLocations"`
	Timeout          TypeDuration   `json:"timeout"`
}

// CNProbeAPI configures the enterprise CN-test-proxy API (§4.5 step 4b).
type CNProbeAPI struct {
	Optional

	URL     TypeProxyURL `json:"url"`
	Timeout TypeDuration `json:"timeout"`
}

// CNTestProxy configures the forced local HTTP-proxy CN test (§4.5 step 4a).
type CNTestProxy struct {
	Optional

	TestURL        string          `json:"testUrl"`
	ExpectedStatus TypeConcurrency `json:"expectedStatus"`
	Required       TypeBool        `json:"required"`
}

// DynamicProbe selects a low-latency probe head once per run (§4.5 step 3).
type DynamicProbe struct {
	Optional

	SampleSize TypeConcurrency `json:"sampleSize"`
}

// RiskFilter configures the phishing/risk heuristic pre-filter (§4.5 step 2).
type RiskFilter struct {
	Optional

	Mode              TypeRiskPolicy  `json:"mode"`
	Penalty           TypeConcurrency `json:"penalty"`
	MaxPenalty        TypeConcurrency `json:"maxPenalty"`
	MaxPathLen        TypeConcurrency `json:"maxPathLen"`
	SuspiciousTLDs    TypeStringList  `json:"suspiciousTlds"`
	PhishingKeywords  TypeStringList  `json:"phishingKeywords"`
	AllowlistDomains  TypeStringList  `json:"allowlistDomains"`
	AllowlistKeywords TypeStringList  `json:"allowlistKeywords"`
	BlockOn           TypeStringList  `json:"blockOn"`
}

// Stats mirrors the teacher's dual-sink observability block.
type Stats struct {
	StatsD struct {
		Optional

		Address      TypeHostPort `json:"address"`
		MetricPrefix string       `json:"metricPrefix"`
	} `json:"statsd"`
	Prometheus struct {
		Optional

		BindTo       TypeHostPort `json:"bindTo"`
		HTTPPath     string       `json:"httpPath"`
		MetricPrefix string       `json:"metricPrefix"`
	} `json:"prometheus"`
}

// Sources lists every intake surface (§6). WebPages and Subscribe are
// validated SSRF-safe URLs at config-load time; TGChannel entries are bare
// channel references normalized later by the sources package.
type Sources struct {
	TGChannel            []string        `json:"tgchannel"`
	Subscribe            []TypeSourceURL `json:"subscribe"`
	WebPages             []TypeSourceURL `json:"webPages"`
	SubconverterBackends []string        `json:"subconverterBackends"`
}

// Paths lists on-disk artifact locations, defaulted by internal/cli.
type Paths struct {
	CollectedNodes string `json:"collectedNodes"`
	Blacklist      string `json:"blacklist"`
	FailureLog     string `json:"failureLog"`
	CuratedOutput  string `json:"curatedOutput"`
	RuntimeDir     string `json:"runtimeDir"`
}

// Config is the full pipeline configuration tree, loaded once via
// internal/utils.ReadConfig and passed immutably into every component
// constructor (Design Notes: "global config singleton -> pass an immutable
// Config record").
type Config struct {
	Debug          TypeBool       `json:"debug"`
	Performance    Performance    `json:"performance"`
	QualityControl QualityControl `json:"qualityControl"`
	QualityFilter  QualityFilter  `json:"qualityFilter"`
	IPRiskCheck    IPRiskCheck    `json:"ipRiskCheck"`
	CNProbe        CNProbe        `json:"cnProbe"`
	CNProbeAPI     CNProbeAPI     `json:"cnProbeApi"`
	CNTestProxy    CNTestProxy    `json:"cnTestProxy"`
	DynamicProbe   DynamicProbe   `json:"dynamicProbe"`
	RiskFilter     RiskFilter     `json:"riskFilter"`
	Dedup          Dedup          `json:"dedup"`
	Stats          Stats          `json:"stats"`
	Sources        Sources        `json:"sources"`
	Paths          Paths          `json:"paths"`
	SystemProxy    TypeProxyURL   `json:"systemProxy"`
}

// Validate fails fast on out-of-range values, matching the spec's "config
// validation raises fatally; caller aborts the run".
func (c *Config) Validate() error {
	if err := c.Performance.MaxWorkers.Validate("performance.maxWorkers"); err != nil {
		return err
	}

	if err := c.QualityFilter.MaxWorkers.Validate("qualityFilter.maxWorkers"); err != nil {
		return err
	}

	if c.QualityFilter.ConnectTimeout.Value < 0 {
		return fmt.Errorf("qualityFilter.connectTimeout must not be negative")
	}

	if c.Performance.RequestTimeout.Value < 0 {
		return fmt.Errorf("performance.requestTimeout must not be negative")
	}

	if c.IPRiskCheck.Enabled.Get(false) {
		switch c.IPRiskCheck.Provider.Get(ProviderIPAPI) {
		case ProviderAbuseIPDB, ProviderIPAPI:
		default:
			return fmt.Errorf("ipRiskCheck.provider must be 'abuseipdb' or 'ipapi'")
		}

		if c.IPRiskCheck.Provider.Get(ProviderIPAPI) == ProviderAbuseIPDB && c.IPRiskCheck.APIKey == "" {
			return fmt.Errorf("ipRiskCheck.apiKey is required for provider abuseipdb")
		}
	}

	if c.Stats.Prometheus.Enabled.Get(false) && c.Stats.Prometheus.BindTo.Get("") == "" {
		return fmt.Errorf("stats.prometheus.bindTo is required when prometheus is enabled")
	}

	if c.Stats.StatsD.Enabled.Get(false) && c.Stats.StatsD.Address.Get("") == "" {
		return fmt.Errorf("stats.statsd.address is required when statsd is enabled")
	}

	return nil
}

// String renders the config as JSON for debug logging, masking the
// IP-reputation API key the way the teacher masks its proxy secret.
func (c *Config) String() string {
	safe := *c
	if safe.IPRiskCheck.APIKey != "" {
		safe.IPRiskCheck.APIKey = "***"
	}

	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(safe); err != nil {
		return "{}"
	}

	return buf.String()
}
