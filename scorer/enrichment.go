package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yl2chen/cidranger"
	"golang.org/x/time/rate"

	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
	"github.com/nullbyte-labs/proxyharvest/network"
	"github.com/nullbyte-labs/proxyharvest/ratelimit"
)

const (
	providerAbuseIPDB = "abuseipdb"
	providerIPAPI     = "ipapi"
	abuseIPDBInterval = 0.5
	ipapiInterval     = 1.5
)

// providerInterval turns the configured requests-per-second cap into the
// provider's rate.Limit, falling back to one request per the provider's own
// conservative default interval when rateLimitPerSecond is unset or 0.
func providerInterval(risk config.IPRiskCheck, defaultIntervalSeconds float64) rate.Limit {
	perSecond := risk.RateLimitPerSecond.Get(0)
	if perSecond == 0 {
		return ratelimit.Every(defaultIntervalSeconds)
	}

	return rate.Limit(perSecond)
}

// enrichTopN applies the Top-N-only IP-reputation enrichment pass: resolve
// host to IPv4 where needed, query the configured provider, apply
// penalties/bonuses, the ASN/org/ISP blacklist, and the region
// restriction, all rate-limited per provider.
func (s *Scorer) enrichTopN(ctx context.Context, runID string, stream events.EventStream, nodes []*harvest.Node) {
	risk := s.cfg.IPRiskCheck
	if !risk.Enabled.Get(false) {
		return
	}

	checkTop := risk.CheckTopNodes.Get(len(nodes))
	if checkTop > len(nodes) {
		checkTop = len(nodes)
	}

	ranger := s.asnRanger()

	for i := 0; i < checkTop; i++ {
		s.enrichOne(ctx, runID, stream, nodes[i], risk, ranger)
	}
}

func (s *Scorer) asnRanger() cidranger.Ranger {
	ranger := cidranger.NewPCTrieRanger()

	for _, entry := range s.cfg.IPRiskCheck.ASNFilter.ASNBlacklist.Values {
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			continue
		}

		_ = ranger.Insert(cidranger.NewBasicRangerEntry(*network))
	}

	return ranger
}

func (s *Scorer) enrichOne(ctx context.Context, runID string, stream events.EventStream, n *harvest.Node, risk config.IPRiskCheck, ranger cidranger.Ranger) {
	penaltyBefore := n.RiskPenalty + n.ASNPenalty

	ip := n.Host
	if net.ParseIP(ip) == nil && s.resolver != nil {
		if resolved, err := s.resolver.ResolveIPv4(n.Host); err == nil {
			ip = resolved
		}
	}

	provider := risk.Provider.Get(config.ProviderIPAPI)

	var ok bool

	switch provider {
	case config.ProviderAbuseIPDB:
		ok = s.enrichAbuseIPDB(ctx, n, ip, risk)
	default:
		ok = s.enrichIPAPI(ctx, n, ip, risk, ranger)
	}

	stream.Send(ctx, harvest.NewEventEnrichmentLookup(runID, provider.String(), ok))

	s.applyRegionRestriction(n)

	// score() has already run, so penalties added here are taken off
	// FinalScore directly, the same way the bonuses above are added to it.
	n.FinalScore -= float64(n.RiskPenalty + n.ASNPenalty - penaltyBefore)
}

type abuseIPDBData struct {
	Data struct {
		AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
		CountryCode          string `json:"countryCode"`
	} `json:"data"`
}

func (s *Scorer) enrichAbuseIPDB(ctx context.Context, n *harvest.Node, ip string, risk config.IPRiskCheck) bool {
	if err := s.limiter.Wait(ctx, providerAbuseIPDB, providerInterval(risk, abuseIPDBInterval)); err != nil {
		return false
	}

	url := fmt.Sprintf("https://api.abuseipdb.com/api/v2/check?ipAddress=%s&maxAgeInDays=90", ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	req.Header.Set("Key", risk.APIKey)
	req.Header.Set("Accept", "application/json")

	client := network.NewHTTPClient(s.dialer, 10*time.Second)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return false
	}

	var parsed abuseIPDBData
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}

	n.Country = parsed.Data.CountryCode

	maxRisk := risk.MaxRiskScore.Get(50)
	score := parsed.Data.AbuseConfidenceScore

	switch {
	case score < 20:
		n.FinalScore += rewardBand(score)
	case score > maxRisk:
		n.RiskPenalty += 10
	}

	n.RiskScore = score

	return true
}

func rewardBand(score int) float64 {
	switch {
	case score == 0:
		return 3
	case score < 10:
		return 2
	default:
		return 1
	}
}

type ipapiData struct {
	CountryCode string `json:"countryCode"`
	ISP         string `json:"isp"`
	Org         string `json:"org"`
	AS          string `json:"as"`
	Mobile      bool   `json:"mobile"`
	Proxy       bool   `json:"proxy"`
	Hosting     bool   `json:"hosting"`
}

func (s *Scorer) enrichIPAPI(ctx context.Context, n *harvest.Node, ip string, risk config.IPRiskCheck, ranger cidranger.Ranger) bool {
	if err := s.limiter.Wait(ctx, providerIPAPI, providerInterval(risk, ipapiInterval)); err != nil {
		return false
	}

	url := fmt.Sprintf("http://ip-api.com/json/%s?fields=countryCode,isp,org,as,mobile,proxy,hosting", ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	client := network.NewHTTPClient(s.dialer, 10*time.Second)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return false
	}

	var parsed ipapiData
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}

	n.Country = parsed.CountryCode
	n.ISP = parsed.ISP
	n.Org = parsed.Org

	asn := parseASN(parsed.AS)
	n.ASN = asn

	switch {
	case parsed.Hosting && risk.IPAPIBehavior.ExcludeHosting.Get(false):
		n.RiskPenalty += 5
		n.RiskScore = 50
	case parsed.Proxy && risk.IPAPIBehavior.ExcludeProxy.Get(false):
		n.RiskPenalty += 3
		n.RiskScore = 60
	case parsed.Mobile && risk.IPAPIBehavior.ExcludeMobile.Get(false):
		n.RiskPenalty += 2
		n.RiskScore = 30
	default:
		n.FinalScore += 10
		n.RiskScore = 0
	}

	s.applyASNFilter(n, ip, asn, parsed.Org, parsed.ISP, risk.ASNFilter, ranger)

	return true
}

func parseASN(as string) int {
	fields := strings.Fields(as)
	if len(fields) == 0 {
		return 0
	}

	trimmed := strings.TrimPrefix(strings.ToUpper(fields[0]), "AS")

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0
	}

	return n
}

func (s *Scorer) applyASNFilter(n *harvest.Node, ip string, asn int, org, isp string, af config.ASNFilter, ranger cidranger.Ranger) {
	if !af.Enabled.Get(false) {
		return
	}

	matched := af.ASNBlacklist.Contains(strconv.Itoa(asn)) || af.OrgBlacklistKeys.ContainsAny(org) || af.ISPBlacklistKeys.ContainsAny(isp)

	if !matched && ip != "" {
		if parsedIP := net.ParseIP(ip); parsedIP != nil {
			if ok, _ := ranger.Contains(parsedIP); ok {
				matched = true
			}
		}
	}

	if !matched {
		return
	}

	n.ASNFlags = append(n.ASNFlags, "asn_blacklisted")

	penalty := af.Penalty.Get(20)

	if af.Mode.Get(config.RiskPolicyScore) == config.RiskPolicyFilter {
		n.Status = harvest.StatusOffline

		return
	}

	n.ASNPenalty += penalty
}

func (s *Scorer) applyRegionRestriction(n *harvest.Node) {
	rl := s.cfg.QualityFilter.RegionLimit
	if !rl.Enabled.Get(false) {
		return
	}

	blocked := rl.BlockedCountries.Contains(n.Country)
	notAllowed := !rl.AllowedCountries.Empty() && !rl.AllowedCountries.Contains(n.Country)

	if !blocked && !notAllowed {
		return
	}

	if rl.Policy.Get(config.RiskPolicyScore) == config.RiskPolicyFilter {
		n.Status = harvest.StatusOffline

		return
	}

	n.RiskPenalty += 50
}
