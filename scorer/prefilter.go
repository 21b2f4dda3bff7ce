package scorer

import (
	"context"
	"strings"

	"github.com/nullbyte-labs/proxyharvest/events"
	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
)

// applyProtocolPrefilter keeps only nodes whose protocol is in the
// configured preferred set, when preferred_protocols_only is enabled.
func (s *Scorer) applyProtocolPrefilter(nodes []*harvest.Node) []*harvest.Node {
	qf := s.cfg.QualityFilter
	if !qf.PreferredProtocolsOnly.Get(false) || qf.PreferredProtocols.Empty() {
		return nodes
	}

	out := nodes[:0]

	for _, n := range nodes {
		if qf.PreferredProtocols.Contains(n.Protocol.String()) {
			out = append(out, n)
		}
	}

	return out
}

// riskFlag names every phishing/risk heuristic the pre-filter can raise.
type riskFlag string

const (
	flagAllowInsecure     riskFlag = "allow_insecure"
	flagSecurityNone      riskFlag = "security_none"
	flagSNISuspiciousTLD  riskFlag = "sni_suspicious_tld"
	flagHostSuspiciousTLD riskFlag = "host_suspicious_tld"
	flagSNIPhishing       riskFlag = "sni_phishing"
	flagHostPhishing      riskFlag = "host_phishing"
	flagSNIPunycode       riskFlag = "sni_punycode"
	flagHostPunycode      riskFlag = "host_punycode"
	flagPathTooLong       riskFlag = "path_too_long"
	flagPathPhishing      riskFlag = "path_phishing"
)

// applyRiskPrefilter raises phishing/risk flags on every node and either
// drops it (filter mode, or a flag forced to block via block_on in score
// mode) or penalizes its RiskPenalty (score mode), capped at max_penalty.
func (s *Scorer) applyRiskPrefilter(ctx context.Context, runID string, stream events.EventStream, nodes []*harvest.Node) []*harvest.Node {
	rf := s.cfg.RiskFilter
	if !rf.Enabled.Get(false) {
		return nodes
	}

	penalty := rf.Penalty.Get(10)
	maxPenalty := rf.MaxPenalty.Get(30)
	maxPathLen := rf.MaxPathLen.Get(64)
	filterMode := rf.Mode.Get(config.RiskPolicyScore) == config.RiskPolicyFilter

	out := nodes[:0]

	for _, n := range nodes {
		flags := raiseRiskFlags(n, rf, maxPathLen)

		if len(flags) == 0 {
			out = append(out, n)

			continue
		}

		blocked := filterMode

		if !blocked {
			for _, f := range flags {
				if rf.BlockOn.Contains(string(f)) {
					blocked = true

					break
				}
			}
		}

		total := penalty * len(flags)
		if total > maxPenalty {
			total = maxPenalty
		}

		n.RiskFlags = append(n.RiskFlags, flagStrings(flags)...)
		n.RiskPenalty = total

		stream.Send(ctx, harvest.NewEventRiskFiltered(runID, flagStrings(flags), blocked, total))

		if !blocked {
			out = append(out, n)
		}
	}

	return out
}

func raiseRiskFlags(n *harvest.Node, rf config.RiskFilter, maxPathLen int) []riskFlag {
	var flags []riskFlag

	if n.TLS.AllowInsecure {
		flags = append(flags, flagAllowInsecure)
	}

	switch strings.ToLower(n.TLS.Security) {
	case "none", "plain", "0", "false":
		flags = append(flags, flagSecurityNone)
	}

	if rf.SuspiciousTLDs.HasSuffixAny(n.TLS.SNI) && !rf.AllowlistDomains.Contains(n.TLS.SNI) {
		flags = append(flags, flagSNISuspiciousTLD)
	}

	if rf.SuspiciousTLDs.HasSuffixAny(n.Host) && !rf.AllowlistDomains.Contains(n.Host) {
		flags = append(flags, flagHostSuspiciousTLD)
	}

	if rf.PhishingKeywords.ContainsAny(n.TLS.SNI) && !rf.AllowlistDomains.Contains(n.TLS.SNI) {
		flags = append(flags, flagSNIPhishing)
	}

	if rf.PhishingKeywords.ContainsAny(n.Host) && !rf.AllowlistDomains.Contains(n.Host) {
		flags = append(flags, flagHostPhishing)
	}

	if strings.HasPrefix(n.TLS.SNI, "xn--") && !rf.AllowlistDomains.Contains(n.TLS.SNI) {
		flags = append(flags, flagSNIPunycode)
	}

	if strings.HasPrefix(n.Host, "xn--") && !rf.AllowlistDomains.Contains(n.Host) {
		flags = append(flags, flagHostPunycode)
	}

	if maxPathLen > 0 && len(n.Transport.Path) > maxPathLen {
		flags = append(flags, flagPathTooLong)
	}

	if rf.PhishingKeywords.ContainsAny(n.Transport.Path) && !rf.AllowlistKeywords.ContainsAny(n.Transport.Path) {
		flags = append(flags, flagPathPhishing)
	}

	return flags
}

func flagStrings(flags []riskFlag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}

	return out
}
