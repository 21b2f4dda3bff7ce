package validator

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/nullbyte-labs/proxyharvest/extractor"
	"github.com/nullbyte-labs/proxyharvest/harvest"
)

// spamKeywords flag a subscription body as an expired/paid-wall landing
// page rather than a real node list.
var spamKeywords = []string{
	"expired", "purchase", "trial-ended", "contact-service", "past-due",
}

// recognizedSchemes is used to sniff a base64-decoded payload for a node
// list without fully parsing it.
var recognizedSchemes = []string{"vmess://", "vless://", "trojan://", "ss://", "hysteria2://"}

// classifyBody inspects a 200 response body and returns every class it
// matches (never mutually exclusive) plus the node URIs it carries.
func classifyBody(body string, header http200Header) (classes map[harvest.SubscriptionClass]bool, nodeURIs []string, traffic *harvest.TrafficInfo) {
	classes = make(map[harvest.SubscriptionClass]bool)

	if isClashBody(body) {
		classes[harvest.ClassClash] = true
		nodeURIs = append(nodeURIs, parseClashProxies(body)...)
	}

	if decoded, ok := tryDecodeV2(body); ok {
		classes[harvest.ClassV2] = true
		nodeURIs = append(nodeURIs, extractor.NodePattern.FindAllString(decoded, -1)...)
	}

	if info, ok := parseSubscriptionUserinfo(header.Get("subscription-userinfo")); ok && info.RemainingGiB() > 0 {
		classes[harvest.ClassAirport] = true
		traffic = &info
	}

	return dedupClasses(classes), dedupNodeURIs(nodeURIs), traffic
}

// http200Header is the minimal header-reading interface classifyBody
// needs, so tests can supply a plain map instead of an *http.Response.
type http200Header interface {
	Get(string) string
}

// isClashBody applies the line-prefix heuristic the design notes call
// for instead of pulling a full YAML library into this path: a top-level
// "proxies:" key at column 0.
func isClashBody(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasPrefix(trimmed, "proxies:") {
			return true
		}
	}

	return false
}

// tryDecodeV2 attempts the base64 decode the validator uses to recognize
// a V2/base64 subscription: take the first <=256 padded characters, decode
// permissively, and check for a recognized scheme prefix.
func tryDecodeV2(body string) (string, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", false
	}

	head := trimmed
	if len(head) > 256 {
		head = head[:256]
	}

	padded := padBase64(head)

	decoded, err := base64.StdEncoding.DecodeString(padded)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(padded)
		if err != nil {
			return "", false
		}
	}

	text := string(decoded)

	hasScheme := false

	for _, scheme := range recognizedSchemes {
		if strings.Contains(text, scheme) {
			hasScheme = true

			break
		}
	}

	if !hasScheme {
		return "", false
	}

	fullPadded := padBase64(trimmed)

	fullDecoded, err := base64.StdEncoding.DecodeString(fullPadded)
	if err != nil {
		fullDecoded, err = base64.URLEncoding.DecodeString(fullPadded)
		if err != nil {
			return text, true
		}
	}

	return string(fullDecoded), true
}

func padBase64(s string) string {
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}

	return s
}

// parseSubscriptionUserinfo parses the first three decimal integers out of
// a subscription-userinfo header value into (upload, download, total).
func parseSubscriptionUserinfo(header string) (harvest.TrafficInfo, bool) {
	if header == "" {
		return harvest.TrafficInfo{}, false
	}

	var nums []int64

	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}

		if n, err := strconv.ParseInt(cur.String(), 10, 64); err == nil {
			nums = append(nums, n)
		}

		cur.Reset()
	}

	for _, r := range header {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
		} else {
			flush()
		}

		if len(nums) >= 3 {
			break
		}
	}

	flush()

	if len(nums) < 3 {
		return harvest.TrafficInfo{}, false
	}

	return harvest.TrafficInfo{UploadBytes: nums[0], DownloadBytes: nums[1], TotalBytes: nums[2]}, true
}

// countNodes counts how many nodes a classified body yields, per the
// §4.3 counting rule: Clash counts the proxies: sequence length (one URI
// per recognized mapping, built by parseClashProxies), base64 counts
// lines containing "://" in the decoded payload. Since both paths already
// resolve to a list of node URIs upstream, counting the URIs is
// equivalent and avoids re-deriving the YAML sequence length separately.
func countNodes(nodeURIs []string) int {
	return len(nodeURIs)
}

// qualityGate applies the per-subscription minimum-quality check: reject
// empty or below-minimum node counts, and reject bodies containing a spam
// keyword. It never blocklists — a RejectReason return lets the caller
// record the rejection without adding the URL to the persistent
// blocklist, since these may recover on a later run.
func qualityGate(body string, nodeCount, minNodes int) harvest.RejectReason {
	if nodeCount == 0 {
		return harvest.RejectEmpty
	}

	if nodeCount < minNodes {
		return harvest.RejectLowNodes
	}

	lower := strings.ToLower(body)

	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return harvest.RejectSpamContent
		}
	}

	return harvest.RejectNone
}

func dedupClasses(in map[harvest.SubscriptionClass]bool) map[harvest.SubscriptionClass]bool {
	return in
}

func dedupNodeURIs(items []string) []string {
	seen := make(map[string]bool, len(items))

	out := items[:0]

	for _, item := range items {
		if seen[item] {
			continue
		}

		seen[item] = true
		out = append(out, item)
	}

	return out
}
