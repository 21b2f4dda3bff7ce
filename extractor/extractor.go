// Package extractor mines candidate subscription URLs and raw proxy-node
// URIs out of a fetched page body, applying the anti-spam and
// noise-suppression filters described in the pipeline's component design.
package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

// urlPattern is deliberately greedy-but-bounded: it matches as much of a
// plausible URL as it can from a fixed alphabet, then the filters below
// trim false positives.
var urlPattern = regexp.MustCompile(`https?://[-A-Za-z0-9+&@#/%?=~_|!:,.;]+[-A-Za-z0-9+&@#/%=~_|]`)

// NodePattern matches any of the five recognized proxy schemes followed by
// a URI-tail alphabet wide enough to include IPv6 bracket literals. It is
// exported so the subscription validator can recognize node lines inside
// a decoded subscription body with the same rule the page extractor uses.
var NodePattern = regexp.MustCompile(`(?:vmess|vless|trojan|ss|hysteria2)://[A-Za-z0-9+/=_.\-@:%?&#\[\]]+`)

// staticAssetExtensions are dropped from candidate subscriptions: a
// channel post linking an image or archive is never a subscription.
var staticAssetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
	".woff", ".woff2", ".ttf", ".eot",
	".mp4", ".mp3", ".avi", ".mov", ".webm",
	".zip", ".rar", ".7z", ".tar", ".gz",
	".exe", ".dmg", ".apk", ".deb", ".rpm",
}

// denylistSubstrings drops well-known non-subscription hosts/paths: CDN
// asset links, spec/standards pages, and GitHub feature pages that are
// never subscription endpoints even though they match the URL pattern.
var denylistSubstrings = []string{
	"cdn-telegram.org",
	"telegram.org/img",
	"w3.org",
	"google.com",
	"github.com/features",
	"github.com/marketplace",
	"github.com/topics",
}

// secretTokenPatterns catch URLs that leak a credential; mining these as
// subscription candidates would mean treating someone's secret as a proxy
// list, which is both wrong and a privacy problem.
var secretTokenPatterns = []string{
	"ghp_", "ghu_", "gho_", "ghs_", "ghr_", "glpat-", "private-token", "access_token=", "secret=",
}

// Result is the extractor's output for a single page.
type Result struct {
	Candidates []harvest.CandidateSubscription
	NodeURIs   []string
}

// Extract mines candidate subscriptions and raw node URIs from page. It
// returns ok=false when the page's yield is too low to be worth carrying
// forward (the noise-suppression gate): zero of both, or fewer than two
// combined.
func Extract(body string) (Result, bool) {
	rawURLs := dedupStrings(append(urlPattern.FindAllString(body, -1), extractHrefLinks(body)...))
	rawNodes := dedupStrings(NodePattern.FindAllString(body, -1))

	var candidates []harvest.CandidateSubscription

	for _, u := range rawURLs {
		if !passesFilters(u) {
			continue
		}

		candidates = append(candidates, harvest.CandidateSubscription{
			URL:      u,
			DedupKey: dedupKey(u),
		})
	}

	total := len(candidates) + len(rawNodes)
	if total < 2 {
		return Result{}, false
	}

	return Result{Candidates: candidates, NodeURIs: rawNodes}, true
}

func passesFilters(u string) bool {
	lower := strings.ToLower(u)

	for _, bad := range denylistSubstrings {
		if strings.Contains(lower, bad) {
			return false
		}
	}

	for _, ext := range staticAssetExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}

	for _, token := range secretTokenPatterns {
		if strings.Contains(lower, token) {
			return false
		}
	}

	return true
}

// dedupKey collapses GitHub raw/release URLs sharing the same
// "owner/repo" prefix to one representative key, so ten links into the
// same spammy repo count as one candidate.
func dedupKey(rawURL string) string {
	lower := strings.ToLower(rawURL)

	for _, marker := range []string{"raw.githubusercontent.com/", "github.com/"} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			rest := lower[idx+len(marker):]
			parts := strings.SplitN(rest, "/", 3)

			if len(parts) >= 2 {
				return marker + parts[0] + "/" + parts[1]
			}
		}
	}

	return lower
}

// extractHrefLinks walks body as HTML and pulls every anchor href that
// looks like an http(s) URL. Fuzzy web pages often carry a link only as a
// tokenized attribute value (entity-encoded query strings, no bare-text
// occurrence of the URL), which urlPattern alone would miss.
func extractHrefLinks(body string) []string {
	var links []string

	tokenizer := html.NewTokenizer(strings.NewReader(body))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}

			for _, attr := range token.Attr {
				if attr.Key != "href" {
					continue
				}

				if strings.HasPrefix(attr.Val, "http://") || strings.HasPrefix(attr.Val, "https://") {
					links = append(links, attr.Val)
				}
			}
		}
	}
}

func dedupStrings(items []string) []string {
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
