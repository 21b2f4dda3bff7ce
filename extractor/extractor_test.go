package extractor

import "testing"

func TestExtractPlainTextURLsAndNodes(t *testing.T) {
	body := "check out https://example.com/sub/one and vless://uuid@example.com:443?security=tls and vmess://abc123=="

	result, ok := Extract(body)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	if len(result.Candidates) != 1 {
		t.Errorf("candidates = %v, want 1", result.Candidates)
	}

	if len(result.NodeURIs) != 2 {
		t.Errorf("nodeURIs = %v, want 2", result.NodeURIs)
	}
}

func TestExtractHrefOnlyLink(t *testing.T) {
	body := `<html><body><a href="https://sub.example.com/feed?x=1&amp;y=2">subscribe</a>` +
		`<a href="vless://uuid@example.com:443?security=tls">node</a></body></html>`

	result, ok := Extract(body)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	found := false

	for _, c := range result.Candidates {
		if c.URL == "https://sub.example.com/feed?x=1&y=2" {
			found = true
		}
	}

	if !found {
		t.Errorf("candidates = %v, expected href-only link to be mined", result.Candidates)
	}
}

func TestExtractLowYieldRejected(t *testing.T) {
	_, ok := Extract("just some plain text with nothing useful in it")
	if ok {
		t.Fatal("expected low-yield page to be rejected")
	}
}

func TestExtractFiltersStaticAssets(t *testing.T) {
	body := "https://cdn.example.com/banner.png and https://example.com/sub/feed and vless://uuid@example.com:443"

	result, ok := Extract(body)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	for _, c := range result.Candidates {
		if c.URL == "https://cdn.example.com/banner.png" {
			t.Error("expected static asset link to be filtered out")
		}
	}
}

func TestExtractFiltersSecretTokens(t *testing.T) {
	body := "https://example.com/sub?access_token=abc123 and https://example.com/sub2/feed and vless://uuid@example.com:443"

	result, ok := Extract(body)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	for _, c := range result.Candidates {
		if c.URL == "https://example.com/sub?access_token=abc123" {
			t.Error("expected secret-token link to be filtered out")
		}
	}
}

func TestDedupKeyCollapsesGithubLinks(t *testing.T) {
	a := dedupKey("https://raw.githubusercontent.com/owner/repo/main/sub.txt")
	b := dedupKey("https://raw.githubusercontent.com/owner/repo/main/other.txt")

	if a != b {
		t.Errorf("dedupKey differs for same owner/repo: %q vs %q", a, b)
	}
}
