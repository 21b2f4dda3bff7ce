package renamer

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

func TestFlagEmoji(t *testing.T) {
	if got := flagEmoji("us"); got != "🇺🇸" {
		t.Errorf("flagEmoji(us) = %q, want US flag", got)
	}

	if got := flagEmoji("XX"); got == "" {
		t.Error("expected a flag for any two-letter code")
	}

	if got := flagEmoji(""); got != "" {
		t.Errorf("flagEmoji(empty) = %q, want empty", got)
	}

	if got := flagEmoji("USA"); got != "" {
		t.Errorf("flagEmoji(three-letter) = %q, want empty", got)
	}
}

func TestRenameVMessRewritesLabel(t *testing.T) {
	payload := `{"add":"example.com","port":443,"id":"abc","ps":"old-label"}`
	uri := "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))

	node := &harvest.Node{URI: uri, Protocol: harvest.ProtocolVMess, Country: "DE"}

	renamed := Rename(node, 1)

	body := strings.TrimPrefix(renamed, "vmess://")

	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		t.Fatalf("cannot decode renamed vmess: %v", err)
	}

	var parsed map[string]any

	if err := json.Unmarshal(decoded, &parsed); err != nil {
		t.Fatalf("cannot unmarshal renamed vmess payload: %v", err)
	}

	label, _ := parsed["ps"].(string)
	if !strings.Contains(label, "DE") || !strings.Contains(label, "vmess") {
		t.Errorf("ps = %q, want it to carry country and protocol", label)
	}

	if parsed["add"] != "example.com" {
		t.Errorf("add = %v, want untouched", parsed["add"])
	}
}

func TestRenameNonVMessAppendsFragment(t *testing.T) {
	node := &harvest.Node{
		URI:      "vless://uuid@example.com:443?security=tls#old-tag",
		Protocol: harvest.ProtocolVLess,
		Country:  "JP",
	}

	renamed := Rename(node, 3)

	if !strings.Contains(renamed, "#") {
		t.Fatal("expected a fragment to be present")
	}

	if strings.Contains(renamed, "old-tag") {
		t.Error("expected old fragment to be replaced")
	}
}

func TestBuildLabelCNOK(t *testing.T) {
	node := &harvest.Node{Protocol: harvest.ProtocolTrojan, Country: "US", CNOK: true}

	label := buildLabel(node, 2)

	if !strings.Contains(label, "[CN-OK]") {
		t.Errorf("label = %q, want CN-OK marker", label)
	}
}

func TestEmitDownsamplesWhenOversized(t *testing.T) {
	nodes := make([]*harvest.Node, 0, 200)

	// 200 lines of about 30 KB each come to roughly 6 MB, over the cap.
	longPath := strings.Repeat("a", 30000)

	for i := 0; i < 200; i++ {
		nodes = append(nodes, &harvest.Node{
			URI:      "vless://uuid@example.com:443?security=tls&path=" + longPath,
			Protocol: harvest.ProtocolVLess,
			Country:  "US",
		})
	}

	lines := Emit(nodes)

	total := 0
	for _, l := range lines {
		total += len(l) + 1
	}

	if total > curatedSizeCapBytes {
		t.Errorf("emitted total %d bytes exceeds cap %d", total, curatedSizeCapBytes)
	}
}

func TestEmitUnderCapKeepsAll(t *testing.T) {
	nodes := []*harvest.Node{
		{URI: "vless://uuid@example.com:443?security=tls", Protocol: harvest.ProtocolVLess, Country: "US"},
		{URI: "trojan://pass@example.com:443", Protocol: harvest.ProtocolTrojan, Country: "DE"},
	}

	lines := Emit(nodes)

	if len(lines) != 2 {
		t.Errorf("lines = %d, want 2", len(lines))
	}
}
