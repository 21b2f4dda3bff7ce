package validator

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

type fakeHeader map[string]string

func (h fakeHeader) Get(key string) string {
	return h[key]
}

func TestClassifyBodyClash(t *testing.T) {
	body := "port: 7890\n" +
		"proxies:\n" +
		"  - name: \"US 01\"\n" +
		"    type: trojan\n" +
		"    server: example.com\n" +
		"    port: 443\n" +
		"    password: secret\n" +
		"    sni: example.com\n" +
		"  - name: \"US 02\"\n" +
		"    type: ss\n" +
		"    server: example2.com\n" +
		"    port: 8388\n" +
		"    cipher: aes-256-gcm\n" +
		"    password: secret2\n" +
		"rules:\n" +
		"  - MATCH,DIRECT\n"

	classes, uris, traffic := classifyBody(body, fakeHeader{})

	if !classes[harvest.ClassClash] {
		t.Error("expected ClassClash")
	}

	if len(uris) != 2 {
		t.Fatalf("uris = %v, want two nodes", uris)
	}

	if !strings.HasPrefix(uris[0], "trojan://") {
		t.Errorf("uris[0] = %q, want a trojan:// URI", uris[0])
	}

	if !strings.HasPrefix(uris[1], "ss://") {
		t.Errorf("uris[1] = %q, want a ss:// URI", uris[1])
	}

	if traffic != nil {
		t.Error("expected no traffic info")
	}
}

func TestClassifyBodyV2Base64(t *testing.T) {
	raw := "vless://uuid@example.com:443?security=tls\nvless://uuid2@example2.com:443?security=tls\n"
	body := base64.StdEncoding.EncodeToString([]byte(raw))

	classes, uris, _ := classifyBody(body, fakeHeader{})

	if !classes[harvest.ClassV2] {
		t.Error("expected ClassV2")
	}

	if len(uris) != 2 {
		t.Errorf("uris = %v, want two nodes", uris)
	}
}

func TestClassifyBodyAirport(t *testing.T) {
	header := fakeHeader{"subscription-userinfo": "upload=100; download=200; total=100000000000"}

	classes, _, traffic := classifyBody("", header)

	if !classes[harvest.ClassAirport] {
		t.Error("expected ClassAirport")
	}

	if traffic == nil || traffic.TotalBytes != 100000000000 {
		t.Errorf("traffic = %+v", traffic)
	}
}

func TestClassifyBodyAirportExhausted(t *testing.T) {
	header := fakeHeader{"subscription-userinfo": "upload=50; download=50; total=100"}

	classes, _, traffic := classifyBody("", header)

	if classes[harvest.ClassAirport] {
		t.Error("expected no ClassAirport when quota is exhausted")
	}

	if traffic != nil {
		t.Error("expected nil traffic when quota is exhausted")
	}
}

func TestParseSubscriptionUserinfo(t *testing.T) {
	info, ok := parseSubscriptionUserinfo("upload=111; download=222; total=333")
	if !ok {
		t.Fatal("expected ok")
	}

	if info.UploadBytes != 111 || info.DownloadBytes != 222 || info.TotalBytes != 333 {
		t.Errorf("info = %+v", info)
	}
}

func TestParseSubscriptionUserinfoMissingFields(t *testing.T) {
	if _, ok := parseSubscriptionUserinfo("upload=111; download=222"); ok {
		t.Fatal("expected rejection with fewer than three numbers")
	}
}

func TestQualityGate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		nodeCount int
		minNodes  int
		want      harvest.RejectReason
	}{
		{"empty", "ok body", 0, 3, harvest.RejectEmpty},
		{"below minimum", "ok body", 2, 3, harvest.RejectLowNodes},
		{"spam keyword", "your trial-ended, please renew", 5, 3, harvest.RejectSpamContent},
		{"accepted", "a healthy node list", 5, 3, harvest.RejectNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := qualityGate(tc.body, tc.nodeCount, tc.minNodes)
			if got != tc.want {
				t.Errorf("qualityGate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsClashBody(t *testing.T) {
	if !isClashBody("port: 7890\nproxies:\n  - name: a\n") {
		t.Error("expected proxies: line to be recognized")
	}

	if isClashBody("not a clash config at all") {
		t.Error("expected plain text to not be recognized as clash")
	}
}
