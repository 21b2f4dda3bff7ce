package validator

import (
	"strings"
	"testing"

	"github.com/nullbyte-labs/proxyharvest/nodeparser"
)

func TestParseClashProxiesBlockStyle(t *testing.T) {
	body := "proxies:\n" +
		"  - name: vm1\n" +
		"    type: vmess\n" +
		"    server: vm.example.com\n" +
		"    port: 443\n" +
		"    uuid: 11111111-2222-3333-4444-555555555555\n" +
		"    cipher: auto\n" +
		"    network: ws\n" +
		"    tls: true\n" +
		"    sni: vm.example.com\n" +
		"  - name: vl1\n" +
		"    type: vless\n" +
		"    server: vl.example.com\n" +
		"    port: 443\n" +
		"    uuid: 66666666-7777-8888-9999-000000000000\n" +
		"    tls: true\n" +
		"  - name: hy1\n" +
		"    type: hysteria2\n" +
		"    server: hy.example.com\n" +
		"    port: 4443\n" +
		"    password: hypass\n" +
		"    sni: hy.example.com\n"

	uris := parseClashProxies(body)
	if len(uris) != 3 {
		t.Fatalf("uris = %v, want 3", uris)
	}

	for i, want := range []string{"vmess://", "vless://", "hysteria2://"} {
		if !strings.HasPrefix(uris[i], want) {
			t.Errorf("uris[%d] = %q, want prefix %q", i, uris[i], want)
		}

		if _, ok := nodeparser.Parse(uris[i]); !ok {
			t.Errorf("nodeparser.Parse(%q) failed", uris[i])
		}
	}
}

func TestParseClashProxiesFlowStyle(t *testing.T) {
	body := `proxies:
  - {name: "fs1", type: ss, server: fs.example.com, port: 8388, cipher: aes-256-gcm, password: "fspass"}
`

	uris := parseClashProxies(body)
	if len(uris) != 1 {
		t.Fatalf("uris = %v, want 1", uris)
	}

	if !strings.HasPrefix(uris[0], "ss://") {
		t.Errorf("uris[0] = %q, want ss:// prefix", uris[0])
	}

	if _, ok := nodeparser.Parse(uris[0]); !ok {
		t.Errorf("nodeparser.Parse(%q) failed", uris[0])
	}
}

func TestParseClashProxiesStopsAtDedent(t *testing.T) {
	body := "port: 7890\n" +
		"proxies:\n" +
		"  - name: a\n" +
		"    type: trojan\n" +
		"    server: a.example.com\n" +
		"    port: 443\n" +
		"    password: pw\n" +
		"proxy-groups:\n" +
		"  - name: auto\n" +
		"    type: url-test\n" +
		"    proxies:\n" +
		"      - a\n"

	uris := parseClashProxies(body)
	if len(uris) != 1 {
		t.Fatalf("uris = %v, want 1 (proxy-groups section must not be mined)", uris)
	}
}

func TestParseClashProxiesNoProxiesKeyReturnsNil(t *testing.T) {
	if uris := parseClashProxies("port: 7890\nmode: rule\n"); uris != nil {
		t.Errorf("uris = %v, want nil", uris)
	}
}

func TestParseClashProxiesSkipsUnrecognizedType(t *testing.T) {
	body := "proxies:\n" +
		"  - name: weird\n" +
		"    type: snell\n" +
		"    server: example.com\n" +
		"    port: 443\n"

	if uris := parseClashProxies(body); len(uris) != 0 {
		t.Errorf("uris = %v, want none for an unrecognized type", uris)
	}
}

func TestParseClashProxiesSkipsMissingCredentials(t *testing.T) {
	body := "proxies:\n" +
		"  - name: no-pass\n" +
		"    type: trojan\n" +
		"    server: example.com\n" +
		"    port: 443\n"

	if uris := parseClashProxies(body); len(uris) != 0 {
		t.Errorf("uris = %v, want none when password is missing", uris)
	}
}
