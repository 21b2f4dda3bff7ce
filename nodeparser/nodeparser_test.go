package nodeparser

import (
	"encoding/base64"
	"testing"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

func TestParseVMess(t *testing.T) {
	payload := `{"add":"example.com","port":443,"id":"a3482e88-686a-4a58-8126-99c9df20e518","tls":"tls","scy":"auto","sni":"sni.example.com","net":"ws","path":"/ray"}`
	uri := "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))

	n, ok := Parse(uri)
	if !ok {
		t.Fatal("expected ok parse")
	}

	if n.Protocol != harvest.ProtocolVMess {
		t.Errorf("protocol = %v, want vmess", n.Protocol)
	}

	if n.Host != "example.com" || n.Port != 443 {
		t.Errorf("host/port = %s:%d, want example.com:443", n.Host, n.Port)
	}

	if !n.TLS.Enabled || n.TLS.SNI != "sni.example.com" {
		t.Errorf("tls = %+v, want enabled with sni override", n.TLS)
	}

	if n.Transport.Type != "ws" || n.Transport.Path != "/ray" {
		t.Errorf("transport = %+v", n.Transport)
	}
}

func TestParseVMessMissingIDRejected(t *testing.T) {
	payload := `{"add":"example.com","port":443}`
	uri := "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))

	if _, ok := Parse(uri); ok {
		t.Fatal("expected rejection when id is missing")
	}
}

func TestParseVLess(t *testing.T) {
	uri := "vless://uuid-here@example.com:8443?security=tls&sni=sni.example.com&type=ws&path=%2Fray&host=cdn.example.com&fp=chrome"

	n, ok := Parse(uri)
	if !ok {
		t.Fatal("expected ok parse")
	}

	if n.Protocol != harvest.ProtocolVLess || n.Host != "example.com" || n.Port != 8443 {
		t.Errorf("unexpected node: %+v", n)
	}

	if n.Creds.UUID != "uuid-here" {
		t.Errorf("uuid = %q", n.Creds.UUID)
	}

	if !n.TLS.Enabled || n.TLS.Fingerprint != "chrome" {
		t.Errorf("tls = %+v", n.TLS)
	}

	if n.Transport.Type != "ws" || n.Transport.Path != "/ray" || n.Transport.HostHeader != "cdn.example.com" {
		t.Errorf("transport = %+v", n.Transport)
	}
}

func TestParseVLessDefaultPort(t *testing.T) {
	n, ok := Parse("vless://uuid@example.com?security=reality&pbk=abc&sid=01")
	if !ok {
		t.Fatal("expected ok parse")
	}

	if n.Port != 443 {
		t.Errorf("port = %d, want default 443", n.Port)
	}

	if n.TLS.Reality.PublicKey != "abc" || n.TLS.Reality.ShortID != "01" {
		t.Errorf("reality = %+v", n.TLS.Reality)
	}
}

func TestParseTrojan(t *testing.T) {
	n, ok := Parse("trojan://secretpass@example.com:443?allowInsecure=1")
	if !ok {
		t.Fatal("expected ok parse")
	}

	if n.Protocol != harvest.ProtocolTrojan || n.Creds.Password != "secretpass" {
		t.Errorf("unexpected node: %+v", n)
	}

	if !n.TLS.AllowInsecure {
		t.Error("expected allowInsecure to be true")
	}
}

func TestParseSSPlainUserinfo(t *testing.T) {
	userinfo := base64.StdEncoding.EncodeToString([]byte("aes-256-gcm:password123"))
	uri := "ss://" + userinfo + "@example.com:8388#my-node"

	n, ok := Parse(uri)
	if !ok {
		t.Fatal("expected ok parse")
	}

	if n.Host != "example.com" || n.Port != 8388 {
		t.Errorf("host/port = %s:%d", n.Host, n.Port)
	}

	if n.Creds.Method != "aes-256-gcm" || n.Creds.Password != "password123" {
		t.Errorf("creds = %+v", n.Creds)
	}
}

func TestParseSSFullyEncoded(t *testing.T) {
	full := base64.StdEncoding.EncodeToString([]byte("aes-256-gcm:password123@example.com:8388"))
	uri := "ss://" + full

	n, ok := Parse(uri)
	if !ok {
		t.Fatal("expected ok parse")
	}

	if n.Host != "example.com" || n.Port != 8388 {
		t.Errorf("host/port = %s:%d", n.Host, n.Port)
	}
}

func TestParseHysteria2(t *testing.T) {
	n, ok := Parse("hysteria2://pass@example.com:4433?sni=sni.example.com&obfs=salamander")
	if !ok {
		t.Fatal("expected ok parse")
	}

	if n.Protocol != harvest.ProtocolHysteria2 || n.Port != 4433 {
		t.Errorf("unexpected node: %+v", n)
	}

	if n.Transport.Type != "udp" || n.Transport.Path != "salamander" {
		t.Errorf("transport = %+v", n.Transport)
	}
}

func TestParseUnrecognizedScheme(t *testing.T) {
	if _, ok := Parse("http://example.com"); ok {
		t.Fatal("expected unrecognized scheme to be rejected")
	}
}

func TestParseEmptyHostRejected(t *testing.T) {
	if _, ok := Parse("vless://uuid@:443"); ok {
		t.Fatal("expected empty host to be rejected")
	}
}
