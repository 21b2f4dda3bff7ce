// Package nodeparser turns a raw proxy-node URI of one of five recognized
// schemes into a structured harvest.Node. Each scheme gets its own parser;
// a parse failure or a missing host/port yields no Node rather than an
// error, matching the pipeline's error-handling design.
package nodeparser

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

// Parse dispatches uri to the parser for its scheme. ok is false for an
// unrecognized scheme, a malformed URI, or one missing host/port.
func Parse(uri string) (harvest.Node, bool) {
	switch {
	case strings.HasPrefix(uri, "vmess://"):
		return parseVMess(uri)
	case strings.HasPrefix(uri, "vless://"):
		return parseVLessTrojan(uri, harvest.ProtocolVLess)
	case strings.HasPrefix(uri, "trojan://"):
		return parseVLessTrojan(uri, harvest.ProtocolTrojan)
	case strings.HasPrefix(uri, "ss://"):
		return parseSS(uri)
	case strings.HasPrefix(uri, "hysteria2://"):
		return parseHysteria2(uri)
	default:
		return harvest.Node{}, false
	}
}

type vmessPayload struct {
	Add           string `json:"add"`
	Port          any    `json:"port"`
	ID            string `json:"id"`
	TLS           string `json:"tls"`
	Security      string `json:"scy"`
	SNI           string `json:"sni"`
	Host          string `json:"host"`
	Path          string `json:"path"`
	Net           string `json:"net"`
	AllowInsecure any    `json:"allowInsecure"`
}

func parseVMess(uri string) (harvest.Node, bool) {
	body := strings.TrimPrefix(uri, "vmess://")

	decoded, err := base64.StdEncoding.DecodeString(padBase64(body))
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(padBase64(body))
		if err != nil {
			return harvest.Node{}, false
		}
	}

	var payload vmessPayload

	if err := json.Unmarshal(decoded, &payload); err != nil {
		return harvest.Node{}, false
	}

	if payload.Add == "" || payload.ID == "" {
		return harvest.Node{}, false
	}

	port := toInt(payload.Port)
	if port == 0 {
		return harvest.Node{}, false
	}

	n := harvest.Node{
		URI:      uri,
		Protocol: harvest.ProtocolVMess,
		Host:     payload.Add,
		Port:     port,
		Creds:    harvest.Credentials{UUID: payload.ID},
		TLS: harvest.TLSInfo{
			SNI:           firstNonEmpty(payload.SNI, payload.Host),
			Security:      payload.Security,
			Enabled:       isTLSEnabled(payload.TLS),
			AllowInsecure: toBool(payload.AllowInsecure),
		},
		Transport: harvest.TransportInfo{
			Type:       defaultString(payload.Net, "tcp"),
			Path:       payload.Path,
			HostHeader: payload.Host,
		},
	}

	if !n.Valid() {
		return harvest.Node{}, false
	}

	return n, true
}

// parseVLessTrojan covers vless and trojan: URL-encoded with userinfo
// carrying uuid (vless) or password (trojan), and a common query-param
// vocabulary for TLS/reality/transport fields.
func parseVLessTrojan(uri string, protocol harvest.Protocol) (harvest.Node, bool) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return harvest.Node{}, false
	}

	host := parsed.Hostname()
	if host == "" {
		return harvest.Node{}, false
	}

	port := 443
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	q := parsed.Query()

	creds := harvest.Credentials{}
	if protocol == harvest.ProtocolVLess {
		creds.UUID = parsed.User.Username()
	} else {
		creds.Password = parsed.User.Username()
	}

	n := harvest.Node{
		URI:      uri,
		Protocol: protocol,
		Host:     host,
		Port:     port,
		Creds:    creds,
		TLS: TLSFromQuery(q),
		Transport: harvest.TransportInfo{
			Type:        defaultString(q.Get("type"), "tcp"),
			Path:        q.Get("path"),
			HostHeader:  q.Get("host"),
			ServiceName: q.Get("serviceName"),
		},
	}

	if !n.Valid() {
		return harvest.Node{}, false
	}

	return n, true
}

// TLSFromQuery extracts the shared TLS/reality query-param vocabulary used
// by vless, trojan and hysteria2 URIs.
func TLSFromQuery(q url.Values) harvest.TLSInfo {
	security := q.Get("security")

	tls := harvest.TLSInfo{
		SNI:           firstNonEmpty(q.Get("sni"), q.Get("peer")),
		Security:      security,
		Enabled:       isTLSEnabled(security),
		AllowInsecure: q.Get("allowInsecure") == "1" || q.Get("allowInsecure") == "true",
		Fingerprint:   q.Get("fp"),
	}

	if alpn := q.Get("alpn"); alpn != "" {
		tls.ALPN = strings.Split(alpn, ",")
	}

	if pbk := q.Get("pbk"); pbk != "" {
		tls.Reality = harvest.Reality{PublicKey: pbk, ShortID: q.Get("sid")}
	}

	return tls
}

// ss recovers (host, port) from either of two layouts:
//   ss://base64(method:password@host:port)[#tag]
//   ss://base64(userinfo)@host:port
// by right-splitting the decoded or plain authority on "@" then ":".
func parseSS(uri string) (harvest.Node, bool) {
	body := strings.TrimPrefix(uri, "ss://")
	if idx := strings.IndexByte(body, '#'); idx >= 0 {
		body = body[:idx]
	}

	var authority string

	var method, password string

	if at := strings.LastIndexByte(body, '@'); at >= 0 {
		userinfo := body[:at]
		authority = body[at+1:]

		if decoded, err := base64.StdEncoding.DecodeString(padBase64(userinfo)); err == nil {
			userinfo = string(decoded)
		} else if decoded, err := base64.URLEncoding.DecodeString(padBase64(userinfo)); err == nil {
			userinfo = string(decoded)
		}

		if colon := strings.IndexByte(userinfo, ':'); colon >= 0 {
			method = userinfo[:colon]
			password = userinfo[colon+1:]
		} else {
			password = userinfo
		}
	} else {
		decoded, err := base64.StdEncoding.DecodeString(padBase64(body))
		if err != nil {
			decoded, err = base64.URLEncoding.DecodeString(padBase64(body))
			if err != nil {
				return harvest.Node{}, false
			}
		}

		full := string(decoded)

		at := strings.LastIndexByte(full, '@')
		if at < 0 {
			return harvest.Node{}, false
		}

		userinfo := full[:at]
		authority = full[at+1:]

		if colon := strings.IndexByte(userinfo, ':'); colon >= 0 {
			method = userinfo[:colon]
			password = userinfo[colon+1:]
		} else {
			password = userinfo
		}
	}

	colon := strings.LastIndexByte(authority, ':')
	if colon < 0 {
		return harvest.Node{}, false
	}

	host := authority[:colon]

	port, err := strconv.Atoi(authority[colon+1:])
	if err != nil {
		return harvest.Node{}, false
	}

	n := harvest.Node{
		URI:      uri,
		Protocol: harvest.ProtocolSS,
		Host:     host,
		Port:     port,
		Creds:    harvest.Credentials{Method: method, Password: password},
	}

	if !n.Valid() {
		return harvest.Node{}, false
	}

	return n, true
}

func parseHysteria2(uri string) (harvest.Node, bool) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return harvest.Node{}, false
	}

	host := parsed.Hostname()
	if host == "" {
		return harvest.Node{}, false
	}

	port := 443
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	q := parsed.Query()

	n := harvest.Node{
		URI:      uri,
		Protocol: harvest.ProtocolHysteria2,
		Host:     host,
		Port:     port,
		Creds:    harvest.Credentials{Password: parsed.User.Username()},
		TLS:      TLSFromQuery(q),
		Transport: harvest.TransportInfo{
			Type: "udp",
			Path: q.Get("obfs"),
		},
	}

	if !n.Valid() {
		return harvest.Node{}, false
	}

	return n, true
}

func padBase64(s string) string {
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}

	return s
}

func isTLSEnabled(security string) bool {
	switch strings.ToLower(security) {
	case "", "0", "false", "none", "plain":
		return false
	default:
		return true
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)

		return n
	default:
		return 0
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || strings.EqualFold(t, "true")
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}
