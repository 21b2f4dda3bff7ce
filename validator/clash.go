package validator

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// parseClashProxies implements the narrow YAML subset parser the design
// notes call for: a top-level "proxies:" sequence of mappings, each either
// block-style (key: value lines indented under a "- " item) or flow-style
// ("- {key: value, key: value}"). Nested mappings (ws-opts, reality-opts)
// are not supported — narrow subset, not a YAML library — so fields living
// under them are simply absent from the built URI.
//
// Each recognized mapping (type: vmess/vless/trojan/ss/hysteria2 or ss's
// common alias shadowsocks) is turned into the scheme URI nodeparser.Parse
// already knows how to read, so a Clash subscription's proxies flow
// through the same downstream path as any other sourced node.
func parseClashProxies(body string) []string {
	lines := strings.Split(body, "\n")

	start := -1

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimRight(line, "\r"), "proxies:") {
			start = i + 1

			break
		}
	}

	if start < 0 {
		return nil
	}

	var uris []string

	var current map[string]string

	flush := func() {
		if current == nil {
			return
		}

		if uri, ok := buildClashURI(current); ok {
			uris = append(uris, uri)
		}

		current = nil
	}

	itemIndent := -1

	for i := start; i < len(lines); i++ {
		raw := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}

		indent := len(raw) - len(strings.TrimLeft(raw, " "))
		trimmed := strings.TrimSpace(raw)

		if itemIndent == -1 {
			if !strings.HasPrefix(trimmed, "-") {
				// Nothing under proxies: is a list item — not a sequence,
				// so there's nothing this parser covers.
				break
			}

			itemIndent = indent
		} else if indent < itemIndent {
			// Dedent below the sequence's own items ends proxies:.
			break
		}

		if indent == itemIndent && strings.HasPrefix(trimmed, "-") {
			flush()

			current = make(map[string]string)

			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
			if strings.HasPrefix(rest, "{") {
				parseFlowMapping(rest, current)
				flush()

				continue
			}

			if rest != "" {
				parseMappingLine(rest, current)
			}

			continue
		}

		if current != nil {
			parseMappingLine(trimmed, current)
		}
	}

	flush()

	return uris
}

// parseMappingLine splits one "key: value" block-style line into out,
// unquoting the value. Lines without a colon (continuation of a folded
// scalar, a nested list under an unsupported key) are silently ignored.
func parseMappingLine(line string, out map[string]string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return
	}

	key := strings.TrimSpace(line[:idx])
	if key == "" {
		return
	}

	out[key] = unquoteYAML(line[idx+1:])
}

// parseFlowMapping splits a "{key: value, key: value}" flow mapping into
// out, respecting quoted values that may themselves contain commas.
func parseFlowMapping(s string, out map[string]string) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")

	for _, part := range splitRespectingQuotes(s, ',') {
		parseMappingLine(part, out)
	}
}

func splitRespectingQuotes(s string, sep byte) []string {
	var parts []string

	var cur strings.Builder

	var inQuote byte

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case inQuote != 0:
			cur.WriteByte(c)

			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c

			cur.WriteByte(c)
		case c == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}

	return parts
}

func unquoteYAML(v string) string {
	v = strings.TrimSpace(v)

	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}

	return v
}

// buildClashURI dispatches a parsed proxy mapping to its scheme builder by
// its "type" field.
func buildClashURI(f map[string]string) (string, bool) {
	port, err := strconv.Atoi(f["port"])
	if err != nil || f["server"] == "" || port <= 0 || port > 65535 {
		return "", false
	}

	switch strings.ToLower(f["type"]) {
	case "vmess":
		return buildClashVMess(f, port)
	case "vless":
		return buildClashVLess(f, port)
	case "trojan":
		return buildClashTrojan(f, port)
	case "ss", "shadowsocks":
		return buildClashSS(f, port)
	case "hysteria2", "hy2":
		return buildClashHysteria2(f, port)
	default:
		return "", false
	}
}

func buildClashVMess(f map[string]string, port int) (string, bool) {
	if f["uuid"] == "" {
		return "", false
	}

	tls := ""
	if strings.EqualFold(f["tls"], "true") {
		tls = "tls"
	}

	payload := fmt.Sprintf(
		`{"add":%q,"port":%d,"id":%q,"aid":%q,"scy":%q,"net":%q,"tls":%q,"sni":%q,"host":%q,"path":%q}`,
		f["server"], port, f["uuid"], defaultString(f["alterId"], "0"),
		defaultString(f["cipher"], "auto"), defaultString(f["network"], "tcp"),
		tls, firstNonEmptyClash(f["servername"], f["sni"]), f["ws-opts.headers.Host"], f["ws-opts.path"],
	)

	return "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload)), true
}

func buildClashVLess(f map[string]string, port int) (string, bool) {
	if f["uuid"] == "" {
		return "", false
	}

	security := "none"
	if strings.EqualFold(f["tls"], "true") {
		security = "tls"
	}

	q := url.Values{}
	q.Set("type", defaultString(f["network"], "tcp"))
	q.Set("security", security)

	if sni := firstNonEmptyClash(f["servername"], f["sni"]); sni != "" {
		q.Set("sni", sni)
	}

	if f["flow"] != "" {
		q.Set("flow", f["flow"])
	}

	return fmt.Sprintf("vless://%s@%s:%d?%s", url.QueryEscape(f["uuid"]), f["server"], port, q.Encode()), true
}

func buildClashTrojan(f map[string]string, port int) (string, bool) {
	if f["password"] == "" {
		return "", false
	}

	q := url.Values{}
	if f["network"] != "" {
		q.Set("type", f["network"])
	}

	if sni := firstNonEmptyClash(f["sni"], f["servername"]); sni != "" {
		q.Set("sni", sni)
	}

	return fmt.Sprintf("trojan://%s@%s:%d?%s", url.QueryEscape(f["password"]), f["server"], port, q.Encode()), true
}

func buildClashSS(f map[string]string, port int) (string, bool) {
	if f["password"] == "" {
		return "", false
	}

	userinfo := base64.StdEncoding.EncodeToString([]byte(defaultString(f["cipher"], "aes-256-gcm") + ":" + f["password"]))

	return fmt.Sprintf("ss://%s@%s:%d", userinfo, f["server"], port), true
}

func buildClashHysteria2(f map[string]string, port int) (string, bool) {
	if f["password"] == "" {
		return "", false
	}

	q := url.Values{}
	if f["sni"] != "" {
		q.Set("sni", f["sni"])
	}

	if f["obfs"] != "" {
		q.Set("obfs", f["obfs"])
	}

	return fmt.Sprintf("hysteria2://%s@%s:%d?%s", url.QueryEscape(f["password"]), f["server"], port, q.Encode()), true
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}

func firstNonEmptyClash(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
