// Package renamer rewrites each surviving node's display label to encode
// its rank, protocol and country, and emits the resulting URIs to the
// curated subscription file.
package renamer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/nullbyte-labs/proxyharvest/dedup"
	"github.com/nullbyte-labs/proxyharvest/harvest"
)

const curatedSizeCapBytes = 5 * 1024 * 1024

// Rename builds the final labeled URI for node at 1-based rank i.
func Rename(node *harvest.Node, rank int) string {
	label := buildLabel(node, rank)

	if node.Protocol == harvest.ProtocolVMess {
		if relabeled, ok := relabelVMess(node.URI, label); ok {
			return relabeled
		}
	}

	return appendFragment(node.URI, label)
}

func buildLabel(node *harvest.Node, rank int) string {
	var sb strings.Builder

	if flag := flagEmoji(node.Country); flag != "" {
		sb.WriteString(flag)
		sb.WriteByte(' ')
	}

	if node.Country != "" {
		sb.WriteString(node.Country)
		sb.WriteByte(' ')
	}

	sb.WriteString(node.Protocol.String())
	sb.WriteByte(' ')
	fmt.Fprintf(&sb, "%d", rank)

	if node.CNOK {
		sb.WriteString(" [CN-OK]")
	}

	return sb.String()
}

// flagEmoji converts a two-letter ISO country code into its regional-
// indicator flag emoji; any other input yields no flag.
func flagEmoji(countryCode string) string {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if len(code) != 2 {
		return ""
	}

	var sb strings.Builder

	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}

		sb.WriteRune(rune(0x1F1E6 + (r - 'A')))
	}

	return sb.String()
}

type vmessPayload map[string]any

func relabelVMess(uri, label string) (string, bool) {
	body := strings.TrimPrefix(uri, "vmess://")

	padded := body
	if rem := len(padded) % 4; rem != 0 {
		padded += strings.Repeat("=", 4-rem)
	}

	decoded, err := base64.StdEncoding.DecodeString(padded)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(padded)
		if err != nil {
			return "", false
		}
	}

	var payload vmessPayload

	if err := json.Unmarshal(decoded, &payload); err != nil {
		return "", false
	}

	payload["ps"] = label

	reencoded, err := json.Marshal(payload)
	if err != nil {
		return "", false
	}

	return "vmess://" + base64.StdEncoding.EncodeToString(reencoded), true
}

func appendFragment(uri, label string) string {
	if idx := strings.IndexByte(uri, '#'); idx >= 0 {
		uri = uri[:idx]
	}

	return uri + "#" + url.QueryEscape(label)
}

// Emit writes every node's renamed URI, one per line, capping total output
// at curatedSizeCapBytes via reservoir down-sampling (≈95% retention) when
// the full set would exceed it.
func Emit(nodes []*harvest.Node) []string {
	lines := make([]string, 0, len(nodes))

	for i, n := range nodes {
		lines = append(lines, Rename(n, i+1))
	}

	total := 0
	for _, l := range lines {
		total += len(l) + 1
	}

	if total <= curatedSizeCapBytes {
		return lines
	}

	avgLineLen := total / len(lines)
	keep := (curatedSizeCapBytes * 95 / 100) / avgLineLen

	return dedup.DownsampleStrings(lines, keep)
}
