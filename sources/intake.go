// Package sources turns the configured source lists (Telegram channel
// identifiers, fuzzy web pages, direct subscription URLs) into the
// immutable harvest.Source values the fetcher consumes.
package sources

import (
	"strings"

	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
)

// reservedTelegramSegments can never be a channel name: they're Telegram's
// own reserved path prefixes, and treating them as a channel would crawl a
// Telegram feature page instead of a channel's public view.
var reservedTelegramSegments = map[string]bool{
	"s":           true,
	"share":       true,
	"joinchat":    true,
	"addstickers": true,
	"iv":          true,
}

// NormalizeTelegram rewrites a Telegram channel reference in any of its
// accepted forms ("t.me/foo", "telegram.me/foo", "@foo", "foo",
// "https://t.me/s/foo/") to its canonical public-view URL
// "https://t.me/s/foo". It returns ok=false for a reserved segment.
func NormalizeTelegram(ref string) (canonical string, ok bool) {
	name := strings.TrimSpace(ref)
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "t.me/")
	name = strings.TrimPrefix(name, "telegram.me/")
	name = strings.TrimPrefix(name, "s/")
	name = strings.TrimPrefix(name, "@")
	name = strings.Trim(name, "/")

	if name == "" {
		return "", false
	}

	// A bare reference may still carry trailing path segments picked up
	// above (e.g. "qux/" already trimmed); take only the first segment.
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		name = name[:idx]
	}

	if reservedTelegramSegments[strings.ToLower(name)] {
		return "", false
	}

	return "https://t.me/s/" + name, true
}

// Load builds the full list of Source values from configuration: Telegram
// channels (normalized), fuzzy web pages, and direct subscription URLs.
// Subconverter backends are not a crawl target and are handled separately
// by whatever consumes the curated output (out of scope here).
func Load(cfg config.Sources) []harvest.Source {
	var out []harvest.Source

	for _, ref := range cfg.TGChannel {
		canonical, ok := NormalizeTelegram(ref)
		if !ok {
			continue
		}

		out = append(out, harvest.Source{Kind: harvest.SourceTelegram, CanonicalURL: canonical})
	}

	for _, u := range cfg.WebPages {
		url := u.Get("")
		if url == "" {
			continue
		}

		out = append(out, harvest.Source{Kind: harvest.SourceWebFuzz, CanonicalURL: url})
	}

	for _, u := range cfg.Subscribe {
		url := u.Get("")
		if url == "" {
			continue
		}

		out = append(out, harvest.Source{Kind: harvest.SourceSubscription, CanonicalURL: url})
	}

	return out
}
