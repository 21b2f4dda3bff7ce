package sources

import (
	"testing"

	"github.com/nullbyte-labs/proxyharvest/harvest"
	"github.com/nullbyte-labs/proxyharvest/internal/config"
)

func TestNormalizeTelegram(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"@foochannel", "https://t.me/s/foochannel", true},
		{"foochannel", "https://t.me/s/foochannel", true},
		{"https://t.me/s/foochannel/", "https://t.me/s/foochannel", true},
		{"t.me/foochannel", "https://t.me/s/foochannel", true},
		{"telegram.me/foochannel", "https://t.me/s/foochannel", true},
		{"s", "", false},
		{"joinchat", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := NormalizeTelegram(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizeTelegram(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLoadBuildsAllSourceKinds(t *testing.T) {
	var webPage, subURL config.TypeSourceURL

	if err := webPage.Set("https://example.com/forum"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := subURL.Set("https://example.com/sub.txt"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg := config.Sources{
		TGChannel: []string{"@one", "joinchat"},
		WebPages:  []config.TypeSourceURL{webPage},
		Subscribe: []config.TypeSourceURL{subURL},
	}

	out := Load(cfg)

	var telegram, web, subCount int

	for _, s := range out {
		switch s.Kind {
		case harvest.SourceTelegram:
			telegram++
		case harvest.SourceWebFuzz:
			web++
		case harvest.SourceSubscription:
			subCount++
		}
	}

	if telegram != 1 {
		t.Errorf("telegram sources = %d, want 1 (reserved segment dropped)", telegram)
	}

	if web != 1 {
		t.Errorf("web sources = %d, want 1", web)
	}

	if subCount != 1 {
		t.Errorf("subscription sources = %d, want 1", subCount)
	}
}
