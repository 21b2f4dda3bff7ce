package scorer

import (
	"testing"

	"golang.org/x/time/rate"

	"github.com/nullbyte-labs/proxyharvest/internal/config"
	"github.com/nullbyte-labs/proxyharvest/ratelimit"
)

func TestProviderIntervalUsesConfiguredRate(t *testing.T) {
	var risk config.IPRiskCheck

	if err := risk.RateLimitPerSecond.Set("4"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if got := providerInterval(risk, ipapiInterval); got != rate.Limit(4) {
		t.Errorf("providerInterval() = %v, want 4", got)
	}
}

func TestProviderIntervalFallsBackToDefault(t *testing.T) {
	var risk config.IPRiskCheck

	want := ratelimit.Every(ipapiInterval)
	if got := providerInterval(risk, ipapiInterval); got != want {
		t.Errorf("providerInterval() = %v, want default %v", got, want)
	}
}
