package config

import "testing"

func TestTypeSourceURLAcceptsPublicURL(t *testing.T) {
	var u TypeSourceURL

	if err := u.Set("https://example.com/sub.txt"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if got := u.Get("fallback"); got != "https://example.com/sub.txt" {
		t.Errorf("Get() = %q", got)
	}
}

func TestTypeSourceURLRejectsSSRFTargets(t *testing.T) {
	tests := []string{
		"http://localhost/sub.txt",
		"http://127.0.0.1/sub.txt",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/sub.txt",
		"http://internal.local/sub.txt",
	}

	for _, in := range tests {
		var u TypeSourceURL
		if err := u.Set(in); err == nil {
			t.Errorf("Set(%q) = nil error, want SSRF rejection", in)
		}
	}
}

func TestTypeSourceURLRejectsBadScheme(t *testing.T) {
	var u TypeSourceURL
	if err := u.Set("ftp://example.com/sub.txt"); err == nil {
		t.Error("Set() accepted a non-http(s) scheme")
	}
}

func TestTypeSourceURLGetDefaultWhenUnset(t *testing.T) {
	var u TypeSourceURL
	if got := u.Get("https://fallback.example.com"); got != "https://fallback.example.com" {
		t.Errorf("Get() = %q, want fallback", got)
	}
}

func TestTypeErrorRateRange(t *testing.T) {
	var e TypeErrorRate

	if err := e.Set("0.01"); err != nil {
		t.Fatalf("Set(0.01): %v", err)
	}

	if got := e.Get(0.5); got != 0.01 {
		t.Errorf("Get() = %v, want 0.01", got)
	}

	if err := e.Set("1.5"); err == nil {
		t.Error("Set(1.5) should have rejected an out-of-range value")
	}
}

func TestTypeErrorRateGetDefaultWhenUnset(t *testing.T) {
	var e TypeErrorRate
	if got := e.Get(0.01); got != 0.01 {
		t.Errorf("Get() = %v, want default 0.01", got)
	}
}

func TestTypeRateLimitParsesAndDefaults(t *testing.T) {
	var r TypeRateLimit

	if err := r.Set("5"); err != nil {
		t.Fatalf("Set(5): %v", err)
	}

	if got := r.Get(1); got != 5 {
		t.Errorf("Get() = %d, want 5", got)
	}

	var unset TypeRateLimit
	if got := unset.Get(2); got != 2 {
		t.Errorf("Get() = %d, want default 2", got)
	}
}

func TestTypeRateLimitRejectsNonUint(t *testing.T) {
	var r TypeRateLimit
	if err := r.Set("-1"); err == nil {
		t.Error("Set(-1) should have been rejected")
	}
}
