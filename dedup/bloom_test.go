package dedup

import "testing"

func TestMergerAddURIDedupes(t *testing.T) {
	m := NewMerger(0, 0)

	if !m.AddURI("vless://a@example.com:443") {
		t.Fatal("expected first add to succeed")
	}

	if m.AddURI("vless://a@example.com:443") {
		t.Fatal("expected duplicate add to be rejected")
	}

	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestMergerSeenKeyIndependentFromURI(t *testing.T) {
	m := NewMerger(0, 0)

	m.AddURI("vless://a@example.com:443")

	if m.SeenKey("vless://example.com:443") {
		t.Fatal("expected key to be unseen before first SeenKey call")
	}

	if !m.SeenKey("vless://example.com:443") {
		t.Fatal("expected key to be seen on second call")
	}
}

func TestMergerURIsReturnsCopy(t *testing.T) {
	m := NewMerger(0, 0)
	m.AddURI("a")
	m.AddURI("b")

	uris := m.URIs()
	uris[0] = "mutated"

	if m.URIs()[0] == "mutated" {
		t.Fatal("expected URIs() to return an independent copy")
	}
}
