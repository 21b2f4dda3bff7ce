package dedup

import "testing"

func TestDownsampleStringsUnderCap(t *testing.T) {
	items := []string{"a", "b", "c"}

	got := DownsampleStrings(items, 10)

	if len(got) != 3 {
		t.Errorf("len = %d, want 3 (unchanged)", len(got))
	}
}

func TestDownsampleStringsOverCap(t *testing.T) {
	items := make([]string, 100)
	for i := range items {
		items[i] = string(rune('a' + i%26))
	}

	got := DownsampleStrings(items, 10)

	if len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
}

func TestShuffleKeepsAllElements(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	shuffled := Shuffle(items)

	if len(shuffled) != len(items) {
		t.Fatalf("len = %d, want %d", len(shuffled), len(items))
	}

	counts := make(map[string]int)
	for _, s := range shuffled {
		counts[s]++
	}

	for _, s := range items {
		if counts[s] != 1 {
			t.Errorf("element %q appears %d times, want 1", s, counts[s])
		}
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	items := []string{"a", "b", "c"}
	original := append([]string(nil), items...)

	Shuffle(items)

	for i := range items {
		if items[i] != original[i] {
			t.Fatal("expected Shuffle to leave its input slice untouched")
		}
	}
}
