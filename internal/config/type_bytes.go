package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/units"
)

// TypeBytes parses human-readable byte quantities ("3MiB", "512KB") or a
// bare integer count of bytes, used for content_limit_mb, blocklist and
// curated-artifact size caps.
type TypeBytes struct {
	Value int64
}

func (t *TypeBytes) Set(value string) error {
	value = strings.TrimSpace(value)

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		t.Value = n
		return nil
	}

	b, err := units.ParseStrictBytes(value)
	if err != nil {
		return fmt.Errorf("value is not a byte size (%s): %w", value, err)
	}

	t.Value = b

	return nil
}

func (t TypeBytes) Get(defaultValue int64) int64 {
	if t.Value == 0 {
		return defaultValue
	}

	return t.Value
}

func (t *TypeBytes) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)

	return t.Set(s)
}

func (t TypeBytes) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.Value, 10)), nil
}

func (t TypeBytes) String() string {
	return strconv.FormatInt(t.Value, 10)
}
