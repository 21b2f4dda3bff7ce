package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// TypeDuration wraps time.Duration with the usual Get/Set config idiom,
// accepting Go duration strings ("15s", "5m") or bare integer seconds.
type TypeDuration struct {
	Value time.Duration
}

func (t *TypeDuration) Set(value string) error {
	if d, err := time.ParseDuration(value); err == nil {
		t.Value = d
		return nil
	}

	var secs int64
	if _, err := fmt.Sscanf(value, "%d", &secs); err == nil {
		t.Value = time.Duration(secs) * time.Second
		return nil
	}

	return fmt.Errorf("value is not a duration (%s)", value)
}

func (t TypeDuration) Get(defaultValue time.Duration) time.Duration {
	if t.Value == 0 {
		return defaultValue
	}

	return t.Value
}

func (t *TypeDuration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	switch v := raw.(type) {
	case string:
		return t.Set(v)
	case float64:
		t.Value = time.Duration(v) * time.Second
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported duration representation %v", raw)
	}
}

func (t TypeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Value.String())
}

func (t TypeDuration) String() string {
	return t.Value.String()
}
