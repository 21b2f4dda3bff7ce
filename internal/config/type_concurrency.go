package config

import (
	"fmt"
	"strconv"
)

// TypeConcurrency is a positive worker/fan-out count, validated against
// [1, 128] the same way the teacher bounds its own concurrency knob.
type TypeConcurrency struct {
	Value int
}

const (
	minConcurrency = 1
	maxConcurrency = 128
)

func (t *TypeConcurrency) Set(value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("value is not int (%s): %w", value, err)
	}

	if v < minConcurrency || v > maxConcurrency {
		return fmt.Errorf("concurrency %d out of range [%d, %d]", v, minConcurrency, maxConcurrency)
	}

	t.Value = v

	return nil
}

func (t TypeConcurrency) Get(defaultValue int) int {
	if t.Value == 0 {
		return defaultValue
	}

	return t.Value
}

func (t *TypeConcurrency) UnmarshalJSON(data []byte) error {
	return t.Set(string(data))
}

func (t TypeConcurrency) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(t.Value)), nil
}

func (t TypeConcurrency) String() string {
	return strconv.Itoa(t.Value)
}

// Validate enforces the [1, 128] invariant when the value has been set,
// matching the spec's "config validation raises fatally" error design.
func (t TypeConcurrency) Validate(field string) error {
	if t.Value == 0 {
		return nil
	}

	if t.Value < minConcurrency || t.Value > maxConcurrency {
		return fmt.Errorf("%s must be in [%d, %d], got %d", field, minConcurrency, maxConcurrency, t.Value)
	}

	return nil
}
