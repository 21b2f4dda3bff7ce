package config

import (
	"fmt"
	"strconv"
)

// TypeErrorRate is a float in [0, 1], used for the dedup bloom filter's
// target false-positive rate.
type TypeErrorRate struct {
	Value float64
}

func (t *TypeErrorRate) Set(value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("value is not float (%s): %w", value, err)
	}

	if v < 0 || v > 1 {
		return fmt.Errorf("error rate %f out of range [0, 1]", v)
	}

	t.Value = v

	return nil
}

func (t TypeErrorRate) Get(defaultValue float64) float64 {
	if t.Value == 0 {
		return defaultValue
	}

	return t.Value
}

func (t *TypeErrorRate) UnmarshalJSON(data []byte) error {
	return t.Set(string(data))
}

func (t TypeErrorRate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(t.Value, 'f', -1, 64)), nil
}

func (t TypeErrorRate) String() string {
	return strconv.FormatFloat(t.Value, 'f', -1, 64)
}
