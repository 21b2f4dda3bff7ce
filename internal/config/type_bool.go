package config

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeBool is a tri-state boolean config field: unset, true or false.
// Unset lets the owning component fall back to its own default via Get.
type TypeBool struct {
	set   bool
	value bool
}

func (t *TypeBool) Set(value string) error {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("value is not bool (%s): %w", value, err)
	}

	t.value = v
	t.set = true

	return nil
}

func (t TypeBool) Get(defaultValue bool) bool {
	if !t.set {
		return defaultValue
	}

	return t.value
}

func (t *TypeBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}

	return t.Set(s)
}

func (t TypeBool) MarshalJSON() ([]byte, error) {
	if !t.set {
		return []byte("null"), nil
	}

	return []byte(strconv.FormatBool(t.value)), nil
}

func (t TypeBool) String() string {
	if !t.set {
		return ""
	}

	return strconv.FormatBool(t.value)
}
