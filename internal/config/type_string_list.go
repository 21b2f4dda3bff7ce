package config

import "strings"

// TypeStringList is a case-insensitive set of strings, used for allowed/
// blocked country codes, preferred protocols, ASN/org/ISP blacklist
// keywords, suspicious TLDs and spam keywords.
type TypeStringList struct {
	Values []string
}

func (t *TypeStringList) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		return nil
	}

	s = strings.Trim(s, "[]")

	var values []string

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"`)

		if part != "" {
			values = append(values, part)
		}
	}

	t.Values = values

	return nil
}

func (t TypeStringList) MarshalJSON() ([]byte, error) {
	var b strings.Builder

	b.WriteByte('[')

	for i, v := range t.Values {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteByte('"')
		b.WriteString(v)
		b.WriteByte('"')
	}

	b.WriteByte(']')

	return []byte(b.String()), nil
}

// Contains performs a case-insensitive membership check.
func (t TypeStringList) Contains(needle string) bool {
	needle = strings.ToLower(needle)

	for _, v := range t.Values {
		if strings.ToLower(v) == needle {
			return true
		}
	}

	return false
}

// ContainsAny reports whether haystack contains any of the configured
// substrings, case-insensitively (used for org/ISP/spam keyword checks).
func (t TypeStringList) ContainsAny(haystack string) bool {
	haystack = strings.ToLower(haystack)

	for _, v := range t.Values {
		if v == "" {
			continue
		}

		if strings.Contains(haystack, strings.ToLower(v)) {
			return true
		}
	}

	return false
}

// HasSuffixAny reports whether haystack ends with any configured suffix,
// case-insensitively (used for the suspicious-TLD check).
func (t TypeStringList) HasSuffixAny(haystack string) bool {
	haystack = strings.ToLower(haystack)

	for _, v := range t.Values {
		if v == "" {
			continue
		}

		if strings.HasSuffix(haystack, strings.ToLower(v)) {
			return true
		}
	}

	return false
}

func (t TypeStringList) Empty() bool {
	return len(t.Values) == 0
}
