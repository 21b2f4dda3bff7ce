package stats

import statsd "github.com/smira/go-statsd"

// tag is a small helper turning a key/value pair into a statsd.Tag, matching
// the teacher's streamInfo.T helper.
func tag(key, value string) statsd.Tag {
	return statsd.StringTag(key, value)
}
